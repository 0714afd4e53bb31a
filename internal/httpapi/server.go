package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"delta_stream/internal/domain"
	"delta_stream/internal/infra"
	"delta_stream/internal/infra/hub"
	"delta_stream/internal/service"

	"github.com/gorilla/websocket"
)

// Pinger reports whether the backing store is reachable (used by /status).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the command endpoints and the websocket upgrade point.
type Server struct {
	cfg       *infra.Config
	hub       *hub.Hub
	registry  *service.Registry
	valuator  *service.Valuator
	tracker   *service.OrderTracker
	prices    *service.PriceStore
	options   *service.OptionChainStore
	positions domain.PositionSource
	pinger    Pinger

	upgrader websocket.Upgrader
}

// NewServer wires the HTTP surface.
func NewServer(
	cfg *infra.Config,
	h *hub.Hub,
	registry *service.Registry,
	valuator *service.Valuator,
	tracker *service.OrderTracker,
	prices *service.PriceStore,
	options *service.OptionChainStore,
	positions domain.PositionSource,
	pinger Pinger,
) *Server {
	return &Server{
		cfg:       cfg,
		hub:       h,
		registry:  registry,
		valuator:  valuator,
		tracker:   tracker,
		prices:    prices,
		options:   options,
		positions: positions,
		pinger:    pinger,
		upgrader: websocket.Upgrader{
			// Browser clients connect from app origins we do not control.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleInfo)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /ws", s.handleUpgrade)

	mux.HandleFunc("POST /subscribe", s.handleSubscribe)
	mux.HandleFunc("POST /unsubscribe", s.handleUnsubscribe)
	mux.HandleFunc("POST /cancel-ws", s.handleCancelWs)

	mux.HandleFunc("POST /external-subscribe", s.handleExternalSubscribe)
	mux.HandleFunc("POST /external-unsubscribe", s.handleExternalUnsubscribe)
	mux.HandleFunc("POST /cancel-position-ws", s.handleCancelPositionWs)
	mux.HandleFunc("POST /triggerPNLUpdate", s.handleTriggerPNLUpdate)

	mux.HandleFunc("POST /get-subscribe", s.handleTrackSubscribe)
	mux.HandleFunc("POST /get-unsubscribe", s.handleTrackUnsubscribe)
	mux.HandleFunc("POST /cancel-ordertracking-ws", s.handleCancelTrackingWs)

	mux.HandleFunc("POST /dates", s.handleDates)
	mux.HandleFunc("POST /symbol-mark-prices", s.handleSymbolMarkPrices)

	return mux
}

// handleUpgrade turns a handshake into a registered socket. The category
// query parameter selects the registry: "position" and user categories are
// keyed by userId, "ordertracking" sockets are anonymous.
func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	category := r.URL.Query().Get("category")

	if category == "" {
		http.Error(w, "Missing category", http.StatusBadRequest)
		return
	}
	if category != "ordertracking" && userID == "" {
		http.Error(w, "Missing userId", http.StatusBadRequest)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	switch category {
	case "position":
		s.hub.Positions.Attach(userID, ws)
	case "ordertracking":
		s.hub.OrderTracking.Attach(ws)
	default:
		s.hub.Users.Attach(userID, ws)
	}
}
