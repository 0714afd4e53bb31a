package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"delta_stream/internal/domain"
	"delta_stream/internal/infra"
)

type commandBody struct {
	UserID   string   `json:"userId"`
	Category string   `json:"category"`
	Currency string   `json:"currency"`
	Symbols  []string `json:"symbols"`
}

func decodeBody(w http.ResponseWriter, r *http.Request) (commandBody, bool) {
	var body commandBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return body, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    s.cfg.App.Name,
		"version": s.cfg.App.Version,
		"status":  "running",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	database := "connected"
	if s.pinger == nil {
		database = "not configured"
	} else if err := s.pinger.Ping(r.Context()); err != nil {
		database = "disconnected"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"server":   "running",
		"time":     time.Now().UTC().Format(time.RFC3339),
		"database": database,
		"connections": map[string]int{
			"user":          s.hub.Users.Len(),
			"position":      s.hub.Positions.Len(),
			"orderTracking": s.hub.OrderTracking.Len(),
		},
		"metrics": infra.GlobalMetrics.Snapshot(),
	})
}

// handleSubscribe registers explicitly listed symbols under a user category.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	if body.UserID == "" {
		http.Error(w, "Missing userId", http.StatusBadRequest)
		return
	}
	if body.Category == "" {
		http.Error(w, "Missing category", http.StatusBadRequest)
		return
	}
	if len(body.Symbols) == 0 {
		http.Error(w, "Missing symbols", http.StatusBadRequest)
		return
	}

	count := s.registry.Subscribe(body.UserID, body.Category, body.Symbols)
	fmt.Fprintf(w, "Subscribed to %d symbols for user %s", count, body.UserID)
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	s.unsubscribe(w, r, s.hub.Users)
}

func (s *Server) handleExternalUnsubscribe(w http.ResponseWriter, r *http.Request) {
	s.unsubscribe(w, r, s.hub.Positions)
}

// unsubscribe drops a whole category and notifies the user's socket once per
// removed symbol. An unknown user or category reports nothing to do.
func (s *Server) unsubscribe(w http.ResponseWriter, r *http.Request, conns domain.SocketRegistry) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	if body.UserID == "" {
		http.Error(w, "Missing userId", http.StatusBadRequest)
		return
	}
	if body.Category == "" {
		http.Error(w, "Missing category", http.StatusBadRequest)
		return
	}

	removed, found := s.registry.Unsubscribe(body.UserID, body.Category)
	if !found {
		fmt.Fprintf(w, "No subscriptions to remove for user %s", body.UserID)
		return
	}

	if sock, ok := conns.Get(body.UserID); ok && sock.Writable() {
		for _, symbol := range removed {
			_ = sock.SendJSON(domain.Unsubscribed{
				Type:     domain.MsgUnsubscribed,
				Symbol:   symbol,
				Category: body.Category,
			})
		}
	}
	fmt.Fprintf(w, "Unsubscribed %d symbols from category %q for user %s",
		len(removed), body.Category, body.UserID)
}

func (s *Server) handleCancelWs(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	if body.UserID == "" {
		http.Error(w, "Missing userId", http.StatusBadRequest)
		return
	}
	s.hub.Users.CloseUser(body.UserID)
	fmt.Fprintf(w, "WebSocket closed for user %s", body.UserID)
}

func (s *Server) handleCancelPositionWs(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	if body.UserID == "" {
		http.Error(w, "Missing userId", http.StatusBadRequest)
		return
	}
	s.hub.Positions.CloseUser(body.UserID)
	fmt.Fprintf(w, "Position WebSocket closed for user %s", body.UserID)
}

// handleExternalSubscribe derives the symbol set from the user's open
// positions, registers it, and triggers a full position broadcast.
func (s *Server) handleExternalSubscribe(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	if body.UserID == "" {
		http.Error(w, "Missing userId", http.StatusBadRequest)
		return
	}
	if body.Category == "" {
		http.Error(w, "Missing category", http.StatusBadRequest)
		return
	}

	all, err := s.positions.QueryByUser(r.Context(), body.UserID)
	if err != nil {
		infra.GlobalMetrics.RecordStoreError()
		slog.Error("failed to fetch user positions", slog.String("user", body.UserID), slog.Any("error", err))
		http.Error(w, "Failed to fetch positions", http.StatusBadGateway)
		return
	}

	symbols := openSymbols(all)
	if len(symbols) == 0 {
		http.Error(w, "No active asset symbols found", http.StatusBadRequest)
		return
	}

	count := s.registry.Subscribe(body.UserID, body.Category, symbols)
	s.valuator.Broadcast(r.Context(), body.UserID, body.Category)
	fmt.Fprintf(w, "Subscribed to %d symbols for user %s", count, body.UserID)
}

// handleTriggerPNLUpdate re-registers open-position symbols and rebroadcasts
// the valuation on demand.
func (s *Server) handleTriggerPNLUpdate(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	if body.UserID == "" {
		http.Error(w, "Missing userId", http.StatusBadRequest)
		return
	}

	all, err := s.positions.QueryByUser(r.Context(), body.UserID)
	if err != nil {
		infra.GlobalMetrics.RecordStoreError()
		slog.Error("failed to fetch positions for PNL update", slog.String("user", body.UserID), slog.Any("error", err))
		http.Error(w, "Failed to fetch positions", http.StatusBadGateway)
		return
	}
	if len(all) == 0 {
		http.Error(w, "No data found.", http.StatusBadRequest)
		return
	}

	if symbols := openSymbols(all); len(symbols) > 0 && body.Category != "" {
		s.registry.Subscribe(body.UserID, body.Category, symbols)
	}

	s.valuator.Broadcast(r.Context(), body.UserID, body.Category)
	fmt.Fprint(w, "Triggered PnL Update Successfully")
}

func openSymbols(positions []domain.Position) []string {
	var symbols []string
	for _, p := range positions {
		if p.Status == domain.PositionOpen && p.AssetSymbol != "" {
			symbols = append(symbols, p.AssetSymbol)
		}
	}
	return symbols
}

func (s *Server) handleTrackSubscribe(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	if len(body.Symbols) == 0 {
		http.Error(w, "Missing symbols", http.StatusBadRequest)
		return
	}
	count := s.tracker.Track(body.Symbols)
	fmt.Fprintf(w, "Tracking %d symbols", count)
}

func (s *Server) handleTrackUnsubscribe(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	if len(body.Symbols) == 0 {
		http.Error(w, "Missing symbols", http.StatusBadRequest)
		return
	}
	count := s.tracker.Untrack(body.Symbols)
	fmt.Fprintf(w, "Stopped tracking %d symbols", count)
}

func (s *Server) handleCancelTrackingWs(w http.ResponseWriter, r *http.Request) {
	s.hub.OrderTracking.CloseAll()
	fmt.Fprint(w, "Order tracking WebSockets closed")
}

func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	if body.Currency == "" || body.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "currency and userId are required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"currency": body.Currency,
		"dates":    s.options.Dates(body.Currency),
	})
}

// handleSymbolMarkPrices resolves a batch of symbols to mark prices.
// Futures resolve through the price store, options through the chain store
// with the best-ask fallback chain. Unresolvable symbols are omitted.
func (s *Server) handleSymbolMarkPrices(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	if len(body.Symbols) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "symbols array is required"})
		return
	}

	result := make(map[string]map[string]float64)
	for _, symbol := range body.Symbols {
		switch {
		case domain.IsFuturesSymbol(symbol):
			if data, ok := s.prices.Get(symbol); ok {
				if price, ok := data.MarkPrice(); ok {
					result[symbol] = map[string]float64{"mark_price": price.InexactFloat64()}
				}
			}
		case domain.IsOptionSymbol(symbol):
			currency, date := domain.SplitCurrencyAndDate(symbol)
			if data, ok := s.options.Quote(currency, date, symbol); ok {
				if price, ok := data.BestAskPrice(); ok {
					result[symbol] = map[string]float64{"mark_price": price.InexactFloat64()}
				}
			}
		}
	}
	writeJSON(w, http.StatusOK, result)
}
