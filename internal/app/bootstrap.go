package app

import (
	"log/slog"
	"time"

	"delta_stream/internal/engine"
	"delta_stream/internal/httpapi"
	"delta_stream/internal/infra"
	"delta_stream/internal/infra/hub"
	"delta_stream/internal/infra/storage"
	"delta_stream/internal/service"
)

const inboxSize = 1024

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config      *infra.Config
	Storage     *storage.Store
	Hub         *hub.Hub
	Registry    *service.Registry
	Prices      *service.PriceStore
	Options     *service.OptionChainStore
	Valuator    *service.Valuator
	Tracker     *service.OrderTracker
	Broadcaster *engine.Broadcaster
	Server      *httpapi.Server
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads config, opens storage, and wires every service into the
// broadcaster and HTTP surface.
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping Delta Stream...")

	// 1. Load Config
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStore(cfg.Storage.Path)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized", slog.String("path", cfg.Storage.Path))

	// 4. Connection hub with metric gauges
	b.Hub = hub.NewHub(
		infra.GlobalMetrics.AddUserConnections,
		infra.GlobalMetrics.AddPositionConnections,
		infra.GlobalMetrics.AddTrackingConnections,
	)

	// 5. Core services
	b.Registry = service.NewRegistry()
	b.Prices = service.NewPriceStore()
	b.Options = service.NewOptionChainStore()
	b.Tracker = service.NewOrderTracker(b.Hub.OrderTracking)

	anchor, err := rolloverAnchor(cfg)
	if err != nil {
		return err
	}
	b.Valuator = service.NewValuator(
		b.Prices,
		b.Options,
		b.Registry,
		b.Hub.Positions,
		b.Storage,
		b.Storage,
		service.NewRealizedLedger(),
		anchor,
	)

	fanout := service.NewFanout(b.Registry, b.Hub.Users, cfg.Dashboard.Symbols)
	b.Broadcaster = engine.NewBroadcaster(inboxSize, b.Prices, fanout, b.Valuator, b.Tracker)

	// 6. HTTP surface
	b.Server = httpapi.NewServer(
		cfg,
		b.Hub,
		b.Registry,
		b.Valuator,
		b.Tracker,
		b.Prices,
		b.Options,
		b.Storage,
		b.Storage,
	)

	return nil
}

func rolloverAnchor(cfg *infra.Config) (service.Anchor, error) {
	hour, minute, err := infra.ParseClock(cfg.PNL.RolloverTime)
	if err != nil {
		return service.Anchor{}, err
	}
	loc, err := time.LoadLocation(cfg.PNL.RolloverZone)
	if err != nil {
		return service.Anchor{}, err
	}
	return service.Anchor{Hour: hour, Minute: minute, Loc: loc}, nil
}
