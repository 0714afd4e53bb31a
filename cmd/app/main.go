package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"delta_stream/internal/app"
	"delta_stream/internal/infra/delta"
	"delta_stream/internal/infra/deribit"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Broadcast loop (The Hotpath Loop)
	go bootstrap.Broadcaster.Run(ctx)
	slog.InfoContext(ctx, "✅ Broadcaster (Hotpath) started")

	cfg := bootstrap.Config

	// 5. Futures feed
	if cfg.Feeds.Delta.Enabled {
		feed := delta.NewFeed(cfg.Feeds.Delta.WSURL, bootstrap.Broadcaster.Inbox())
		if err := feed.Connect(ctx); err != nil {
			slog.Error("Failed to connect Delta feed", slog.Any("error", err))
		}
		defer feed.Disconnect()
		slog.InfoContext(ctx, "✅ Delta feed started")
	}

	// 6. Option chain feeds, one per currency
	if cfg.Feeds.Deribit.Enabled {
		for _, currency := range cfg.Feeds.Deribit.Currencies {
			symbols, err := deribit.FetchInstruments(ctx, cfg.Feeds.Deribit.RestURL, currency)
			if err != nil {
				slog.Error("Failed to list option instruments",
					slog.String("currency", currency), slog.Any("error", err))
				continue
			}
			feed := deribit.NewChainFeed(currency, cfg.Feeds.Deribit.WSURL, symbols, bootstrap.Options)
			if err := feed.Connect(ctx); err != nil {
				slog.Error("Failed to connect option chain feed",
					slog.String("currency", currency), slog.Any("error", err))
				continue
			}
			defer feed.Disconnect()
			slog.InfoContext(ctx, "✅ Option chain feed started",
				slog.String("currency", currency), slog.Int("symbols", len(symbols)))
		}
	}

	// 7. HTTP server
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: bootstrap.Server.Handler(),
	}
	go func() {
		slog.Info("✅ HTTP server listening", slog.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", slog.Any("error", err))
			stop()
		}
	}()

	slog.InfoContext(ctx, "✨ Delta Stream fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown incomplete", slog.Any("error", err))
	}
}
