package engine

import (
	"context"
	"log/slog"

	"delta_stream/internal/domain"
	"delta_stream/internal/event"
	"delta_stream/internal/infra"
	"delta_stream/internal/service"
)

// Broadcaster is the single-goroutine broadcast hotpath. Feeds publish raw
// ticks into the inbox; the loop stores each snapshot and then runs every
// delivery decision for that tick to completion before reading the next one.
// Registry mutations from the HTTP side interleave only between ticks, which
// preserves "a subscribe is visible to all subsequent ticks".
type Broadcaster struct {
	inbox    chan *event.PriceTick
	prices   *service.PriceStore
	fanout   *service.Fanout
	valuator *service.Valuator
	tracker  *service.OrderTracker
}

// NewBroadcaster wires the hotpath and registers itself as the price store's
// on-store signal.
func NewBroadcaster(
	inboxSize int,
	prices *service.PriceStore,
	fanout *service.Fanout,
	valuator *service.Valuator,
	tracker *service.OrderTracker,
) *Broadcaster {
	b := &Broadcaster{
		inbox:    make(chan *event.PriceTick, inboxSize),
		prices:   prices,
		fanout:   fanout,
		valuator: valuator,
		tracker:  tracker,
	}
	prices.SetOnStore(b.onStore)
	return b
}

// Inbox returns the tick channel. Feed workers send here.
func (b *Broadcaster) Inbox() chan<- *event.PriceTick {
	return b.inbox
}

// Run starts the broadcast loop. It MUST run in a single goroutine.
func (b *Broadcaster) Run(ctx context.Context) {
	slog.Info("broadcaster started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("broadcaster stopping")
			return
		case tick := <-b.inbox:
			b.processTick(tick)
		}
	}
}

func (b *Broadcaster) processTick(tick *event.PriceTick) {
	defer event.ReleasePriceTick(tick)
	if tick.RawSymbol == "" || tick.Data == nil {
		return
	}
	// Store triggers onStore, which runs the full fan-out synchronously on
	// this goroutine.
	b.prices.Store(tick.RawSymbol, tick.Data)
}

func (b *Broadcaster) onStore(rawSymbol, normalized string, data domain.SymbolData) {
	sent := b.fanout.Broadcast(rawSymbol, normalized, data)
	sent += b.tracker.Broadcast(rawSymbol, normalized, data)
	b.valuator.OnPrice(context.Background(), normalized, "position")
	infra.GlobalMetrics.RecordTick(sent)
}
