package service

import (
	"sort"
	"sync"

	"delta_stream/internal/domain"
)

// OrderTracker relays price updates for a shared set of tracked symbols to
// every order-tracking socket. Those sockets are anonymous: the set is not
// keyed by user, and all connected trackers see the same stream.
type OrderTracker struct {
	mu      sync.RWMutex
	symbols map[string]struct{}
	conns   domain.SocketSet
}

// NewOrderTracker wires the tracker to the hub's order-tracking socket set.
func NewOrderTracker(conns domain.SocketSet) *OrderTracker {
	return &OrderTracker{
		symbols: make(map[string]struct{}),
		conns:   conns,
	}
}

// Track adds symbols (normalized) to the shared tracked set.
func (t *OrderTracker) Track(symbols []string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for _, s := range symbols {
		if s == "" {
			continue
		}
		t.symbols[domain.NormalizeSymbol(s)] = struct{}{}
		count++
	}
	return count
}

// Untrack removes symbols from the tracked set.
func (t *OrderTracker) Untrack(symbols []string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for _, s := range symbols {
		norm := domain.NormalizeSymbol(s)
		if _, ok := t.symbols[norm]; ok {
			delete(t.symbols, norm)
			count++
		}
	}
	return count
}

// Tracked returns the tracked symbols, sorted.
func (t *OrderTracker) Tracked() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0, len(t.symbols))
	for s := range t.symbols {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Broadcast relays one stored update to all writable order-tracking sockets
// when the symbol is tracked. Returns the number of messages sent.
func (t *OrderTracker) Broadcast(rawSymbol, normalized string, data domain.SymbolData) int {
	t.mu.RLock()
	_, tracked := t.symbols[normalized]
	t.mu.RUnlock()
	if !tracked {
		return 0
	}

	msg := domain.OrderTrackingUpdate{
		Type:   domain.MsgOrderTrackingData,
		Symbol: domain.ExchangeSymbol(rawSymbol),
		Data:   data,
	}
	sent := 0
	t.conns.Each(func(sock domain.Socket) {
		if !sock.Writable() {
			return
		}
		if err := sock.SendJSON(msg); err == nil {
			sent++
		}
	})
	return sent
}
