package service

import (
	"log/slog"

	"delta_stream/internal/domain"
)

// Fanout decides, for one stored price update, which user sockets receive
// which projection of the snapshot.
//
// The scan is O(users x categories) per tick with no symbol -> subscriber
// index. That matches the deployed scale and keeps per-user message ordering
// deterministic; an index would change observable ordering and is left as a
// deliberate non-change.
type Fanout struct {
	registry  *Registry
	conns     domain.SocketRegistry
	dashboard map[string]struct{}
}

// NewFanout wires the fan-out engine. dashboardSymbols is the fixed
// whitelist (normalized) served to the reserved "dashboard" category.
func NewFanout(registry *Registry, conns domain.SocketRegistry, dashboardSymbols []string) *Fanout {
	whitelist := make(map[string]struct{}, len(dashboardSymbols))
	for _, s := range dashboardSymbols {
		whitelist[domain.NormalizeSymbol(s)] = struct{}{}
	}
	return &Fanout{
		registry:  registry,
		conns:     conns,
		dashboard: whitelist,
	}
}

// Broadcast evaluates every user with a live socket against every one of
// their categories. A user may receive several messages for one tick, one
// per matching category. Sends to non-writable sockets are skipped, never
// queued. Returns the number of messages sent.
func (f *Fanout) Broadcast(rawSymbol, normalized string, data domain.SymbolData) int {
	sent := 0
	f.conns.Each(func(userID string, sock domain.Socket) {
		if !sock.Writable() {
			return
		}
		cats := f.registry.CategoriesFor(userID)
		for category, set := range cats {
			kind := domain.KindOfCategory(category)
			if !f.eligible(kind, normalized, rawSymbol, set) {
				continue
			}
			msg := domain.NewSymbolUpdate(category, rawSymbol, data.Project(kind))
			if err := sock.SendJSON(msg); err != nil {
				slog.Debug("symbol-update send failed",
					slog.String("user", userID),
					slog.String("category", category),
					slog.Any("error", err))
				continue
			}
			sent++
		}
	})
	return sent
}

func (f *Fanout) eligible(kind domain.CategoryKind, normalized, rawSymbol string, set map[string]struct{}) bool {
	switch kind {
	case domain.KindFuturesWide:
		return domain.IsFuturesSymbol(rawSymbol)
	case domain.KindDashboard:
		_, ok := f.dashboard[normalized]
		return ok
	default:
		_, ok := set[normalized]
		return ok
	}
}
