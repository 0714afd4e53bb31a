package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"delta_stream/internal/domain"

	"github.com/shopspring/decimal"
)

// Anchor is the local time-of-day boundary of the daily rollover window.
// The window containing "now" is [anchor, anchor+24h): when the current time
// is before today's anchor, the window starts at yesterday's anchor.
type Anchor struct {
	Hour   int
	Minute int
	Loc    *time.Location
}

// Window returns the rollover window containing now.
func (a Anchor) Window(now time.Time) (start, end time.Time) {
	loc := a.Loc
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	start = time.Date(local.Year(), local.Month(), local.Day(), a.Hour, a.Minute, 0, 0, loc)
	if local.Before(start) {
		start = start.AddDate(0, 0, -1)
	}
	return start, start.Add(24 * time.Hour)
}

// RealizedLedger is the externally maintained realized-today accumulator,
// folded into valuation totals. Its reset lifecycle is owned by the caller.
type RealizedLedger struct {
	mu     sync.RWMutex
	totals map[string]decimal.Decimal
}

// NewRealizedLedger creates an empty ledger.
func NewRealizedLedger() *RealizedLedger {
	return &RealizedLedger{totals: make(map[string]decimal.Decimal)}
}

// Add folds an amount into a user's realized-today total.
func (l *RealizedLedger) Add(userID string, amount decimal.Decimal) {
	l.mu.Lock()
	l.totals[userID] = l.totals[userID].Add(amount)
	l.mu.Unlock()
}

// Get returns a user's realized-today total, zero when unknown.
func (l *RealizedLedger) Get(userID string) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totals[userID]
}

// Reset clears a user's realized-today total.
func (l *RealizedLedger) Reset(userID string) {
	l.mu.Lock()
	delete(l.totals, userID)
	l.mu.Unlock()
}

// Valuator computes and broadcasts per-user open/closed P&L. One invocation
// runs QUERY -> PARTITION -> RESOLVE -> AGGREGATE -> SEND; every failure
// degrades (empty payload, dropped row, skipped send) rather than surfacing
// to the caller.
type Valuator struct {
	prices    *PriceStore
	options   domain.OptionQuoter
	registry  *Registry
	conns     domain.SocketRegistry
	positions domain.PositionSource
	funds     domain.FundSource
	realized  *RealizedLedger
	anchor    Anchor

	now func() time.Time // test seam
}

// NewValuator wires the valuation engine. conns must be the position socket
// registry, not the user-category one.
func NewValuator(
	prices *PriceStore,
	options domain.OptionQuoter,
	registry *Registry,
	conns domain.SocketRegistry,
	positions domain.PositionSource,
	funds domain.FundSource,
	realized *RealizedLedger,
	anchor Anchor,
) *Valuator {
	return &Valuator{
		prices:    prices,
		options:   options,
		registry:  registry,
		conns:     conns,
		positions: positions,
		funds:     funds,
		realized:  realized,
		anchor:    anchor,
		now:       time.Now,
	}
}

// Broadcast runs one full valuation for a user and sends the result to the
// user's position socket. Nothing is sent when the socket is absent or not
// writable.
func (v *Valuator) Broadcast(ctx context.Context, userID, category string) {
	sock, ok := v.conns.Get(userID)
	if !ok || !sock.Writable() {
		return
	}

	realized := v.realized.Get(userID)

	// QUERY. Store failure degrades to an empty payload: the client still
	// receives a well-formed update carrying only the realized-today total.
	all, err := v.positions.QueryByUser(ctx, userID)
	if err != nil {
		slog.Warn("position store query failed, sending empty valuation",
			slog.String("user", userID), slog.Any("error", err))
		v.send(sock, domain.BulkPositionUpdate{
			Type:          domain.MsgBulkPositionUpdate,
			Positions:     []domain.PositionView{},
			TotalPNL:      realized.Round(6).InexactFloat64(),
			TotalInvested: 0,
			Category:      category,
		})
		return
	}

	// PARTITION.
	start, end := v.anchor.Window(v.now())
	var open, closed []domain.Position
	for _, p := range all {
		switch {
		case p.Status == domain.PositionOpen:
			open = append(open, p)
		case p.Status == domain.PositionClosed && p.ClosedAt != nil:
			if !p.ClosedAt.Before(start) && p.ClosedAt.Before(end) {
				closed = append(closed, p)
			}
		}
	}

	// RESOLVE + AGGREGATE, open positions.
	views := make([]domain.PositionView, 0, len(open)+len(closed))
	totalOpenPNL := decimal.Zero
	totalOpenInvested := decimal.Zero
	for _, p := range open {
		mark, ok := v.resolveMark(p.AssetSymbol)
		if !ok {
			// Deliberate policy: a position with no finite mark price is
			// dropped from the open set, not reported as an error.
			slog.Debug("dropping open position with unresolved mark price",
				slog.String("user", userID), slog.String("symbol", p.AssetSymbol))
			continue
		}

		entry := decimal.NewFromFloat(p.EntryPrice)
		qty := decimal.NewFromFloat(p.Quantity)
		invested := entry.Mul(qty)

		var pnl decimal.Decimal
		if p.PositionType.IsShort() {
			pnl = entry.Sub(mark).Mul(qty)
		} else {
			pnl = mark.Sub(entry).Mul(qty)
		}
		pct := decimal.Zero
		if invested.IsPositive() {
			pct = pnl.Div(invested).Mul(decimal.NewFromInt(100))
		}

		totalOpenPNL = totalOpenPNL.Add(pnl)
		totalOpenInvested = totalOpenInvested.Add(invested)

		markOut := mark.InexactFloat64()
		views = append(views, domain.PositionView{
			Symbol:             p.AssetSymbol,
			OrderID:            p.OrderID,
			PositionID:         p.PositionID,
			MarkPrice:          &markOut,
			EntryPrice:         p.EntryPrice,
			Quantity:           p.Quantity,
			Leverage:           p.Leverage,
			PositionType:       p.PositionType,
			Pnl:                pnl.Round(6).InexactFloat64(),
			PnlPercentage:      pct.Round(2).InexactFloat64(),
			Invested:           invested.Round(4).InexactFloat64(),
			OpenedAt:           p.OpenedAt.Format(time.RFC3339),
			ContributionAmount: p.ContributionAmount,
			StopLoss:           p.StopLoss,
			TakeProfit:         p.TakeProfit,
			OrderType:          p.OrderType,
			Lot:                p.Lot,
			Status:             domain.PositionOpen,
		})
	}

	// AGGREGATE, closed positions: realized pnl comes from the store.
	totalClosedPNL := decimal.Zero
	totalClosedInvested := decimal.Zero
	for _, p := range closed {
		entry := decimal.NewFromFloat(p.EntryPrice)
		qty := decimal.NewFromFloat(p.Quantity)
		invested := entry.Mul(qty)
		pnl := decimal.NewFromFloat(p.Pnl)

		pct := decimal.Zero
		if invested.IsPositive() {
			pct = pnl.Div(invested).Mul(decimal.NewFromInt(100))
		}

		totalClosedPNL = totalClosedPNL.Add(pnl)
		totalClosedInvested = totalClosedInvested.Add(invested)

		exitOut := p.ExitPrice
		view := domain.PositionView{
			Symbol:             p.AssetSymbol,
			OrderID:            p.OrderID,
			PositionID:         p.PositionID,
			ExitPrice:          &exitOut,
			EntryPrice:         p.EntryPrice,
			Quantity:           p.Quantity,
			Leverage:           p.Leverage,
			PositionType:       p.PositionType,
			Pnl:                pnl.Round(6).InexactFloat64(),
			PnlPercentage:      pct.Round(2).InexactFloat64(),
			Invested:           invested.Round(4).InexactFloat64(),
			ContributionAmount: p.ContributionAmount,
			StopLoss:           p.StopLoss,
			TakeProfit:         p.TakeProfit,
			OrderType:          p.OrderType,
			Lot:                p.Lot,
			Status:             domain.PositionClosed,
		}
		if p.ClosedAt != nil {
			view.ClosedAt = p.ClosedAt.Format(time.RFC3339)
		}
		views = append(views, view)
	}

	netPNL := totalOpenPNL.Add(totalClosedPNL).Add(realized)

	// Margin headroom check against the fund store; the balance does not
	// appear in the payload, a zero-degrade keeps the pipeline alive.
	if balance, err := v.funds.AvailableBalance(ctx, userID); err != nil {
		slog.Warn("fund store query failed", slog.String("user", userID), slog.Any("error", err))
	} else {
		headroom := decimal.NewFromFloat(balance).Sub(totalOpenInvested)
		slog.Debug("margin headroom",
			slog.String("user", userID),
			slog.String("headroom", headroom.StringFixed(4)))
	}

	v.send(sock, domain.BulkPositionUpdate{
		Type:          domain.MsgBulkPositionUpdate,
		Positions:     views,
		TotalPNL:      netPNL.Round(6).InexactFloat64(),
		TotalInvested: totalOpenInvested.Add(totalClosedInvested).Round(4).InexactFloat64(),
		Category:      category,
	})
}

// OnPrice re-runs the valuation for every user whose given category
// explicitly contains the updated symbol and who has a live position socket.
func (v *Valuator) OnPrice(ctx context.Context, normalized, category string) {
	v.conns.Each(func(userID string, sock domain.Socket) {
		if !sock.Writable() {
			return
		}
		if !v.registry.Has(userID, category, normalized) {
			return
		}
		v.Broadcast(ctx, userID, category)
	})
}

// resolveMark looks up the mark price for one open position's symbol:
// futures through the price store, options through the chain store, both
// with the direct-then-calculated fallback.
func (v *Valuator) resolveMark(symbol string) (decimal.Decimal, bool) {
	switch {
	case domain.IsFuturesSymbol(symbol):
		data, ok := v.prices.Get(symbol)
		if !ok {
			return decimal.Zero, false
		}
		return data.MarkPrice()
	case domain.IsOptionSymbol(symbol):
		currency, date := domain.SplitCurrencyAndDate(symbol)
		data, ok := v.options.Quote(currency, date, symbol)
		if !ok {
			return decimal.Zero, false
		}
		return data.MarkPrice()
	default:
		return decimal.Zero, false
	}
}

func (v *Valuator) send(sock domain.Socket, msg domain.BulkPositionUpdate) {
	if err := sock.SendJSON(msg); err != nil {
		slog.Debug("bulk-position-update send failed", slog.Any("error", err))
	}
}
