package domain

// Outbound message types.
const (
	MsgSymbolUpdate       = "symbol-update"
	MsgBulkPositionUpdate = "bulk-position-update"
	MsgUnsubscribed       = "unsubscribed"
	MsgOrderTrackingData  = "order-tracking-data"
)

// SymbolUpdate is the per-tick message sent to user-category sockets. Symbol
// is always in the exchange-native suffix form.
type SymbolUpdate struct {
	Type     string     `json:"type"`
	Category string     `json:"category"`
	Symbol   string     `json:"symbol"`
	Data     SymbolData `json:"data"`
}

// NewSymbolUpdate builds a symbol-update envelope from a raw feed symbol.
func NewSymbolUpdate(category, rawSymbol string, data SymbolData) SymbolUpdate {
	return SymbolUpdate{
		Type:     MsgSymbolUpdate,
		Category: category,
		Symbol:   ExchangeSymbol(rawSymbol),
		Data:     data,
	}
}

// Unsubscribed notifies a socket that one symbol left a category.
type Unsubscribed struct {
	Type     string `json:"type"`
	Symbol   string `json:"symbol"`
	Category string `json:"category"`
}

// OrderTrackingUpdate is the anonymous order-tracking relay message.
type OrderTrackingUpdate struct {
	Type   string     `json:"type"`
	Symbol string     `json:"symbol"`
	Data   SymbolData `json:"data"`
}

// PositionView is one row of a bulk-position-update. Open positions carry
// MarkPrice/OpenedAt; closed ones carry ExitPrice/ClosedAt. All rounding has
// already been applied: pnl to 6 places, pnlPercentage to 2, invested to 4.
type PositionView struct {
	Symbol             string         `json:"symbol"`
	OrderID            string         `json:"orderID"`
	PositionID         string         `json:"positionId"`
	MarkPrice          *float64       `json:"markPrice,omitempty"`
	ExitPrice          *float64       `json:"exitPrice,omitempty"`
	EntryPrice         float64        `json:"entryPrice"`
	Quantity           float64        `json:"quantity"`
	Leverage           float64        `json:"leverage"`
	PositionType       PositionType   `json:"positionType"`
	Pnl                float64        `json:"pnl"`
	PnlPercentage      float64        `json:"pnlPercentage"`
	Invested           float64        `json:"invested"`
	OpenedAt           string         `json:"openedAt,omitempty"`
	ClosedAt           string         `json:"closedAt,omitempty"`
	ContributionAmount float64        `json:"contributionAmount"`
	StopLoss           float64        `json:"stopLoss"`
	TakeProfit         float64        `json:"takeProfit"`
	OrderType          string         `json:"orderType"`
	Lot                float64        `json:"lot"`
	Status             PositionStatus `json:"status"`
}

// BulkPositionUpdate is the aggregated valuation message for one user. The
// positions slice lists open rows first, then the closed rows of the current
// rollover window.
type BulkPositionUpdate struct {
	Type          string         `json:"type"`
	Positions     []PositionView `json:"positions"`
	TotalPNL      float64        `json:"totalPNL"`
	TotalInvested float64        `json:"totalInvested"`
	Category      string         `json:"category"`
}
