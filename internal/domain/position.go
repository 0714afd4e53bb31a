package domain

import "time"

// PositionStatus is the lifecycle state of a persisted position.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// PositionType is the direction of a position.
type PositionType string

const (
	PositionLong  PositionType = "LONG"
	PositionShort PositionType = "SHORT"
	PositionBuy   PositionType = "BUY"
	PositionSell  PositionType = "SELL"
)

// IsShort reports whether P&L is computed as (entry - mark) * quantity.
func (t PositionType) IsShort() bool {
	return t == PositionShort || t == PositionSell
}

// Position is a persisted trading position. The valuation engine reads these
// records; it never creates or mutates them.
type Position struct {
	PositionID         string         `gorm:"primaryKey" json:"positionId"`
	OrderID            string         `json:"orderID"`
	UserID             string         `gorm:"index" json:"userId"`
	AssetSymbol        string         `json:"assetSymbol"`
	Status             PositionStatus `gorm:"index" json:"status"`
	EntryPrice         float64        `json:"entryPrice"`
	ExitPrice          float64        `json:"exitPrice"`
	Quantity           float64        `json:"quantity"`
	Leverage           float64        `json:"leverage"`
	PositionType       PositionType   `json:"positionType"`
	ContributionAmount float64        `json:"contributionAmount"`
	StopLoss           float64        `json:"stopLoss"`
	TakeProfit         float64        `json:"takeProfit"`
	OrderType          string         `json:"orderType"`
	Lot                float64        `json:"lot"`
	Pnl                float64        `json:"pnl"` // realized, CLOSED only
	OpenedAt           time.Time      `json:"openedAt"`
	ClosedAt           *time.Time     `json:"closedAt,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// Fund is a persisted per-user fund record, read for the margin headroom
// check during valuation.
type Fund struct {
	UserID           string    `gorm:"primaryKey" json:"userId"`
	AvailableBalance float64   `json:"availableBalance"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
