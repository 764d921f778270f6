package model

import "time"

// Holding is a user's stake in one listed instrument.
type Holding struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"ownerId"`
	Name           string    `json:"name"`
	Symbol         string    `json:"symbol"`
	PurchasePrice  int64     `json:"purchasePrice"`
	PurchaseDate   time.Time `json:"purchaseDate"`
	CurrentPrice   int64     `json:"currentPrice"`
	CurrentDate    time.Time `json:"currentDate,omitzero"`
	ProfitRate     Rate      `json:"profitRate"`
	TakeProfitRate Rate      `json:"takeProfitRate"`
	StopLossRate   Rate      `json:"stopLossRate"`
	Enabled        bool      `json:"enabled"`
	Hidden         bool      `json:"hidden"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// HasSnapshot reports whether a price was ever persisted for the holding.
func (h Holding) HasSnapshot() bool {
	return h.CurrentPrice > 0
}

// Snapshot holds the price fields periodically written back to a holding.
type Snapshot struct {
	CurrentPrice int64
	CurrentDate  time.Time
	ProfitRate   Rate
}

// PriceStatus tells the presentation layer where a reconciled price came from.
type PriceStatus string

const (
	// PriceFresh means a quote source answered during this reconciliation.
	PriceFresh PriceStatus = "fresh"
	// PriceStale means every source failed and the last persisted price was used.
	PriceStale PriceStatus = "stale"
	// PriceUnresolved means every source failed and no persisted price exists.
	PriceUnresolved PriceStatus = "unresolved"
)

// Signal is the take-profit / stop-loss state of a reconciled holding.
type Signal string

const (
	SignalNone       Signal = "none"
	SignalTakeProfit Signal = "take_profit"
	SignalStopLoss   Signal = "stop_loss"
)

// ReconciledHolding is a holding joined with its current price and the
// derived profit figures.
type ReconciledHolding struct {
	Holding           Holding     `json:"holding"`
	CurrentPrice      int64       `json:"currentPrice"`
	Change            int64       `json:"change"`
	ChangePercent     Rate        `json:"changePercent"`
	CurrentProfit     int64       `json:"currentProfit"`
	CurrentProfitRate Rate        `json:"currentProfitRate"`
	Status            PriceStatus `json:"status"`
	Source            string      `json:"source,omitempty"`
	Signal            Signal      `json:"signal"`
	Hidden            bool        `json:"hidden"`
	QuotedAt          time.Time   `json:"quotedAt"`
}
