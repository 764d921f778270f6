package testutil

import (
	"context"
	"database/sql"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
	"github.com/ndewijer/Yield-Bank-Backend/internal/repository"
)

// DefaultOwner is the owner id builders use unless told otherwise.
const DefaultOwner = "owner-1"

// HoldingBuilder provides a fluent interface for creating test holdings.
//
// Example usage:
//
//	// Simple creation with defaults
//	holding := testutil.NewHolding().Build(t, db)
//
//	// Customized holding
//	holding := testutil.NewHolding().
//	    WithSymbol("005930").
//	    WithPurchasePrice(60000).
//	    WithSnapshot(70000, day).
//	    Hidden().
//	    Build(t, db)
type HoldingBuilder struct {
	h model.Holding
}

var builderSeq atomic.Int64

// NewHolding creates a HoldingBuilder with sensible defaults. Successive
// builders get increasing creation times so list order is deterministic.
func NewHolding() *HoldingBuilder {
	created := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC).Add(time.Duration(builderSeq.Add(1)) * time.Second)
	return &HoldingBuilder{h: model.Holding{
		ID:            MakeID(),
		OwnerID:       DefaultOwner,
		Name:          MakeHoldingName("Test Holding"),
		Symbol:        MakeSymbol(),
		PurchasePrice: 10000,
		PurchaseDate:  time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		Enabled:       true,
		CreatedAt:     created,
		UpdatedAt:     created,
	}}
}

// WithID sets a custom ID.
func (b *HoldingBuilder) WithID(id string) *HoldingBuilder {
	b.h.ID = id
	return b
}

// WithOwner sets the owner id.
func (b *HoldingBuilder) WithOwner(owner string) *HoldingBuilder {
	b.h.OwnerID = owner
	return b
}

// WithName sets a custom name.
func (b *HoldingBuilder) WithName(name string) *HoldingBuilder {
	b.h.Name = name
	return b
}

// WithSymbol sets the exchange code.
func (b *HoldingBuilder) WithSymbol(symbol string) *HoldingBuilder {
	b.h.Symbol = symbol
	return b
}

// WithPurchasePrice sets the purchase price in won.
func (b *HoldingBuilder) WithPurchasePrice(price int64) *HoldingBuilder {
	b.h.PurchasePrice = price
	return b
}

// WithSnapshot sets the last persisted price and its date.
func (b *HoldingBuilder) WithSnapshot(price int64, day time.Time) *HoldingBuilder {
	b.h.CurrentPrice = price
	b.h.CurrentDate = day
	b.h.ProfitRate = model.PercentOf(price-b.h.PurchasePrice, b.h.PurchasePrice)
	return b
}

// WithTargets sets the take-profit and stop-loss rates in percent.
func (b *HoldingBuilder) WithTargets(takeProfit, stopLoss float64) *HoldingBuilder {
	b.h.TakeProfitRate = model.RateFromFloat(takeProfit)
	b.h.StopLossRate = model.RateFromFloat(stopLoss)
	return b
}

// Hidden marks the holding as hidden.
func (b *HoldingBuilder) Hidden() *HoldingBuilder {
	b.h.Hidden = true
	return b
}

// Disabled excludes the holding from snapshot refreshes.
func (b *HoldingBuilder) Disabled() *HoldingBuilder {
	b.h.Enabled = false
	return b
}

// Model returns the holding without storing it.
func (b *HoldingBuilder) Model() model.Holding {
	return b.h
}

// Build creates the holding in the database and returns it.
func (b *HoldingBuilder) Build(t *testing.T, db *sql.DB) model.Holding {
	t.Helper()

	if err := repository.NewHoldingRepository(db).InsertHolding(context.Background(), b.h); err != nil {
		t.Fatalf("Failed to create test holding: %v", err)
	}
	return b.h
}

// Convenience functions

// CreateHolding creates a holding for symbol bought at purchasePrice.
//
// Example usage:
//
//	holding := testutil.CreateHolding(t, db, "005930", 60000)
func CreateHolding(t *testing.T, db *sql.DB, symbol string, purchasePrice int64) model.Holding {
	t.Helper()
	return NewHolding().WithSymbol(symbol).WithPurchasePrice(purchasePrice).Build(t, db)
}

// CreateHoldings creates multiple holdings for the default owner.
//
// Example usage:
//
//	holdings := testutil.CreateHoldings(t, db, 5)
func CreateHoldings(t *testing.T, db *sql.DB, count int) []model.Holding {
	t.Helper()

	holdings := make([]model.Holding, count)
	for i := range count {
		holdings[i] = NewHolding().Build(t, db)
	}
	return holdings
}
