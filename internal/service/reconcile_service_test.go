package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
	"github.com/ndewijer/Yield-Bank-Backend/internal/testutil"
)

// TestReconcileService_Reconcile covers profit derivation and per-holding
// isolation.
//
// WHY: one broken quote must not blank out the rest of a user's holdings,
// and the page renders rows by position so order must survive the fan-out.
func TestReconcileService_Reconcile(t *testing.T) {
	day := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)

	t.Run("fresh quote yields profit and rate", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		source := testutil.NewFakeSource("kis").WithPrice("005930", 70000)
		svc := testutil.NewTestReconcileService(t, db, testutil.NewTestResolver(source))
		h := testutil.NewHolding().WithSymbol("005930").WithPurchasePrice(60000).Model()

		// Execute
		got := svc.Reconcile(context.Background(), []model.Holding{h})

		// Assert
		if len(got) != 1 {
			t.Fatalf("Expected 1 result, got %d", len(got))
		}
		rh := got[0]
		if rh.Status != model.PriceFresh || rh.Source != "kis" {
			t.Errorf("Expected fresh from kis, got %s from %q", rh.Status, rh.Source)
		}
		if rh.CurrentPrice != 70000 || rh.CurrentProfit != 10000 {
			t.Errorf("Expected price 70000 profit 10000, got %d and %d", rh.CurrentPrice, rh.CurrentProfit)
		}
		if rh.CurrentProfitRate.String() != "16.67" {
			t.Errorf("Expected rate 16.67, got %s", rh.CurrentProfitRate)
		}
	})

	t.Run("preserves input order across concurrent lookups", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		source := testutil.NewFakeSource("kis").
			WithPrice("000001", 1000).
			WithPrice("000002", 2000).
			WithPrice("000003", 3000)
		svc := testutil.NewTestReconcileService(t, db, testutil.NewTestResolver(source))
		holdings := []model.Holding{
			testutil.NewHolding().WithSymbol("000003").Model(),
			testutil.NewHolding().WithSymbol("000001").Model(),
			testutil.NewHolding().WithSymbol("000002").Model(),
		}

		// Execute
		got := svc.Reconcile(context.Background(), holdings)

		// Assert
		for i, h := range holdings {
			if got[i].Holding.ID != h.ID {
				t.Errorf("Position %d: expected holding %s, got %s", i, h.ID, got[i].Holding.ID)
			}
		}
		if got[0].CurrentPrice != 3000 || got[1].CurrentPrice != 1000 || got[2].CurrentPrice != 2000 {
			t.Errorf("Expected prices 3000,1000,2000, got %d,%d,%d", got[0].CurrentPrice, got[1].CurrentPrice, got[2].CurrentPrice)
		}
	})

	t.Run("failed quote falls back to the stored snapshot", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		source := testutil.NewFakeSource("kis").
			WithPrice("000001", 1100).
			WithSymbolError("000002", errors.New("upstream 500"))
		svc := testutil.NewTestReconcileService(t, db, testutil.NewTestResolver(source))
		ok := testutil.NewHolding().WithSymbol("000001").WithPurchasePrice(1000).Model()
		stale := testutil.NewHolding().WithSymbol("000002").WithPurchasePrice(1000).WithSnapshot(900, day).WithTargets(0, 10).Model()

		// Execute
		got := svc.Reconcile(context.Background(), []model.Holding{ok, stale})

		// Assert
		if got[0].Status != model.PriceFresh || got[0].CurrentProfit != 100 {
			t.Errorf("Expected healthy holding unaffected, got %+v", got[0])
		}
		if got[1].Status != model.PriceStale {
			t.Errorf("Expected stale status, got %s", got[1].Status)
		}
		if got[1].CurrentPrice != 900 || got[1].CurrentProfit != -100 {
			t.Errorf("Expected stored price 900 profit -100, got %d and %d", got[1].CurrentPrice, got[1].CurrentProfit)
		}
		if got[1].Signal != model.SignalStopLoss {
			t.Errorf("Expected stop loss on stale price, got %s", got[1].Signal)
		}
		if !got[1].QuotedAt.Equal(day) {
			t.Errorf("Expected quotedAt %v, got %v", day, got[1].QuotedAt)
		}
	})

	t.Run("never priced holding reports zero figures", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		source := testutil.NewFakeSource("kis")
		svc := testutil.NewTestReconcileService(t, db, testutil.NewTestResolver(source))
		h := testutil.NewHolding().WithPurchasePrice(5000).WithTargets(10, 10).Model()

		// Execute
		got := svc.Reconcile(context.Background(), []model.Holding{h})[0]

		// Assert
		if got.Status != model.PriceUnresolved {
			t.Errorf("Expected unresolved, got %s", got.Status)
		}
		if got.CurrentPrice != 0 || got.CurrentProfit != 0 || !got.CurrentProfitRate.IsZero() {
			t.Errorf("Expected zero figures, got %+v", got)
		}
		if got.Signal != model.SignalNone {
			t.Errorf("Expected no signal, got %s", got.Signal)
		}
	})

	t.Run("panicking resolver is isolated to its holding", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		resolver := testutil.ResolverFunc(func(_ context.Context, symbol string) model.Resolution {
			if symbol == "000002" {
				panic("boom")
			}
			return model.Resolution{Symbol: symbol, Resolved: true, Source: "fake",
				Quote: model.Quote{Symbol: symbol, CurrentPrice: 1200}}
		})
		svc := testutil.NewTestReconcileService(t, db, resolver)
		holdings := []model.Holding{
			testutil.NewHolding().WithSymbol("000001").WithPurchasePrice(1000).Model(),
			testutil.NewHolding().WithSymbol("000002").WithPurchasePrice(1000).WithSnapshot(1100, day).Model(),
		}

		// Execute
		got := svc.Reconcile(context.Background(), holdings)

		// Assert
		if got[0].Status != model.PriceFresh || got[0].CurrentPrice != 1200 {
			t.Errorf("Expected first holding fresh at 1200, got %+v", got[0])
		}
		if got[1].Status != model.PriceStale || got[1].CurrentPrice != 1100 {
			t.Errorf("Expected second holding stale at 1100, got %+v", got[1])
		}
	})

	t.Run("hidden holdings are kept and flagged", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		source := testutil.NewFakeSource("kis").WithPrice("000001", 1000)
		svc := testutil.NewTestReconcileService(t, db, testutil.NewTestResolver(source))
		holdings := []model.Holding{
			testutil.NewHolding().WithSymbol("000001").Model(),
			testutil.NewHolding().WithSymbol("000001").Hidden().Model(),
		}

		// Execute
		got := svc.Reconcile(context.Background(), holdings)

		// Assert
		if len(got) != 2 {
			t.Fatalf("Expected 2 results, got %d", len(got))
		}
		if got[0].Hidden || !got[1].Hidden {
			t.Errorf("Expected hidden flags false,true, got %v,%v", got[0].Hidden, got[1].Hidden)
		}
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestReconcileService(t, db, testutil.NewTestResolver())

		got := svc.Reconcile(context.Background(), nil)

		if len(got) != 0 {
			t.Errorf("Expected no results, got %d", len(got))
		}
	})
}

func TestReconcileService_ReconcileOwner(t *testing.T) {
	t.Run("only the owner's holdings in insertion order", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		first := testutil.NewHolding().WithSymbol("000001").Build(t, db)
		testutil.NewHolding().WithOwner("owner-2").WithSymbol("000002").Build(t, db)
		second := testutil.NewHolding().WithSymbol("000003").Build(t, db)
		svc := testutil.NewTestReconcileService(t, db, testutil.NewTestResolver(testutil.NewFakeSource("kis")))

		// Execute
		got, err := svc.ReconcileOwner(context.Background(), testutil.DefaultOwner)

		// Assert
		if err != nil {
			t.Fatalf("ReconcileOwner() returned unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("Expected 2 holdings, got %d", len(got))
		}
		if got[0].Holding.ID != first.ID || got[1].Holding.ID != second.ID {
			t.Errorf("Expected %s,%s, got %s,%s", first.ID, second.ID, got[0].Holding.ID, got[1].Holding.ID)
		}
	})

	t.Run("storage failure is returned", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestReconcileService(t, db, testutil.NewTestResolver())
		db.Close()

		if _, err := svc.ReconcileOwner(context.Background(), testutil.DefaultOwner); err == nil {
			t.Error("Expected error, got nil")
		}
	})
}
