package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ndewijer/Yield-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
	"github.com/ndewijer/Yield-Bank-Backend/internal/repository"
	"github.com/ndewijer/Yield-Bank-Backend/internal/testutil"
)

func TestHoldingRepository_ListHoldings(t *testing.T) {
	ctx := context.Background()

	t.Run("scoped to owner in insertion order", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewHoldingRepository(db)
		first := testutil.NewHolding().WithName("first").Build(t, db)
		testutil.NewHolding().WithOwner("owner-2").Build(t, db)
		second := testutil.NewHolding().WithName("second").Build(t, db)

		// Execute
		got, err := repo.ListHoldings(ctx, testutil.DefaultOwner)

		// Assert
		if err != nil {
			t.Fatalf("ListHoldings() returned unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("Expected 2 holdings, got %d", len(got))
		}
		if got[0].ID != first.ID || got[1].ID != second.ID {
			t.Errorf("Expected [%s %s], got [%s %s]", first.ID, second.ID, got[0].ID, got[1].ID)
		}
	})

	t.Run("empty owner lists everyone", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewHoldingRepository(db)
		testutil.NewHolding().Build(t, db)
		testutil.NewHolding().WithOwner("owner-2").Build(t, db)

		got, err := repo.ListHoldings(ctx, "")

		if err != nil {
			t.Fatalf("ListHoldings() returned unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("Expected 2 holdings, got %d", len(got))
		}
	})

	t.Run("no rows yields empty slice", func(t *testing.T) {
		db := testutil.SetupTestDB(t)

		got, err := repository.NewHoldingRepository(db).ListHoldings(ctx, testutil.DefaultOwner)

		if err != nil {
			t.Fatalf("ListHoldings() returned unexpected error: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("Expected empty non-nil slice, got %v", got)
		}
	})
}

// TestHoldingRepository_RoundTrip verifies every column survives storage.
//
// WHY: rates are stored as text and dates without a time component; a
// lossy conversion would silently shift profit figures.
func TestHoldingRepository_RoundTrip(t *testing.T) {
	// Setup
	db := testutil.SetupTestDB(t)
	repo := repository.NewHoldingRepository(db)
	day := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	want := testutil.NewHolding().
		WithSymbol("005930").
		WithPurchasePrice(60000).
		WithSnapshot(70000, day).
		WithTargets(15.5, -7.25).
		Hidden().
		Build(t, db)

	// Execute
	got, err := repo.GetHolding(context.Background(), testutil.DefaultOwner, want.ID)

	// Assert
	if err != nil {
		t.Fatalf("GetHolding() returned unexpected error: %v", err)
	}
	if got.Symbol != "005930" || got.PurchasePrice != 60000 || got.CurrentPrice != 70000 {
		t.Errorf("Expected 005930 60000/70000, got %s %d/%d", got.Symbol, got.PurchasePrice, got.CurrentPrice)
	}
	if !got.CurrentDate.Equal(day) {
		t.Errorf("Expected price date %v, got %v", day, got.CurrentDate)
	}
	if got.ProfitRate.String() != "16.67" || got.TakeProfitRate.String() != "15.50" || got.StopLossRate.String() != "-7.25" {
		t.Errorf("Expected rates 16.67/15.50/-7.25, got %s/%s/%s", got.ProfitRate, got.TakeProfitRate, got.StopLossRate)
	}
	if !got.Hidden || !got.Enabled {
		t.Errorf("Expected hidden and enabled, got hidden=%v enabled=%v", got.Hidden, got.Enabled)
	}
}

func TestHoldingRepository_Mutations(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshot update", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewHoldingRepository(db)
		h := testutil.NewHolding().WithPurchasePrice(1000).Build(t, db)
		day := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

		err := repo.UpdateHoldingSnapshot(ctx, h.ID, model.Snapshot{
			CurrentPrice: 1100,
			CurrentDate:  day,
			ProfitRate:   model.PercentOf(100, 1000),
		})
		if err != nil {
			t.Fatalf("UpdateHoldingSnapshot() returned unexpected error: %v", err)
		}

		got, err := repo.GetHolding(ctx, "", h.ID)
		if err != nil {
			t.Fatalf("GetHolding() returned unexpected error: %v", err)
		}
		if got.CurrentPrice != 1100 || !got.CurrentDate.Equal(day) || got.ProfitRate.String() != "10.00" {
			t.Errorf("Expected 1100 on %v at 10.00, got %d on %v at %s", day, got.CurrentPrice, got.CurrentDate, got.ProfitRate)
		}
	})

	t.Run("update by another owner is not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewHoldingRepository(db)
		h := testutil.NewHolding().WithName("original").Build(t, db)

		h.OwnerID = "owner-2"
		h.Name = "changed"
		err := repo.UpdateHolding(ctx, h)

		if !errors.Is(err, apperrors.ErrHoldingNotFound) {
			t.Errorf("Expected ErrHoldingNotFound, got %v", err)
		}
	})

	t.Run("missing rows are not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewHoldingRepository(db)
		id := testutil.MakeID()

		if _, err := repo.GetHolding(ctx, "", id); !errors.Is(err, apperrors.ErrHoldingNotFound) {
			t.Errorf("GetHolding: expected ErrHoldingNotFound, got %v", err)
		}
		if err := repo.DeleteHolding(ctx, "", id); !errors.Is(err, apperrors.ErrHoldingNotFound) {
			t.Errorf("DeleteHolding: expected ErrHoldingNotFound, got %v", err)
		}
		if err := repo.SetHidden(ctx, "", id, true); !errors.Is(err, apperrors.ErrHoldingNotFound) {
			t.Errorf("SetHidden: expected ErrHoldingNotFound, got %v", err)
		}
		if err := repo.UpdateHoldingSnapshot(ctx, id, model.Snapshot{CurrentPrice: 1}); !errors.Is(err, apperrors.ErrHoldingNotFound) {
			t.Errorf("UpdateHoldingSnapshot: expected ErrHoldingNotFound, got %v", err)
		}
	})

	t.Run("rolled back transaction leaves no row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		tx, err := db.Begin()
		if err != nil {
			t.Fatalf("Begin() returned unexpected error: %v", err)
		}

		h := testutil.NewHolding().Model()
		if err := repository.NewHoldingRepository(db).WithTx(tx).InsertHolding(ctx, h); err != nil {
			t.Fatalf("InsertHolding() returned unexpected error: %v", err)
		}
		if err := tx.Rollback(); err != nil {
			t.Fatalf("Rollback() returned unexpected error: %v", err)
		}

		testutil.AssertRowCount(t, db, "stock_holding", 0)
	})
}
