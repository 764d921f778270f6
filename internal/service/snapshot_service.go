package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Yield-Bank-Backend/internal/market"
	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
	"github.com/ndewijer/Yield-Bank-Backend/internal/repository"
)

// SnapshotSummary reports the outcome of one snapshot run.
type SnapshotSummary struct {
	Holdings   int `json:"holdings"`
	Updated    int `json:"updated"`
	Unresolved int `json:"unresolved"`
	Failed     int `json:"failed"`
}

// SnapshotService writes freshly resolved prices back to stored holdings.
type SnapshotService struct {
	holdingRepo *repository.HoldingRepository
	reconciler  *ReconcileService
	now         func() time.Time
	log         zerolog.Logger
}

// NewSnapshotService creates a SnapshotService.
func NewSnapshotService(holdingRepo *repository.HoldingRepository, reconciler *ReconcileService, log zerolog.Logger) *SnapshotService {
	return &SnapshotService{
		holdingRepo: holdingRepo,
		reconciler:  reconciler,
		now:         time.Now,
		log:         log,
	}
}

// RefreshAll reconciles every enabled holding across owners and persists
// current price, price date and profit rate for each fresh result. Holdings
// whose quote did not resolve keep their previous snapshot. Row updates are
// independent; one failed write does not stop the others.
func (s *SnapshotService) RefreshAll(ctx context.Context) (SnapshotSummary, error) {
	all, err := s.holdingRepo.ListHoldings(ctx, "")
	if err != nil {
		return SnapshotSummary{}, fmt.Errorf("failed to list holdings: %w", err)
	}

	enabled := make([]model.Holding, 0, len(all))
	for _, h := range all {
		if h.Enabled {
			enabled = append(enabled, h)
		}
	}

	summary := SnapshotSummary{Holdings: len(enabled)}
	day := market.Date(s.now())

	for _, rh := range s.reconciler.Reconcile(ctx, enabled) {
		if rh.Status != model.PriceFresh {
			summary.Unresolved++
			continue
		}
		snap := model.Snapshot{
			CurrentPrice: rh.CurrentPrice,
			CurrentDate:  day,
			ProfitRate:   rh.CurrentProfitRate,
		}
		if err := s.holdingRepo.UpdateHoldingSnapshot(ctx, rh.Holding.ID, snap); err != nil {
			summary.Failed++
			s.log.Error().Err(err).Str("holding", rh.Holding.ID).Msg("failed to store price snapshot")
			continue
		}
		summary.Updated++
	}

	return summary, nil
}
