package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
	"github.com/ndewijer/Yield-Bank-Backend/internal/repository"
)

// QuoteResolver resolves a symbol to a tagged quote result without failing.
type QuoteResolver interface {
	Resolve(ctx context.Context, symbol string) model.Resolution
}

// ReconcileService joins holdings with current quotes and derives profit.
type ReconcileService struct {
	holdingRepo *repository.HoldingRepository
	resolver    QuoteResolver
	concurrency int
	now         func() time.Time
	log         zerolog.Logger
}

// NewReconcileService creates a ReconcileService. concurrency bounds the
// per-holding fan-out; 0 means one goroutine per holding.
func NewReconcileService(holdingRepo *repository.HoldingRepository, resolver QuoteResolver, concurrency int, log zerolog.Logger) *ReconcileService {
	return &ReconcileService{
		holdingRepo: holdingRepo,
		resolver:    resolver,
		concurrency: concurrency,
		now:         time.Now,
		log:         log,
	}
}

// ReconcileOwner lists the owner's holdings and reconciles them.
// Storage failures are returned; quote failures never are.
func (s *ReconcileService) ReconcileOwner(ctx context.Context, ownerID string) ([]model.ReconciledHolding, error) {
	holdings, err := s.holdingRepo.ListHoldings(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	return s.Reconcile(ctx, holdings), nil
}

// Reconcile resolves a quote for every holding concurrently and computes
// profit figures. The result has one entry per input holding, in input order.
//
// Each holding is isolated: when its quote cannot be resolved, or resolving it
// panics, it falls back to its last persisted price (status stale) or to zero
// figures when it never had one (status unresolved). Hidden holdings are kept
// and flagged.
func (s *ReconcileService) Reconcile(ctx context.Context, holdings []model.Holding) []model.ReconciledHolding {
	out := make([]model.ReconciledHolding, len(holdings))

	var g errgroup.Group
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for i, h := range holdings {
		g.Go(func() error {
			out[i] = s.reconcileOne(ctx, h)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (s *ReconcileService) reconcileOne(ctx context.Context, h model.Holding) (rh model.ReconciledHolding) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Error().
				Str("holding", h.ID).
				Str("symbol", h.Symbol).
				Interface("panic", p).
				Msg("reconcile panicked, using last snapshot")
			rh = s.fromSnapshot(h)
		}
	}()

	res := s.resolver.Resolve(ctx, h.Symbol)
	if !res.Resolved {
		return s.fromSnapshot(h)
	}
	return fromQuote(h, res)
}

func fromQuote(h model.Holding, res model.Resolution) model.ReconciledHolding {
	profit, rate := computeProfit(res.Quote.CurrentPrice, h.PurchasePrice)
	return model.ReconciledHolding{
		Holding:           h,
		CurrentPrice:      res.Quote.CurrentPrice,
		Change:            res.Quote.Change,
		ChangePercent:     res.Quote.ChangePercent,
		CurrentProfit:     profit,
		CurrentProfitRate: rate,
		Status:            model.PriceFresh,
		Source:            res.Source,
		Signal:            signalFor(rate, h.TakeProfitRate, h.StopLossRate),
		Hidden:            h.Hidden,
		QuotedAt:          res.Quote.RetrievedAt,
	}
}

func (s *ReconcileService) fromSnapshot(h model.Holding) model.ReconciledHolding {
	rh := model.ReconciledHolding{
		Holding:  h,
		Status:   model.PriceUnresolved,
		Signal:   model.SignalNone,
		Hidden:   h.Hidden,
		QuotedAt: s.now(),
	}
	// With no price at all, figures stay zero rather than showing a -100% loss.
	if !h.HasSnapshot() {
		return rh
	}

	profit, rate := computeProfit(h.CurrentPrice, h.PurchasePrice)
	rh.CurrentPrice = h.CurrentPrice
	rh.CurrentProfit = profit
	rh.CurrentProfitRate = rate
	rh.Status = model.PriceStale
	rh.Signal = signalFor(rate, h.TakeProfitRate, h.StopLossRate)
	rh.QuotedAt = h.CurrentDate
	return rh
}
