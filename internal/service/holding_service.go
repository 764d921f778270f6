package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Yield-Bank-Backend/internal/api/request"
	"github.com/ndewijer/Yield-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Yield-Bank-Backend/internal/market"
	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
	"github.com/ndewijer/Yield-Bank-Backend/internal/repository"
)

// HoldingService handles holding-related business logic operations.
// Every method is scoped to an owner.
type HoldingService struct {
	holdingRepo *repository.HoldingRepository
	resolver    QuoteResolver
	catalog     *CatalogService
	now         func() time.Time
	log         zerolog.Logger
}

// NewHoldingService creates a new HoldingService. catalog may be nil, in
// which case holdings must be created with a symbol.
func NewHoldingService(holdingRepo *repository.HoldingRepository, resolver QuoteResolver, catalog *CatalogService, log zerolog.Logger) *HoldingService {
	return &HoldingService{
		holdingRepo: holdingRepo,
		resolver:    resolver,
		catalog:     catalog,
		now:         time.Now,
		log:         log,
	}
}

// ListHoldings returns the owner's holdings in insertion order.
func (s *HoldingService) ListHoldings(ctx context.Context, ownerID string) ([]model.Holding, error) {
	return s.holdingRepo.ListHoldings(ctx, ownerID)
}

// GetHolding returns one of the owner's holdings.
func (s *HoldingService) GetHolding(ctx context.Context, ownerID, id string) (model.Holding, error) {
	return s.holdingRepo.GetHolding(ctx, ownerID, id)
}

// CreateHolding registers a holding for the owner.
//
// A missing symbol is looked up in the listed-issue catalog by name, and a
// missing name is taken from the catalog or the first quote. The first quote
// also seeds the price snapshot; when it cannot be resolved the holding is
// stored without one.
//
// Returns:
//   - model.Holding: the stored holding
//   - error: apperrors.ErrSymbolNotFound when the name is not listed, or a
//     storage error
func (s *HoldingService) CreateHolding(ctx context.Context, ownerID string, req request.CreateHoldingRequest) (model.Holding, error) {
	purchaseDate, err := time.Parse(market.DateLayout, req.PurchaseDate)
	if err != nil {
		return model.Holding{}, fmt.Errorf("invalid purchase date: %w", err)
	}

	name := strings.TrimSpace(req.Name)
	symbol := req.Symbol
	if symbol == "" {
		if s.catalog == nil {
			return model.Holding{}, apperrors.ErrCatalogUnavailable
		}
		if symbol, err = s.catalog.LookupCode(ctx, name); err != nil {
			return model.Holding{}, fmt.Errorf("%w: %q", err, name)
		}
	}
	if name == "" && s.catalog != nil {
		name, _ = s.catalog.LookupName(ctx, symbol)
	}

	now := s.now()
	h := model.Holding{
		ID:            uuid.New().String(),
		OwnerID:       ownerID,
		Name:          name,
		Symbol:        symbol,
		PurchasePrice: truncatePrice(req.PurchasePrice),
		PurchaseDate:  purchaseDate,
		Enabled:       true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.TakeProfitRate != nil {
		h.TakeProfitRate = model.RateFromFloat(*req.TakeProfitRate)
	}
	if req.StopLossRate != nil {
		h.StopLossRate = model.RateFromFloat(*req.StopLossRate)
	}
	if req.Enabled != nil {
		h.Enabled = *req.Enabled
	}

	res := s.resolver.Resolve(ctx, symbol)
	if res.Resolved {
		h.CurrentPrice = res.Quote.CurrentPrice
		h.CurrentDate = market.Date(now)
		_, h.ProfitRate = computeProfit(h.CurrentPrice, h.PurchasePrice)
		if h.Name == "" {
			h.Name = res.Quote.Name
		}
	} else {
		s.log.Warn().Str("symbol", symbol).Msg("no quote for new holding, storing without snapshot")
	}
	if h.Name == "" {
		h.Name = symbol
	}

	if err := s.holdingRepo.InsertHolding(ctx, h); err != nil {
		return model.Holding{}, err
	}
	return h, nil
}

// UpdateHolding applies the provided fields to the owner's holding. The
// stored profit rate follows a changed purchase price.
func (s *HoldingService) UpdateHolding(ctx context.Context, ownerID, id string, req request.UpdateHoldingRequest) (model.Holding, error) {
	h, err := s.holdingRepo.GetHolding(ctx, ownerID, id)
	if err != nil {
		return model.Holding{}, err
	}

	if req.Name != nil {
		h.Name = strings.TrimSpace(*req.Name)
	}
	if req.PurchasePrice != nil {
		h.PurchasePrice = truncatePrice(*req.PurchasePrice)
	}
	if req.PurchaseDate != nil {
		if h.PurchaseDate, err = time.Parse(market.DateLayout, *req.PurchaseDate); err != nil {
			return model.Holding{}, fmt.Errorf("invalid purchase date: %w", err)
		}
	}
	if req.TakeProfitRate != nil {
		h.TakeProfitRate = model.RateFromFloat(*req.TakeProfitRate)
	}
	if req.StopLossRate != nil {
		h.StopLossRate = model.RateFromFloat(*req.StopLossRate)
	}
	if req.Enabled != nil {
		h.Enabled = *req.Enabled
	}
	if req.Hidden != nil {
		h.Hidden = *req.Hidden
	}
	if h.HasSnapshot() {
		_, h.ProfitRate = computeProfit(h.CurrentPrice, h.PurchasePrice)
	}
	h.UpdatedAt = s.now()

	if err := s.holdingRepo.UpdateHolding(ctx, h); err != nil {
		return model.Holding{}, err
	}
	return h, nil
}

// DeleteHolding removes the owner's holding.
func (s *HoldingService) DeleteHolding(ctx context.Context, ownerID, id string) error {
	return s.holdingRepo.DeleteHolding(ctx, ownerID, id)
}

// ToggleHidden flips the hidden flag and returns the updated holding.
func (s *HoldingService) ToggleHidden(ctx context.Context, ownerID, id string) (model.Holding, error) {
	h, err := s.holdingRepo.GetHolding(ctx, ownerID, id)
	if err != nil {
		return model.Holding{}, err
	}
	if err := s.holdingRepo.SetHidden(ctx, ownerID, id, !h.Hidden); err != nil {
		if errors.Is(err, apperrors.ErrHoldingNotFound) {
			return model.Holding{}, err
		}
		return model.Holding{}, fmt.Errorf("failed to toggle hidden: %w", err)
	}
	h.Hidden = !h.Hidden
	return h, nil
}

// maxPurchasePrice matches the request validation ceiling of one trillion won.
const maxPurchasePrice = 1_000_000_000_000

// truncatePrice drops the fractional part of a submitted price and clamps it
// to [0, maxPurchasePrice].
func truncatePrice(p float64) int64 {
	if p <= 0 || math.IsNaN(p) {
		return 0
	}
	if p >= maxPurchasePrice {
		return maxPurchasePrice
	}
	return int64(math.Trunc(p))
}
