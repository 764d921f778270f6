package handlers

import (
	"net/http"
	"time"

	"github.com/ndewijer/Yield-Bank-Backend/internal/market"
)

// MarketHandler reports the exchange session state.
type MarketHandler struct {
	cadence market.Cadence
	now     func() time.Time
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(cadence market.Cadence, now func() time.Time) *MarketHandler {
	if now == nil {
		now = time.Now
	}
	return &MarketHandler{cadence: cadence, now: now}
}

// Status handles GET /api/market/status.
func (h *MarketHandler) Status(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.cadence.Status(h.now()))
}
