package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Yield-Bank-Backend/internal/api/response"
	"github.com/ndewijer/Yield-Bank-Backend/internal/service"
	"github.com/ndewijer/Yield-Bank-Backend/internal/validation"
)

// QuoteHandler serves ad-hoc quote lookups.
type QuoteHandler struct {
	resolver service.QuoteResolver
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(resolver service.QuoteResolver) *QuoteHandler {
	return &QuoteHandler{resolver: resolver}
}

// Quote resolves one symbol. An unresolved symbol is still a 200 with
// resolved=false and the per-source failures.
//
// Endpoint: GET /api/quote/{symbol}
// Response: 200 OK with model.Resolution
// Error: 400 Bad Request for a malformed symbol
func (h *QuoteHandler) Quote(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	if err := validation.ValidateSymbol(symbol); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid symbol", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, h.resolver.Resolve(r.Context(), symbol))
}
