package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ndewijer/Yield-Bank-Backend/internal/api/response"
	"github.com/ndewijer/Yield-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
	"github.com/ndewijer/Yield-Bank-Backend/internal/service"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// CatalogHandler searches the listed-issue catalog.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Search handles GET requests for issues whose code or name matches q.
//
// Endpoint: GET /api/catalog/search?q={query}&limit={n}
// Response: 200 OK with array of model.ListedIssue
// Error: 400 Bad Request without q, 503 Service Unavailable when the
// catalog is not configured
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		response.RespondError(w, http.StatusBadRequest, "query parameter q is required", "")
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSearchLimit {
			response.RespondError(w, http.StatusBadRequest, "invalid limit", "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	if !h.catalog.Configured() {
		response.RespondError(w, http.StatusServiceUnavailable, apperrors.ErrCatalogUnavailable.Error(), "")
		return
	}

	issues := h.catalog.Search(r.Context(), q, limit)
	if issues == nil {
		issues = []model.ListedIssue{}
	}
	respondJSON(w, http.StatusOK, issues)
}
