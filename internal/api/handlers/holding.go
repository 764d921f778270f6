package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Yield-Bank-Backend/internal/api/request"
	"github.com/ndewijer/Yield-Bank-Backend/internal/api/response"
	"github.com/ndewijer/Yield-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
	"github.com/ndewijer/Yield-Bank-Backend/internal/service"
	"github.com/ndewijer/Yield-Bank-Backend/internal/validation"
)

// HoldingHandler handles HTTP requests for holding endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the holding and reconcile services.
type HoldingHandler struct {
	holdingService   *service.HoldingService
	reconcileService *service.ReconcileService
}

// NewHoldingHandler creates a new HoldingHandler with the provided service dependencies.
func NewHoldingHandler(holdingService *service.HoldingService, reconcileService *service.ReconcileService) *HoldingHandler {
	return &HoldingHandler{
		holdingService:   holdingService,
		reconcileService: reconcileService,
	}
}

// Holdings handles GET requests for the caller's reconciled holdings.
// Hidden holdings are included and flagged; quote failures never fail the
// request.
//
// Endpoint: GET /api/holding
// Response: 200 OK with array of model.ReconciledHolding
// Error: 500 Internal Server Error if holdings cannot be loaded
func (h *HoldingHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerOf(w, r)
	if !ok {
		return
	}

	holdings, err := h.reconcileService.ReconcileOwner(r.Context(), owner)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve holdings", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, holdings)
}

// Holding handles GET requests for one reconciled holding.
//
// Endpoint: GET /api/holding/{uuid}
// Response: 200 OK with model.ReconciledHolding
// Error: 404 Not Found if the holding does not belong to the caller
func (h *HoldingHandler) Holding(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerOf(w, r)
	if !ok {
		return
	}

	holding, err := h.holdingService.GetHolding(r.Context(), owner, chi.URLParam(r, "uuid"))
	if err != nil {
		respondHoldingError(w, err, "failed to retrieve holding")
		return
	}

	respondJSON(w, http.StatusOK, h.reconcileService.Reconcile(r.Context(), []model.Holding{holding})[0])
}

// CreateHolding handles POST requests to register a holding.
//
// Endpoint: POST /api/holding
// Request: request.CreateHoldingRequest
// Response: 201 Created with model.Holding
// Error: 400 Bad Request on validation failure or an unknown name,
// 503 Service Unavailable when a name lookup needs the catalog and it is down
func (h *HoldingHandler) CreateHolding(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerOf(w, r)
	if !ok {
		return
	}

	req, err := parseJSON[request.CreateHoldingRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateHolding(req); err != nil {
		respondValidation(w, err)
		return
	}

	holding, err := h.holdingService.CreateHolding(r.Context(), owner, req)
	if err != nil {
		respondHoldingError(w, err, "failed to create holding")
		return
	}

	response.RespondJSON(w, http.StatusCreated, holding)
}

// UpdateHolding handles PUT requests to edit a holding.
//
// Endpoint: PUT /api/holding/{uuid}
// Request: request.UpdateHoldingRequest
// Response: 200 OK with model.Holding
func (h *HoldingHandler) UpdateHolding(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerOf(w, r)
	if !ok {
		return
	}

	req, err := parseJSON[request.UpdateHoldingRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateHolding(req); err != nil {
		respondValidation(w, err)
		return
	}

	holding, err := h.holdingService.UpdateHolding(r.Context(), owner, chi.URLParam(r, "uuid"), req)
	if err != nil {
		respondHoldingError(w, err, "failed to update holding")
		return
	}

	respondJSON(w, http.StatusOK, holding)
}

// DeleteHolding handles DELETE requests.
//
// Endpoint: DELETE /api/holding/{uuid}
// Response: 204 No Content
func (h *HoldingHandler) DeleteHolding(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerOf(w, r)
	if !ok {
		return
	}

	if err := h.holdingService.DeleteHolding(r.Context(), owner, chi.URLParam(r, "uuid")); err != nil {
		respondHoldingError(w, err, "failed to delete holding")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ToggleHidden handles POST requests that flip a holding's hidden flag.
//
// Endpoint: POST /api/holding/{uuid}/hidden
// Response: 200 OK with model.Holding
func (h *HoldingHandler) ToggleHidden(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerOf(w, r)
	if !ok {
		return
	}

	holding, err := h.holdingService.ToggleHidden(r.Context(), owner, chi.URLParam(r, "uuid"))
	if err != nil {
		respondHoldingError(w, err, "failed to toggle hidden")
		return
	}

	respondJSON(w, http.StatusOK, holding)
}

func respondHoldingError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrHoldingNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrHoldingNotFound.Error(), err.Error())
	case errors.Is(err, apperrors.ErrSymbolNotFound):
		response.RespondError(w, http.StatusBadRequest, apperrors.ErrSymbolNotFound.Error(), err.Error())
	case errors.Is(err, apperrors.ErrCatalogUnavailable):
		response.RespondError(w, http.StatusServiceUnavailable, apperrors.ErrCatalogUnavailable.Error(), err.Error())
	default:
		response.RespondError(w, http.StatusInternalServerError, fallback, err.Error())
	}
}
