package handler

import (
	"net/http"

	"github.com/straye-as/contact-distribution-api/internal/domain"
	"github.com/straye-as/contact-distribution-api/internal/service"
	"go.uber.org/zap"
)

// PrincipalHandler exposes the caller's part of the hierarchy
type PrincipalHandler struct {
	hierarchyService *service.HierarchyService
	logger           *zap.Logger
}

func NewPrincipalHandler(hierarchyService *service.HierarchyService, logger *zap.Logger) *PrincipalHandler {
	return &PrincipalHandler{
		hierarchyService: hierarchyService,
		logger:           logger,
	}
}

// List returns the caller's immediate subordinates.
// GET /principals?sortBy=createdAt&sortOrder=desc
func (h *PrincipalHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	principals, err := h.hierarchyService.ListSubordinates(r.Context(), caller, parseSortConfig(r))
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to list principals")
		return
	}

	respondJSON(w, http.StatusOK, principals)
}

// Create adds a principal one level below the caller.
// POST /principals
func (h *PrincipalHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var req domain.CreatePrincipalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	principal, err := h.hierarchyService.CreateSubordinate(r.Context(), caller, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to create principal")
		return
	}

	w.Header().Set("Location", "/api/v1/principals/"+principal.ID.String())
	respondJSON(w, http.StatusCreated, principal)
}

// GetByID returns one principal in the caller's scope.
// GET /principals/{id}
func (h *PrincipalHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	principal, err := h.hierarchyService.GetPrincipal(r.Context(), caller, id)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to get principal")
		return
	}

	respondJSON(w, http.StatusOK, principal)
}

// Update applies a partial update.
// PUT /principals/{id}
func (h *PrincipalHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.UpdatePrincipalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	principal, err := h.hierarchyService.UpdatePrincipal(r.Context(), caller, id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to update principal")
		return
	}

	respondJSON(w, http.StatusOK, principal)
}

// UpdateStatus activates or deactivates a subordinate.
// PATCH /principals/{id}/status
func (h *PrincipalHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.UpdateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	principal, err := h.hierarchyService.SetStatus(r.Context(), caller, id, req.IsActive)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to update status")
		return
	}

	respondJSON(w, http.StatusOK, principal)
}

// Delete removes a subordinate.
// DELETE /principals/{id}
func (h *PrincipalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.hierarchyService.DeletePrincipal(r.Context(), caller, id); err != nil {
		handleServiceError(w, h.logger, err, "Failed to delete principal")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
