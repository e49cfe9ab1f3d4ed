package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/straye-as/contact-distribution-api/internal/service"
	"go.uber.org/zap"
)

// multipartOverhead leaves room for boundaries and part headers on top of the file limit
const multipartOverhead = 1 << 20

type DistributionHandler struct {
	distributionService *service.DistributionService
	maxUploadBytes      int64
	logger              *zap.Logger
}

func NewDistributionHandler(distributionService *service.DistributionService, maxUploadBytes int64, logger *zap.Logger) *DistributionHandler {
	return &DistributionHandler{
		distributionService: distributionService,
		maxUploadBytes:      maxUploadBytes,
		logger:              logger,
	}
}

// Upload receives a CSV or Excel file and distributes its contacts across the
// caller's active subordinates.
// POST /distributions/upload (multipart/form-data, field "file")
func (h *DistributionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondWithError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File too large: maximum size is %d bytes", h.maxUploadBytes))
			return
		}
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondValidationError(w, map[string]string{"file": "A file is required"})
		return
	}
	defer file.Close()

	summary, err := h.distributionService.UploadAndDistribute(r.Context(), caller, header.Filename, file)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to distribute upload")
		return
	}

	respondJSON(w, http.StatusCreated, summary)
}

// List returns batches the caller created, optionally for one target.
// GET /distributions?targetId={id|all}
func (h *DistributionHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	batches, err := h.distributionService.ListBatches(r.Context(), caller, r.URL.Query().Get("targetId"))
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to list distributions")
		return
	}

	respondJSON(w, http.StatusOK, batches)
}

// ListAssigned returns batches addressed to the caller.
// GET /distributions/assigned
func (h *DistributionHandler) ListAssigned(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	batches, err := h.distributionService.ListAssigned(r.Context(), caller)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to list assigned distributions")
		return
	}

	respondJSON(w, http.StatusOK, batches)
}

// Delete removes a batch the caller created.
// DELETE /distributions/{id}
func (h *DistributionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.distributionService.DeleteBatch(r.Context(), caller, id); err != nil {
		handleServiceError(w, h.logger, err, "Failed to delete distribution")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
