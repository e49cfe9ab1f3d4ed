package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/straye-as/contact-distribution-api/internal/auth"
	"github.com/straye-as/contact-distribution-api/internal/domain"
	"github.com/straye-as/contact-distribution-api/internal/repository"
	"github.com/straye-as/contact-distribution-api/internal/service"
	"go.uber.org/zap"
)

// maxJSONBodyBytes caps JSON request bodies
const maxJSONBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondValidationError sends a standardized validation error response with specific field messages
func respondValidationError(w http.ResponseWriter, fields map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   domain.ErrorTypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: "One or more fields failed validation",
		Errors: fields,
	})
}

// respondWithError sends a standardized JSON error response
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithErrorType(w, status, getErrorType(status), message)
}

func respondWithErrorType(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   errorType,
		Title:  http.StatusText(status),
		Status: status,
		Detail: message,
	})
}

// getErrorType returns the appropriate error type for an HTTP status code
func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrorTypeBadRequest
	case http.StatusUnauthorized:
		return domain.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return domain.ErrorTypeForbidden
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusConflict:
		return domain.ErrorTypeConflict
	case http.StatusUnsupportedMediaType:
		return domain.ErrorTypeUnsupportedMedia
	case http.StatusRequestEntityTooLarge:
		return domain.ErrorTypeTooLarge
	case http.StatusUnprocessableEntity:
		return domain.ErrorTypeUnprocessable
	default:
		return domain.ErrorTypeInternal
	}
}

// handleServiceError maps engine errors onto HTTP responses.
// Unexpected errors are logged and reported as 500 without detail.
func handleServiceError(w http.ResponseWriter, logger *zap.Logger, err error, msg string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		respondValidationError(w, verr.Fields)
	case errors.Is(err, service.ErrValidation):
		respondWithErrorType(w, http.StatusBadRequest, domain.ErrorTypeValidation, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrAuthorization):
		respondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFoundOrForbidden):
		respondWithError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, service.ErrDuplicateEmail):
		respondWithError(w, http.StatusConflict, "Email already exists")
	case errors.Is(err, service.ErrAllocationConflict):
		respondWithErrorType(w, http.StatusConflict, domain.ErrorTypeAllocationConflict, "Agent number allocation conflict, please retry")
	case errors.Is(err, service.ErrNoEligibleTargets):
		respondWithErrorType(w, http.StatusUnprocessableEntity, domain.ErrorTypeNoEligibleTargets, "No active subordinates to distribute to")
	case errors.Is(err, service.ErrNoValidRows):
		respondWithError(w, http.StatusUnprocessableEntity, "No valid rows found: every row needs a first name and a phone number")
	case errors.Is(err, service.ErrUnsupportedFileType):
		respondWithError(w, http.StatusUnsupportedMediaType, "Only CSV, XLSX and XLS files are allowed")
	case errors.Is(err, service.ErrFileTooLarge):
		respondWithError(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		logger.Error(msg, zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, msg)
	}
}

// decodeJSON reads a JSON request body into target, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, target interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// parseUUIDParam parses a chi URL parameter as a UUID
func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: must be a valid UUID", name)
	}
	return id, nil
}

// callerFromRequest returns the authenticated caller or writes a 401
func callerFromRequest(w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return domain.Caller{}, false
	}
	return userCtx.Caller(), true
}

// parseSortConfig reads sortBy and sortOrder query parameters
func parseSortConfig(r *http.Request) repository.SortConfig {
	sort := repository.DefaultSortConfig()
	if by := strings.TrimSpace(r.URL.Query().Get("sortBy")); by != "" {
		sort.Field = by
	}
	if order := r.URL.Query().Get("sortOrder"); order != "" {
		sort.Order = repository.ParseSortOrder(order)
	}
	return sort
}
