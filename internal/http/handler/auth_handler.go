package handler

import (
	"net/http"

	"github.com/straye-as/contact-distribution-api/internal/domain"
	"github.com/straye-as/contact-distribution-api/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService      *service.AuthService
	hierarchyService *service.HierarchyService
	logger           *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, hierarchyService *service.HierarchyService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:      authService,
		hierarchyService: hierarchyService,
		logger:           logger,
	}
}

// Login exchanges email and password for a bearer token.
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to log in")
		return
	}

	respondJSON(w, http.StatusOK, token)
}

// Me returns the authenticated principal.
// GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	profile, err := h.hierarchyService.Profile(r.Context(), caller)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to load profile")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// UpdateMe edits the authenticated principal's own name, email and mobile number.
// PUT /me
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var req domain.UpdatePrincipalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.hierarchyService.UpdateProfile(r.Context(), caller, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to update profile")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}
