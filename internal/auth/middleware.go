package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/straye-as/contact-distribution-api/internal/domain"
	"github.com/straye-as/contact-distribution-api/internal/logger"
	"go.uber.org/zap"
)

// PrincipalResolver loads the current state of an authenticated principal
type PrincipalResolver interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Principal, error)
}

// Middleware handles authentication for HTTP requests
type Middleware struct {
	tokens   *TokenManager
	resolver PrincipalResolver
	logger   *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(tokens *TokenManager, resolver PrincipalResolver, logger *zap.Logger) *Middleware {
	return &Middleware{
		tokens:   tokens,
		resolver: resolver,
		logger:   logger,
	}
}

// Authenticate requires a valid bearer token belonging to an existing, active principal.
// Role, name and email are refreshed from storage so that edits and
// deactivation take effect before the token expires.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized: missing authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			http.Error(w, "Unauthorized: invalid authorization header format", http.StatusUnauthorized)
			return
		}

		userCtx, err := m.tokens.Validate(parts[1])
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
			return
		}

		principal, err := m.resolver.GetByID(r.Context(), userCtx.PrincipalID)
		if err != nil || principal == nil || !principal.IsActive {
			m.logger.Warn("token for unknown or inactive principal",
				zap.String("principal_id", userCtx.PrincipalID.String()),
				zap.Error(err),
			)
			http.Error(w, "Unauthorized: principal inactive or removed", http.StatusUnauthorized)
			return
		}
		userCtx.Name = principal.Name
		userCtx.Email = principal.Email
		userCtx.Role = principal.Role

		logger.WithPrincipal(m.logger, userCtx.PrincipalID, string(userCtx.Role)).Debug("request authenticated",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)

		RecordPrincipal(r.Context(), userCtx)
		next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
	})
}

// RequireRole middleware ensures the principal has one of the given roles
func (m *Middleware) RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userCtx, ok := FromContext(r.Context())
			if !ok {
				http.Error(w, "Forbidden: no user context", http.StatusForbidden)
				return
			}

			if !userCtx.HasAnyRole(roles...) {
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
