package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/straye-as/contact-distribution-api/internal/auth"
	"github.com/straye-as/contact-distribution-api/internal/config"
	"github.com/straye-as/contact-distribution-api/internal/database"
	"github.com/straye-as/contact-distribution-api/internal/domain"
	"github.com/straye-as/contact-distribution-api/internal/http/handler"
	"github.com/straye-as/contact-distribution-api/internal/http/middleware"
	"github.com/straye-as/contact-distribution-api/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Router struct {
	cfg                 *config.Config
	logger              *zap.Logger
	db                  *gorm.DB
	authMiddleware      *auth.Middleware
	rateLimiter         *middleware.RateLimiter
	authHandler         *handler.AuthHandler
	principalHandler    *handler.PrincipalHandler
	distributionHandler *handler.DistributionHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *handler.AuthHandler,
	principalHandler *handler.PrincipalHandler,
	distributionHandler *handler.DistributionHandler,
) *Router {
	return &Router{
		cfg:                 cfg,
		logger:              logger,
		db:                  db,
		authMiddleware:      authMiddleware,
		rateLimiter:         rateLimiter,
		authHandler:         authHandler,
		principalHandler:    principalHandler,
		distributionHandler: distributionHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)
	if timeout := rt.cfg.Server.RequestTimeoutDuration(); timeout > 0 {
		r.Use(chimiddleware.Timeout(timeout))
	}

	// Liveness check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Readiness check with pool stats
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		stats, err := database.HealthCheck(r.Context(), rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats":   stats,
		})
	})

	if rt.cfg.Metrics.Enabled {
		r.Handle(rt.cfg.Metrics.Path, metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", rt.authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.rateLimiter.LimitByPrincipal)

			r.Get("/me", rt.authHandler.Me)
			r.Put("/me", rt.authHandler.UpdateMe)

			r.Route("/principals", func(r chi.Router) {
				r.Get("/", rt.principalHandler.List)
				r.Post("/", rt.principalHandler.Create)
				r.Get("/{id}", rt.principalHandler.GetByID)
				r.Put("/{id}", rt.principalHandler.Update)
				r.Patch("/{id}/status", rt.principalHandler.UpdateStatus)
				r.Delete("/{id}", rt.principalHandler.Delete)
			})

			r.Route("/distributions", func(r chi.Router) {
				// Any principal can read what was assigned to it
				r.Get("/assigned", rt.distributionHandler.ListAssigned)

				r.Group(func(r chi.Router) {
					r.Use(rt.authMiddleware.RequireRole(domain.RoleOwner, domain.RoleAgent))
					r.Post("/upload", rt.distributionHandler.Upload)
					r.Get("/", rt.distributionHandler.List)
					r.Delete("/{id}", rt.distributionHandler.Delete)
				})
			})
		})
	})

	return r
}
