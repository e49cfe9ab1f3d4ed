package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/straye-as/contact-distribution-api/internal/auth"
	"github.com/straye-as/contact-distribution-api/internal/config"
	"github.com/straye-as/contact-distribution-api/internal/database"
	"github.com/straye-as/contact-distribution-api/internal/http/handler"
	"github.com/straye-as/contact-distribution-api/internal/http/middleware"
	"github.com/straye-as/contact-distribution-api/internal/http/router"
	"github.com/straye-as/contact-distribution-api/internal/jobs"
	"github.com/straye-as/contact-distribution-api/internal/logger"
	"github.com/straye-as/contact-distribution-api/internal/repository"
	"github.com/straye-as/contact-distribution-api/internal/service"
	"github.com/straye-as/contact-distribution-api/internal/storage"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database with retry logic
	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Deployed environments are migrated with cmd/migrate
	if cfg.App.Environment == "development" {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to auto-migrate database: %w", err)
		}
		log.Info("Database schema auto-migrated")
	}

	staging, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Upload staging initialized", zap.String("mode", cfg.Storage.Mode))

	tokens, err := auth.NewTokenManager(&cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token manager: %w", err)
	}

	// Repositories
	principalRepo := repository.NewPrincipalRepository(db)
	agentNumberRepo := repository.NewAgentNumberRepository(db)
	batchRepo := repository.NewBatchRepository(db)

	// Services
	maxUploadBytes := cfg.Upload.MaxUploadBytes()
	hierarchyService := service.NewHierarchyService(db, principalRepo, agentNumberRepo, cfg.Auth.BcryptCost, log)
	distributionService := service.NewDistributionService(principalRepo, batchRepo, staging, maxUploadBytes, log)
	authService := service.NewAuthService(principalRepo, tokens, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(tokens, principalRepo, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, hierarchyService, log)
	principalHandler := handler.NewPrincipalHandler(hierarchyService, log)
	distributionHandler := handler.NewDistributionHandler(distributionService, maxUploadBytes, log)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		authHandler,
		principalHandler,
		distributionHandler,
	)

	// Background sweep of staged uploads abandoned by crashed requests
	scheduler := jobs.NewScheduler(log)
	if err := jobs.RegisterStagingCleanupJob(
		scheduler,
		staging,
		log,
		cfg.Upload.StagingCleanupCron,
		cfg.Upload.StagingMaxAgeDuration(),
	); err != nil {
		log.Error("Failed to register staging cleanup job", zap.Error(err))
	} else {
		scheduler.Start()
		log.Info("Scheduler started with staging cleanup job",
			zap.String("cron_expr", cfg.Upload.StagingCleanupCron),
			zap.Duration("max_age", cfg.Upload.StagingMaxAgeDuration()),
		)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		stopped := scheduler.Stop()
		<-stopped.Done()
		log.Info("Scheduler stopped")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Warn("Error closing database connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
