package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/straye-as/contact-distribution-api/internal/config"
	"github.com/straye-as/contact-distribution-api/internal/database"
	"github.com/straye-as/contact-distribution-api/internal/logger"
	"github.com/straye-as/contact-distribution-api/internal/repository"
	"github.com/straye-as/contact-distribution-api/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// services is what the subcommands operate on
type services struct {
	hierarchy *service.HierarchyService
	numbers   *service.AgentNumberService
	close     func()
}

type connectFunc func(ctx context.Context) (*services, error)

func newRootCmd(connect connectFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "admin",
		Short:         "Contact distribution maintenance tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newCreateOwnerCmd(connect))
	cmd.AddCommand(newSequenceCmd(connect))
	return cmd
}

// connectServices wires the services against the configured database
func connectServices(ctx context.Context) (*services, error) {
	cfg, err := config.LoadWithSecrets(ctx, zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	svc := newServices(db, cfg.Auth.BcryptCost, log)
	svc.close = func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = log.Sync()
	}
	return svc, nil
}

func newServices(db *gorm.DB, bcryptCost int, log *zap.Logger) *services {
	principals := repository.NewPrincipalRepository(db)
	numbers := repository.NewAgentNumberRepository(db)
	return &services{
		hierarchy: service.NewHierarchyService(db, principals, numbers, bcryptCost, log),
		numbers:   service.NewAgentNumberService(numbers, log),
		close:     func() {},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
