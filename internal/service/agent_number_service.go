package service

import (
	"context"
	"fmt"

	"github.com/straye-as/contact-distribution-api/internal/domain"
	"github.com/straye-as/contact-distribution-api/internal/repository"
	"go.uber.org/zap"
)

// AgentNumberService exposes maintenance operations on the global agent number counter.
//
// Format: AGT{SEQUENCE}, zero-padded to three digits (AGT001, AGT042, AGT1000).
// Numbering is global: agents of different owners share one sequence.
type AgentNumberService struct {
	repo   *repository.AgentNumberRepository
	logger *zap.Logger
}

// NewAgentNumberService creates a new AgentNumberService
func NewAgentNumberService(repo *repository.AgentNumberRepository, logger *zap.Logger) *AgentNumberService {
	return &AgentNumberService{
		repo:   repo,
		logger: logger,
	}
}

// Current returns the last issued sequence value and the number the next agent will receive
func (s *AgentNumberService) Current(ctx context.Context) (last int, next string, err error) {
	last, err = s.repo.Current(ctx)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read agent number sequence: %w", err)
	}
	return last, domain.FormatAgentNumber(last + 1), nil
}

// Set moves the counter forward so the next agent receives value+1.
// Values below the current counter are ignored.
func (s *AgentNumberService) Set(ctx context.Context, value int) (int, error) {
	if value < 0 {
		return 0, NewValidationError("value", "must not be negative")
	}
	effective, err := s.repo.Set(ctx, value)
	if err != nil {
		return 0, fmt.Errorf("failed to set agent number sequence: %w", err)
	}

	s.logger.Info("agent number sequence set",
		zap.Int("requested", value),
		zap.Int("effective", effective),
	)
	return effective, nil
}
