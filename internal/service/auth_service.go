package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/straye-as/contact-distribution-api/internal/auth"
	"github.com/straye-as/contact-distribution-api/internal/domain"
	"github.com/straye-as/contact-distribution-api/internal/mapper"
	"github.com/straye-as/contact-distribution-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthService exchanges credentials for access tokens
type AuthService struct {
	principals *repository.PrincipalRepository
	tokens     *auth.TokenManager
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(principals *repository.PrincipalRepository, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	return &AuthService{
		principals: principals,
		tokens:     tokens,
		logger:     logger,
	}
}

// Login verifies the credential and issues a token. Unknown emails, wrong
// passwords and deactivated principals all fail with ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.TokenDTO, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	p, err := s.principals.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load principal: %w", err)
	}

	ok, err := auth.CheckPassword(p.CredentialHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify credential: %w", err)
	}
	if !ok || !p.IsActive {
		s.logger.Info("login rejected",
			zap.String("principal_id", p.ID.String()),
			zap.Bool("active", p.IsActive),
		)
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(p)
	if err != nil {
		return nil, err
	}

	return &domain.TokenDTO{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
		Principal:   mapper.ToPrincipalDTO(p),
	}, nil
}
