package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/straye-as/contact-distribution-api/internal/auth"
	"github.com/straye-as/contact-distribution-api/internal/domain"
	"github.com/straye-as/contact-distribution-api/internal/mapper"
	"github.com/straye-as/contact-distribution-api/internal/metrics"
	"github.com/straye-as/contact-distribution-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HierarchyService manages principals within the caller's subtree.
// Every operation takes the authenticated caller; authorization is decided by
// domain.CanAccess and queries are scoped by the repository.
type HierarchyService struct {
	db         *gorm.DB
	principals *repository.PrincipalRepository
	numbers    *repository.AgentNumberRepository
	bcryptCost int
	logger     *zap.Logger
}

// NewHierarchyService creates a new HierarchyService
func NewHierarchyService(
	db *gorm.DB,
	principals *repository.PrincipalRepository,
	numbers *repository.AgentNumberRepository,
	bcryptCost int,
	logger *zap.Logger,
) *HierarchyService {
	return &HierarchyService{
		db:         db,
		principals: principals,
		numbers:    numbers,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// CreateSubordinate creates the principal one level below the caller.
// Agents receive the next global agent number inside the same transaction as the insert.
func (s *HierarchyService) CreateSubordinate(ctx context.Context, caller domain.Caller, req *domain.CreatePrincipalRequest) (*domain.PrincipalDTO, error) {
	p, ok := domain.NewSubordinate(caller)
	if !ok {
		return nil, fmt.Errorf("%w: role %s cannot create principals", ErrAuthorization, caller.Role)
	}

	if err := s.fillNewPrincipal(ctx, p, req); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.Role == domain.RoleAgent {
			seq, err := s.numbers.WithTx(tx).Next(ctx)
			if err != nil {
				return err
			}
			number := domain.FormatAgentNumber(seq)
			p.AgentNumber = &number
		}
		if err := domain.ValidateEdges(p, caller.Role); err != nil {
			return err
		}
		return s.principals.WithTx(tx).Create(ctx, p)
	})
	if err != nil {
		return nil, s.translateWriteError(err, "failed to create principal")
	}

	if p.Role == domain.RoleAgent {
		metrics.AgentNumbersIssuedTotal.Inc()
	}

	s.logger.Info("principal created",
		zap.String("principal_id", p.ID.String()),
		zap.String("role", string(p.Role)),
		zap.String("created_by", caller.ID.String()),
		zap.Stringp("agent_number", p.AgentNumber),
	)

	dto := mapper.ToPrincipalDTO(p)
	return &dto, nil
}

// CreateOwner bootstraps a top-level principal. It is not reachable over HTTP.
func (s *HierarchyService) CreateOwner(ctx context.Context, req *domain.CreatePrincipalRequest) (*domain.PrincipalDTO, error) {
	p := &domain.Principal{Role: domain.RoleOwner, IsActive: true}
	if err := s.fillNewPrincipal(ctx, p, req); err != nil {
		return nil, err
	}
	if err := domain.ValidateEdges(p, ""); err != nil {
		return nil, err
	}
	if err := s.principals.Create(ctx, p); err != nil {
		return nil, s.translateWriteError(err, "failed to create owner")
	}

	s.logger.Info("owner created", zap.String("principal_id", p.ID.String()))
	dto := mapper.ToPrincipalDTO(p)
	return &dto, nil
}

func (s *HierarchyService) fillNewPrincipal(ctx context.Context, p *domain.Principal, req *domain.CreatePrincipalRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = repository.NormalizeEmail(req.Email)
	req.MobileNumber = strings.TrimSpace(req.MobileNumber)
	if err := validateStruct(req); err != nil {
		return err
	}

	taken, err := s.principals.EmailTaken(ctx, req.Email, nil)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return ErrDuplicateEmail
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return err
	}

	p.Name = req.Name
	p.Email = req.Email
	p.MobileNumber = req.MobileNumber
	p.CredentialHash = hash
	return nil
}

// ListSubordinates returns the caller's immediate subordinates, or the caller itself for a sub-agent
func (s *HierarchyService) ListSubordinates(ctx context.Context, caller domain.Caller, sort repository.SortConfig) ([]domain.PrincipalDTO, error) {
	principals, err := s.principals.ListScoped(ctx, caller, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to list principals: %w", err)
	}
	return mapper.ToPrincipalDTOs(principals), nil
}

// GetPrincipal returns one principal the caller may read
func (s *HierarchyService) GetPrincipal(ctx context.Context, caller domain.Caller, id uuid.UUID) (*domain.PrincipalDTO, error) {
	target, err := s.loadFor(ctx, caller, id, domain.ActionRead)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToPrincipalDTO(target)
	return &dto, nil
}

// UpdatePrincipal applies a partial update. Changing isActive requires the
// update_status action, which no principal holds on itself.
func (s *HierarchyService) UpdatePrincipal(ctx context.Context, caller domain.Caller, id uuid.UUID, req *domain.UpdatePrincipalRequest) (*domain.PrincipalDTO, error) {
	target, err := s.loadFor(ctx, caller, id, domain.ActionUpdate)
	if err != nil {
		return nil, err
	}

	fields, err := s.buildUpdate(ctx, target, req)
	if err != nil {
		return nil, err
	}

	if req.IsActive != nil {
		if !domain.CanAccess(caller, target, domain.ActionUpdateStatus) {
			return nil, fmt.Errorf("%w: cannot change own status", ErrAuthorization)
		}
		active, err := domain.ParseActiveFlag(req.IsActive)
		if err != nil {
			return nil, NewValidationError("isActive", err.Error())
		}
		fields["is_active"] = active
	}

	return s.applyUpdate(ctx, caller, target, fields)
}

// SetStatus activates or deactivates a subordinate. isActive may be a bool or a "true"/"false" string.
func (s *HierarchyService) SetStatus(ctx context.Context, caller domain.Caller, id uuid.UUID, isActive any) (*domain.PrincipalDTO, error) {
	target, err := s.loadFor(ctx, caller, id, domain.ActionRead)
	if err != nil {
		return nil, err
	}
	if !domain.CanAccess(caller, target, domain.ActionUpdateStatus) {
		if target.ID == caller.ID {
			return nil, fmt.Errorf("%w: cannot change own status", ErrAuthorization)
		}
		return nil, ErrNotFoundOrForbidden
	}

	active, err := domain.ParseActiveFlag(isActive)
	if err != nil {
		return nil, NewValidationError("isActive", err.Error())
	}

	return s.applyUpdate(ctx, caller, target, map[string]interface{}{"is_active": active})
}

// DeletePrincipal removes a subordinate. Batches addressed to it are kept;
// their snapshot fields still name the recipient.
func (s *HierarchyService) DeletePrincipal(ctx context.Context, caller domain.Caller, id uuid.UUID) error {
	target, err := s.principals.GetScoped(ctx, caller, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFoundOrForbidden
		}
		return fmt.Errorf("failed to get principal: %w", err)
	}
	if !domain.CanAccess(caller, target, domain.ActionDelete) {
		return ErrNotFoundOrForbidden
	}

	deleted, err := s.principals.DeleteScoped(ctx, caller, id)
	if err != nil {
		return fmt.Errorf("failed to delete principal: %w", err)
	}
	if !deleted {
		return ErrNotFoundOrForbidden
	}

	s.logger.Info("principal deleted",
		zap.String("principal_id", id.String()),
		zap.String("deleted_by", caller.ID.String()),
	)
	return nil
}

// Profile returns the caller's own record
func (s *HierarchyService) Profile(ctx context.Context, caller domain.Caller) (*domain.PrincipalDTO, error) {
	return s.GetPrincipal(ctx, caller, caller.ID)
}

// UpdateProfile edits the caller's own name, email and mobile number
func (s *HierarchyService) UpdateProfile(ctx context.Context, caller domain.Caller, req *domain.UpdatePrincipalRequest) (*domain.PrincipalDTO, error) {
	return s.UpdatePrincipal(ctx, caller, caller.ID, req)
}

// loadFor fetches a principal in the caller's visible scope and checks action on it.
// Missing and out-of-scope records both yield ErrNotFoundOrForbidden.
func (s *HierarchyService) loadFor(ctx context.Context, caller domain.Caller, id uuid.UUID, action domain.Action) (*domain.Principal, error) {
	target, err := s.principals.GetScoped(ctx, caller, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFoundOrForbidden
		}
		return nil, fmt.Errorf("failed to get principal: %w", err)
	}
	if !domain.CanAccess(caller, target, action) {
		return nil, ErrNotFoundOrForbidden
	}
	return target, nil
}

func (s *HierarchyService) buildUpdate(ctx context.Context, target *domain.Principal, req *domain.UpdatePrincipalRequest) (map[string]interface{}, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if req.Email != nil {
		normalized := repository.NormalizeEmail(*req.Email)
		req.Email = &normalized
	}
	if req.MobileNumber != nil {
		trimmed := strings.TrimSpace(*req.MobileNumber)
		req.MobileNumber = &trimmed
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.MobileNumber != nil {
		fields["mobile_number"] = *req.MobileNumber
	}
	if req.Email != nil && *req.Email != target.Email {
		taken, err := s.principals.EmailTaken(ctx, *req.Email, &target.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			return nil, ErrDuplicateEmail
		}
		fields["email"] = *req.Email
	}
	return fields, nil
}

func (s *HierarchyService) applyUpdate(ctx context.Context, caller domain.Caller, target *domain.Principal, fields map[string]interface{}) (*domain.PrincipalDTO, error) {
	if len(fields) == 0 {
		dto := mapper.ToPrincipalDTO(target)
		return &dto, nil
	}

	updated, err := s.principals.UpdateFields(ctx, target.ID, fields)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFoundOrForbidden
		}
		return nil, s.translateWriteError(err, "failed to update principal")
	}

	s.logger.Info("principal updated",
		zap.String("principal_id", target.ID.String()),
		zap.String("updated_by", caller.ID.String()),
		zap.Int("fields", len(fields)),
	)

	dto := mapper.ToPrincipalDTO(updated)
	return &dto, nil
}

// translateWriteError maps unique violations raised by concurrent writers
func (s *HierarchyService) translateWriteError(err error, msg string) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return err
	}
	if repository.IsUniqueViolation(err) {
		if strings.Contains(strings.ToLower(err.Error()), "email") {
			return ErrDuplicateEmail
		}
		s.logger.Warn("agent number allocation conflict", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrAllocationConflict, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
