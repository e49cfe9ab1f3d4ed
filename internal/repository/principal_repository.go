package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/straye-as/contact-distribution-api/internal/domain"
	"gorm.io/gorm"
)

// principalSortFields maps API sort fields to columns
var principalSortFields = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"name":        "name",
	"email":       "email",
	"agentNumber": "agent_number",
}

// PrincipalRepository is the scoped data access for principals.
// Every caller-facing query goes through ApplyOwnerScope or ApplyVisibleScope.
type PrincipalRepository struct {
	db *gorm.DB
}

// NewPrincipalRepository creates a new PrincipalRepository
func NewPrincipalRepository(db *gorm.DB) *PrincipalRepository {
	return &PrincipalRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *PrincipalRepository) WithTx(tx *gorm.DB) *PrincipalRepository {
	return &PrincipalRepository{db: tx}
}

// GetByID loads a principal without scoping. Used for the caller's own record only.
func (r *PrincipalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Principal, error) {
	var p domain.Principal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByEmail loads a principal by email, case-insensitively. Used by login.
func (r *PrincipalRepository) GetByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	var p domain.Principal
	err := r.db.WithContext(ctx).
		Where("email = ?", NormalizeEmail(email)).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetScoped loads a principal the caller can see: itself or an immediate subordinate.
// Returns gorm.ErrRecordNotFound for anything else.
func (r *PrincipalRepository) GetScoped(ctx context.Context, caller domain.Caller, id uuid.UUID) (*domain.Principal, error) {
	var p domain.Principal
	query := ApplyVisibleScope(r.db.WithContext(ctx).Model(&domain.Principal{}), caller)
	if err := query.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListScoped lists the caller's immediate subordinates (or itself for a sub-agent)
func (r *PrincipalRepository) ListScoped(ctx context.Context, caller domain.Caller, sort SortConfig) ([]domain.Principal, error) {
	var principals []domain.Principal
	query := ApplyOwnerScope(r.db.WithContext(ctx).Model(&domain.Principal{}), caller)
	err := query.
		Order(BuildOrderClause(sort, principalSortFields, "created_at")).
		Find(&principals).Error
	return principals, err
}

// ListEligibleTargets returns the active immediate subordinates of the caller,
// newest first with id as tie-breaker. This order decides who receives the remainder.
func (r *PrincipalRepository) ListEligibleTargets(ctx context.Context, caller domain.Caller) ([]domain.Principal, error) {
	policy := domain.PolicyFor(caller.Role)
	if !policy.CanDistribute() {
		return nil, nil
	}

	var principals []domain.Principal
	query := ApplyOwnerScope(r.db.WithContext(ctx).Model(&domain.Principal{}), caller)
	err := query.
		Where("is_active = ?", true).
		Order("created_at DESC, id ASC").
		Find(&principals).Error
	return principals, err
}

// Create inserts a new principal. The email is stored lower-cased.
func (r *PrincipalRepository) Create(ctx context.Context, p *domain.Principal) error {
	p.Email = NormalizeEmail(p.Email)
	return r.db.WithContext(ctx).Create(p).Error
}

// UpdateFields applies a column map to one principal and reloads it
func (r *PrincipalRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*domain.Principal, error) {
	if email, ok := fields["email"].(string); ok {
		fields["email"] = NormalizeEmail(email)
	}
	if len(fields) > 0 {
		result := r.db.WithContext(ctx).Model(&domain.Principal{}).Where("id = ?", id).Updates(fields)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.GetByID(ctx, id)
}

// DeleteScoped deletes a subordinate of the caller. Returns false when nothing
// in the caller's scope matched.
func (r *PrincipalRepository) DeleteScoped(ctx context.Context, caller domain.Caller, id uuid.UUID) (bool, error) {
	query := ApplyOwnerScope(r.db.WithContext(ctx), caller)
	result := query.Where("id = ? AND id <> ?", id, caller.ID).Delete(&domain.Principal{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// EmailTaken reports whether email belongs to a principal other than excludeID
func (r *PrincipalRepository) EmailTaken(ctx context.Context, email string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Principal{}).Where("email = ?", NormalizeEmail(email))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListAgentNumbers returns every issued agent number
func (r *PrincipalRepository) ListAgentNumbers(ctx context.Context) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).
		Model(&domain.Principal{}).
		Where("role = ? AND agent_number IS NOT NULL", domain.RoleAgent).
		Pluck("agent_number", &numbers).Error
	return numbers, err
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
