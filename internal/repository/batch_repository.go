package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/straye-as/contact-distribution-api/internal/domain"
	"gorm.io/gorm"
)

// BatchRepository handles database operations for distribution batches
type BatchRepository struct {
	db *gorm.DB
}

// NewBatchRepository creates a new BatchRepository
func NewBatchRepository(db *gorm.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// CreateAll persists every batch of one upload in a single transaction.
// Either all batches are stored or none.
func (r *BatchRepository) CreateAll(ctx context.Context, batches []domain.DistributionBatch) error {
	if len(batches) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&batches).Error
	})
}

// ListScoped lists batches created by the caller, newest first.
// A non-nil targetID narrows the result to one recipient.
func (r *BatchRepository) ListScoped(ctx context.Context, createdBy uuid.UUID, targetID *uuid.UUID) ([]domain.DistributionBatch, error) {
	var batches []domain.DistributionBatch
	query := r.db.WithContext(ctx).Where("created_by = ?", createdBy)
	if targetID != nil {
		query = query.Where("target_id = ?", *targetID)
	}
	err := query.Order("created_at DESC, id ASC").Find(&batches).Error
	return batches, err
}

// ListAssigned lists the batches assigned to a target principal, newest first
func (r *BatchRepository) ListAssigned(ctx context.Context, targetID uuid.UUID) ([]domain.DistributionBatch, error) {
	var batches []domain.DistributionBatch
	err := r.db.WithContext(ctx).
		Where("target_id = ?", targetID).
		Order("created_at DESC, id ASC").
		Find(&batches).Error
	return batches, err
}

// DeleteScoped deletes a batch created by the caller. Returns false when no such batch exists.
func (r *BatchRepository) DeleteScoped(ctx context.Context, createdBy, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND created_by = ?", id, createdBy).
		Delete(&domain.DistributionBatch{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
