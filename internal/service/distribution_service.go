package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/contact-distribution-api/internal/domain"
	"github.com/straye-as/contact-distribution-api/internal/mapper"
	"github.com/straye-as/contact-distribution-api/internal/metrics"
	"github.com/straye-as/contact-distribution-api/internal/repository"
	"github.com/straye-as/contact-distribution-api/internal/storage"
	"github.com/straye-as/contact-distribution-api/internal/tabular"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Partition splits records into exactly k consecutive slices. The first n%k
// slices get one extra record; input order is preserved and slices may be empty.
func Partition(records []domain.ContactRecord, k int) [][]domain.ContactRecord {
	if k <= 0 {
		return nil
	}
	n := len(records)
	base, remainder := n/k, n%k

	parts := make([][]domain.ContactRecord, k)
	start := 0
	for i := 0; i < k; i++ {
		size := base
		if i < remainder {
			size++
		}
		parts[i] = records[start : start+size : start+size]
		start += size
	}
	return parts
}

// DistributionService fans uploaded contact lists out across the caller's active subordinates
type DistributionService struct {
	principals     *repository.PrincipalRepository
	batches        *repository.BatchRepository
	staging        storage.Storage
	maxUploadBytes int64
	logger         *zap.Logger
	now            func() time.Time
}

// NewDistributionService creates a new DistributionService
func NewDistributionService(
	principals *repository.PrincipalRepository,
	batches *repository.BatchRepository,
	staging storage.Storage,
	maxUploadBytes int64,
	logger *zap.Logger,
) *DistributionService {
	return &DistributionService{
		principals:     principals,
		batches:        batches,
		staging:        staging,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
		now:            time.Now,
	}
}

// Distribute assigns records to the caller's eligible targets, one batch per target,
// and persists all batches atomically. Target order is newest subordinate first.
func (s *DistributionService) Distribute(ctx context.Context, caller domain.Caller, records []domain.ContactRecord, sourceFileName string) (*domain.DistributionSummaryDTO, error) {
	policy := domain.PolicyFor(caller.Role)
	if !policy.CanDistribute() {
		return nil, fmt.Errorf("%w: role %s cannot distribute", ErrAuthorization, caller.Role)
	}

	targets, err := s.principals.ListEligibleTargets(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("failed to load eligible targets: %w", err)
	}
	if len(targets) == 0 {
		return nil, ErrNoEligibleTargets
	}

	uploadID := uuid.New()
	uploadedAt := s.now().UTC()
	parts := Partition(records, len(targets))

	batches := make([]domain.DistributionBatch, len(targets))
	for i, target := range targets {
		items := parts[i]
		if items == nil {
			items = []domain.ContactRecord{}
		}
		batches[i] = domain.DistributionBatch{
			UploadID:       uploadID,
			TargetID:       target.ID,
			TargetName:     target.Name,
			TargetEmail:    target.Email,
			Items:          datatypes.NewJSONType(items),
			SourceFileName: sourceFileName,
			TotalItems:     len(items),
			UploadedAt:     uploadedAt,
			CreatedBy:      caller.ID,
		}
	}

	if err := s.batches.CreateAll(ctx, batches); err != nil {
		s.logger.Error("failed to persist distribution",
			zap.String("upload_id", uploadID.String()),
			zap.Int("targets", len(targets)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to persist distribution: %w", err)
	}

	metrics.BatchesCreatedTotal.Add(float64(len(batches)))
	metrics.ContactsDistributedTotal.Add(float64(len(records)))

	s.logger.Info("contacts distributed",
		zap.String("upload_id", uploadID.String()),
		zap.String("principal_id", caller.ID.String()),
		zap.Int("records", len(records)),
		zap.Int("targets", len(targets)),
	)

	return &domain.DistributionSummaryDTO{
		UploadID:       uploadID,
		SourceFileName: sourceFileName,
		TotalItems:     len(records),
		TotalTargets:   len(targets),
		TargetRole:     policy.Subordinate,
		Batches:        mapper.ToDistributionBatchDTOs(batches),
	}, nil
}

// UploadAndDistribute stages an uploaded file, parses and normalizes it, and
// distributes the resulting records. The staged copy is deleted on every path.
func (s *DistributionService) UploadAndDistribute(ctx context.Context, caller domain.Caller, fileName string, data io.Reader) (*domain.DistributionSummaryDTO, error) {
	summary, err := s.uploadAndDistribute(ctx, caller, fileName, data)
	if err == nil {
		metrics.UploadsTotal.WithLabelValues(metrics.OutcomeDistributed, metrics.ReasonNone).Inc()
	} else if reason, ok := rejectionReason(err); ok {
		metrics.UploadsTotal.WithLabelValues(metrics.OutcomeRejected, reason).Inc()
	} else {
		metrics.UploadsTotal.WithLabelValues(metrics.OutcomeFailed, metrics.ReasonNone).Inc()
	}
	return summary, err
}

func (s *DistributionService) uploadAndDistribute(ctx context.Context, caller domain.Caller, fileName string, data io.Reader) (*domain.DistributionSummaryDTO, error) {
	if !domain.PolicyFor(caller.Role).CanDistribute() {
		return nil, fmt.Errorf("%w: role %s cannot distribute", ErrAuthorization, caller.Role)
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, NewValidationError("file", "a file is required")
	}
	if !tabular.IsSupported(fileName) {
		return nil, fmt.Errorf("%w: only CSV, XLSX and XLS files are allowed", ErrUnsupportedFileType)
	}

	// One byte past the limit is enough to detect an oversized upload
	limited := io.LimitReader(data, s.maxUploadBytes+1)
	stagedPath, size, err := s.staging.Upload(ctx, fileName, "application/octet-stream", limited)
	if err != nil {
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	defer func() {
		if err := s.staging.Delete(context.WithoutCancel(ctx), stagedPath); err != nil {
			s.logger.Warn("failed to delete staged upload",
				zap.String("path", stagedPath),
				zap.Error(err),
			)
		}
	}()

	if size > s.maxUploadBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxUploadBytes)
	}

	staged, err := s.staging.Download(ctx, stagedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read staged upload: %w", err)
	}
	defer staged.Close()

	rows, err := tabular.ParseFile(fileName, staged)
	if err != nil {
		if errors.Is(err, tabular.ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFileType, err)
		}
		return nil, NewValidationError("file", err.Error())
	}

	records := tabular.Normalize(rows)
	if len(records) == 0 {
		return nil, ErrNoValidRows
	}

	return s.Distribute(ctx, caller, records, fileName)
}

// ListBatches lists the batches the caller created. targetID "" or "all"
// means every target; otherwise the target must be an immediate subordinate of the caller.
func (s *DistributionService) ListBatches(ctx context.Context, caller domain.Caller, targetID string) ([]domain.DistributionBatchDTO, error) {
	var filter *uuid.UUID
	targetID = strings.TrimSpace(targetID)
	if targetID != "" && !strings.EqualFold(targetID, "all") {
		id, err := uuid.Parse(targetID)
		if err != nil {
			return nil, NewValidationError("targetId", "Must be a valid UUID")
		}
		target, err := s.principals.GetScoped(ctx, caller, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFoundOrForbidden
			}
			return nil, fmt.Errorf("failed to get target: %w", err)
		}
		if !caller.Owns(target) {
			return nil, ErrNotFoundOrForbidden
		}
		filter = &id
	}

	batches, err := s.batches.ListScoped(ctx, caller.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return mapper.ToDistributionBatchDTOs(batches), nil
}

// ListAssigned lists the batches addressed to the caller
func (s *DistributionService) ListAssigned(ctx context.Context, caller domain.Caller) ([]domain.DistributionBatchDTO, error) {
	batches, err := s.batches.ListAssigned(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned batches: %w", err)
	}
	return mapper.ToDistributionBatchDTOs(batches), nil
}

// DeleteBatch deletes a batch the caller created
func (s *DistributionService) DeleteBatch(ctx context.Context, caller domain.Caller, id uuid.UUID) error {
	deleted, err := s.batches.DeleteScoped(ctx, caller.ID, id)
	if err != nil {
		return fmt.Errorf("failed to delete batch: %w", err)
	}
	if !deleted {
		return ErrNotFoundOrForbidden
	}
	s.logger.Info("batch deleted",
		zap.String("batch_id", id.String()),
		zap.String("principal_id", caller.ID.String()),
	)
	return nil
}

var rejectionReasons = []struct {
	err    error
	reason string
}{
	{ErrAuthorization, metrics.ReasonForbidden},
	{ErrNoEligibleTargets, metrics.ReasonNoEligibleTargets},
	{ErrNoValidRows, metrics.ReasonNoValidRows},
	{ErrUnsupportedFileType, metrics.ReasonUnsupportedFileType},
	{ErrFileTooLarge, metrics.ReasonFileTooLarge},
	{ErrValidation, metrics.ReasonValidation},
}

// rejectionReason maps a caller-caused upload error to its metric reason.
// Errors not listed are server failures.
func rejectionReason(err error) (string, bool) {
	for _, r := range rejectionReasons {
		if errors.Is(err, r.err) {
			return r.reason, true
		}
	}
	return "", false
}
