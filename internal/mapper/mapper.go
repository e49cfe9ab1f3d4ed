package mapper

import (
	"time"

	"github.com/straye-as/contact-distribution-api/internal/domain"
)

const timestampLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ToPrincipalDTO converts Principal to PrincipalDTO. The credential hash is never exposed.
func ToPrincipalDTO(p *domain.Principal) domain.PrincipalDTO {
	dto := domain.PrincipalDTO{
		ID:           p.ID,
		Name:         p.Name,
		Email:        p.Email,
		MobileNumber: p.MobileNumber,
		Role:         p.Role,
		IsActive:     p.IsActive,
		CreatedBy:    p.CreatedBy,
		ManagedBy:    p.ManagedBy,
		CreatedAt:    formatTime(p.CreatedAt),
		UpdatedAt:    formatTime(p.UpdatedAt),
	}
	if p.AgentNumber != nil {
		dto.AgentNumber = *p.AgentNumber
	}
	return dto
}

// ToPrincipalDTOs converts a slice of principals
func ToPrincipalDTOs(principals []domain.Principal) []domain.PrincipalDTO {
	dtos := make([]domain.PrincipalDTO, len(principals))
	for i := range principals {
		dtos[i] = ToPrincipalDTO(&principals[i])
	}
	return dtos
}

// ToDistributionBatchDTO converts DistributionBatch to DistributionBatchDTO
func ToDistributionBatchDTO(b *domain.DistributionBatch) domain.DistributionBatchDTO {
	items := b.Records()
	if items == nil {
		items = []domain.ContactRecord{}
	}
	return domain.DistributionBatchDTO{
		ID:             b.ID,
		UploadID:       b.UploadID,
		TargetID:       b.TargetID,
		TargetName:     b.TargetName,
		TargetEmail:    b.TargetEmail,
		Items:          items,
		SourceFileName: b.SourceFileName,
		TotalItems:     b.TotalItems,
		UploadedAt:     formatTime(b.UploadedAt),
		CreatedBy:      b.CreatedBy,
	}
}

// ToDistributionBatchDTOs converts a slice of batches
func ToDistributionBatchDTOs(batches []domain.DistributionBatch) []domain.DistributionBatchDTO {
	dtos := make([]domain.DistributionBatchDTO, len(batches))
	for i := range batches {
		dtos[i] = ToDistributionBatchDTO(&batches[i])
	}
	return dtos
}
