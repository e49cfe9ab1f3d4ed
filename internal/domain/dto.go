package domain

import (
	"github.com/google/uuid"
)

// DTOs for API responses

type PrincipalDTO struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	MobileNumber string     `json:"mobileNumber"`
	Role         Role       `json:"role"`
	AgentNumber  string     `json:"agentNumber,omitempty"`
	IsActive     bool       `json:"isActive"`
	CreatedBy    *uuid.UUID `json:"createdBy,omitempty"`
	ManagedBy    *uuid.UUID `json:"managedBy,omitempty"`
	CreatedAt    string     `json:"createdAt"` // ISO 8601
	UpdatedAt    string     `json:"updatedAt"` // ISO 8601
}

type DistributionBatchDTO struct {
	ID             uuid.UUID       `json:"id"`
	UploadID       uuid.UUID       `json:"uploadId"`
	TargetID       uuid.UUID       `json:"targetId"`
	TargetName     string          `json:"targetName"`
	TargetEmail    string          `json:"targetEmail"`
	Items          []ContactRecord `json:"items"`
	SourceFileName string          `json:"sourceFileName"`
	TotalItems     int             `json:"totalItems"`
	UploadedAt     string          `json:"uploadedAt"` // ISO 8601
	CreatedBy      uuid.UUID       `json:"createdBy"`
}

// DistributionSummaryDTO is returned after an upload has been distributed
type DistributionSummaryDTO struct {
	UploadID       uuid.UUID              `json:"uploadId"`
	SourceFileName string                 `json:"sourceFileName"`
	TotalItems     int                    `json:"totalItems"`
	TotalTargets   int                    `json:"totalTargets"`
	TargetRole     Role                   `json:"targetRole"`
	Batches        []DistributionBatchDTO `json:"batches"`
}

type TokenDTO struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresIn   int64        `json:"expiresIn"`
	Principal   PrincipalDTO `json:"principal"`
}

// Request types

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

type CreatePrincipalRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	Email        string `json:"email" validate:"required,email,max=255"`
	MobileNumber string `json:"mobileNumber" validate:"required,max=50"`
	Password     string `json:"password" validate:"required,min=6,max=72"`
}

// UpdatePrincipalRequest is a partial update; nil fields are left untouched
type UpdatePrincipalRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	MobileNumber *string `json:"mobileNumber,omitempty" validate:"omitempty,min=1,max=50"`
	// IsActive accepts a boolean or a "true"/"false" string
	IsActive     any     `json:"isActive,omitempty"`
}

type UpdateStatusRequest struct {
	IsActive any `json:"isActive"`
}

// API Response wrapper
type APIResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}
