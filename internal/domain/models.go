package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BaseModel contains common fields for all models
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns an ID when the caller did not provide one.
// IDs are generated in Go rather than by gen_random_uuid() so the same models
// work against PostgreSQL and the SQLite test database.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Role is the position of a principal in the three-tier hierarchy
type Role string

const (
	RoleOwner    Role = "owner"
	RoleAgent    Role = "agent"
	RoleSubAgent Role = "sub-agent"
)

// IsValid reports whether r is one of the closed set of roles
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleAgent, RoleSubAgent:
		return true
	}
	return false
}

// Principal is a person in the hierarchy (owner, agent or sub-agent)
type Principal struct {
	BaseModel
	Name           string     `gorm:"type:varchar(200);not null"`
	Email          string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	MobileNumber   string     `gorm:"type:varchar(50);not null;column:mobile_number"`
	CredentialHash string     `gorm:"type:varchar(255);not null;column:credential_hash"`
	Role           Role       `gorm:"type:varchar(20);not null;index"`
	AgentNumber    *string    `gorm:"type:varchar(20);uniqueIndex;column:agent_number"`
	IsActive       bool       `gorm:"not null;column:is_active;index"`
	CreatedBy      *uuid.UUID `gorm:"type:uuid;column:created_by;index"`
	ManagedBy      *uuid.UUID `gorm:"type:uuid;column:managed_by;index"`
}

// TableName returns the table name for GORM
func (Principal) TableName() string {
	return "principals"
}

// ContactRecord is one canonical row of uploaded contact data.
// It only exists between normalization and distribution and is persisted
// solely as part of a DistributionBatch.
type ContactRecord struct {
	FirstName string `json:"firstName"`
	Phone     string `json:"phone"`
	Notes     string `json:"notes"`
}

// DistributionBatch is the slice of one upload assigned to one target principal.
// TargetName and TargetEmail are captured at distribution time and are never
// refreshed from the principal afterwards.
type DistributionBatch struct {
	BaseModel
	UploadID       uuid.UUID                           `gorm:"type:uuid;not null;index;column:upload_id"`
	TargetID       uuid.UUID                           `gorm:"type:uuid;not null;index;column:target_id"`
	TargetName     string                              `gorm:"type:varchar(200);not null;column:target_name"`
	TargetEmail    string                              `gorm:"type:varchar(255);not null;column:target_email"`
	Items          datatypes.JSONType[[]ContactRecord] `gorm:"not null"`
	SourceFileName string                              `gorm:"type:varchar(255);not null;column:source_file_name"`
	TotalItems     int                                 `gorm:"not null;column:total_items"`
	UploadedAt     time.Time                           `gorm:"not null;column:uploaded_at"`
	CreatedBy      uuid.UUID                           `gorm:"type:uuid;not null;index;column:created_by"`
}

// TableName returns the table name for GORM
func (DistributionBatch) TableName() string {
	return "distribution_batches"
}

// Records returns the batch items in their original order
func (b *DistributionBatch) Records() []ContactRecord {
	return b.Items.Data()
}

// AgentNumberSequenceName is the key of the single global agent number counter
const AgentNumberSequenceName = "agent"

// AgentNumberSequence tracks the last issued agent number.
// There is one row for the whole installation; agent numbers are global, not per owner.
type AgentNumberSequence struct {
	Name      string    `gorm:"type:varchar(50);primaryKey"`
	LastValue int       `gorm:"not null;column:last_value"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AgentNumberSequence) TableName() string {
	return "agent_number_sequences"
}
