package testutil

import (
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/straye-as/contact-distribution-api/internal/domain"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the credential of every principal built by the factories
const DefaultPassword = "secret123"

var defaultHash = func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}()

// clock hands out strictly increasing creation times so ordering by created_at is deterministic
var clock = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

func nextTime() time.Time {
	clock = clock.Add(time.Second)
	return clock
}

// NewPrincipal builds an unsaved principal with fake contact data
func NewPrincipal(role domain.Role, parent *domain.Principal) *domain.Principal {
	created := nextTime()
	p := &domain.Principal{
		BaseModel:      domain.BaseModel{ID: uuid.New(), CreatedAt: created, UpdatedAt: created},
		Name:           gofakeit.Name(),
		Email:          strings.ToLower(gofakeit.LetterN(8) + "." + gofakeit.Email()),
		MobileNumber:   gofakeit.Phone(),
		CredentialHash: defaultHash,
		Role:           role,
		IsActive:       true,
	}
	if parent != nil {
		p.CreatedBy = &parent.ID
		p.ManagedBy = &parent.ID
	}
	return p
}

// CreateOwner inserts an owner
func CreateOwner(t *testing.T, db *gorm.DB) *domain.Principal {
	t.Helper()
	p := NewPrincipal(domain.RoleOwner, nil)
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateAgent inserts an agent created by owner with the given agent number
func CreateAgent(t *testing.T, db *gorm.DB, owner *domain.Principal, agentNumber string) *domain.Principal {
	t.Helper()
	p := NewPrincipal(domain.RoleAgent, owner)
	p.AgentNumber = &agentNumber
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateSubAgent inserts a sub-agent created and managed by agent
func CreateSubAgent(t *testing.T, db *gorm.DB, agent *domain.Principal) *domain.Principal {
	t.Helper()
	p := NewPrincipal(domain.RoleSubAgent, agent)
	require.NoError(t, db.Create(p).Error)
	return p
}

// Deactivate marks a principal inactive
func Deactivate(t *testing.T, db *gorm.DB, p *domain.Principal) {
	t.Helper()
	require.NoError(t, db.Model(p).Update("is_active", false).Error)
	p.IsActive = false
}

// NewContacts builds n fake contact records
func NewContacts(n int) []domain.ContactRecord {
	records := make([]domain.ContactRecord, n)
	for i := range records {
		records[i] = domain.ContactRecord{
			FirstName: gofakeit.FirstName(),
			Phone:     gofakeit.Phone(),
			Notes:     gofakeit.Sentence(4),
		}
	}
	return records
}

// CallerOf returns the engine caller for p
func CallerOf(p *domain.Principal) domain.Caller {
	return domain.Caller{ID: p.ID, Role: p.Role}
}
