package repository

import (
	"errors"
	"strings"

	"github.com/straye-as/contact-distribution-api/internal/domain"
	"gorm.io/gorm"
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// SortConfig holds sorting configuration for list queries
type SortConfig struct {
	Field string    // The field to sort by (API field name)
	Order SortOrder // asc or desc
}

// DefaultSortConfig returns the default listing order (newest first)
func DefaultSortConfig() SortConfig {
	return SortConfig{
		Field: "createdAt",
		Order: SortOrderDesc,
	}
}

// ParseSortOrder parses a string into SortOrder, defaulting to desc
func ParseSortOrder(s string) SortOrder {
	if strings.ToLower(s) == "asc" {
		return SortOrderAsc
	}
	return SortOrderDesc
}

// BuildOrderClause builds the SQL ORDER BY clause from a whitelisted field map.
// Unknown fields fall back to defaultColumn. Ties are broken by id so listings are stable.
func BuildOrderClause(config SortConfig, fieldMap map[string]string, defaultColumn string) string {
	column, ok := fieldMap[config.Field]
	if !ok {
		column = defaultColumn
	}

	order := "DESC"
	if config.Order == SortOrderAsc {
		order = "ASC"
	}

	return column + " " + order + ", id ASC"
}

// ApplyOwnerScope restricts a principals query to the caller's immediate
// subordinates: agents created by an owner, sub-agents managed by an agent,
// or only the caller itself for a sub-agent.
func ApplyOwnerScope(query *gorm.DB, caller domain.Caller) *gorm.DB {
	cond, args := ownerScope(caller)
	return query.Where(cond, args...)
}

// ApplyVisibleScope is ApplyOwnerScope plus the caller's own record
func ApplyVisibleScope(query *gorm.DB, caller domain.Caller) *gorm.DB {
	cond, args := ownerScope(caller)
	return query.Where("(id = ? OR ("+cond+"))", append([]interface{}{caller.ID}, args...)...)
}

func ownerScope(caller domain.Caller) (string, []interface{}) {
	policy := domain.PolicyFor(caller.Role)
	switch policy.Scope {
	case domain.ScopeCreatedBy:
		return "role = ? AND created_by = ?", []interface{}{policy.Subordinate, caller.ID}
	case domain.ScopeManagedBy:
		return "role = ? AND managed_by = ?", []interface{}{policy.Subordinate, caller.ID}
	case domain.ScopeSelf:
		return "id = ?", []interface{}{caller.ID}
	}
	// Unknown roles see nothing
	return "1 = 0", nil
}

// IsUniqueViolation reports whether err is a unique constraint violation
// on PostgreSQL or SQLite
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "sqlstate 23505")
}
