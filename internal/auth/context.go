package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/straye-as/contact-distribution-api/internal/domain"
)

// UserContext holds the authenticated principal of a request
type UserContext struct {
	PrincipalID uuid.UUID
	Name        string
	Email       string
	Role        domain.Role
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// principalSlot is reserved by an outer middleware and filled by Authenticate,
// which otherwise only exposes the principal on a derived request.
type principalSlot struct {
	user *UserContext
}

const principalSlotKey contextKey = "principalSlot"

// WithPrincipalSlot reserves a slot for the authenticated principal. The returned
// function reports the principal once the inner handlers have run.
func WithPrincipalSlot(ctx context.Context) (context.Context, func() (*UserContext, bool)) {
	slot := &principalSlot{}
	return context.WithValue(ctx, principalSlotKey, slot), func() (*UserContext, bool) {
		return slot.user, slot.user != nil
	}
}

// RecordPrincipal fills the slot reserved by WithPrincipalSlot, if any
func RecordPrincipal(ctx context.Context, user *UserContext) {
	if slot, ok := ctx.Value(principalSlotKey).(*principalSlot); ok {
		slot.user = user
	}
}

// Caller converts the request identity into the engine's caller value
func (u *UserContext) Caller() domain.Caller {
	return domain.Caller{ID: u.PrincipalID, Role: u.Role}
}

// HasAnyRole checks if the principal has any of the given roles
func (u *UserContext) HasAnyRole(roles ...domain.Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
