package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Action is an operation a caller attempts on a principal
type Action string

const (
	ActionRead         Action = "read"
	ActionUpdate       Action = "update"
	ActionUpdateStatus Action = "update_status"
	ActionDelete       Action = "delete"
	ActionCreate       Action = "create"
	ActionDistribute   Action = "distribute"
)

// ScopeKind tells the repository layer which column ties a subordinate to its superior
type ScopeKind string

const (
	// ScopeCreatedBy selects subordinates whose created_by is the caller
	ScopeCreatedBy ScopeKind = "created_by"
	// ScopeManagedBy selects subordinates whose managed_by is the caller
	ScopeManagedBy ScopeKind = "managed_by"
	// ScopeSelf selects only the caller's own record
	ScopeSelf ScopeKind = "self"
)

// RolePolicy describes everything a role may do to the principals below it.
type RolePolicy struct {
	// Subordinate is the role this role creates and manages; empty for leaf roles
	Subordinate Role
	// Scope is the ownership edge used to find subordinates
	Scope ScopeKind
	// OnSubordinates are the actions allowed on owned subordinates
	OnSubordinates []Action
	// OnSelf are the actions allowed on the caller's own record
	OnSelf []Action
}

// rolePolicies is the single authorization table for the hierarchy.
var rolePolicies = map[Role]RolePolicy{
	RoleOwner: {
		Subordinate:    RoleAgent,
		Scope:          ScopeCreatedBy,
		OnSubordinates: []Action{ActionRead, ActionUpdate, ActionUpdateStatus, ActionDelete, ActionCreate, ActionDistribute},
		OnSelf:         []Action{ActionRead, ActionUpdate},
	},
	RoleAgent: {
		Subordinate:    RoleSubAgent,
		Scope:          ScopeManagedBy,
		OnSubordinates: []Action{ActionRead, ActionUpdate, ActionUpdateStatus, ActionDelete, ActionCreate, ActionDistribute},
		OnSelf:         []Action{ActionRead, ActionUpdate},
	},
	RoleSubAgent: {
		Scope:  ScopeSelf,
		OnSelf: []Action{ActionRead, ActionUpdate},
	},
}

// PolicyFor returns the policy of a role. Unknown roles get an empty policy.
func PolicyFor(role Role) RolePolicy {
	return rolePolicies[role]
}

// CanCreate reports whether the role may create subordinates at all
func (p RolePolicy) CanCreate() bool {
	return p.Subordinate != "" && hasAction(p.OnSubordinates, ActionCreate)
}

// CanDistribute reports whether the role may distribute work to its subordinates
func (p RolePolicy) CanDistribute() bool {
	return p.Subordinate != "" && hasAction(p.OnSubordinates, ActionDistribute)
}

// Caller is the authenticated identity an engine operation runs as.
type Caller struct {
	ID   uuid.UUID
	Role Role
}

// Owns reports whether target sits directly below the caller along the caller's scope edge.
func (c Caller) Owns(target *Principal) bool {
	if target == nil {
		return false
	}
	policy := PolicyFor(c.Role)
	if policy.Subordinate == "" || target.Role != policy.Subordinate {
		return false
	}
	switch policy.Scope {
	case ScopeCreatedBy:
		return target.CreatedBy != nil && *target.CreatedBy == c.ID
	case ScopeManagedBy:
		return target.ManagedBy != nil && *target.ManagedBy == c.ID
	}
	return false
}

// CanAccess is the authorization predicate used by every component.
func CanAccess(caller Caller, target *Principal, action Action) bool {
	if target == nil {
		return false
	}
	policy := PolicyFor(caller.Role)
	if target.ID == caller.ID {
		return hasAction(policy.OnSelf, action)
	}
	if !caller.Owns(target) {
		return false
	}
	return hasAction(policy.OnSubordinates, action)
}

// NewSubordinate builds the principal a caller is allowed to create, deriving
// role and ownership edges from the caller. ok is false for leaf roles.
func NewSubordinate(caller Caller) (p *Principal, ok bool) {
	policy := PolicyFor(caller.Role)
	if !policy.CanCreate() {
		return nil, false
	}
	creator := caller.ID
	manager := caller.ID
	return &Principal{
		Role:      policy.Subordinate,
		IsActive:  true,
		CreatedBy: &creator,
		ManagedBy: &manager,
	}, true
}

// ValidateEdges checks the structural invariants of a principal's ownership edges
// against the role of the principal referenced by createdBy.
func ValidateEdges(p *Principal, creatorRole Role) error {
	switch p.Role {
	case RoleOwner:
		if p.CreatedBy != nil {
			return fmt.Errorf("owner must not have a creator")
		}
		return nil
	case RoleAgent:
		if p.CreatedBy == nil || creatorRole != RoleOwner {
			return fmt.Errorf("agent must be created by an owner")
		}
		if p.AgentNumber == nil || !IsValidAgentNumber(*p.AgentNumber) {
			return fmt.Errorf("agent must carry an agent number of the form %s###", AgentNumberPrefix)
		}
	case RoleSubAgent:
		if p.CreatedBy == nil || creatorRole != RoleAgent {
			return fmt.Errorf("sub-agent must be created by an agent")
		}
		if p.ManagedBy == nil || *p.ManagedBy != *p.CreatedBy {
			return fmt.Errorf("sub-agent must be managed by its creator")
		}
	default:
		return fmt.Errorf("unknown role %q", p.Role)
	}
	return nil
}

// ParseActiveFlag normalizes an active-status value. It accepts a bool or the
// strings "true"/"false" in any case; anything else is rejected.
func ParseActiveFlag(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return false, fmt.Errorf("isActive must be true or false, got %q", val)
	case nil:
		return false, fmt.Errorf("isActive is required")
	default:
		return false, fmt.Errorf("isActive must be a boolean, got %T", v)
	}
}

func hasAction(actions []Action, action Action) bool {
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}
