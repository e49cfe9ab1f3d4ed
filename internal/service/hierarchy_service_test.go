package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/straye-as/contact-distribution-api/internal/domain"
	"github.com/straye-as/contact-distribution-api/internal/repository"
	"github.com/straye-as/contact-distribution-api/internal/service"
	"github.com/straye-as/contact-distribution-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createRequest() *domain.CreatePrincipalRequest {
	return &domain.CreatePrincipalRequest{
		Name:         gofakeit.Name(),
		Email:        gofakeit.LetterN(6) + "@example.com",
		MobileNumber: gofakeit.Phone(),
		Password:     "hunter22",
	}
}

func strPtr(s string) *string { return &s }

func TestHierarchyService_CreateSubordinate(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	ownerA := testutil.CreateOwner(t, env.db)
	ownerB := testutil.CreateOwner(t, env.db)

	t.Run("agents get sequential global numbers", func(t *testing.T) {
		first, err := env.hierarchy.CreateSubordinate(ctx, testutil.CallerOf(ownerA), createRequest())
		require.NoError(t, err)
		second, err := env.hierarchy.CreateSubordinate(ctx, testutil.CallerOf(ownerB), createRequest())
		require.NoError(t, err)

		assert.Equal(t, domain.RoleAgent, first.Role)
		assert.Equal(t, "AGT001", first.AgentNumber)
		assert.Equal(t, "AGT002", second.AgentNumber)
		assert.Equal(t, ownerA.ID, *first.CreatedBy)
		assert.Equal(t, ownerA.ID, *first.ManagedBy)
		assert.True(t, first.IsActive)
	})

	t.Run("agent creates sub-agent without number", func(t *testing.T) {
		agent := testutil.CreateAgent(t, env.db, ownerA, "AGT900")
		sub, err := env.hierarchy.CreateSubordinate(ctx, testutil.CallerOf(agent), createRequest())
		require.NoError(t, err)
		assert.Equal(t, domain.RoleSubAgent, sub.Role)
		assert.Empty(t, sub.AgentNumber)
		assert.Equal(t, agent.ID, *sub.ManagedBy)
	})

	t.Run("sub-agent cannot create", func(t *testing.T) {
		agent := testutil.CreateAgent(t, env.db, ownerA, "AGT901")
		sub := testutil.CreateSubAgent(t, env.db, agent)
		_, err := env.hierarchy.CreateSubordinate(ctx, testutil.CallerOf(sub), createRequest())
		assert.ErrorIs(t, err, service.ErrAuthorization)
	})

	t.Run("duplicate email is rejected case-insensitively", func(t *testing.T) {
		req := createRequest()
		req.Email = "dup@example.com"
		_, err := env.hierarchy.CreateSubordinate(ctx, testutil.CallerOf(ownerA), req)
		require.NoError(t, err)

		again := createRequest()
		again.Email = "  DUP@Example.COM "
		_, err = env.hierarchy.CreateSubordinate(ctx, testutil.CallerOf(ownerB), again)
		assert.ErrorIs(t, err, service.ErrDuplicateEmail)
	})

	t.Run("validation reports fields", func(t *testing.T) {
		req := createRequest()
		req.Email = "not-an-email"
		req.Password = "123"
		_, err := env.hierarchy.CreateSubordinate(ctx, testutil.CallerOf(ownerA), req)
		require.ErrorIs(t, err, service.ErrValidation)

		var verr *service.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Fields, "email")
		assert.Contains(t, verr.Fields, "password")
	})
}

func TestHierarchyService_RejectedCreateDoesNotConsumeNumber(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	owner := testutil.CreateOwner(t, env.db)

	first, err := env.hierarchy.CreateSubordinate(ctx, testutil.CallerOf(owner), createRequest())
	require.NoError(t, err)
	require.Equal(t, "AGT001", first.AgentNumber)

	_, err = env.hierarchy.CreateSubordinate(ctx, testutil.CallerOf(owner), &domain.CreatePrincipalRequest{
		Name: "Bad", Email: "bad", MobileNumber: "1", Password: "hunter22",
	})
	require.Error(t, err)

	next, err := env.hierarchy.CreateSubordinate(ctx, testutil.CallerOf(owner), createRequest())
	require.NoError(t, err)
	assert.Equal(t, "AGT002", next.AgentNumber)
}

func TestHierarchyService_ScopeIsolation(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	ownerA := testutil.CreateOwner(t, env.db)
	ownerB := testutil.CreateOwner(t, env.db)
	agentB := testutil.CreateAgent(t, env.db, ownerB, "AGT001")
	callerA := testutil.CallerOf(ownerA)

	_, err := env.hierarchy.GetPrincipal(ctx, callerA, agentB.ID)
	assert.ErrorIs(t, err, service.ErrNotFoundOrForbidden)

	_, err = env.hierarchy.UpdatePrincipal(ctx, callerA, agentB.ID, &domain.UpdatePrincipalRequest{Name: strPtr("X")})
	assert.ErrorIs(t, err, service.ErrNotFoundOrForbidden)

	_, err = env.hierarchy.SetStatus(ctx, callerA, agentB.ID, false)
	assert.ErrorIs(t, err, service.ErrNotFoundOrForbidden)

	err = env.hierarchy.DeletePrincipal(ctx, callerA, agentB.ID)
	assert.ErrorIs(t, err, service.ErrNotFoundOrForbidden)

	_, err = env.hierarchy.GetPrincipal(ctx, callerA, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFoundOrForbidden, "missing looks the same as foreign")

	got, err := env.hierarchy.GetPrincipal(ctx, testutil.CallerOf(ownerB), agentB.ID)
	require.NoError(t, err)
	assert.Equal(t, "AGT001", got.AgentNumber)
}

func TestHierarchyService_ListSubordinates(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	owner := testutil.CreateOwner(t, env.db)
	agent := testutil.CreateAgent(t, env.db, owner, "AGT001")
	sub := testutil.CreateSubAgent(t, env.db, agent)
	testutil.CreateSubAgent(t, env.db, agent)

	list, err := env.hierarchy.ListSubordinates(ctx, testutil.CallerOf(owner), repository.DefaultSortConfig())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, agent.ID, list[0].ID)

	list, err = env.hierarchy.ListSubordinates(ctx, testutil.CallerOf(agent), repository.DefaultSortConfig())
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = env.hierarchy.ListSubordinates(ctx, testutil.CallerOf(sub), repository.DefaultSortConfig())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, sub.ID, list[0].ID)
}

func TestHierarchyService_SetStatus(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	owner := testutil.CreateOwner(t, env.db)
	agent := testutil.CreateAgent(t, env.db, owner, "AGT001")
	caller := testutil.CallerOf(owner)

	tests := []struct {
		name    string
		value   any
		want    bool
		wantErr error
	}{
		{"string false", "false", false, nil},
		{"upper case true", "TRUE", true, nil},
		{"bool false", false, false, nil},
		{"garbage", "maybe", false, service.ErrValidation},
		{"number", 1, false, service.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.hierarchy.SetStatus(ctx, caller, agent.ID, tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.IsActive)
		})
	}

	_, err := env.hierarchy.SetStatus(ctx, caller, owner.ID, false)
	assert.ErrorIs(t, err, service.ErrAuthorization, "principals cannot change their own status")

	_, err = env.hierarchy.UpdateProfile(ctx, caller, &domain.UpdatePrincipalRequest{IsActive: false})
	assert.ErrorIs(t, err, service.ErrAuthorization)
}

func TestHierarchyService_UpdatePrincipal(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	owner := testutil.CreateOwner(t, env.db)
	agent := testutil.CreateAgent(t, env.db, owner, "AGT001")
	other := testutil.CreateAgent(t, env.db, owner, "AGT002")
	caller := testutil.CallerOf(owner)

	got, err := env.hierarchy.UpdatePrincipal(ctx, caller, agent.ID, &domain.UpdatePrincipalRequest{
		Name:     strPtr("  Kari Nordmann "),
		IsActive: "false",
	})
	require.NoError(t, err)
	assert.Equal(t, "Kari Nordmann", got.Name)
	assert.False(t, got.IsActive)
	assert.Equal(t, "AGT001", got.AgentNumber)

	_, err = env.hierarchy.UpdatePrincipal(ctx, caller, agent.ID, &domain.UpdatePrincipalRequest{
		Email: strPtr(other.Email),
	})
	assert.ErrorIs(t, err, service.ErrDuplicateEmail)

	got, err = env.hierarchy.UpdatePrincipal(ctx, caller, agent.ID, &domain.UpdatePrincipalRequest{
		Email: strPtr(agent.Email),
	})
	require.NoError(t, err, "keeping the same email is not a conflict")
	assert.Equal(t, agent.Email, got.Email)

	me, err := env.hierarchy.UpdateProfile(ctx, caller, &domain.UpdatePrincipalRequest{MobileNumber: strPtr("+47 99999999")})
	require.NoError(t, err)
	assert.Equal(t, "+47 99999999", me.MobileNumber)
}

func TestHierarchyService_DeletePrincipal(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	owner := testutil.CreateOwner(t, env.db)
	agent := testutil.CreateAgent(t, env.db, owner, "AGT001")
	caller := testutil.CallerOf(owner)

	assert.ErrorIs(t, env.hierarchy.DeletePrincipal(ctx, caller, owner.ID), service.ErrNotFoundOrForbidden)

	require.NoError(t, env.hierarchy.DeletePrincipal(ctx, caller, agent.ID))
	assert.ErrorIs(t, env.hierarchy.DeletePrincipal(ctx, caller, agent.ID), service.ErrNotFoundOrForbidden)
}

func TestHierarchyService_CreateOwner(t *testing.T) {
	env := setupEnv(t)
	owner, err := env.hierarchy.CreateOwner(context.Background(), createRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, owner.Role)
	assert.Nil(t, owner.CreatedBy)
	assert.Empty(t, owner.AgentNumber)
}
