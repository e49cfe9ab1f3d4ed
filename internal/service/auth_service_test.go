package service_test

import (
	"context"
	"testing"

	"github.com/straye-as/contact-distribution-api/internal/domain"
	"github.com/straye-as/contact-distribution-api/internal/service"
	"github.com/straye-as/contact-distribution-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Login(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	owner := testutil.CreateOwner(t, env.db)
	agent := testutil.CreateAgent(t, env.db, owner, "AGT001")

	token, err := env.auth.Login(ctx, &domain.LoginRequest{Email: agent.Email, Password: testutil.DefaultPassword})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, int64(3600), token.ExpiresIn)
	assert.Equal(t, agent.ID, token.Principal.ID)

	user, err := env.tokens.Validate(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, agent.ID, user.PrincipalID)
	assert.Equal(t, domain.RoleAgent, user.Role)

	tests := []struct {
		name string
		req  *domain.LoginRequest
		want error
	}{
		{"wrong password", &domain.LoginRequest{Email: agent.Email, Password: "wrong"}, service.ErrInvalidCredentials},
		{"unknown email", &domain.LoginRequest{Email: "nobody@example.com", Password: testutil.DefaultPassword}, service.ErrInvalidCredentials},
		{"missing password", &domain.LoginRequest{Email: agent.Email}, service.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Login(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	testutil.Deactivate(t, env.db, agent)
	_, err = env.auth.Login(ctx, &domain.LoginRequest{Email: agent.Email, Password: testutil.DefaultPassword})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials, "inactive principals cannot log in")
}
