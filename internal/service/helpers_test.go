package service_test

import (
	"testing"

	"github.com/straye-as/contact-distribution-api/internal/auth"
	"github.com/straye-as/contact-distribution-api/internal/config"
	"github.com/straye-as/contact-distribution-api/internal/repository"
	"github.com/straye-as/contact-distribution-api/internal/service"
	"github.com/straye-as/contact-distribution-api/internal/storage"
	"github.com/straye-as/contact-distribution-api/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testMaxUploadBytes = 64 * 1024

type testEnv struct {
	db           *gorm.DB
	stagingDir   string
	hierarchy    *service.HierarchyService
	distribution *service.DistributionService
	numbers      *service.AgentNumberService
	auth         *service.AuthService
	tokens       *auth.TokenManager
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	stagingDir := t.TempDir()
	staging, err := storage.NewLocalStorage(stagingDir)
	require.NoError(t, err)

	tokens, err := auth.NewTokenManager(&config.AuthConfig{
		JWTSecret:  "service-test-signing-secret",
		Issuer:     "contact-distribution-api",
		TokenTTL:   60,
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)

	principals := repository.NewPrincipalRepository(db)
	agentNumbers := repository.NewAgentNumberRepository(db)
	batches := repository.NewBatchRepository(db)

	return &testEnv{
		db:           db,
		stagingDir:   stagingDir,
		hierarchy:    service.NewHierarchyService(db, principals, agentNumbers, bcrypt.MinCost, logger),
		distribution: service.NewDistributionService(principals, batches, staging, testMaxUploadBytes, logger),
		numbers:      service.NewAgentNumberService(agentNumbers, logger),
		auth:         service.NewAuthService(principals, tokens, logger),
		tokens:       tokens,
	}
}
