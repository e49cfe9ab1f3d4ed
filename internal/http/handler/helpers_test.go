package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/contact-distribution-api/internal/auth"
	"github.com/straye-as/contact-distribution-api/internal/config"
	"github.com/straye-as/contact-distribution-api/internal/domain"
	"github.com/straye-as/contact-distribution-api/internal/http/handler"
	"github.com/straye-as/contact-distribution-api/internal/repository"
	"github.com/straye-as/contact-distribution-api/internal/service"
	"github.com/straye-as/contact-distribution-api/internal/storage"
	"github.com/straye-as/contact-distribution-api/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testMaxUploadBytes int64 = 32 * 1024

type handlers struct {
	db           *gorm.DB
	auth         *handler.AuthHandler
	principal    *handler.PrincipalHandler
	distribution *handler.DistributionHandler
}

func setupHandlers(t *testing.T) *handlers {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	staging, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	tokens, err := auth.NewTokenManager(&config.AuthConfig{
		JWTSecret: "handler-test-signing-secret",
		Issuer:    "contact-distribution-api",
		TokenTTL:  30,
	})
	require.NoError(t, err)

	principals := repository.NewPrincipalRepository(db)
	numbers := repository.NewAgentNumberRepository(db)
	batches := repository.NewBatchRepository(db)

	hierarchy := service.NewHierarchyService(db, principals, numbers, bcrypt.MinCost, logger)
	distribution := service.NewDistributionService(principals, batches, staging, testMaxUploadBytes, logger)
	authService := service.NewAuthService(principals, tokens, logger)

	return &handlers{
		db:           db,
		auth:         handler.NewAuthHandler(authService, hierarchy, logger),
		principal:    handler.NewPrincipalHandler(hierarchy, logger),
		distribution: handler.NewDistributionHandler(distribution, testMaxUploadBytes, logger),
	}
}

// asPrincipal attaches p as the authenticated principal and any chi URL params
func asPrincipal(req *http.Request, p *domain.Principal, params map[string]string) *http.Request {
	ctx := auth.WithUserContext(req.Context(), &auth.UserContext{
		PrincipalID: p.ID,
		Name:        p.Name,
		Email:       p.Email,
		Role:        p.Role,
	})
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// createMultipartFormFile creates a multipart form body with a single file part
func createMultipartFormFile(t *testing.T, fieldName, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile(fieldName, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}
