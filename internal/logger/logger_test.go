package logger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/straye-as/contact-distribution-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Level(t *testing.T) {
	log, err := NewLogger(&config.LoggingConfig{Level: "warn", Format: "json"}, &config.AppConfig{Name: "api", Environment: "test"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	log, err = NewLogger(&config.LoggingConfig{Level: "nonsense"}, &config.AppConfig{Environment: "development"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel), "unknown levels fall back to info")
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestBaseConfig(t *testing.T) {
	assert.Equal(t, "json", baseConfig("json", "development").Encoding)
	assert.Equal(t, "json", baseConfig("console", "production").Encoding)
	assert.Equal(t, "console", baseConfig("console", "development").Encoding)
}

func TestContextHelpers(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	id := uuid.New()

	log := WithPrincipal(WithRequest(zap.New(core), "GET", "/api/v1/me", "req-1"), id, "owner")
	log.Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, id.String(), fields["principal_id"])
	assert.Equal(t, "owner", fields["role"])
}
