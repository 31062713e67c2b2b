package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/pkg/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ANTHROPIC_API_KEY", "ANTHROPIC_MODEL", "ANTHROPIC_BASE_URL",
		"DAYTONA_API_KEY", "DAYTONA_API_URL", "DAYTONA_PRESERVE_SANDBOXES",
		"PYTHON_BIN", "STORE_BACKEND", "RULES_DIR", "DATABASE_URL",
		"RULES_S3_BUCKET", "RULES_S3_REGION", "RULES_S3_ENDPOINT",
		"REDIS_ADDR", "REDIS_PASSWORD", "OTEL_EXPORTER_OTLP_ENDPOINT", "ENVIRONMENT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_FailsFastWithoutAnthropicKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("DAYTONA_API_KEY", "daytona-key")

	_, err := config.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestLoad_FailsFastWithoutDaytonaKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")

	_, err := config.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DAYTONA_API_KEY")
}

func TestLoad_DefaultsWhenOnlyRequiredVarsSet(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")
	t.Setenv("DAYTONA_API_KEY", "daytona-key")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "claude-sonnet-4-5", cfg.AnthropicModel)
	assert.Equal(t, "https://api.anthropic.com", cfg.AnthropicURL)
	assert.Equal(t, config.StoreBackendFile, cfg.StoreBackend)
	assert.Equal(t, "./data/rules", cfg.RulesDir)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 5, cfg.MaxRefinementAttempts)
	assert.False(t, cfg.DaytonaPreserveSandboxes)
}

func TestLoad_OverridesFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")
	t.Setenv("DAYTONA_API_KEY", "daytona-key")
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://prod:5432/warden")
	t.Setenv("DAYTONA_PRESERVE_SANDBOXES", "true")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, config.StoreBackendPostgres, cfg.StoreBackend)
	assert.Equal(t, "postgres://prod:5432/warden", cfg.DatabaseURL)
	assert.True(t, cfg.DaytonaPreserveSandboxes)
}

func TestLoad_PostgresBackendRequiresDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")
	t.Setenv("DAYTONA_API_KEY", "daytona-key")
	t.Setenv("STORE_BACKEND", "postgres")

	_, err := config.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_S3BackendRequiresBucket(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")
	t.Setenv("DAYTONA_API_KEY", "daytona-key")
	t.Setenv("STORE_BACKEND", "s3")

	_, err := config.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "RULES_S3_BUCKET")
}

func TestLoad_RejectsUnknownStoreBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")
	t.Setenv("DAYTONA_API_KEY", "daytona-key")
	t.Setenv("STORE_BACKEND", "carrier-pigeon")

	_, err := config.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown STORE_BACKEND")
}
