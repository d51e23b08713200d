package blueprint

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOSTNAME", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USERNAME", "blueprint")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "blueprint")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg := LoadConfig()
	assert.Equal(t, "prod", cfg.Mode)
	assert.Equal(t, ":8080", cfg.ApiPort)
	assert.Equal(t, "disable", cfg.MainDatabase.SSLMode)
	assert.True(t, cfg.RedisConfig.Enabled)
	assert.Equal(t, "6379", cfg.RedisConfig.Port)
	assert.Equal(t, int64(1000), cfg.EngineConfig.DefaultMaxGas)
	assert.Equal(t, 8, cfg.EngineConfig.BatchLimit)
	assert.Equal(t, 24*time.Hour, cfg.EngineConfig.IdempotencyTTL)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RUN_MODE", "dev")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("NATS_ENABLED", "0")
	t.Setenv("ENGINE_DEFAULT_MAX_GAS", "250")
	t.Setenv("ENGINE_BATCH_LIMIT", "not-a-number")
	t.Setenv("IDEMPOTENCY_TTL_MINUTES", "15")

	cfg := LoadConfig()
	assert.Equal(t, "dev", cfg.Mode)
	assert.False(t, cfg.RedisConfig.Enabled)
	assert.Equal(t, 3, cfg.RedisConfig.DB)
	assert.False(t, cfg.NatsConfig.Enabled)
	assert.Equal(t, int64(250), cfg.EngineConfig.DefaultMaxGas)
	assert.Equal(t, 8, cfg.EngineConfig.BatchLimit)
	assert.Equal(t, 15*time.Minute, cfg.EngineConfig.IdempotencyTTL)
}

func TestInitLogger(t *testing.T) {
	l := initLogger("debug", "")
	assert.Equal(t, zerolog.DebugLevel, l.GetLevel())

	l = initLogger("nonsense", "")
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())

	file := filepath.Join(t.TempDir(), "api.log")
	l = initLogger("warn", file)
	l.Warn().Msg("rotated")
	assert.FileExists(t, file)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("BLUEPRINT_TEST_KEY", "")
	assert.Equal(t, "fallback", GetEnv("BLUEPRINT_TEST_KEY", "fallback"))
	t.Setenv("BLUEPRINT_TEST_KEY", "set")
	assert.Equal(t, "set", GetEnv("BLUEPRINT_TEST_KEY", "fallback"))
	require.True(t, getBoolEnvOrDefault("BLUEPRINT_MISSING_BOOL", true))
}
