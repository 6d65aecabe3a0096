package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"atm-admin/shared/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) {
	t.Helper()
	prev := utils.SecretsDir
	utils.SecretsDir = t.TempDir()
	t.Cleanup(func() { utils.SecretsDir = prev })

	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "admin")
	t.Setenv("DB_NAME", "atm")
	t.Setenv("DB_PASSWORD", "p@ss word")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REDIS_PASSWORD", "")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setupEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, "8084", cfg.ServerPort)
	assert.Equal(t, 5*time.Minute, cfg.MachinesCacheTTL)
	assert.Equal(t, uint(120), cfg.GraphQLRateLimit)
	assert.Equal(t, "secret", cfg.JWTSecret)
	assert.Empty(t, cfg.RedisPassword)
	assert.NotEmpty(t, cfg.InstanceID)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.GetAllowedOrigins())
	assert.Equal(t, "postgres://admin:p%40ss%20word@db:5432/atm?sslmode=disable", cfg.DSN())
}

func TestLoadConfig_EnvFileAndOverrides(t *testing.T) {
	setupEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MACHINES_CACHE_TTL=30s\nINSTANCE_ID=replica-7\n"), 0o600))
	t.Setenv("MACHINES_CACHE_TTL", "")
	t.Setenv("INSTANCE_ID", "")
	os.Unsetenv("MACHINES_CACHE_TTL")
	os.Unsetenv("INSTANCE_ID")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig(envFile)

	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.MachinesCacheTTL)
	assert.Equal(t, "replica-7", cfg.InstanceID)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.GetAllowedOrigins())
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	setupEnv(t)
	t.Setenv("DB_HOST", "")
	os.Unsetenv("DB_HOST")

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	setupEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfig_InvalidConfigAPIURL(t *testing.T) {
	setupEnv(t)
	t.Setenv("CONFIG_API_URL", "not a url")

	_, err := LoadConfig("")
	assert.Error(t, err)
}
