package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSecretsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev := SecretsDir
	SecretsDir = dir
	t.Cleanup(func() { SecretsDir = prev })
	return dir
}

func TestReadSecret_File(t *testing.T) {
	dir := withSecretsDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jwt_secret"), []byte("  s3cret\n"), 0o600))
	t.Setenv("JWT_SECRET", "from-env")

	secret, err := ReadSecret("jwt_secret")

	require.NoError(t, err)
	assert.Equal(t, "s3cret", secret)
}

func TestReadSecret_EnvFallback(t *testing.T) {
	withSecretsDir(t)
	t.Setenv("DB_PASSWORD", "local-pass")

	secret, err := ReadSecret("db_password")

	require.NoError(t, err)
	assert.Equal(t, "local-pass", secret)
}

func TestReadSecret_Missing(t *testing.T) {
	withSecretsDir(t)
	t.Setenv("REDIS_PASSWORD", "")

	_, err := ReadSecret("redis_password")
	assert.Error(t, err)
}

func TestReadSecret_EmptyFile(t *testing.T) {
	dir := withSecretsDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jwt_secret"), []byte("\n"), 0o600))

	_, err := ReadSecret("jwt_secret")
	assert.Error(t, err)
}
