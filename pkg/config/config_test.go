package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("REQMAN_AUTH_TOKEN_SECRET", "test-secret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "token", cfg.Auth.Mode)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "admin", cfg.Auth.AdminUsername)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  host: 127.0.0.1
  port: 9090
database:
  driver: postgres
  dsn: postgres://localhost/reqman
auth:
  mode: header
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "header", cfg.Auth.Mode)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("REQMAN_DATABASE_DRIVER", "mysql")
	t.Setenv("REQMAN_DATABASE_DSN", "user:pass@tcp(localhost)/reqman")
	t.Setenv("REQMAN_AUTH_MODE", "none")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "user:pass@tcp(localhost)/reqman", cfg.Database.DSN)
	assert.Equal(t, "none", cfg.Auth.Mode)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("REQMAN_DATABASE_DRIVER", "oracle")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_TokenModeRequiresSecret(t *testing.T) {
	t.Setenv("REQMAN_AUTH_MODE", "token")
	_, err := Load("")
	assert.Error(t, err)
}
