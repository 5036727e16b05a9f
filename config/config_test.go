// ABOUTME: Tests for layered configuration loading
// ABOUTME: Covers defaults, TOML overrides, .env files and POSTMAN_* precedence
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, filepath.Join(DataDir(), "postman.db"), cfg.DatabasePath)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout.Duration)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", `
database_path = "/tmp/pm.db"
default_user_email = "kim@example.com"

[server]
addr = ":9090"
read_timeout = "5s"
cors_origins = ["https://app.example.com"]

[log]
format = "json"
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/pm.db", cfg.DatabasePath)
	assert.Equal(t, "kim@example.com", cfg.DefaultUserEmail)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout.Duration)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout.Duration, "unset keys keep defaults")
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"), "")
	assert.Error(t, err)
}

func TestEnvOverridesTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", "database_path = \"/tmp/from-toml.db\"\n")

	t.Setenv("POSTMAN_DB_PATH", "/tmp/from-env.db")
	t.Setenv("POSTMAN_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("POSTMAN_RATE_BURST", "9")
	t.Setenv("POSTMAN_IDLE_TIMEOUT", "2m")

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/from-env.db", cfg.DatabasePath)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 9, cfg.Server.RateBurst)
	assert.Equal(t, 2*time.Minute, cfg.Server.IdleTimeout.Duration)
}

func TestEnvFileDoesNotOverrideProcessEnv(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.toml", "")
	envPath := writeFile(t, dir, ".env", "POSTMAN_ADDR=:7000\nPOSTMAN_LOG_LEVEL=debug\n")

	t.Setenv("POSTMAN_LOG_LEVEL", "warn")
	// godotenv sets variables it loads; make sure they are cleaned up.
	t.Setenv("POSTMAN_ADDR", "")
	require.NoError(t, os.Unsetenv("POSTMAN_ADDR"))

	cfg, err := Load(cfgPath, envPath)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestBadEnvValue(t *testing.T) {
	cfgPath := writeFile(t, t.TempDir(), "config.toml", "")
	t.Setenv("POSTMAN_MAX_UPLOAD_BYTES", "ten")

	_, err := Load(cfgPath, "")
	assert.ErrorContains(t, err, "POSTMAN_MAX_UPLOAD_BYTES")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Log.Format = "xml"
	cfg.Server.RateBurst = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.format")
	assert.Contains(t, err.Error(), "rate_burst")
}

func TestExpandTilde(t *testing.T) {
	assert.Equal(t, "/home/kim/pm.db", expandTilde("~/pm.db", "/home/kim"))
	assert.Equal(t, "/abs/pm.db", expandTilde("/abs/pm.db", "/home/kim"))
}
