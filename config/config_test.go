package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  port: "9100"
  log_level: debug
database:
  driver: postgres
  dsn: postgres://localhost/restaurant
security:
  secret_key: from-file
redis:
  idempotency_ttl: 1h
`), 0o600))
	t.Setenv("RESTAURANT_SECURITY__SECRET_KEY", "from-env")
	t.Setenv("RESTAURANT_DATABASE__MAX_CONNS", "25")
	t.Setenv("PORT", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.App.Port)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 25, cfg.Database.MaxConns)
	assert.Equal(t, "from-env", cfg.Security.SecretKey)
	assert.Equal(t, time.Hour, cfg.Redis.IdempotencyTTL)
	// untouched defaults survive
	assert.Equal(t, 24*time.Hour, cfg.Security.TokenTTL)
	assert.Equal(t, "restaurant", cfg.Database.MongoDB)
}

func TestLoadPortOverrideAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RESTAURANT_SECURITY__SECRET_KEY=dotenv-secret\n"), 0o600))
	t.Setenv("PORT", "7000")
	t.Cleanup(func() { _ = os.Unsetenv("RESTAURANT_SECURITY__SECRET_KEY") })

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.App.Port)
	assert.Equal(t, "dotenv-secret", cfg.Security.SecretKey)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Security.SecretKey = "s"
	require.NoError(t, valid.Validate())

	tests := map[string]func(c *Config){
		"unknown driver":   func(c *Config) { c.Database.Driver = "mysql" },
		"empty dsn":        func(c *Config) { c.Database.DSN = "" },
		"mongo without db": func(c *Config) { c.Database.Driver = "mongo"; c.Database.MongoDB = "" },
		"no secret":        func(c *Config) { c.Security.SecretKey = "" },
		"no token ttl":     func(c *Config) { c.Security.TokenTTL = 0 },
		"no port":          func(c *Config) { c.App.Port = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
