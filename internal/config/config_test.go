package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "https://www.nemweb.com.au", cfg.Portal.BaseURL)
	assert.Equal(t, 5.0, cfg.Portal.RequestsPerSec)
	assert.Equal(t, 3, cfg.Portal.MaxRetries)
	assert.Equal(t, 5*time.Minute, cfg.Ingest.Interval())
	assert.Equal(t, 3, cfg.Ingest.MaxConcurrent)
	assert.Equal(t, 30*24*time.Hour, cfg.Backfill.Lookback())
	assert.Equal(t, 2*time.Second, cfg.Backfill.Delay())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
  sqlite_path: /tmp/market.db
portal:
  base_url: http://portal.test
ingest:
  interval_secs: 60
backfill:
  lookback_days: 7
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/tmp/market.db", cfg.Store.SQLitePath)
	assert.Equal(t, "http://portal.test", cfg.Portal.BaseURL)
	assert.Equal(t, time.Minute, cfg.Ingest.Interval())
	assert.Equal(t, 7*24*time.Hour, cfg.Backfill.Lookback())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("NEMSYNC_SERVER_PORT", "9090")
	t.Setenv("NEMSYNC_STORE_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
