package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "trailprep.db", cfg.Store.Path)
	assert.Equal(t, 1, cfg.Scrape.Pages)
	assert.Equal(t, 30*time.Second, cfg.Scrape.Timeout())
	assert.Equal(t, time.Second, cfg.Scrape.PageDelay())
	assert.Equal(t, "https://nominatim.openstreetmap.org/search", cfg.Geocode.BaseURL)
	assert.Equal(t, "ke", cfg.Geocode.Country)
	assert.Equal(t, time.Second, cfg.Geocode.Delay())
	assert.Equal(t, 10*time.Second, cfg.Geocode.Timeout())
	assert.InDelta(t, 1.0, cfg.Geocode.RateLimitRPS, 0.001)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  path: /tmp/other.db
scrape:
  base_url: https://trails.example.org/list
  pages: 4
geocode:
  country: tz
  delay_ms: 1500
log:
  level: debug
  format: json
`
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(wd, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/other.db", cfg.Store.Path)
	assert.Equal(t, "https://trails.example.org/list", cfg.Scrape.BaseURL)
	assert.Equal(t, 4, cfg.Scrape.Pages)
	assert.Equal(t, "tz", cfg.Geocode.Country)
	assert.Equal(t, 1500*time.Millisecond, cfg.Geocode.Delay())
	assert.Equal(t, "debug", cfg.Log.Level)
	// Unset keys keep their defaults.
	assert.Equal(t, "https://nominatim.openstreetmap.org/search", cfg.Geocode.BaseURL)
}

func TestLoadFromEnv(t *testing.T) {
	chTempDir(t)
	t.Setenv("TRAILPREP_GEOCODE_COUNTRY", "ug")
	t.Setenv("TRAILPREP_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ug", cfg.Geocode.Country)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "json"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "console"}))
	assert.Error(t, InitLogger(LogConfig{Level: "not-a-level", Format: "json"}))
}
