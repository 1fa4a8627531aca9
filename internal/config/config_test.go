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
	t.Chdir(t.TempDir())
	t.Setenv("TREESPOTTER_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "fs", cfg.Store.Adapter)
	assert.Equal(t, 10, cfg.Store.Limit)
	assert.Equal(t, ".", cfg.FS.Path)
	assert.Equal(t, ".yaml", cfg.FS.Format)
	assert.Equal(t, 50*time.Millisecond, cfg.FS.Debounce)
	assert.Equal(t, "trees", cfg.Firebase.Collection)
	assert.False(t, cfg.Location.Disabled)
	_, ok := cfg.Location.Point()
	assert.False(t, ok)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "treespotter.yaml")
	content := `
store:
  adapter: memory
  limit: 5
location:
  disabled: true
  latitude: 45.52
  longitude: -122.68
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("TREESPOTTER_LIMIT", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Adapter)
	assert.Equal(t, 7, cfg.Store.Limit, "env overrides the file")
	p, ok := cfg.Location.Point()
	require.True(t, ok)
	assert.Equal(t, 45.52, p.Latitude)
	assert.True(t, cfg.Location.Disabled)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	lat := 95.0
	lon := 10.0

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown adapter", func(c *Config) { c.Store.Adapter = "sqlite" }},
		{"zero limit", func(c *Config) { c.Store.Limit = 0 }},
		{"bad format", func(c *Config) { c.FS.Format = ".toml" }},
		{"firestore without project", func(c *Config) { c.Store.Adapter = "firestore" }},
		{"half a location", func(c *Config) { c.Location.Latitude = &lon }},
		{"latitude out of range", func(c *Config) { c.Location.Latitude, c.Location.Longitude = &lat, &lon }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, valid().Validate())
}

func valid() *Config {
	return &Config{
		Store:    StoreConfig{Adapter: "fs", Limit: 10},
		FS:       FSConfig{Path: ".", Format: ".yaml", Debounce: 50 * time.Millisecond},
		Firebase: FirebaseConfig{Collection: "trees"},
		Location: LocationConfig{},
		Log:      LogConfig{Level: "info"},
	}
}
