package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.Session.EnableQueue)
	assert.Equal(t, 200, cfg.Session.QueueDepth)
	assert.Equal(t, 40, cfg.Session.ResolveThreshold)
	assert.False(t, cfg.Session.Debug)
	assert.Equal(t, 250, cfg.Poll.IntervalMs)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[driver]
type = "memory"

[session]
enable_queue = false
queue_depth = 64
resolve_threshold = 10
debug = true

[poll]
interval_ms = 100

[logging]
level = "debug"
format = "json"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Driver.Type)
	assert.False(t, cfg.Session.EnableQueue)
	assert.Equal(t, 64, cfg.Session.QueueDepth)
	assert.Equal(t, 10, cfg.Session.ResolveThreshold)
	assert.True(t, cfg.Session.Debug)
	assert.Equal(t, 100, cfg.Poll.IntervalMs)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
driver:
  type: evdev
  device_path: /dev/input/event3
session:
  queue_depth: 128
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "evdev", cfg.Driver.Type)
	assert.Equal(t, "/dev/input/event3", cfg.Driver.DevicePath)
	assert.Equal(t, 128, cfg.Session.QueueDepth)
	// Untouched fields keep defaults.
	assert.Equal(t, 40, cfg.Session.ResolveThreshold)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Session, cfg.Session)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad driver type", func(c *Config) { c.Driver.Type = "iokit" }, "driver.type"},
		{"relative device path", func(c *Config) { c.Driver.DevicePath = "input/event0" }, "driver.device_path"},
		{"zero queue depth", func(c *Config) { c.Session.QueueDepth = 0 }, "session.queue_depth"},
		{"negative threshold", func(c *Config) { c.Session.ResolveThreshold = -1 }, "session.resolve_threshold"},
		{"tiny poll interval", func(c *Config) { c.Poll.IntervalMs = 1 }, "poll.interval_ms"},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"file output without path", func(c *Config) { c.Logging.Output = "file"; c.Logging.FilePath = "" }, "logging.file_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KBSTATE_DRIVER", "memory")
	t.Setenv("KBSTATE_DEBUG", "true")
	t.Setenv("KBSTATE_LOG_LEVEL", "error")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "memory", cfg.Driver.Type)
	assert.True(t, cfg.Session.Debug)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := DefaultConfig()
	cfg.Session.QueueDepth = 77
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 77, loaded.Session.QueueDepth)
}

func TestLoadOrCreate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, created, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotNil(t, cfg)
	assert.FileExists(t, path)

	_, created, err = LoadOrCreate(path)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestClone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.Session.QueueDepth = 1

	assert.Equal(t, 200, cfg.Session.QueueDepth)
	assert.Equal(t, 1, clone.Session.QueueDepth)
}
