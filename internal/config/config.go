// Package config handles configuration loading, validation, and management for kbstate.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/BurntSushi/toml"
)

// Config holds the complete kbstate configuration.
type Config struct {
	// Driver configuration for the HID backend.
	Driver DriverConfig `toml:"driver" json:"driver" yaml:"driver"`

	// Session configuration for keyboard initialization.
	Session SessionConfig `toml:"session" json:"session" yaml:"session"`

	// Poll configuration for the watch loop.
	Poll PollConfig `toml:"poll" json:"poll" yaml:"poll"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// mu protects concurrent access to the config.
	mu sync.RWMutex `toml:"-" json:"-" yaml:"-"`
}

// DriverConfig selects and tunes the HID backend.
type DriverConfig struct {
	// Type is the backend type: "evdev", "hidraw", or "memory".
	// An empty value selects the platform default.
	Type string `toml:"type" json:"type" yaml:"type"`

	// DevicePath overrides device discovery with an explicit device node
	// (e.g. /dev/input/event3 for evdev, /dev/hidraw0 for hidraw).
	DevicePath string `toml:"device_path" json:"device_path" yaml:"device_path"`
}

// SessionConfig holds keyboard session configuration.
type SessionConfig struct {
	// EnableQueue determines whether the event queue is set up in
	// addition to snapshot polling.
	EnableQueue bool `toml:"enable_queue" json:"enable_queue" yaml:"enable_queue"`

	// QueueDepth is the event queue capacity. Older events are dropped
	// when the queue is full.
	QueueDepth int `toml:"queue_depth" json:"queue_depth" yaml:"queue_depth"`

	// ResolveThreshold is the minimum number of resolved keys (exclusive)
	// for element resolution to count as successful.
	ResolveThreshold int `toml:"resolve_threshold" json:"resolve_threshold" yaml:"resolve_threshold"`

	// Debug enables extra diagnostics: duplicate-binding reports and
	// error-key polling during snapshots.
	Debug bool `toml:"debug" json:"debug" yaml:"debug"`
}

// PollConfig holds watch-loop configuration.
type PollConfig struct {
	// IntervalMs is the snapshot poll interval in milliseconds.
	IntervalMs int `toml:"interval_ms" json:"interval_ms" yaml:"interval_ms"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log output format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is where logs go: "stdout", "stderr", or "file".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file path when Output is "file".
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Driver: DriverConfig{
			Type:       "",
			DevicePath: "",
		},
		Session: SessionConfig{
			EnableQueue:      true,
			QueueDepth:       200,
			ResolveThreshold: 40,
			Debug:            false,
		},
		Poll: PollConfig{
			IntervalMs: 250,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Output:   "stderr",
			FilePath: filepath.Join(PlatformLogDir(), "kbstate.log"),
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// Load reads configuration from the specified path.
// If the file doesn't exist, returns default configuration.
// Supports TOML, JSON, and YAML formats based on file extension.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables are prefixed with KBSTATE_ and use underscores.
func (c *Config) ApplyEnvOverrides() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v := os.Getenv("KBSTATE_DRIVER"); v != "" {
		c.Driver.Type = v
	}
	if v := os.Getenv("KBSTATE_DEVICE_PATH"); v != "" {
		c.Driver.DevicePath = v
	}
	if v := os.Getenv("KBSTATE_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Session.Debug = b
		}
	}
	if v := os.Getenv("KBSTATE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("KBSTATE_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := Config{
		Driver:  c.Driver,
		Session: c.Session,
		Poll:    c.Poll,
		Logging: c.Logging,
	}
	return &clone
}

// Save writes the configuration to the specified path in TOML format.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// KbstateDir returns the base kbstate data directory.
// Uses platform-specific paths or KBSTATE_DATA_DIR environment override.
func KbstateDir() string {
	if envDir := os.Getenv("KBSTATE_DATA_DIR"); envDir != "" {
		return envDir
	}
	return PlatformDataDir()
}
