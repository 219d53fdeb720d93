// Package config handles configuration loading, validation, and management for kbstate.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/kbstate/
//   - Linux:   ~/.local/share/kbstate/
//   - Windows: %APPDATA%\kbstate\
//
// Falls back to ~/.kbstate if platform detection fails.
func PlatformDataDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Application Support", "kbstate")
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "kbstate")
		}
		return filepath.Join(homeDir(), ".local", "share", "kbstate")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "kbstate")
		}
		return fallbackDataDir()
	default:
		return fallbackDataDir()
	}
}

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/kbstate/
//   - Linux:   ~/.config/kbstate/
//   - Windows: %APPDATA%\kbstate\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "kbstate")
		}
		return filepath.Join(homeDir(), ".config", "kbstate")
	default:
		// macOS and Windows use the same dir for config and data.
		return PlatformDataDir()
	}
}

// PlatformLogDir returns the platform-specific log directory.
//
// Platform paths:
//   - macOS:   ~/Library/Logs/kbstate/
//   - Linux:   ~/.local/share/kbstate/logs/
//   - Windows: %LOCALAPPDATA%\kbstate\logs\
func PlatformLogDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Logs", "kbstate")
	case "linux":
		return filepath.Join(PlatformDataDir(), "logs")
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "kbstate", "logs")
		}
		return filepath.Join(fallbackDataDir(), "logs")
	default:
		return filepath.Join(fallbackDataDir(), "logs")
	}
}

// PlatformRuntimeDir returns the platform-specific runtime directory.
//
// Platform paths:
//   - Linux:   $XDG_RUNTIME_DIR/kbstate/ or /tmp/kbstate-$UID/
//   - others:  /tmp/kbstate-$UID/
func PlatformRuntimeDir() string {
	if runtime.GOOS == "linux" {
		if xdgRuntime := os.Getenv("XDG_RUNTIME_DIR"); xdgRuntime != "" {
			return filepath.Join(xdgRuntime, "kbstate")
		}
	}
	return filepath.Join("/tmp", fmt.Sprintf("kbstate-%d", os.Getuid()))
}

func homeDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return home
}

func fallbackDataDir() string {
	return filepath.Join(homeDir(), ".kbstate")
}
