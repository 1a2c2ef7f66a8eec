// Package config loads the optional dualpane configuration file and applies
// environment overrides. The tool never writes configuration.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const (
	appDirName     = "dualpane"
	configFileName = "dualpane.conf"
)

// DefaultConfigPath returns the per-user configuration file location.
//
// Locations:
//   - Windows: %APPDATA%\dualpane\dualpane.conf
//   - macOS: ~/Library/Application Support/dualpane/dualpane.conf
//   - Unix: $XDG_CONFIG_HOME/dualpane/dualpane.conf (or ~/.config)
func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, herr := os.UserHomeDir()
		if herr != nil {
			return "", errors.Join(err, herr)
		}
		if runtime.GOOS == "windows" {
			configDir = filepath.Join(homeDir, "AppData", "Roaming")
		} else {
			configDir = filepath.Join(homeDir, ".config")
		}
	}
	return filepath.Join(configDir, appDirName, configFileName), nil
}
