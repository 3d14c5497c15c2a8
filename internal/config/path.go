// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// DataDir returns the default data directory (~/.local/share/jobtrail).
func DataDir() string {
	return ExpandPath("~/.local/share/jobtrail")
}

// DefaultDatabasePath returns the default SQLite database location.
func DefaultDatabasePath() string {
	return filepath.Join(DataDir(), "jobtrail.db")
}

// DefaultArtifactPath returns the default classifier artifact location.
func DefaultArtifactPath() string {
	return filepath.Join(DataDir(), "classifier.json")
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return ExpandPath("~/.config/jobtrail/config.yaml")
}
