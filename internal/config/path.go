package config

import (
	"os"
	"path/filepath"
)

// DefaultDataDir returns the per-user directory where books live when no
// data dir is configured. It follows the platform conventions and falls
// back to ./data when there is no home directory.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "folio")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "./data"
	}

	// macOS: ~/Library/Application Support/Folio
	if isDir(filepath.Join(homeDir, "Library")) {
		return filepath.Join(homeDir, "Library", "Application Support", "Folio")
	}

	// Windows: %USERPROFILE%/AppData/Local/Folio
	if isDir(filepath.Join(homeDir, "AppData")) {
		return filepath.Join(homeDir, "AppData", "Local", "Folio")
	}

	// XDG default on Linux and other Unixes
	if isDir(filepath.Join(homeDir, ".local", "share")) {
		return filepath.Join(homeDir, ".local", "share", "folio")
	}

	return filepath.Join(homeDir, ".folio")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
