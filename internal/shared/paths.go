package shared

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "spotsync"

// DefaultDataDir returns the directory holding the cache database, token and lock file.
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// DefaultConfigPath returns the XDG location of config.toml.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}
