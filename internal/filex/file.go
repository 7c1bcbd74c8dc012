// Package filex resolves and creates the client's per-user directories.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// userConfigDir is a seam for os.UserConfigDir.
var userConfigDir = os.UserConfigDir

// EnsureConfigDir creates <user config dir>/<app> with owner-only access and
// returns its path.
func EnsureConfigDir(app string) (string, error) {
	base, err := userConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return EnsureDir(filepath.Join(base, app))
}

// EnsureDir creates dir (and parents) if needed.
func EnsureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}
