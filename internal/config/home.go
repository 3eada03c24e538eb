package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HomeEnv overrides the state directory for every scan.
const HomeEnv = "TVSCAN_HOME"

// HomeDir returns the tvscan state directory for base
// Priority order:
//  1. TVSCAN_HOME environment variable (if set)
//  2. <base>/.tvscan
//
// The directory is created if it doesn't exist
func HomeDir(base string) (string, error) {
	home := os.Getenv(HomeEnv)
	if home == "" {
		home = filepath.Join(base, HomeDirName)
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create tvscan home directory: %w", err)
	}
	return home, nil
}

// ResolvePath anchors a relative path from the config at base.
// Absolute paths are returned unchanged.
func ResolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// ResolveState anchors relative log_dir and history.db_path in home.
// A leading ".tvscan" component is dropped so the defaults land directly in home.
func (c *Config) ResolveState(home string) {
	c.LogDir = statePath(home, c.LogDir)
	c.History.DBPath = statePath(home, c.History.DBPath)
}

func statePath(home, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	clean := filepath.Clean(path)
	if rest, ok := strings.CutPrefix(clean, HomeDirName+string(filepath.Separator)); ok {
		clean = rest
	}
	return filepath.Join(home, clean)
}
