//go:build unix

package fileutil

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// IsWritablePath reports whether path can be created or appended to.
// An existing path must be a writable regular file; a missing path needs a
// writable parent directory.
func IsWritablePath(path string) bool {
	if path == "" {
		return false
	}

	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return false
		}
		return unix.Access(path, unix.W_OK) == nil
	}
	if !os.IsNotExist(err) {
		return false
	}

	parent := filepath.Dir(path)
	pinfo, err := os.Stat(parent)
	if err != nil || !pinfo.IsDir() {
		return false
	}
	return unix.Access(parent, unix.W_OK|unix.X_OK) == nil
}
