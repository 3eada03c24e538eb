//go:build !unix

package fileutil

import (
	"os"
	"path/filepath"
)

// IsWritablePath reports whether path can be created or appended to.
// Without access(2) this only checks existence and type.
func IsWritablePath(path string) bool {
	if path == "" {
		return false
	}

	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir()
	}
	if !os.IsNotExist(err) {
		return false
	}

	pinfo, err := os.Stat(filepath.Dir(path))
	return err == nil && pinfo.IsDir()
}
