package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScanOptions configures the directory scanning behavior
type ScanOptions struct {
	// Extensions is a list of file name suffixes to include (e.g., ".fil").
	// An empty list matches every file.
	Extensions []string
	// Recursive enables recursive directory scanning
	Recursive bool
	// ExcludeDirs is a list of directory names to exclude (e.g., "tmp").
	// Hidden directories are walked unless named here.
	ExcludeDirs []string
	// MaxDepth limits recursion depth (0 = unlimited, 1 = current dir only)
	MaxDepth int
}

// Match is a file that passed the extension filter.
type Match struct {
	// Path is the absolute path of the file
	Path string
	// Dir is the absolute path of the containing directory
	Dir string
	// Name is the bare file name
	Name string
	// Ext is the configured extension that matched, normalised to ".lower"
	Ext string
}

// ScanResult contains the results of a directory scan
type ScanResult struct {
	// Root is the absolute path that was walked
	Root string
	// Files contains every match in walk order
	Files []Match
	// Errors contains non-fatal errors encountered during scanning
	Errors []error
}

// NormalizeExtensions lower-cases extensions, adds a leading dot and drops
// empties and duplicates, preserving order.
func NormalizeExtensions(exts []string) []string {
	seen := make(map[string]bool, len(exts))
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	return out
}

// MatchExtension returns the longest extension in exts (already normalised)
// that name ends with, ignoring case.
func MatchExtension(name string, exts []string) (string, bool) {
	lower := strings.ToLower(name)
	best := ""
	for _, ext := range exts {
		if len(ext) > len(best) && len(lower) > len(ext) && strings.HasSuffix(lower, ext) {
			best = ext
		}
	}
	return best, best != ""
}

// ScanDirectory scans a directory for files matching the provided options
func ScanDirectory(dir string, opts ScanOptions) (*ScanResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory %s: %w", dir, err)
	}

	result := &ScanResult{
		Root:   root,
		Files:  make([]Match, 0),
		Errors: make([]error, 0),
	}

	exts := NormalizeExtensions(opts.Extensions)

	excludeMap := make(map[string]bool)
	for _, name := range opts.ExcludeDirs {
		excludeMap[name] = true
	}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, err))
			return nil // Continue walking
		}

		if path == root {
			return nil
		}

		if d.IsDir() {
			if excludeMap[d.Name()] {
				return filepath.SkipDir
			}
			if !opts.Recursive {
				return filepath.SkipDir
			}
			if opts.MaxDepth > 0 {
				relPath, _ := filepath.Rel(root, path)
				depth := strings.Count(relPath, string(filepath.Separator)) + 1
				if depth >= opts.MaxDepth {
					return filepath.SkipDir
				}
			}
			return nil
		}

		// Symlinked vectors are followed later by the scanner's stat.
		if !d.Type().IsRegular() && d.Type()&os.ModeSymlink == 0 {
			return nil
		}

		name := d.Name()
		ext := ""
		if len(exts) > 0 {
			var ok bool
			if ext, ok = MatchExtension(name, exts); !ok {
				return nil
			}
		}

		result.Files = append(result.Files, Match{
			Path: path,
			Dir:  filepath.Dir(path),
			Name: name,
			Ext:  ext,
		})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return result, nil
}
