package models

import (
	"errors"
	"fmt"
	"strings"
)

// Skip reason kinds reported in SkipEntry.Reason.
const (
	ReasonMalformedName = "malformed_name"
	ReasonIO            = "io"
	ReasonEmpty         = "empty"
	ReasonUnencodable   = "unencodable"
	ReasonUnknown       = "unknown"
)

var (
	// ErrEmptyFile is returned for a matched file with zero length.
	ErrEmptyFile = errors.New("file is empty")

	// ErrUnencodableField is returned when a record field would break the
	// comma-delimited manifest line.
	ErrUnencodableField = errors.New("field contains a delimiter or line break")
)

// PathError reports that the scan directory or manifest path cannot be used.
// It is always fatal to the run.
type PathError struct {
	Path   string
	Reason string
	Err    error
}

func (e *PathError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("path %s: %s", e.Path, e.Reason))
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// MalformedNameError reports a file name that does not fit the naming grammar.
type MalformedNameError struct {
	Name       string
	Components int
	Reason     string
}

func (e *MalformedNameError) Error() string {
	return fmt.Sprintf("malformed name %q: %s (%d components)", e.Name, e.Reason, e.Components)
}

// MalformedManifestLineError reports a manifest line that cannot be decoded.
// Line is 1-based.
type MalformedManifestLineError struct {
	Line   int
	Fields int
	Reason string
}

func (e *MalformedManifestLineError) Error() string {
	return fmt.Sprintf("manifest line %d: %s (%d fields)", e.Line, e.Reason, e.Fields)
}

// IOError wraps a filesystem failure with the operation that hit it.
// Op is one of "stat", "hash", "load" or "append".
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err must abort the whole run rather than skip one file.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var pathErr *PathError
	if errors.As(err, &pathErr) {
		return true
	}

	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return ioErr.Op == "append" || ioErr.Op == "load"
	}

	return false
}

// SkipReason classifies a per-file error into a SkipEntry reason kind.
func SkipReason(err error) string {
	var nameErr *MalformedNameError
	var ioErr *IOError

	switch {
	case errors.Is(err, ErrEmptyFile):
		return ReasonEmpty
	case errors.Is(err, ErrUnencodableField):
		return ReasonUnencodable
	case errors.As(err, &nameErr):
		return ReasonMalformedName
	case errors.As(err, &ioErr):
		return ReasonIO
	default:
		return ReasonUnknown
	}
}
