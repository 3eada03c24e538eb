package models

import "time"

// DriftEntry describes a recorded file whose live size no longer matches the manifest.
type DriftEntry struct {
	Filename         string // Manifest key
	FullPath         string // Live path where the drifted file was found
	PreviousSizeBits int64  // Size recorded in the manifest
	CurrentSizeBits  int64  // Size observed on this run
}

// DeltaBits returns how many bits the file grew (positive) or shrank (negative).
func (d DriftEntry) DeltaBits() int64 {
	return d.CurrentSizeBits - d.PreviousSizeBits
}

// SkipEntry records a matched file that was neither recorded nor audited.
type SkipEntry struct {
	Path    string // Full path of the skipped file
	Reason  string // Reason kind, see SkipReason
	Message string // Human-readable error text
}

// ScanReport is the immutable summary of one scan run.
type ScanReport struct {
	RunID        string
	Directory    string
	ManifestPath string
	Extensions   []string
	StartedAt    time.Time
	Duration     time.Duration
	DryRun       bool

	FilesSeen    int // Every file that matched an extension
	NewRecorded  int // Files appended to the manifest (or that would be, in a dry run)
	AlreadyKnown int // Known files whose size matched
	Drifted      int // Known files whose size changed
	Skipped      int // Files that failed parsing, sizing or hashing

	TotalGB float64 // Live size of every sized file
	NewGB   float64 // Size of newly recorded files

	Drift        []DriftEntry // Sorted by filename
	SkippedFiles []SkipEntry  // Sorted by path
}

// HasDrift reports whether any recorded file changed size.
func (r ScanReport) HasDrift() bool {
	return r.Drifted > 0
}

// Status summarises the run outcome as CLEAN, DRIFT or PARTIAL.
// PARTIAL means some files were skipped; drift takes precedence.
func (r ScanReport) Status() string {
	switch {
	case r.Drifted > 0:
		return "DRIFT"
	case r.Skipped > 0:
		return "PARTIAL"
	default:
		return "CLEAN"
	}
}
