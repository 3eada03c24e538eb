// Package report aggregates per-file scan outcomes into a ScanReport.
//
// A Reporter only counts; it performs no I/O and prints nothing. The scanner
// feeds it one event per matched file and the caller receives the immutable
// summary at the end of the run.
package report

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harrison/tvscan/internal/models"
)

// Meta identifies the run a Reporter is summarising.
type Meta struct {
	RunID        string
	Directory    string
	ManifestPath string
	Extensions   []string
	DryRun       bool
	StartedAt    time.Time
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.New().String()
}

// Reporter accumulates scan events. It is safe for concurrent use.
type Reporter struct {
	mu     sync.Mutex
	report models.ScanReport
	now    func() time.Time
}

// NewReporter starts a report for meta. A missing RunID or StartedAt is filled in.
func NewReporter(meta Meta) *Reporter {
	if meta.RunID == "" {
		meta.RunID = NewRunID()
	}
	if meta.StartedAt.IsZero() {
		meta.StartedAt = time.Now()
	}

	return &Reporter{
		report: models.ScanReport{
			RunID:        meta.RunID,
			Directory:    meta.Directory,
			ManifestPath: meta.ManifestPath,
			Extensions:   append([]string(nil), meta.Extensions...),
			DryRun:       meta.DryRun,
			StartedAt:    meta.StartedAt,
		},
		now: time.Now,
	}
}

// Known records a recorded file whose size still matches.
func (r *Reporter) Known(gb float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.FilesSeen++
	r.report.AlreadyKnown++
	r.report.TotalGB += gb
}

// Drift records a recorded file whose size changed. gb is the live size.
func (r *Reporter) Drift(entry models.DriftEntry, gb float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.FilesSeen++
	r.report.Drifted++
	r.report.TotalGB += gb
	r.report.Drift = append(r.report.Drift, entry)
}

// Recorded records a newly appended file.
func (r *Reporter) Recorded(gb float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.FilesSeen++
	r.report.NewRecorded++
	r.report.TotalGB += gb
	r.report.NewGB += gb
}

// Skip records a file that could not be audited or recorded.
func (r *Reporter) Skip(entry models.SkipEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.FilesSeen++
	r.report.Skipped++
	r.report.SkippedFiles = append(r.report.SkippedFiles, entry)
}

// Summary returns a copy of the report with Duration stamped and lists sorted.
// Later events do not affect a returned summary.
func (r *Reporter) Summary() models.ScanReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.report
	out.Duration = r.now().Sub(out.StartedAt)
	out.Extensions = append([]string(nil), r.report.Extensions...)

	out.Drift = append([]models.DriftEntry(nil), r.report.Drift...)
	sort.SliceStable(out.Drift, func(i, j int) bool {
		if out.Drift[i].Filename != out.Drift[j].Filename {
			return out.Drift[i].Filename < out.Drift[j].Filename
		}
		return out.Drift[i].FullPath < out.Drift[j].FullPath
	})

	out.SkippedFiles = append([]models.SkipEntry(nil), r.report.SkippedFiles...)
	sort.SliceStable(out.SkippedFiles, func(i, j int) bool {
		return out.SkippedFiles[i].Path < out.SkippedFiles[j].Path
	})

	return out
}
