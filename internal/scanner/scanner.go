// Package scanner runs one incremental pass over a test vector directory.
//
// Every matched file ends in exactly one of three states: audited against
// its manifest record, recorded as new, or skipped. The manifest is loaded
// once before any file is touched and is only ever appended to.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harrison/tvscan/internal/fileutil"
	"github.com/harrison/tvscan/internal/fingerprint"
	"github.com/harrison/tvscan/internal/grammar"
	"github.com/harrison/tvscan/internal/manifest"
	"github.com/harrison/tvscan/internal/models"
	"github.com/harrison/tvscan/internal/report"
)

// DefaultExtension is matched when Options.Extensions is empty.
const DefaultExtension = ".fil"

// StateDirName is the tvscan state folder, never scanned for vectors.
const StateDirName = ".tvscan"

// Logger receives scan progress messages.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
}

type nopLogger struct{}

func (nopLogger) LogDebug(string) {}
func (nopLogger) LogInfo(string)  {}
func (nopLogger) LogWarn(string)  {}
func (nopLogger) LogError(string) {}

// State is the lifecycle position of one file during a scan.
type State int

const (
	Unfiltered State = iota
	Matched
	KnownAudited
	NewRecorded
	Skipped
)

func (s State) String() string {
	switch s {
	case Unfiltered:
		return "unfiltered"
	case Matched:
		return "matched"
	case KnownAudited:
		return "known"
	case NewRecorded:
		return "new"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options configures a Scanner.
type Options struct {
	Directory    string
	ManifestPath string
	Extensions   []string
	// ExcludeDirs are directory names never entered. StateDirName is
	// always added.
	ExcludeDirs []string
	// MaxDepth limits how deep the walk goes (0 = unlimited, 1 = Directory only).
	MaxDepth int
	// Workers bounds concurrent hashing. Values below 1 mean 1.
	Workers int
	// DryRun audits and parses but never hashes or appends.
	DryRun bool
	// Strict fails the run on the first malformed manifest line.
	Strict bool
	Engine *fingerprint.Engine
	Logger Logger
	// PathCheck decides whether ManifestPath may be written.
	// Defaults to fileutil.IsWritablePath.
	PathCheck func(path string) bool
	// Progress, when set, is called after each matched file settles.
	Progress func(done, total int)
}

// Scanner performs scans with fixed Options.
type Scanner struct {
	opts   Options
	logger Logger
	engine *fingerprint.Engine
	exts   []string
}

// New returns a Scanner, filling in defaults for unset options.
func New(opts Options) *Scanner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.PathCheck == nil {
		opts.PathCheck = fileutil.IsWritablePath
	}
	if !slices.Contains(opts.ExcludeDirs, StateDirName) {
		opts.ExcludeDirs = append(slices.Clone(opts.ExcludeDirs), StateDirName)
	}

	exts := fileutil.NormalizeExtensions(opts.Extensions)
	if len(exts) == 0 {
		exts = []string{DefaultExtension}
	}

	s := &Scanner{opts: opts, logger: opts.Logger, engine: opts.Engine, exts: exts}
	if s.logger == nil {
		s.logger = nopLogger{}
	}
	if s.engine == nil {
		s.engine = fingerprint.New()
	}
	return s
}

// claim tracks the first occurrence of a new name within one run.
type claim struct {
	recorded bool
	sizeBits int64
}

type task struct {
	match  fileutil.Match
	known  *models.ManifestRecord
	fields grammar.Fields
	claim  *claim
}

// run holds the per-scan state shared by workers.
type run struct {
	*Scanner
	store    *manifest.Store
	reporter *report.Reporter
	// claims is written during classification and read after every task
	// has settled.
	claims map[string]*claim

	progressMu sync.Mutex
	done       int
	total      int
}

// Scan walks the directory, audits known files and records new ones.
//
// A *models.PathError is returned before anything is read when the directory
// or manifest path is unusable. A manifest load failure, an append failure
// or ctx cancellation aborts the run; per-file problems are reported in the
// returned ScanReport and never abort it.
func (s *Scanner) Scan(ctx context.Context) (*models.ScanReport, error) {
	if err := s.checkPaths(); err != nil {
		return nil, err
	}

	storeOpts := []manifest.Option{
		manifest.WithStrict(s.opts.Strict),
		manifest.WithLogger(s.logger),
	}
	if s.opts.Strict {
		storeOpts = append(storeOpts, manifest.WithHashLen(s.engine.HexLen()))
	}
	store := manifest.NewStore(s.opts.ManifestPath, storeOpts...)

	snap, err := store.Load()
	if err != nil {
		return nil, err
	}
	s.logger.LogInfo(fmt.Sprintf("Loaded %d manifest entries from %s", snap.Len(), s.opts.ManifestPath))

	walk, err := fileutil.ScanDirectory(s.opts.Directory, fileutil.ScanOptions{
		Extensions:  s.exts,
		Recursive:   true,
		ExcludeDirs: s.opts.ExcludeDirs,
		MaxDepth:    s.opts.MaxDepth,
	})
	if err != nil {
		return nil, &models.PathError{Path: s.opts.Directory, Reason: "cannot scan directory", Err: err}
	}
	for _, werr := range walk.Errors {
		s.logger.LogWarn(werr.Error())
	}

	r := &run{
		Scanner: s,
		store:   store,
		reporter: report.NewReporter(report.Meta{
			Directory:    walk.Root,
			ManifestPath: s.opts.ManifestPath,
			Extensions:   s.exts,
			DryRun:       s.opts.DryRun,
			StartedAt:    time.Now(),
		}),
		claims: make(map[string]*claim),
		total:  len(walk.Files),
	}
	s.logger.LogInfo(fmt.Sprintf("Matched %d files under %s", r.total, walk.Root))

	tasks, duplicates, err := r.classify(ctx, snap, walk.Files)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return r.process(t)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := r.resolveDuplicates(ctx, duplicates); err != nil {
		return nil, err
	}

	summary := r.reporter.Summary()
	return &summary, nil
}

func (s *Scanner) checkPaths() error {
	info, err := os.Stat(s.opts.Directory)
	if err != nil {
		return &models.PathError{Path: s.opts.Directory, Reason: "cannot access directory", Err: err}
	}
	if !info.IsDir() {
		return &models.PathError{Path: s.opts.Directory, Reason: "not a directory"}
	}
	if s.opts.ManifestPath == "" {
		return &models.PathError{Path: s.opts.ManifestPath, Reason: "manifest path is empty"}
	}
	if !s.opts.PathCheck(s.opts.ManifestPath) {
		return &models.PathError{Path: s.opts.ManifestPath, Reason: "manifest path is not writable"}
	}
	return nil
}

// classify walks matches in order and decides what each one needs. Names
// that fail the grammar are skipped here. The first occurrence of a new
// name claims it; later occurrences are returned as duplicates.
func (r *run) classify(ctx context.Context, snap *manifest.Snapshot, matches []fileutil.Match) ([]task, []fileutil.Match, error) {
	var tasks []task
	var duplicates []fileutil.Match

	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		if rec, ok := snap.Lookup(m.Name); ok {
			rec := rec
			tasks = append(tasks, task{match: m, known: &rec})
			continue
		}

		if _, ok := r.claims[m.Name]; ok {
			duplicates = append(duplicates, m)
			continue
		}

		parsed := grammar.Parse(m.Name, m.Ext)
		if !parsed.OK() {
			r.skip(m, parsed.Err)
			continue
		}

		c := &claim{}
		r.claims[m.Name] = c
		tasks = append(tasks, task{match: m, fields: parsed.Fields, claim: c})
	}

	return tasks, duplicates, nil
}

// resolveDuplicates settles repeated names once every claim is final. A
// duplicate of a recorded name is audited against the recorded size; a
// duplicate of a skipped name takes over the claim and is tried as new.
func (r *run) resolveDuplicates(ctx context.Context, duplicates []fileutil.Match) error {
	for _, m := range duplicates {
		if err := ctx.Err(); err != nil {
			return err
		}

		if c := r.claims[m.Name]; c.recorded {
			r.audit(m, c.sizeBits)
			continue
		}

		r.logger.LogDebug(fmt.Sprintf("%s: earlier copy of %s was skipped, trying this one", m.Path, m.Name))
		c := &claim{}
		r.claims[m.Name] = c
		if err := r.process(task{match: m, fields: grammar.Parse(m.Name, m.Ext).Fields, claim: c}); err != nil {
			return err
		}
	}
	return nil
}

// process settles one task. Only fatal errors are returned.
func (r *run) process(t task) error {
	if t.known != nil {
		r.audit(t.match, t.known.SizeBits)
		return nil
	}
	return r.record(t)
}

func (r *run) audit(m fileutil.Match, recordedBits int64) {
	info, err := os.Stat(m.Path)
	if err != nil {
		r.skip(m, &models.IOError{Op: "stat", Path: m.Path, Err: err})
		return
	}

	bits := models.SizeBitsOf(info.Size())
	gb := models.BitsToGB(bits)
	if bits == recordedBits {
		r.reporter.Known(gb)
		r.settle(m, KnownAudited)
		return
	}

	r.logger.LogWarn(fmt.Sprintf("Size drift on %s: recorded %d bits, found %d bits", m.Path, recordedBits, bits))
	r.reporter.Drift(models.DriftEntry{
		Filename:         m.Name,
		FullPath:         m.Path,
		PreviousSizeBits: recordedBits,
		CurrentSizeBits:  bits,
	}, gb)
	r.settle(m, KnownAudited)
}

func (r *run) record(t task) error {
	m := t.match

	info, err := os.Stat(m.Path)
	if err != nil {
		r.skip(m, &models.IOError{Op: "stat", Path: m.Path, Err: err})
		return nil
	}
	if info.Size() == 0 {
		r.skip(m, models.ErrEmptyFile)
		return nil
	}

	bits := models.SizeBitsOf(info.Size())
	gb := models.BitsToGB(bits)

	if r.opts.DryRun {
		t.claim.recorded, t.claim.sizeBits = true, bits
		r.reporter.Recorded(gb)
		r.settle(m, NewRecorded)
		return nil
	}

	sum, err := r.engine.File(m.Path)
	if err != nil {
		r.skip(m, err)
		return nil
	}

	rec := models.ManifestRecord{
		Filename:          m.Name,
		Batch:             t.fields.Batch,
		Category:          t.fields.Category,
		PeriodMs:          t.fields.PeriodMs,
		DispersionMeasure: t.fields.DispersionMeasure,
		Acceleration:      t.fields.Acceleration,
		SignalToNoise:     t.fields.SignalToNoise,
		ProfileID:         t.fields.ProfileID,
		FrequencyMHz:      t.fields.FrequencyMHz,
		FullPath:          m.Path,
		ParentDir:         m.Dir,
		SizeBits:          bits,
		SizeGB:            gb,
		ContentHash:       sum,
	}

	if err := r.store.Append(rec); err != nil {
		if models.IsFatal(err) {
			r.logger.LogError(fmt.Sprintf("Failed to append %s: %v", m.Name, err))
			return err
		}
		r.skip(m, err)
		return nil
	}

	t.claim.recorded, t.claim.sizeBits = true, bits
	r.reporter.Recorded(gb)
	r.settle(m, NewRecorded)
	return nil
}

func (r *run) skip(m fileutil.Match, err error) {
	reason := models.SkipReason(err)
	if errors.Is(err, models.ErrEmptyFile) {
		r.logger.LogWarn(fmt.Sprintf("Skipping %s: %v", m.Path, err))
	} else {
		r.logger.LogError(fmt.Sprintf("Skipping %s: %v", m.Path, err))
	}
	r.reporter.Skip(models.SkipEntry{Path: m.Path, Reason: reason, Message: err.Error()})
	r.settle(m, Skipped)
}

func (r *run) settle(m fileutil.Match, state State) {
	r.logger.LogDebug(fmt.Sprintf("%s: %s", m.Path, state))

	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.done++
	if r.opts.Progress != nil {
		r.opts.Progress(r.done, r.total)
	}
}
