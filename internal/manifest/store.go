// Package manifest reads and appends the test vector manifest.
//
// The manifest is a headerless, comma-delimited text file with one
// ManifestRecord per line and a fixed field order:
//
//	filename,batch,type,period_ms,dm,z,snr,profile_id,frequency_mhz,full_path,parent_dir,size_bits,size_gb,content_hash
//
// Fields are neither quoted nor escaped, so values containing a comma or a
// line break are refused at append time. The store never rewrites or deletes
// lines.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/harrison/tvscan/internal/filelock"
	"github.com/harrison/tvscan/internal/models"
)

const delimiter = ","

// maxLineBytes bounds a single manifest line; paths are the only long field.
const maxLineBytes = 1 << 20

// Logger receives warnings about lines dropped during Load.
type Logger interface {
	LogWarn(message string)
}

// Store is the on-disk manifest at one path.
// Append is safe for concurrent use by multiple goroutines and processes.
type Store struct {
	path    string
	strict  bool
	hashLen int
	logger  Logger
	mu      sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithStrict makes Load fail on the first malformed line instead of skipping it.
func WithStrict(strict bool) Option {
	return func(s *Store) { s.strict = strict }
}

// WithHashLen makes Load reject lines whose content hash is not n hex characters.
// Zero disables the check.
func WithHashLen(n int) Option {
	return func(s *Store) { s.hashLen = n }
}

// WithLogger sets the logger used for dropped-line warnings.
func WithLogger(l Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore returns a Store for the manifest at path.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{path: path}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the manifest path.
func (s *Store) Path() string {
	return s.path
}

// Snapshot is the manifest as loaded at the start of a run.
// It is never modified after Load returns and is safe for concurrent reads.
type Snapshot struct {
	records   map[string]models.ManifestRecord
	Malformed []*models.MalformedManifestLineError
}

// Lookup returns the record stored under filename.
func (s *Snapshot) Lookup(filename string) (models.ManifestRecord, bool) {
	rec, ok := s.records[filename]
	return rec, ok
}

// Len returns the number of distinct filenames.
func (s *Snapshot) Len() int {
	return len(s.records)
}

// Names returns every filename in sorted order.
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads the manifest. A missing or empty file yields an empty snapshot.
// Malformed lines are logged and skipped, or fail the load in strict mode.
// Any other read failure is a *models.IOError with Op "load".
func (s *Store) Load() (*Snapshot, error) {
	snap := &Snapshot{records: make(map[string]models.ManifestRecord)}

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return snap, nil
	}
	if err != nil {
		return nil, &models.IOError{Op: "load", Path: s.path, Err: err}
	}
	defer f.Close()

	reader := bufio.NewReaderSize(f, 64*1024)

	lineNo := 0
	for {
		raw, tooLong, err := readLine(reader)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &models.IOError{Op: "load", Path: s.path, Err: err}
		}
		lineNo++

		var rec models.ManifestRecord
		if tooLong {
			err = &models.MalformedManifestLineError{
				Reason: fmt.Sprintf("line exceeds %d bytes", maxLineBytes),
			}
		} else {
			line := strings.TrimRight(raw, "\r")
			if strings.TrimSpace(line) == "" {
				continue
			}
			rec, err = ParseLine(line)
		}
		if err == nil && s.hashLen > 0 && len(rec.ContentHash) != s.hashLen {
			err = &models.MalformedManifestLineError{
				Fields: models.ManifestFieldCount,
				Reason: fmt.Sprintf("content hash has %d characters, expected %d", len(rec.ContentHash), s.hashLen),
			}
		}
		if err != nil {
			var lineErr *models.MalformedManifestLineError
			if !errors.As(err, &lineErr) {
				return nil, err
			}
			lineErr.Line = lineNo
			if s.strict {
				return nil, fmt.Errorf("strict manifest %s: %w", s.path, lineErr)
			}
			s.warn(fmt.Sprintf("Dropping manifest entry: %v", lineErr))
			snap.Malformed = append(snap.Malformed, lineErr)
			continue
		}

		if _, dup := snap.records[rec.Filename]; dup {
			s.warn(fmt.Sprintf("Manifest line %d repeats %s; keeping the later entry", lineNo, rec.Filename))
		}
		snap.records[rec.Filename] = rec
	}

	return snap, nil
}

// readLine returns the next line without its terminator. A line longer than
// maxLineBytes is consumed up to its newline and reported as tooLong with no
// content. io.EOF is returned only when no bytes remain.
func readLine(r *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && (len(buf) > 0 || tooLong) {
				return string(buf), tooLong, nil
			}
			return "", false, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > maxLineBytes {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

func (s *Store) warn(message string) {
	if s.logger != nil {
		s.logger.LogWarn(message)
	}
}

// Append writes rec as one line at the end of the manifest.
//
// Records with a delimiter or line break in any field are refused with
// models.ErrUnencodableField before anything is written. The line is written
// with a single write under the store mutex and the "<path>.lock" flock; a
// short write is truncated away so the file never ends in a partial line.
// Write failures are *models.IOError with Op "append".
func (s *Store) Append(rec models.ManifestRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	line := FormatRecord(rec) + "\n"

	s.mu.Lock()
	defer s.mu.Unlock()

	err := filelock.WithLock(s.path, func() error {
		return appendLine(s.path, line)
	})
	if err != nil {
		return &models.IOError{Op: "append", Path: s.path, Err: err}
	}
	return nil
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	return writeLine(f, line)
}

// lineFile is the part of *os.File that writeLine needs.
type lineFile interface {
	io.Writer
	Stat() (os.FileInfo, error)
	Truncate(size int64) error
	Sync() error
	Close() error
}

// writeLine writes line in one call and closes f. A short write is truncated
// back to the previous size.
func writeLine(f lineFile, line string) error {
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	before := info.Size()

	n, werr := f.Write([]byte(line))
	if werr != nil {
		if n > 0 {
			// Roll back the partial line.
			if terr := f.Truncate(before); terr != nil {
				werr = errors.Join(werr, fmt.Errorf("roll back partial line: %w", terr))
			}
		}
		f.Close()
		return werr
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func validate(rec models.ManifestRecord) error {
	for i, field := range fields(rec) {
		if strings.ContainsAny(field, ",\r\n") {
			return fmt.Errorf("%s: field %d %q: %w", rec.Filename, i, field, models.ErrUnencodableField)
		}
	}
	return nil
}

// FormatSizeGB renders a size in gigabytes the way it is stored in the manifest.
func FormatSizeGB(gb float64) string {
	return strconv.FormatFloat(gb, 'f', -1, 64)
}

// FormatRecord renders rec as a manifest line without the trailing newline.
func FormatRecord(rec models.ManifestRecord) string {
	return strings.Join(fields(rec), delimiter)
}

func fields(rec models.ManifestRecord) []string {
	return []string{
		rec.Filename,
		rec.Batch,
		rec.Category,
		rec.PeriodMs,
		rec.DispersionMeasure,
		rec.Acceleration,
		rec.SignalToNoise,
		rec.ProfileID,
		rec.FrequencyMHz,
		rec.FullPath,
		rec.ParentDir,
		strconv.FormatInt(rec.SizeBits, 10),
		FormatSizeGB(rec.SizeGB),
		rec.ContentHash,
	}
}

// ParseLine decodes one manifest line (without its newline).
// Errors are *models.MalformedManifestLineError with Line left as zero.
func ParseLine(line string) (models.ManifestRecord, error) {
	f := strings.Split(line, delimiter)
	if len(f) != models.ManifestFieldCount {
		return models.ManifestRecord{}, &models.MalformedManifestLineError{
			Fields: len(f),
			Reason: fmt.Sprintf("expected %d fields", models.ManifestFieldCount),
		}
	}

	sizeBits, err := strconv.ParseInt(strings.TrimSpace(f[11]), 10, 64)
	if err != nil || sizeBits < 0 {
		return models.ManifestRecord{}, &models.MalformedManifestLineError{
			Fields: len(f),
			Reason: fmt.Sprintf("size_bits %q is not a non-negative integer", f[11]),
		}
	}

	// size_gb is derived, so a bad value is recomputed rather than rejected.
	sizeGB, err := strconv.ParseFloat(strings.TrimSpace(f[12]), 64)
	if err != nil {
		sizeGB = models.BitsToGB(sizeBits)
	}

	return models.ManifestRecord{
		Filename:          f[0],
		Batch:             f[1],
		Category:          f[2],
		PeriodMs:          f[3],
		DispersionMeasure: f[4],
		Acceleration:      f[5],
		SignalToNoise:     f[6],
		ProfileID:         f[7],
		FrequencyMHz:      f[8],
		FullPath:          f[9],
		ParentDir:         f[10],
		SizeBits:          sizeBits,
		SizeGB:            sizeGB,
		ContentHash:       f[13],
	}, nil
}
