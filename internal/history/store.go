// Package history keeps a SQLite record of completed scans and the drift
// each one observed. It stores reports only; manifest contents stay in the
// manifest file.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/tvscan/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Run is one stored scan.
type Run struct {
	ID           int64
	RunID        string
	Directory    string
	ManifestPath string
	Extensions   []string
	StartedAt    time.Time
	Duration     time.Duration
	FilesSeen    int
	NewRecorded  int
	AlreadyKnown int
	Drifted      int
	Skipped      int
	TotalGB      float64
	NewGB        float64
	Status       string
}

// DriftEvent is one drifted file observed by a stored run.
type DriftEvent struct {
	RunID            string
	Filename         string
	FullPath         string
	PreviousSizeBits int64
	CurrentSizeBits  int64
	ObservedAt       time.Time // StartedAt of the run
}

// DeltaBits returns how many bits the file grew (positive) or shrank (negative).
func (e DriftEvent) DeltaBits() int64 {
	return e.CurrentSizeBits - e.PreviousSizeBits
}

// Store manages the run history database
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open creates the database at dbPath if needed and applies the schema.
// MemoryPath opens a private database that lives until Close.
func Open(dbPath string) (*Store, error) {
	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == MemoryPath {
		// Every new connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	// busy_timeout first so the rest wait on locks held by another tvscan.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := execWithRetry(db, schemaSQL, 5, 10*time.Millisecond); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// execWithRetry executes a statement, backing off exponentially while the
// database is locked.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun stores report and its drift entries in one transaction.
func (s *Store) RecordRun(ctx context.Context, report models.ScanReport) error {
	if report.RunID == "" {
		return fmt.Errorf("record run: report has no run id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	_, err = tx.ExecContext(ctx, `INSERT INTO scan_runs
		(run_id, directory, manifest_path, extensions, started_at, duration_ms,
		 files_seen, new_recorded, already_known, drifted, skipped, total_gb, new_gb, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.Directory,
		report.ManifestPath,
		strings.Join(report.Extensions, ","),
		report.StartedAt.UTC(),
		report.Duration.Milliseconds(),
		report.FilesSeen,
		report.NewRecorded,
		report.AlreadyKnown,
		report.Drifted,
		report.Skipped,
		report.TotalGB,
		report.NewGB,
		report.Status(),
	)
	if err != nil {
		return fmt.Errorf("insert scan run: %w", err)
	}

	if len(report.Drift) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO drift_events
			(run_id, filename, full_path, previous_size_bits, current_size_bits)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare drift insert: %w", err)
		}
		defer stmt.Close()

		for _, d := range report.Drift {
			if _, err := stmt.ExecContext(ctx, report.RunID, d.Filename, d.FullPath, d.PreviousSizeBits, d.CurrentSizeBits); err != nil {
				return fmt.Errorf("insert drift event for %s: %w", d.Filename, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, most recent first.
// A limit <= 0 returns every run.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT id, run_id, directory, manifest_path, extensions, started_at, duration_ms,
		files_seen, new_recorded, already_known, drifted, skipped, total_gb, new_gb, status
		FROM scan_runs
		ORDER BY started_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var extensions sql.NullString
		var durationMs int64
		err := rows.Scan(
			&run.ID,
			&run.RunID,
			&run.Directory,
			&run.ManifestPath,
			&extensions,
			&run.StartedAt,
			&durationMs,
			&run.FilesSeen,
			&run.NewRecorded,
			&run.AlreadyKnown,
			&run.Drifted,
			&run.Skipped,
			&run.TotalGB,
			&run.NewGB,
			&run.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}

		if extensions.Valid && extensions.String != "" {
			run.Extensions = strings.Split(extensions.String, ",")
		}
		run.Duration = time.Duration(durationMs) * time.Millisecond

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}

// DriftHistory returns every recorded drift of filename, most recent first.
func (s *Store) DriftHistory(ctx context.Context, filename string) ([]*DriftEvent, error) {
	query := `SELECT d.run_id, d.filename, d.full_path, d.previous_size_bits, d.current_size_bits, r.started_at
		FROM drift_events d
		JOIN scan_runs r ON r.run_id = d.run_id
		WHERE d.filename = ?
		ORDER BY r.started_at DESC, d.id DESC`

	rows, err := s.db.QueryContext(ctx, query, filename)
	if err != nil {
		return nil, fmt.Errorf("query drift history: %w", err)
	}
	defer rows.Close()

	var events []*DriftEvent
	for rows.Next() {
		e := &DriftEvent{}
		if err := rows.Scan(&e.RunID, &e.Filename, &e.FullPath, &e.PreviousSizeBits, &e.CurrentSizeBits, &e.ObservedAt); err != nil {
			return nil, fmt.Errorf("scan drift row: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drift rows: %w", err)
	}

	return events, nil
}
