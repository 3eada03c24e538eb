package logger

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harrison/tvscan/internal/models"
)

func sampleReport() models.ScanReport {
	return models.ScanReport{
		RunID:        "run-1",
		Directory:    "/data/vectors",
		ManifestPath: "/data/manifest.csv",
		FilesSeen:    4,
		NewRecorded:  1,
		AlreadyKnown: 1,
		Drifted:      1,
		Skipped:      1,
		TotalGB:      0.5,
		NewGB:        0.25,
		Duration:     90 * time.Second,
		Drift: []models.DriftEntry{
			{Filename: "a.fil", FullPath: "/data/vectors/a.fil", PreviousSizeBits: 8388608, CurrentSizeBits: 16777216},
		},
		SkippedFiles: []models.SkipEntry{
			{Path: "/data/vectors/bad.fil", Reason: models.ReasonMalformedName, Message: "too few components"},
		},
	}
}

// TestNewConsoleLogger verifies the constructor creates a ConsoleLogger with the provided writer.
func TestNewConsoleLogger(t *testing.T) {
	t.Run("with valid writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewConsoleLogger(buf, "info")

		if logger.writer != buf {
			t.Error("writer not set correctly")
		}
		if logger.logLevel != "info" {
			t.Errorf("expected log level %q, got %q", "info", logger.logLevel)
		}
		if logger.colorOutput {
			t.Error("expected no color for a buffer")
		}
	})

	t.Run("with nil writer", func(t *testing.T) {
		logger := NewConsoleLogger(nil, "info")
		logger.LogInfo("dropped")
		logger.LogSummary(sampleReport())
		logger.LogProgress(1, 2)
	})

	t.Run("invalid level defaults to info", func(t *testing.T) {
		logger := NewConsoleLogger(&bytes.Buffer{}, "LOUD")
		if logger.logLevel != "info" {
			t.Errorf("expected log level info, got %q", logger.logLevel)
		}
	})
}

// TestConsoleLoggerLevelFiltering verifies messages below the configured level are dropped.
func TestConsoleLoggerLevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{"trace", []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}},
		{"debug", []string{"DEBUG", "INFO", "WARN", "ERROR"}},
		{"info", []string{"INFO", "WARN", "ERROR"}},
		{"warn", []string{"WARN", "ERROR"}},
		{"error", []string{"ERROR"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewConsoleLogger(buf, tt.level)

			logger.LogTrace("t")
			logger.LogDebug("d")
			logger.LogInfo("i")
			logger.LogWarn("w")
			logger.LogError("e")

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if len(lines) != len(tt.want) {
				t.Fatalf("expected %d lines, got %d: %q", len(tt.want), len(lines), buf.String())
			}
			for i, level := range tt.want {
				if !strings.Contains(lines[i], "["+level+"]") {
					t.Errorf("line %d = %q, want level %s", i, lines[i], level)
				}
			}
		})
	}
}

// TestConsoleLoggerFormat verifies the "[HH:MM:SS] [LEVEL] message" layout.
func TestConsoleLoggerFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	logger.LogWarn("Size drift on /data/a.fil")

	out := buf.String()
	if len(out) < 11 || out[0] != '[' || out[9] != ']' {
		t.Errorf("expected timestamp prefix, got %q", out)
	}
	if !strings.HasSuffix(out, "[WARN] Size drift on /data/a.fil\n") {
		t.Errorf("unexpected line %q", out)
	}
}

// TestConsoleLoggerLogSummary verifies the counters and file lists are printed.
func TestConsoleLoggerLogSummary(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	logger.LogSummary(sampleReport())
	out := buf.String()

	for _, want := range []string{
		"=== Scan Summary ===",
		"Files seen: 4",
		"New: 1",
		"Known: 1",
		"Drifted: 1",
		"Skipped: 1",
		"Total size: 0.500000 GB",
		"New size: 0.250000 GB",
		"Duration: 1m30s",
		"/data/vectors/a.fil: 8388608 -> 16777216 bits",
		"/data/vectors/bad.fil (malformed_name)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("expected no ANSI codes when writing to a buffer")
	}
}

func TestConsoleLoggerLogSummaryDryRun(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	report := sampleReport()
	report.DryRun = true
	logger.LogSummary(report)

	if !strings.Contains(buf.String(), "(dry run)") {
		t.Errorf("expected dry run header, got %q", buf.String())
	}
}

func TestConsoleLoggerLogSummaryRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	NewConsoleLogger(buf, "warn").LogSummary(sampleReport())
	if buf.Len() != 0 {
		t.Errorf("expected no summary at warn level, got %q", buf.String())
	}
}

func TestConsoleLoggerLogProgress(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	logger.LogProgress(4, 8)

	if !strings.Contains(buf.String(), "Progress: [=====     ] 4/8 (50%)") {
		t.Errorf("unexpected progress line %q", buf.String())
	}
}

// TestConsoleLoggerConcurrent verifies whole lines survive concurrent writers.
func TestConsoleLoggerConcurrent(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.LogInfo(fmt.Sprintf("message %d", i))
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 20 {
		t.Fatalf("expected 20 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.Contains(line, "[INFO] message ") {
			t.Errorf("interleaved line %q", line)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{5 * time.Second, "5s"},
		{time.Minute, "1m"},
		{90 * time.Second, "1m30s"},
		{2 * time.Hour, "2h"},
		{2*time.Hour + 15*time.Minute, "2h15m"},
		{time.Hour + time.Minute + time.Second, "1h1m1s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestNoOpLogger(t *testing.T) {
	n := NewNoOpLogger()
	n.LogTrace("x")
	n.LogDebug("x")
	n.LogInfo("x")
	n.LogWarn("x")
	n.LogError("x")
	n.LogSummary(sampleReport())
}
