// Package logger provides logging implementations for tvscan runs.
//
// Loggers write leveled messages and a per-run summary of a ScanReport.
// Implementations are thread-safe; the scanner calls them from its workers.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/tvscan/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs scan progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// It supports log level filtering to control message verbosity.
// Color output is automatically enabled for terminal output (os.Stdout/os.Stderr).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}

	if w == os.Stdout || w == os.Stderr {
		// color.NoColor already accounts for NO_COLOR and non-TTY output
		return !color.NoColor
	}

	return false
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if validLevels[normalized] {
		return normalized
	}

	return "info"
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// LogTrace logs a trace-level message (most verbose).
// Format: "[HH:MM:SS] [TRACE] <message>"
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
// Format: "[HH:MM:SS] [DEBUG] <message>"
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
// Format: "[HH:MM:SS] [WARN] <message>"
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
// Format: "[HH:MM:SS] [ERROR] <message>"
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}

	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string

	if cl.colorOutput {
		formatted = cl.formatWithColor(ts, level, message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

// formatWithColor formats a log message with ANSI color codes.
func (cl *ConsoleLogger) formatWithColor(ts, level, message string) string {
	var coloredLevel string

	switch strings.ToUpper(level) {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}

	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

// LogSummary logs the scan summary at INFO level.
// Format: "[HH:MM:SS] === Scan Summary ===" followed by one line per counter,
// then one line per drifted and skipped file.
func (cl *ConsoleLogger) LogSummary(report models.ScanReport) {
	if cl.writer == nil {
		return
	}

	if !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	scheme := newColorScheme()
	if !cl.colorOutput {
		scheme = plainScheme()
	}

	header := "=== Scan Summary ==="
	if report.DryRun {
		header = "=== Scan Summary (dry run) ==="
	}

	var sb strings.Builder
	line := func(s string) {
		sb.WriteString(fmt.Sprintf("[%s] %s\n", ts, s))
	}

	if cl.colorOutput {
		line(color.New(color.Bold).Sprint(header))
	} else {
		line(header)
	}
	line(formatColorizedMetric("Files seen", report.FilesSeen, scheme))
	line(formatCount("New", report.NewRecorded, scheme.success, scheme))
	line(formatColorizedMetric("Known", report.AlreadyKnown, scheme))
	line(formatCount("Drifted", report.Drifted, scheme.warn, scheme))
	line(formatCount("Skipped", report.Skipped, scheme.fail, scheme))
	line(formatColorizedMetric("Total size", formatGB(report.TotalGB), scheme))
	line(formatColorizedMetric("New size", formatGB(report.NewGB), scheme))
	line(formatColorizedMetric("Duration", formatDuration(report.Duration), scheme))

	if len(report.Drift) > 0 {
		line(scheme.warn.Sprint("Drifted files:"))
		for _, d := range report.Drift {
			line(fmt.Sprintf("  - %s: %d -> %d bits", scheme.warn.Sprint(d.FullPath), d.PreviousSizeBits, d.CurrentSizeBits))
		}
	}
	if len(report.SkippedFiles) > 0 {
		line(scheme.fail.Sprint("Skipped files:"))
		for _, s := range report.SkippedFiles {
			line(fmt.Sprintf("  - %s (%s)", scheme.fail.Sprint(s.Path), s.Reason))
		}
	}

	cl.writer.Write([]byte(sb.String()))
}

// LogProgress logs how many matched files have settled.
// Format: "[HH:MM:SS] Progress: [=====     ] 4/8 (50%)"
func (cl *ConsoleLogger) LogProgress(done, total int) {
	if cl.writer == nil {
		return
	}

	if !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	pb := NewProgressBar(total, 10, false)
	pb.SetPrefix("Progress: ")
	pb.Update(done)

	msg := pb.Render()
	if cl.colorOutput {
		if done < total {
			msg = color.New(color.FgCyan).Sprint(msg)
		} else if total > 0 {
			msg = color.New(color.FgGreen).Sprint(msg)
		}
	}

	cl.writer.Write([]byte(fmt.Sprintf("[%s] %s\n", timestamp(), msg)))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatGB renders a size in binary gigabytes with enough precision for small vectors.
func formatGB(gb float64) string {
	return fmt.Sprintf("%.6f GB", gb)
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	}
}

// NoOpLogger discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTrace(message string)             {}
func (n *NoOpLogger) LogDebug(message string)             {}
func (n *NoOpLogger) LogInfo(message string)              {}
func (n *NoOpLogger) LogWarn(message string)              {}
func (n *NoOpLogger) LogError(message string)             {}
func (n *NoOpLogger) LogSummary(report models.ScanReport) {}
