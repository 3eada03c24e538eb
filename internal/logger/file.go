package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/tvscan/internal/models"
)

// FileLogger logs scan events to files in a log directory (.tvscan/logs by default).
// It creates a timestamped log per run and maintains a latest.log symlink
// pointing to the most recent one.
// It is thread-safe and supports log level filtering.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger writing to .tvscan/logs with level "info".
func NewFileLogger() (*FileLogger, error) {
	return NewFileLoggerWithDirAndLevel(filepath.Join(".tvscan", "logs"), "info")
}

// NewFileLoggerWithDir creates a new FileLogger with a custom log directory.
// Uses default log level "info".
func NewFileLoggerWithDir(logDir string) (*FileLogger, error) {
	return NewFileLoggerWithDirAndLevel(logDir, "info")
}

// NewFileLoggerWithDirAndLevel creates a new FileLogger with a custom log directory and log level.
func NewFileLoggerWithDirAndLevel(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Generate timestamped filename: run-YYYYMMDD-HHMMSS.log
	timestamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", timestamp))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	logger := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}

	logger.writeRunLog("=== tvscan Run Log ===\n")
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

// RunFile returns the path of this run's log file.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}

	formatted := fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format("15:04:05"), level, message)
	fl.writeRunLog(formatted)
}

// LogSummary logs the scan summary with final statistics at INFO level.
func (fl *FileLogger) LogSummary(report models.ScanReport) {
	if !fl.shouldLog("info") {
		return
	}

	timestamp := time.Now().Format("15:04:05")

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n[%s] === SCAN SUMMARY ===\n", timestamp))
	sb.WriteString(fmt.Sprintf("[%s] Run ID:       %s\n", timestamp, report.RunID))
	sb.WriteString(fmt.Sprintf("[%s] Directory:    %s\n", timestamp, report.Directory))
	sb.WriteString(fmt.Sprintf("[%s] Manifest:     %s\n", timestamp, report.ManifestPath))
	sb.WriteString(fmt.Sprintf("[%s] Files seen:   %d\n", timestamp, report.FilesSeen))
	sb.WriteString(fmt.Sprintf("[%s] New:          %d\n", timestamp, report.NewRecorded))
	sb.WriteString(fmt.Sprintf("[%s] Known:        %d\n", timestamp, report.AlreadyKnown))
	sb.WriteString(fmt.Sprintf("[%s] Drifted:      %d\n", timestamp, report.Drifted))
	sb.WriteString(fmt.Sprintf("[%s] Skipped:      %d\n", timestamp, report.Skipped))
	sb.WriteString(fmt.Sprintf("[%s] Total size:   %s\n", timestamp, formatGB(report.TotalGB)))
	sb.WriteString(fmt.Sprintf("[%s] New size:     %s\n", timestamp, formatGB(report.NewGB)))
	sb.WriteString(fmt.Sprintf("[%s] Total time:   %.1fs\n", timestamp, report.Duration.Seconds()))
	sb.WriteString(fmt.Sprintf("[%s] Status:       %s\n", timestamp, report.Status()))

	for _, d := range report.Drift {
		sb.WriteString(fmt.Sprintf("[%s] DRIFT %s: %d -> %d bits (%+d)\n",
			timestamp, d.FullPath, d.PreviousSizeBits, d.CurrentSizeBits, d.DeltaBits()))
	}
	for _, s := range report.SkippedFiles {
		sb.WriteString(fmt.Sprintf("[%s] SKIP %s: %s: %s\n", timestamp, s.Path, s.Reason, s.Message))
	}

	sb.WriteString(fmt.Sprintf("[%s] Completed at: %s\n", timestamp, time.Now().Format(time.RFC3339)))

	fl.writeRunLog(sb.String())
}

// Close flushes and closes the run log file.
// It should be called when the logger is no longer needed.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}

	return nil
}

// writeRunLog is a thread-safe helper to write to the run log file.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		// Flush after each write for real-time logging
		fl.runLog.Sync()
	}
}
