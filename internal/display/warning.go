package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/harrison/tvscan/internal/models"
)

// maxListedFiles caps the files listed in one warning.
const maxListedFiles = 20

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Files      []string // Related files (optional)
	Suggestion string   // Action to take (optional)
}

// Display writes the warning, in yellow when useColor is set.
func (w Warning) Display(out io.Writer, useColor bool) {
	var b strings.Builder

	if useColor {
		b.WriteString(ansiYellow)
	}
	b.WriteString("⚠️  Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Files) > 0 {
		b.WriteString("    ")
		if len(w.Files) == 1 {
			b.WriteString("Affected file:\n")
		} else {
			b.WriteString("Affected files:\n")
		}

		shown := w.Files
		if len(shown) > maxListedFiles {
			shown = shown[:maxListedFiles]
		}
		for i, file := range shown {
			b.WriteString(fmt.Sprintf("      %d. %s\n", i+1, file))
		}
		if rest := len(w.Files) - len(shown); rest > 0 {
			b.WriteString(fmt.Sprintf("      ... and %d more\n", rest))
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	if useColor {
		b.WriteString(ansiReset)
	}

	fmt.Fprint(out, b.String())
}

// DriftWarning lists every drifted file with its recorded and live size.
func DriftWarning(report models.ScanReport) Warning {
	files := make([]string, 0, len(report.Drift))
	for _, d := range report.Drift {
		files = append(files, fmt.Sprintf("%s (recorded %d bits, now %d bits)", d.FullPath, d.PreviousSizeBits, d.CurrentSizeBits))
	}

	noun := "files have"
	if len(report.Drift) == 1 {
		noun = "file has"
	}

	return Warning{
		Title:      "Test Vector Size Drift",
		Message:    fmt.Sprintf("%d recorded %s changed size since first recorded. The manifest was not modified.", len(report.Drift), noun),
		Files:      files,
		Suggestion: "Regenerate or restore the listed vectors; the manifest keeps the original record.",
	}
}

// SkipWarning lists files that were neither audited nor recorded.
func SkipWarning(report models.ScanReport) Warning {
	files := make([]string, 0, len(report.SkippedFiles))
	for _, s := range report.SkippedFiles {
		files = append(files, fmt.Sprintf("%s [%s]", s.Path, s.Reason))
	}

	return Warning{
		Title:   "Files Skipped",
		Message: fmt.Sprintf("%d matched files could not be processed. See the run log for details.", len(report.SkippedFiles)),
		Files:   files,
	}
}
