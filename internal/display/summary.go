package display

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/harrison/tvscan/internal/models"
)

const (
	ansiBlue   = "\x1b[34m"
	ansiCyan   = "\x1b[36m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiReset  = "\x1b[0m"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ShouldColor reports whether f is a terminal that should receive ANSI colors.
// NO_COLOR disables color regardless of the terminal.
func ShouldColor(f *os.File) bool {
	return os.Getenv("NO_COLOR") == "" && IsTerminal(f)
}

func paint(s, code string, useColor bool) string {
	if !useColor {
		return s
	}
	return code + s + ansiReset
}

// RenderSummary prints the counters and sizes of one scan as an aligned table.
func RenderSummary(w io.Writer, report models.ScanReport, useColor bool) {
	status := report.Status()
	statusColor := ansiGreen
	switch status {
	case "DRIFT":
		statusColor = ansiYellow
	case "PARTIAL":
		statusColor = ansiRed
	}

	title := "Scan complete"
	if report.DryRun {
		title = "Dry run complete (manifest not modified)"
	}
	fmt.Fprintf(w, "%s %s\n", paint("●", ansiBlue, useColor), title)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Directory\t%s\n", report.Directory)
	fmt.Fprintf(tw, "  Manifest\t%s\n", report.ManifestPath)
	fmt.Fprintf(tw, "  Files seen\t%d\n", report.FilesSeen)
	fmt.Fprintf(tw, "  New\t%s\n", paintCount(report.NewRecorded, ansiGreen, useColor))
	fmt.Fprintf(tw, "  Known\t%d\n", report.AlreadyKnown)
	fmt.Fprintf(tw, "  Drifted\t%s\n", paintCount(report.Drifted, ansiYellow, useColor))
	fmt.Fprintf(tw, "  Skipped\t%s\n", paintCount(report.Skipped, ansiRed, useColor))
	fmt.Fprintf(tw, "  Total size\t%s\n", FormatGB(report.TotalGB))
	fmt.Fprintf(tw, "  New size\t%s\n", FormatGB(report.NewGB))
	fmt.Fprintf(tw, "  Duration\t%s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(tw, "  Status\t%s\n", paint(status, statusColor, useColor))
	tw.Flush()
}

func paintCount(n int, code string, useColor bool) string {
	if n == 0 {
		return "0"
	}
	return paint(fmt.Sprintf("%d", n), code, useColor)
}

// FormatGB renders binary gigabytes, switching to MB below 1 GB.
func FormatGB(gb float64) string {
	if gb != 0 && gb < 1 {
		return fmt.Sprintf("%.2f MB", gb*1024)
	}
	return fmt.Sprintf("%.3f GB", gb)
}
