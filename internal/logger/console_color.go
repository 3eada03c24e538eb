package logger

import (
	"fmt"

	"github.com/fatih/color"
)

// colorScheme defines consistent colors for different metric types.
// Green: success/positive metrics
// Red: failure/error metrics
// Yellow: warning/threshold metrics
// Cyan: labels and identifiers
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	warn    *color.Color
	label   *color.Color
	value   *color.Color
}

// newColorScheme creates the standard color scheme for metrics.
func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		label:   color.New(color.FgCyan),
		value:   color.New(color.FgWhite),
	}
}

// plainScheme returns a scheme whose colors print no escape codes.
func plainScheme() *colorScheme {
	scheme := newColorScheme()
	for _, c := range []*color.Color{scheme.success, scheme.fail, scheme.warn, scheme.label, scheme.value} {
		c.DisableColor()
	}
	return scheme
}

// formatColorizedMetric formats a single metric with colorized label and value.
// Format: "label: value"
func formatColorizedMetric(label string, value interface{}, scheme *colorScheme) string {
	labelColored := scheme.label.Sprint(label)
	valueColored := scheme.value.Sprintf("%v", value)
	return fmt.Sprintf("%s: %s", labelColored, valueColored)
}

// formatCount formats a counter, using highlight for both parts when it is non-zero.
func formatCount(label string, n int, highlight *color.Color, scheme *colorScheme) string {
	if n == 0 {
		return formatColorizedMetric(label, n, scheme)
	}
	return fmt.Sprintf("%s: %s", highlight.Sprint(label), highlight.Sprintf("%d", n))
}
