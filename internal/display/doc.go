// Package display renders scan results for the terminal.
//
// It owns every user-facing block the CLI prints after a run: the summary
// table, the drift and skip warnings, and the in-place progress line. All
// functions take an io.Writer and a color flag so output can be captured in
// tests; ShouldColor decides the flag for a real file.
//
//	rep, err := scanner.New(opts).Scan(ctx)
//	...
//	useColor := display.ShouldColor(os.Stdout)
//	display.RenderSummary(os.Stdout, *rep, useColor)
//	if rep.HasDrift() {
//	    display.DriftWarning(*rep).Display(os.Stderr, useColor)
//	}
package display
