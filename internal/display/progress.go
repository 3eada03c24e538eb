package display

import (
	"fmt"
	"io"
	"sync"
)

// ProgressIndicator rewrites a single "[done/total]" line while a scan runs.
// Step may be called from several goroutines.
type ProgressIndicator struct {
	writer   io.Writer
	total    int
	useColor bool
	mu       sync.Mutex
	last     int
}

// NewProgressIndicator creates a new progress indicator
func NewProgressIndicator(w io.Writer, total int, useColor bool) *ProgressIndicator {
	return &ProgressIndicator{writer: w, total: total, useColor: useColor}
}

// Start displays the header message
func (p *ProgressIndicator) Start(dir string) {
	fmt.Fprintf(p.writer, "Scanning test vectors in %s\n", dir)
}

// Step redraws the progress line. Out-of-order calls never move it backwards.
func (p *ProgressIndicator) Step(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if total > 0 {
		p.total = total
	}
	if done <= p.last {
		return
	}
	p.last = done
	fmt.Fprintf(p.writer, "\r%s", paint(fmt.Sprintf("  [%d/%d] files settled", done, p.total), ansiCyan, p.useColor))
}

// Complete ends the progress line with a success mark
func (p *ProgressIndicator) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.last > 0 {
		fmt.Fprint(p.writer, "\n")
	}
	fmt.Fprintf(p.writer, "%s Scanned %d files\n", paint("✓", ansiGreen, p.useColor), p.last)
}
