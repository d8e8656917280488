package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// ProgressBar displays completed operations against a known total.
type ProgressBar struct {
	w       io.Writer
	title   string
	total   int64
	current int64
	width   int
	mu      sync.Mutex
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(w io.Writer, title string, total int64) *ProgressBar {
	return &ProgressBar{
		w:     w,
		title: title,
		total: total,
		width: 40,
	}
}

// Increment adds to current progress.
func (p *ProgressBar) Increment(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current += n
	p.render()
}

// Finish completes the progress bar.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.total
	p.render()
	fmt.Fprintln(p.w)
}

func (p *ProgressBar) render() {
	if p.total <= 0 {
		fmt.Fprintf(p.w, "\r%s %d", p.title, p.current)
		return
	}

	percent := float64(p.current) / float64(p.total)
	if percent > 1 {
		percent = 1
	}
	filled := int(float64(p.width) * percent)

	fmt.Fprintf(p.w, "\r%s [%s%s] %3.0f%% (%d/%d)",
		p.title,
		strings.Repeat("█", filled),
		strings.Repeat("░", p.width-filled),
		percent*100,
		p.current,
		p.total,
	)
}
