package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

const (
	barFilled = "█"
	barEmpty  = "░"
	barWidth  = 20
)

// Progress counts items toward a known total, e.g. records whose
// signatures have been resolved.
type Progress struct {
	mu sync.Mutex

	message string
	total   int
	current int
	writer  io.Writer
	isTTY   bool
	lastLen int
}

// NewProgress creates a progress bar writing to w (stderr when nil).
func NewProgress(total int, message string, w io.Writer) *Progress {
	if w == nil {
		w = os.Stderr
	}
	if total < 0 {
		total = 0
	}
	return &Progress{message: message, total: total, writer: w, isTTY: IsTerminal(w)}
}

// Current returns the number of completed items.
func (p *Progress) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Percentage returns completion in [0, 100]. An empty total is complete.
func (p *Progress) Percentage() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.percentage()
}

func (p *Progress) percentage() float64 {
	if p.total == 0 {
		return 100
	}
	return float64(p.current) / float64(p.total) * 100
}

// Increment marks one more item done. Terminals redraw in place; other
// writers get a line only when the work completes.
func (p *Progress) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current >= p.total {
		return
	}
	p.current++
	if p.isTTY {
		p.redraw()
		if p.current == p.total {
			fmt.Fprintln(p.writer)
			p.lastLen = 0
		}
		return
	}
	if p.current == p.total {
		fmt.Fprintln(p.writer, p.line())
	}
}

func (p *Progress) redraw() {
	if p.lastLen > 0 {
		fmt.Fprint(p.writer, carriageReturn+strings.Repeat(" ", p.lastLen)+carriageReturn)
	}
	line := p.line()
	fmt.Fprint(p.writer, line)
	p.lastLen = len(line)
}

// line renders "message [████░░░░] 40% (2/5)". Caller holds mu.
func (p *Progress) line() string {
	filled := barWidth
	if p.total > 0 {
		filled = p.current * barWidth / p.total
	}
	bar := "[" + strings.Repeat(barFilled, filled) + strings.Repeat(barEmpty, barWidth-filled) + "]"
	return fmt.Sprintf("%s %s %.0f%% (%d/%d)", p.message, bar, p.percentage(), p.current, p.total)
}
