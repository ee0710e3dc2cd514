// Package spinner shows terminal progress while certificates are rendered.
// On a terminal it animates in place; elsewhere it prints plain status lines.
package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	hideCursor     = "\033[?25l"
	showCursor     = "\033[?25h"
	carriageReturn = "\r"

	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorReset = "\033[0m"

	symbolSuccess = "✓"
	symbolFailure = "✗"
)

// Frames are the animation characters.
var Frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Config holds spinner options.
type Config struct {
	Message string

	// RefreshRate defaults to 80ms.
	RefreshRate time.Duration

	// Writer defaults to os.Stderr.
	Writer io.Writer

	// IsTTY overrides terminal detection on Writer.
	IsTTY *bool
}

// Spinner is an animated status line.
type Spinner struct {
	mu sync.Mutex

	config    Config
	isTTY     bool
	active    bool
	startTime time.Time
	frame     int
	lastLen   int
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// New creates a spinner writing to stderr.
func New(message string) *Spinner {
	return NewWithConfig(Config{Message: message})
}

// NewWithConfig creates a spinner, filling unset options with defaults.
func NewWithConfig(config Config) *Spinner {
	if config.RefreshRate <= 0 {
		config.RefreshRate = 80 * time.Millisecond
	}
	if config.Writer == nil {
		config.Writer = os.Stderr
	}
	isTTY := IsTerminal(config.Writer)
	if config.IsTTY != nil {
		isTTY = *config.IsTTY
	}
	return &Spinner{config: config, isTTY: isTTY}
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// IsActive reports whether the spinner is running.
func (s *Spinner) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Message returns the current message.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Message
}

// Update replaces the message.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.config.Message = message
	s.mu.Unlock()
}

// Start begins animating. Starting a running spinner does nothing.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true
	s.startTime = time.Now()
	s.frame = 0

	if !s.isTTY {
		fmt.Fprintf(s.config.Writer, "%s...\n", s.config.Message)
		return
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	fmt.Fprint(s.config.Writer, hideCursor)
	go s.loop(s.stopCh, s.doneCh)
}

func (s *Spinner) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.config.RefreshRate)
	defer ticker.Stop()

	s.draw()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.draw()
		}
	}
}

func (s *Spinner) draw() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	line := fmt.Sprintf("%s %s %s", Frames[s.frame%len(Frames)], s.config.Message, formatElapsed(time.Since(s.startTime)))
	s.frame++
	s.erase()
	fmt.Fprint(s.config.Writer, line)
	s.lastLen = len(line)
}

// erase blanks the previous frame. Caller holds mu.
func (s *Spinner) erase() {
	if s.lastLen > 0 {
		fmt.Fprint(s.config.Writer, carriageReturn+strings.Repeat(" ", s.lastLen)+carriageReturn)
		s.lastLen = 0
	}
}

// halt stops the animation goroutine and returns the elapsed time.
// It reports false when the spinner was not running.
func (s *Spinner) halt() (time.Duration, bool) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return 0, false
	}
	s.active = false
	elapsed := time.Since(s.startTime)
	stop, done := s.stopCh, s.doneCh
	s.mu.Unlock()

	if s.isTTY && stop != nil {
		close(stop)
		<-done
		s.mu.Lock()
		s.erase()
		fmt.Fprint(s.config.Writer, showCursor)
		s.mu.Unlock()
	}
	return elapsed, true
}

// Stop ends the animation without a final status line.
func (s *Spinner) Stop() {
	s.halt()
}

// Success stops the spinner and prints a check mark with message.
func (s *Spinner) Success(message string) {
	s.finish(message, symbolSuccess, colorGreen)
}

// Fail stops the spinner and prints a cross with message.
func (s *Spinner) Fail(message string) {
	s.finish(message, symbolFailure, colorRed)
}

func (s *Spinner) finish(message, symbol, color string) {
	elapsed, _ := s.halt()

	s.mu.Lock()
	defer s.mu.Unlock()
	if message == "" {
		message = s.config.Message
	}
	if s.isTTY {
		symbol = color + symbol + colorReset
	}
	fmt.Fprintf(s.config.Writer, "%s %s %s\n", symbol, message, formatElapsed(elapsed))
}

// formatElapsed renders "(1.2s)" or "(1m 30s)".
func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("(%.1fs)", d.Seconds())
	}
	return fmt.Sprintf("(%dm %ds)", int(d.Minutes()), int(d.Seconds())%60)
}
