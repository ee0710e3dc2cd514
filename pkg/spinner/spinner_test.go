package spinner

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func boolPtr(b bool) *bool { return &b }

// syncBuffer guards a bytes.Buffer for the animation goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// -----------------------------------------------------------------------------
// Spinner Tests
// -----------------------------------------------------------------------------

func TestNewDefaults(t *testing.T) {
	s := New("rendering")
	if s.Message() != "rendering" {
		t.Errorf("expected message 'rendering', got %q", s.Message())
	}
	if s.config.RefreshRate != 80*time.Millisecond {
		t.Errorf("expected 80ms refresh, got %v", s.config.RefreshRate)
	}
	if s.IsActive() {
		t.Error("spinner should not be active before Start()")
	}
}

func TestNonTTYOutput(t *testing.T) {
	var buf bytes.Buffer
	s := NewWithConfig(Config{Message: "Rendering 3 certificates", Writer: &buf, IsTTY: boolPtr(false)})

	s.Start()
	if !s.IsActive() {
		t.Fatal("spinner should be active after Start()")
	}
	s.Start() // no-op
	s.Success("Wrote out.pdf")

	out := buf.String()
	if strings.Count(out, "Rendering 3 certificates...") != 1 {
		t.Errorf("expected one start line, got %q", out)
	}
	if !strings.Contains(out, "✓ Wrote out.pdf (") {
		t.Errorf("expected success line, got %q", out)
	}
	if strings.Contains(out, "\033[") {
		t.Error("non-TTY output should not contain ANSI codes")
	}
	if s.IsActive() {
		t.Error("spinner should be inactive after Success()")
	}
}

func TestTTYAnimation(t *testing.T) {
	buf := &syncBuffer{}
	s := NewWithConfig(Config{Message: "working", Writer: buf, IsTTY: boolPtr(true), RefreshRate: 5 * time.Millisecond})

	s.Start()
	time.Sleep(30 * time.Millisecond)
	s.Update("still working")
	time.Sleep(20 * time.Millisecond)
	s.Fail("")

	out := buf.String()
	if !strings.HasPrefix(out, hideCursor) {
		t.Error("expected cursor to be hidden on start")
	}
	if !strings.Contains(out, showCursor) {
		t.Error("expected cursor to be restored")
	}
	if !strings.Contains(out, colorRed+symbolFailure+colorReset+" still working") {
		t.Errorf("expected colored failure line, got %q", out)
	}
}

func TestStopWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	s := NewWithConfig(Config{Writer: &buf, IsTTY: boolPtr(true)})
	s.Stop()
	s.Stop()
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{1200 * time.Millisecond, "(1.2s)"},
		{90 * time.Second, "(1m 30s)"},
		{0, "(0.0s)"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

// -----------------------------------------------------------------------------
// Progress Tests
// -----------------------------------------------------------------------------

func TestProgressNonTTY(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(4, "Signatures", &buf)

	for i := 0; i < 3; i++ {
		p.Increment()
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output before completion, got %q", buf.String())
	}
	if p.Percentage() != 75 {
		t.Errorf("expected 75%%, got %v", p.Percentage())
	}

	p.Increment()
	p.Increment() // clamped
	if p.Current() != 4 {
		t.Errorf("expected current 4, got %d", p.Current())
	}
	want := "Signatures [" + strings.Repeat(barFilled, barWidth) + "] 100% (4/4)\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestProgressEmptyTotal(t *testing.T) {
	p := NewProgress(0, "none", &bytes.Buffer{})
	if p.Percentage() != 100 {
		t.Errorf("empty progress should be complete, got %v", p.Percentage())
	}
}

func TestProgressLine(t *testing.T) {
	p := NewProgress(5, "x", &bytes.Buffer{})
	p.current = 2
	want := "x [" + strings.Repeat(barFilled, 8) + strings.Repeat(barEmpty, 12) + "] 40% (2/5)"
	if got := p.line(); got != want {
		t.Errorf("line() = %q, want %q", got, want)
	}
}
