package layout

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/r3d91ll/qoscert/pkg/textmetrics"
)

// monoMetrics gives every rune the same advance, which keeps expected
// line breaks easy to reason about.
type monoMetrics struct{ advance float64 }

func (m monoMetrics) Width(s string, _ textmetrics.Font, size float64) float64 {
	return float64(utf8.RuneCountInString(s)) * m.advance * size
}

var body = textmetrics.Font{Family: textmetrics.Helvetica}

var paragraphs = []string{
	"It is to certify that the services provided by M/S. Acme, from 01-01-2024 to 31-01-2024 is satisfactory.",
	"  leading   and trailing\twhitespace\n is   collapsed  ",
	"Supercalifragilisticexpialidocious is a long word",
	"a b c d e f g h i j k l m n o p",
	"single",
}

func TestWrapWidthBound(t *testing.T) {
	m := textmetrics.NewCoreMetrics()
	for _, p := range paragraphs {
		for _, maxWidth := range []float64{20, 60, 120, 250, 515.9} {
			for _, line := range Wrap(p, maxWidth, body, 12, m) {
				if len(strings.Fields(line)) == 1 {
					continue
				}
				if w := m.Width(line, body, 12); w > maxWidth {
					t.Errorf("line %q width %.2f exceeds %.2f", line, w, maxWidth)
				}
			}
		}
	}
}

func TestWrapTotality(t *testing.T) {
	m := textmetrics.NewCoreMetrics()
	for _, p := range paragraphs {
		for _, maxWidth := range []float64{1, 50, 150, 1000} {
			lines := Wrap(p, maxWidth, body, 12, m)
			got := strings.Join(lines, " ")
			want := strings.Join(strings.Fields(p), " ")
			if got != want {
				t.Errorf("maxWidth %v: rejoined %q, want %q", maxWidth, got, want)
			}
		}
	}
}

func TestWrapGreedy(t *testing.T) {
	m := monoMetrics{advance: 1}
	tests := []struct {
		name     string
		text     string
		maxWidth float64
		want     []string
	}{
		{"fits on one line", "aa bb cc", 8, []string{"aa bb cc"}},
		{"exact fit", "aa bb", 5, []string{"aa bb"}},
		{"breaks greedily", "aa bb cc dd", 5, []string{"aa bb", "cc dd"}},
		{"long word alone", "a toolongword b", 5, []string{"a", "toolongword", "b"}},
		{"long first word", "toolongword a b", 5, []string{"toolongword", "a b"}},
		{"empty", "", 5, nil},
		{"blank", " \t\n ", 5, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.text, tt.maxWidth, body, 1, m)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("Wrap(%q, %v) = %q, want %q", tt.text, tt.maxWidth, got, tt.want)
			}
			for _, line := range got {
				if line == "" {
					t.Error("Wrap emitted an empty line")
				}
			}
		})
	}
}

func TestWrapNarrowCertificateSentence(t *testing.T) {
	m := textmetrics.NewCoreMetrics()
	p := "It is to certify that the services provided by M/S. Acme, from 01-01-2024 to 31-01-2024 is satisfactory."
	const maxWidth = 200.0

	lines := Wrap(p, maxWidth, body, 12, m)
	if len(lines) < 2 {
		t.Fatalf("expected more than one line at width %v, got %q", maxWidth, lines)
	}
	for _, line := range lines {
		if w := m.Width(line, body, 12); w > maxWidth {
			t.Errorf("line %q width %.2f exceeds %.2f", line, w, maxWidth)
		}
	}
}
