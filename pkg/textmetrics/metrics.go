package textmetrics

import (
	"fmt"
	"strings"
)

// Metrics reports the rendered width of text in points. Implementations
// are deterministic, return 0 for "" and never shrink when characters are
// appended.
type Metrics interface {
	Width(text string, font Font, size float64) float64
}

// NameCore is the only metrics name accepted by New. Both renderers draw
// the PDF standard fonts, so layout must measure with their AFM widths.
const NameCore = "core"

// New returns the metrics implementation registered under name.
// An empty name selects core metrics.
func New(name string) (Metrics, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameCore:
		return NewCoreMetrics(), nil
	}
	return nil, fmt.Errorf("unknown metrics %q (want %q)", name, NameCore)
}
