package layout

import (
	"strings"

	"github.com/r3d91ll/qoscert/pkg/textmetrics"
)

// Wrap breaks paragraph into lines no wider than maxWidth, packing words
// greedily. Words are never split: a word wider than maxWidth occupies a
// line of its own. Blank input yields no lines.
func Wrap(paragraph string, maxWidth float64, font textmetrics.Font, size float64, m textmetrics.Metrics) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(paragraph) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if m.Width(candidate, font, size) <= maxWidth {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
		}
		line = word
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
