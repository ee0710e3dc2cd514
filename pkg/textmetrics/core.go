package textmetrics

import (
	"sync"

	"github.com/go-pdf/fpdf"
)

// CoreMetrics measures text with the AFM widths of the PDF core fonts.
// An fpdf instance holds the width tables; it is not safe for concurrent
// use, so access is serialized.
type CoreMetrics struct {
	mu  sync.Mutex
	pdf *fpdf.Fpdf
}

// NewCoreMetrics creates core-font metrics measuring in points.
func NewCoreMetrics() *CoreMetrics {
	return &CoreMetrics{pdf: fpdf.New("P", "pt", "A4", "")}
}

// Width implements Metrics.
func (m *CoreMetrics) Width(text string, font Font, size float64) float64 {
	if text == "" || size <= 0 {
		return 0
	}
	f := font.Resolved()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pdf.SetFont(f.Family, f.FpdfStyle(), size)
	if err := m.pdf.Error(); err != nil {
		// Core families always load; recover the instance rather than
		// returning a zero width forever.
		m.pdf = fpdf.New("P", "pt", "A4", "")
		m.pdf.SetFont(DefaultFamily, "", size)
	}
	return m.pdf.GetStringWidth(string(EncodeWinAnsi(text)))
}
