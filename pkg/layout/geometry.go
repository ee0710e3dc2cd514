package layout

import (
	"github.com/r3d91ll/qoscert/pkg/textmetrics"
)

// Centimeter is one centimetre in PDF points.
const Centimeter = 72 / 2.54

// Page dimensions in points.
const (
	A4Width  = 210 * Centimeter / 10
	A4Height = 297 * Centimeter / 10
)

// TextStyle is a font and size used for one text role.
type TextStyle struct {
	Font textmetrics.Font
	Size float64
}

// Geometry holds every measurement that governs a page. It is constant for
// a document run. Distances are in points; vertical offsets are measured
// downward from the reference line they name.
type Geometry struct {
	PageWidth  float64
	PageHeight float64

	// Margin is the horizontal margin on both sides.
	Margin float64
	// Top is the baseline shared by the title and the header timestamp.
	Top float64

	Title     TextStyle
	Timestamp TextStyle
	Body      TextStyle
	Penalty   TextStyle
	Caption   TextStyle
	Footnote  TextStyle

	LineHeight     float64
	BodyGap        float64 // Top to first body line
	PenaltyGap     float64 // last body line to penalty line
	SignatureGap   float64 // last body line to signature row
	NameOffset     float64 // signature row to issuer name
	FootnoteOffset float64 // signature row to the "Generated:" footnote

	SignatureWidth    float64
	CounterLeftOffset float64
	CounterGap        float64
	CounterDrop       float64

	TitleText        string
	DateLayout       string
	TimestampLayout  string
	CurrencySymbol   string
	DefaultHonorific string
	Honorifics       []string
	Placeholder      string
}

// DefaultGeometry returns the A4 certificate layout.
func DefaultGeometry() Geometry {
	helvetica := textmetrics.Font{Family: textmetrics.Helvetica}
	return Geometry{
		PageWidth:  A4Width,
		PageHeight: A4Height,
		Margin:     2 * Centimeter,
		Top:        27 * Centimeter,

		Title:     TextStyle{Font: textmetrics.Font{Family: textmetrics.Helvetica, Style: textmetrics.Bold}, Size: 16},
		Timestamp: TextStyle{Font: helvetica, Size: 10},
		Body:      TextStyle{Font: helvetica, Size: 12},
		Penalty:   TextStyle{Font: helvetica, Size: 12},
		Caption:   TextStyle{Font: helvetica, Size: 12},
		Footnote:  TextStyle{Font: textmetrics.Font{Family: textmetrics.Helvetica, Style: textmetrics.Italic}, Size: 9},

		LineHeight:     0.5 * Centimeter,
		BodyGap:        1.5 * Centimeter,
		PenaltyGap:     1 * Centimeter,
		SignatureGap:   5 * Centimeter,
		NameOffset:     0.6 * Centimeter,
		FootnoteOffset: 1.2 * Centimeter,

		SignatureWidth:    4 * Centimeter,
		CounterLeftOffset: 4 * Centimeter,
		CounterGap:        2 * Centimeter,
		CounterDrop:       4 * Centimeter,

		TitleText:        "QoS Certificate",
		DateLayout:       "02-01-2006",
		TimestampLayout:  "02-01-2006 15:04",
		CurrencySymbol:   "₹",
		DefaultHonorific: "M/S.",
		Honorifics:       []string{"m/s"},
		Placeholder:      "TIP",
	}
}

// BodyWidth is the wrapping width between the margins.
func (g Geometry) BodyWidth() float64 {
	return g.PageWidth - 2*g.Margin
}

// FallbackFamilies lists configured font families that are not core
// families and will be measured and drawn with the default family.
func (g Geometry) FallbackFamilies() []string {
	var out []string
	seen := map[string]bool{}
	for _, s := range []TextStyle{g.Title, g.Timestamp, g.Body, g.Penalty, g.Caption, g.Footnote} {
		if _, ok := textmetrics.ResolveFamily(s.Font.Family); !ok && !seen[s.Font.Family] {
			seen[s.Font.Family] = true
			out = append(out, s.Font.Family)
		}
	}
	return out
}
