// Package textmetrics measures the advance width of text runs in PDF points.
package textmetrics

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Style selects the weight/slant variant of a font family.
type Style int

const (
	Regular Style = iota
	Bold
	Italic
	BoldItalic
)

// Core font families available without embedding.
const (
	Helvetica = "Helvetica"
	Times     = "Times"
	Courier   = "Courier"
)

// DefaultFamily is used when a family is not recognized.
const DefaultFamily = Helvetica

// Font identifies a family and style. Sizes travel separately.
type Font struct {
	Family string
	Style  Style
}

// ResolveFamily maps a family name onto one of the core families. The
// second result is false when the name was unknown and DefaultFamily was
// substituted.
func ResolveFamily(family string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(family)) {
	case "helvetica", "arial", "sans", "sans-serif":
		return Helvetica, true
	case "times", "times-roman", "times new roman", "serif":
		return Times, true
	case "courier", "courier new", "mono", "monospace":
		return Courier, true
	}
	return DefaultFamily, false
}

// Resolved returns the font with its family mapped onto a core family.
func (f Font) Resolved() Font {
	fam, _ := ResolveFamily(f.Family)
	return Font{Family: fam, Style: f.Style}
}

// PostScriptName returns the base font name used in PDF resources,
// e.g. "Helvetica-BoldOblique" or "Times-Roman".
func (f Font) PostScriptName() string {
	fam, _ := ResolveFamily(f.Family)
	if fam == Times {
		switch f.Style {
		case Bold:
			return "Times-Bold"
		case Italic:
			return "Times-Italic"
		case BoldItalic:
			return "Times-BoldItalic"
		default:
			return "Times-Roman"
		}
	}
	switch f.Style {
	case Bold:
		return fam + "-Bold"
	case Italic:
		return fam + "-Oblique"
	case BoldItalic:
		return fam + "-BoldOblique"
	default:
		return fam
	}
}

// String is the PostScript name.
func (f Font) String() string { return f.PostScriptName() }

// ParseFont accepts PostScript-style names such as "Helvetica-Bold",
// "Helvetica-Oblique" or "Times-BoldItalic".
func ParseFont(name string) Font {
	family, variant, _ := strings.Cut(strings.TrimSpace(name), "-")
	f := Font{Family: family}
	switch strings.ToLower(variant) {
	case "bold":
		f.Style = Bold
	case "oblique", "italic":
		f.Style = Italic
	case "boldoblique", "bolditalic":
		f.Style = BoldItalic
	}
	return f
}

// fpdfStyle maps a Style onto fpdf's style string.
func (s Style) fpdfStyle() string {
	switch s {
	case Bold:
		return "B"
	case Italic:
		return "I"
	case BoldItalic:
		return "BI"
	}
	return ""
}

// FpdfStyle returns the style letters understood by fpdf.SetFont.
func (f Font) FpdfStyle() string { return f.Style.fpdfStyle() }

// EncodeWinAnsi converts text to the single-byte encoding used by the core
// fonts. Runes outside Windows-1252 become '?'.
func EncodeWinAnsi(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}
