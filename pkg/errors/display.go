package errors

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[90m"
	colorBold   = "\033[1m"
)

// Formatter handles error display with optional color support.
type Formatter struct {
	// UseColor enables ANSI color codes in output.
	UseColor bool

	// Writer is the output destination. Defaults to os.Stderr.
	Writer io.Writer

	// Indent is the prefix for context and suggestion lines.
	Indent string
}

// DefaultFormatter returns a Formatter for stderr, colored when stderr is a TTY.
func DefaultFormatter() *Formatter {
	return &Formatter{
		UseColor: term.IsTerminal(int(os.Stderr.Fd())),
		Writer:   os.Stderr,
		Indent:   "  ",
	}
}

// Format renders an error. CertErrors show code, context, cause and suggestions.
func (f *Formatter) Format(err error) string {
	if err == nil {
		return ""
	}
	ce, ok := AsCertError(err)
	if !ok {
		if f.UseColor {
			return colorRed + "Error: " + colorReset + err.Error()
		}
		return "Error: " + err.Error()
	}

	var sb strings.Builder
	f.paint(&sb, colorRed+colorBold, "ERROR")
	f.paint(&sb, colorRed, " ["+ce.Code+"]: ")
	sb.WriteString(ce.Message)
	sb.WriteString("\n")

	keys := make([]string, 0, len(ce.Context))
	for k := range ce.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(f.Indent)
		f.paint(&sb, colorYellow, k+": ")
		sb.WriteString(ce.Context[k])
		sb.WriteString("\n")
	}

	if ce.Cause != nil {
		sb.WriteString(f.Indent)
		f.paint(&sb, colorDim, "cause: "+ce.Cause.Error())
		sb.WriteString("\n")
	}

	if ce.HasSuggestions() {
		if ce.HasContext() || ce.Cause != nil {
			sb.WriteString("\n")
		}
		for i, s := range ce.Suggestions {
			sb.WriteString(f.Indent)
			f.paint(&sb, colorCyan, "→ "+s)
			if i < len(ce.Suggestions)-1 {
				sb.WriteString("\n")
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) paint(sb *strings.Builder, color, text string) {
	if f.UseColor {
		sb.WriteString(color)
		sb.WriteString(text)
		sb.WriteString(colorReset)
		return
	}
	sb.WriteString(text)
}

// Display writes a formatted error to the formatter's writer.
func (f *Formatter) Display(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(f.Writer, f.Format(err))
}

// Display writes a formatted error to stderr with default settings.
func Display(err error) {
	DefaultFormatter().Display(err)
}

// Sprint returns a formatted error string without colors.
func Sprint(err error) string {
	f := &Formatter{Writer: io.Discard, Indent: "  "}
	return f.Format(err)
}

// CategoryLabel returns a human-readable label for an error category.
func CategoryLabel(cat Category) string {
	switch cat {
	case CategoryConfig:
		return "Configuration Error"
	case CategoryValidation:
		return "Validation Error"
	case CategoryAsset:
		return "Asset Error"
	case CategoryRoster:
		return "Roster Error"
	case CategoryAuth:
		return "Authentication Error"
	case CategorySession:
		return "Session Error"
	case CategoryRender:
		return "Render Error"
	case CategoryIO:
		return "I/O Error"
	case CategoryInternal:
		return "Internal Error"
	default:
		return "Error"
	}
}
