package errors

import "strings"

// Registry maps error codes to their remediation suggestions.
type Registry struct {
	suggestions map[string][]string
}

// NewRegistry creates a new suggestion registry.
func NewRegistry() *Registry {
	return &Registry{
		suggestions: make(map[string][]string),
	}
}

// Register adds a suggestion for an error code.
func (r *Registry) Register(code, text string) *Registry {
	r.suggestions[code] = append(r.suggestions[code], text)
	return r
}

// Get returns all suggestions for an error code.
func (r *Registry) Get(code string) []string {
	return r.suggestions[code]
}

// HasSuggestions returns true if any suggestions exist for the error code.
func (r *Registry) HasSuggestions(code string) bool {
	return len(r.suggestions[code]) > 0
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the global suggestion registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func init() {
	defaultRegistry.
		Register(ErrConfigNotFound, "Run 'qoscert -init' to create a default config file").
		Register(ErrConfigParseFailed, "Check the YAML syntax; lengths accept units such as \"2cm\" or \"12pt\"").
		Register(ErrConfigInvalid, "Run 'qoscert -init -config new.yaml' and compare with the generated defaults").
		Register(ErrRecordInvalid, "Penalty amounts must be zero or positive when a penalty applies").
		Register(ErrRecordParseFailed, "Records files are YAML with a top-level 'records:' list").
		Register(ErrAmountInvalid, "Write amounts as plain decimals, e.g. 150.50").
		Register(ErrDateInvalid, "Write dates as YYYY-MM-DD").
		Register(ErrAssetNotFound, "Place the base64 signature at <assets dir>/<mobile>.b64").
		Register(ErrAssetDecodeFailed, "Re-encode the signature image with 'base64 -w0 sign.png > <mobile>.b64'").
		Register(ErrRosterNotFound, "Set roster.path in the config file").
		Register(ErrRosterEncoding, "Save the roster CSV as UTF-8").
		Register(ErrAuthInvalidCredentials, "Check the mobile number and PIN in the roster").
		Register(ErrAuthTokenInvalid, "Log in again to obtain a fresh token").
		Register(ErrAuthForbidden, "Certificates are signed as the logged-in officer; omit the signature field").
		Register(ErrSessionNotFound, "Log in again; idle sessions expire").
		Register(ErrSessionTIPNotPending, "List pending TIPs with /tips").
		Register(ErrSessionNotReady, "Add a certificate for every pending TIP before finishing").
		Register(ErrRendererUnknown, "Use renderer 'native' or 'fpdf'").
		Register(ErrIOWriteFailed, "Check that the output directory exists and is writable")
}

// AttachSuggestions appends registered suggestions for the error's code.
func AttachSuggestions(err *CertError) *CertError {
	if err == nil {
		return nil
	}
	err.Suggestions = append(err.Suggestions, defaultRegistry.Get(err.Code)...)
	return err
}

// FormatSuggestionList renders suggestions as an arrow list.
func FormatSuggestionList(suggestions []string) string {
	if len(suggestions) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, s := range suggestions {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("→ ")
		sb.WriteString(s)
	}
	return sb.String()
}
