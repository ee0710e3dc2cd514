// Package errors provides structured error types for the certificate generator.
// Errors include context, causes, and actionable suggestions.
package errors

import (
	"fmt"
	"sort"
	"strings"
)

// Category classifies errors for consistent handling and display.
type Category string

const (
	CategoryConfig     Category = "config"     // Configuration loading/parsing errors
	CategoryValidation Category = "validation" // Record and input validation errors
	CategoryAsset      Category = "asset"      // Signature image loading errors
	CategoryRoster     Category = "roster"     // Roster file loading errors
	CategoryAuth       Category = "auth"       // Login and token errors
	CategorySession    Category = "session"    // Certificate workflow errors
	CategoryRender     Category = "render"     // PDF serialization errors
	CategoryIO         Category = "io"         // File/IO errors
	CategoryInternal   Category = "internal"   // Internal/unexpected errors
)

// CertError is a structured error with context and suggestions.
// It implements the error interface and supports error wrapping.
type CertError struct {
	// Code is a unique identifier for this error type (e.g., "RECORD_INVALID")
	Code string

	// Category classifies this error for consistent handling
	Category Category

	// Message is the primary error message describing what went wrong
	Message string

	// Context provides additional key-value details about the error
	Context map[string]string

	// Cause is the underlying error that triggered this error (for wrapping)
	Cause error

	// Suggestions are actionable remediation steps for the user
	Suggestions []string
}

// Error implements the error interface.
func (e *CertError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain inspection.
func (e *CertError) Unwrap() error {
	return e.Cause
}

// Is reports whether e matches target for errors.Is() checks.
// Two CertErrors match if they have the same Code.
func (e *CertError) Is(target error) bool {
	if t, ok := target.(*CertError); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new CertError with the given code, category, and message.
func New(code string, category Category, message string) *CertError {
	return &CertError{
		Code:     code,
		Category: category,
		Message:  message,
		Context:  make(map[string]string),
	}
}

// Newf creates a new CertError with a formatted message.
func Newf(code string, category Category, format string, args ...interface{}) *CertError {
	return New(code, category, fmt.Sprintf(format, args...))
}

// WithContext adds a context key-value pair and returns the error for chaining.
func (e *CertError) WithContext(key, value string) *CertError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithCause wraps an underlying error and returns the error for chaining.
func (e *CertError) WithCause(cause error) *CertError {
	e.Cause = cause
	return e
}

// WithSuggestion adds a remediation suggestion and returns the error for chaining.
func (e *CertError) WithSuggestion(suggestion string) *CertError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// HasContext returns true if the error has context information.
func (e *CertError) HasContext() bool {
	return len(e.Context) > 0
}

// HasSuggestions returns true if the error has suggestions.
func (e *CertError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// ContextString returns the context entries as sorted key="value" pairs.
func (e *CertError) ContextString() string {
	if len(e.Context) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, e.Context[k]))
	}
	return strings.Join(parts, ", ")
}

// Wrap wraps an existing error with a CertError.
func Wrap(err error, code string, category Category, message string) *CertError {
	return New(code, category, message).WithCause(err)
}

// AsCertError attempts to convert an error to a CertError, walking the wrap chain.
func AsCertError(err error) (*CertError, bool) {
	for err != nil {
		if ce, ok := err.(*CertError); ok {
			return ce, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// IsCategory checks if an error is a CertError with the given category.
func IsCategory(err error, category Category) bool {
	if ce, ok := AsCertError(err); ok {
		return ce.Category == category
	}
	return false
}

// IsCode checks if an error is a CertError with the given code.
func IsCode(err error, code string) bool {
	if ce, ok := AsCertError(err); ok {
		return ce.Code == code
	}
	return false
}

// -----------------------------------------------------------------------------
// Category Constructors
// -----------------------------------------------------------------------------

// Config creates a configuration error with auto-attached suggestions.
func Config(code, message string) *CertError {
	return AttachSuggestions(New(code, CategoryConfig, message))
}

// ConfigWrap wraps an error as a configuration error with auto-attached suggestions.
func ConfigWrap(cause error, code, message string) *CertError {
	return AttachSuggestions(Wrap(cause, code, CategoryConfig, message))
}

// Validation creates a validation error with auto-attached suggestions.
func Validation(code, message string) *CertError {
	return AttachSuggestions(New(code, CategoryValidation, message))
}

// Validationf creates a validation error with a formatted message.
func Validationf(code, format string, args ...interface{}) *CertError {
	return Validation(code, fmt.Sprintf(format, args...))
}

// Asset creates an asset error. Asset errors are recoverable by omission.
func Asset(code, message string) *CertError {
	return AttachSuggestions(New(code, CategoryAsset, message))
}

// AssetWrap wraps an error as an asset error.
func AssetWrap(cause error, code, message string) *CertError {
	return AttachSuggestions(Wrap(cause, code, CategoryAsset, message))
}

// Roster creates a roster error with auto-attached suggestions.
func Roster(code, message string) *CertError {
	return AttachSuggestions(New(code, CategoryRoster, message))
}

// RosterWrap wraps an error as a roster error.
func RosterWrap(cause error, code, message string) *CertError {
	return AttachSuggestions(Wrap(cause, code, CategoryRoster, message))
}

// Auth creates an authentication error.
func Auth(code, message string) *CertError {
	return AttachSuggestions(New(code, CategoryAuth, message))
}

// Session creates a workflow error.
func Session(code, message string) *CertError {
	return AttachSuggestions(New(code, CategorySession, message))
}

// Sessionf creates a workflow error with a formatted message.
func Sessionf(code, format string, args ...interface{}) *CertError {
	return Session(code, fmt.Sprintf(format, args...))
}

// RenderWrap wraps a PDF serialization failure.
func RenderWrap(cause error, code, message string) *CertError {
	return AttachSuggestions(Wrap(cause, code, CategoryRender, message))
}

// IOWrap wraps an error as an IO error.
func IOWrap(cause error, code, message string) *CertError {
	return AttachSuggestions(Wrap(cause, code, CategoryIO, message))
}

// Internal creates an internal/unexpected error.
func Internal(code, message string) *CertError {
	return New(code, CategoryInternal, message)
}
