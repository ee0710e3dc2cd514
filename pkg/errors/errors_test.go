package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	ce := New("TEST_ERROR", CategoryConfig, "test message")

	if ce.Code != "TEST_ERROR" {
		t.Errorf("expected Code 'TEST_ERROR', got %q", ce.Code)
	}
	if ce.Category != CategoryConfig {
		t.Errorf("expected Category CategoryConfig, got %v", ce.Category)
	}
	if ce.Context == nil {
		t.Error("expected Context map to be initialized, got nil")
	}
	if ce.Suggestions != nil {
		t.Errorf("expected Suggestions to be nil, got %v", ce.Suggestions)
	}
}

func TestCertError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *CertError
		expected string
	}{
		{
			name:     "without cause",
			err:      New(ErrConfigNotFound, CategoryConfig, "configuration file not found"),
			expected: "CONFIG_NOT_FOUND: configuration file not found",
		},
		{
			name: "with cause",
			err: New(ErrIOReadFailed, CategoryIO, "failed to read file").
				WithCause(fmt.Errorf("permission denied")),
			expected: "IO_READ_FAILED: failed to read file: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", Validation(ErrRecordInvalid, "negative penalty"))

	if !stderrors.Is(err, New(ErrRecordInvalid, CategoryValidation, "")) {
		t.Error("expected errors.Is to match on code through a wrap")
	}
	if stderrors.Is(err, New(ErrAssetNotFound, CategoryAsset, "")) {
		t.Error("expected different codes not to match")
	}
	if !IsCode(err, ErrRecordInvalid) {
		t.Error("IsCode should walk the wrap chain")
	}
	if !IsCategory(err, CategoryValidation) {
		t.Error("IsCategory should walk the wrap chain")
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := IOWrap(cause, ErrIOWriteFailed, "write pdf")

	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be reachable via errors.Is")
	}
}

func TestAttachSuggestions(t *testing.T) {
	err := Validation(ErrRecordInvalid, "bad record")
	if !err.HasSuggestions() {
		t.Fatal("expected registered suggestions for RECORD_INVALID")
	}

	unknown := AttachSuggestions(New("NOPE", CategoryInternal, "x"))
	if unknown.HasSuggestions() {
		t.Errorf("expected no suggestions for unknown code, got %v", unknown.Suggestions)
	}
}

func TestContextStringSorted(t *testing.T) {
	err := New("X", CategoryIO, "m").WithContext("path", "/b").WithContext("mobile", "98")
	if got := err.ContextString(); got != `mobile="98", path="/b"` {
		t.Errorf("ContextString() = %q", got)
	}
}

func TestFormatterPlain(t *testing.T) {
	err := AssetWrap(fmt.Errorf("no such file"), ErrAssetNotFound, "signature missing").
		WithContext("mobile", "9891055443")

	out := Sprint(err)
	for _, want := range []string{"ERROR [ASSET_NOT_FOUND]: signature missing", "mobile: 9891055443", "cause: no such file", "→ "} {
		if !strings.Contains(out, want) {
			t.Errorf("formatted output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("plain output should not contain ANSI codes")
	}
}

func TestFormatterStandardError(t *testing.T) {
	f := &Formatter{UseColor: true, Indent: "  "}
	out := f.Format(fmt.Errorf("boom"))
	if !strings.Contains(out, "Error: ") || !strings.Contains(out, "boom") {
		t.Errorf("unexpected output %q", out)
	}
	if f.Format(nil) != "" {
		t.Error("nil error should format to empty string")
	}
}

func TestCategoryLabel(t *testing.T) {
	if CategoryLabel(CategoryRender) != "Render Error" {
		t.Errorf("unexpected label %q", CategoryLabel(CategoryRender))
	}
	if CategoryLabel(Category("other")) != "Error" {
		t.Error("unknown category should map to 'Error'")
	}
}
