package errors

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

type customError struct {
	msg string
}

func (e *customError) Error() string { return e.msg }

type bakeFailure struct{}

func (bakeFailure) Error() string           { return "bake failed" }
func (bakeFailure) Category() ErrorCategory { return CategoryBake }

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: 0,
		},
		{
			name: "classified validation error",
			err: NewError(CategoryValidation, "invalid input").
				WithSeverity(SeverityError).
				Build(),
			expected: 2,
		},
		{
			name:     "config error",
			err:      ConfigError("bad config").Build(),
			expected: 7,
		},
		{
			name:     "wrapped config error",
			err:      fmt.Errorf("load: %w", ConfigError("bad config").Build()),
			expected: 7,
		},
		{
			name:     "categorized domain error",
			err:      fmt.Errorf("site: %w", bakeFailure{}),
			expected: 11,
		},
		{
			name:     "record error",
			err:      RecordError("insert failed").Build(),
			expected: 12,
		},
		{
			name:     "unclassified error",
			err:      &customError{msg: "unknown error"},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.ExitCodeFor(tt.err)
			if got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		err      error
		contains string
	}{
		{
			name:     "nil error",
			err:      nil,
			contains: "",
		},
		{
			name:     "internal error in non-verbose mode",
			err:      InternalError("internal issue").Build(),
			contains: "use -v for details",
		},
		{
			name:     "internal error in verbose mode",
			verbose:  true,
			err:      InternalError("internal issue").Build(),
			contains: "internal issue",
		},
		{
			name:     "domain error shows message",
			err:      bakeFailure{},
			contains: "bake failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := NewCLIErrorAdapter(tt.verbose, slog.Default())
			got := adapter.FormatError(tt.err)
			if !strings.Contains(got, tt.contains) {
				t.Errorf("FormatError() = %q, want to contain %q", got, tt.contains)
			}
		})
	}
}

func TestCLIErrorAdapter_LogErrorIncludesContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	adapter := NewCLIErrorAdapter(true, logger)

	adapter.logError(ConfigError("bad root").WithContext("key", "site/root").Build())

	out := buf.String()
	if !strings.Contains(out, "category=config") {
		t.Errorf("expected category attr in %q", out)
	}
	if !strings.Contains(out, "key=site/root") {
		t.Errorf("expected context attr in %q", out)
	}
}
