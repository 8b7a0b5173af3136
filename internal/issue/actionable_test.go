// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "write manifest"},
			expected: "failed to write manifest",
		},
		{
			name: "operation with resource",
			err: &ActionableError{
				Operation: "compile script",
				Resource:  "src/foo.user.js",
			},
			expected: "failed to compile script: src/foo.user.js",
		},
		{
			name: "operation with cause",
			err: &ActionableError{
				Operation: "load config",
				Cause:     errors.New("unexpected token at line 5"),
			},
			expected: "failed to load config: unexpected token at line 5",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "resolve import",
				Resource:  "snippet/dom.js",
				Cause:     errors.New("file not found"),
			},
			expected: "failed to resolve import: snippet/dom.js: file not found",
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

func TestActionableError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ActionableError{Operation: "test", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	errNoCause := &ActionableError{Operation: "test"}
	if errNoCause.Unwrap() != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name:     "simple error non-verbose",
			err:      &ActionableError{Operation: "load config"},
			contains: []string{"failed to load config"},
			excludes: []string{"•", "Error chain"},
		},
		{
			name: "error with suggestions",
			err: &ActionableError{
				Operation:   "compile script",
				Resource:    "src/foo.user.js",
				Suggestions: []string{"Create snippet/dom.js", "Check file permissions"},
			},
			contains: []string{
				"failed to compile script",
				"src/foo.user.js",
				"• Create snippet/dom.js",
				"• Check file permissions",
			},
		},
		{
			name: "verbose shows chain",
			err: &ActionableError{
				Operation: "write artifact",
				Cause:     fmt.Errorf("rename: %w", errors.New("permission denied")),
			},
			verbose:  true,
			contains: []string{"Error chain:", "1. rename: permission denied", "2. permission denied"},
		},
		{
			name: "non-verbose hides chain",
			err: &ActionableError{
				Operation: "write artifact",
				Cause:     fmt.Errorf("rename: %w", errors.New("permission denied")),
			},
			excludes: []string{"Error chain:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Format(tt.verbose)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Format() should contain %q, got:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("Format() should not contain %q, got:\n%s", unwanted, got)
				}
			}
		})
	}
}

func TestErrorContext_Build(t *testing.T) {
	cause := errors.New("no such file")
	ae := NewErrorContext().
		WithOperation("resolve import").
		WithResource("dom").
		WithSuggestion("Create snippet/dom.js").
		WithSuggestion("Fix the @import{} name").
		WithIssue(ImportNotFoundId).
		Wrap(cause).
		Build()

	if ae == nil {
		t.Fatal("Build() returned nil")
	}
	if ae.Operation != "resolve import" || ae.Resource != "dom" {
		t.Errorf("Build() = %+v", ae)
	}
	if len(ae.Suggestions) != 2 || !ae.HasSuggestions() {
		t.Errorf("Suggestions = %v", ae.Suggestions)
	}
	if ae.Issue != ImportNotFoundId {
		t.Errorf("Issue = %d, want %d", ae.Issue, ImportNotFoundId)
	}
	if !errors.Is(ae, cause) {
		t.Error("built error should wrap the cause")
	}
}

func TestErrorContext_BuildWithoutOperation(t *testing.T) {
	if ae := NewErrorContext().WithResource("x").Build(); ae != nil {
		t.Errorf("Build() without operation = %+v, want nil", ae)
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want nil", err)
	}
}

func TestWrapWithContext(t *testing.T) {
	if WrapWithContext(nil, "op", "res") != nil {
		t.Error("WrapWithContext(nil) should return nil")
	}

	cause := errors.New("boom")
	ae := WrapWithContext(cause, "write manifest", "dist/userscripts.json")
	if got, want := ae.Error(), "failed to write manifest: dist/userscripts.json: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIssueOf(t *testing.T) {
	inner := NewErrorContext().
		WithOperation("resolve import").
		WithIssue(ImportNotFoundId).
		Wrap(errors.New("missing")).
		BuildError()
	outer := NewErrorContext().
		WithOperation("compile script").
		Wrap(fmt.Errorf("src/a.user.js: %w", inner)).
		BuildError()

	got := IssueOf(outer)
	if got == nil || got.Id() != ImportNotFoundId {
		t.Errorf("IssueOf() = %v, want ImportNotFoundId entry", got)
	}

	if IssueOf(errors.New("plain")) != nil {
		t.Error("IssueOf() on a plain error should be nil")
	}
	if IssueOf(&ActionableError{Operation: "x"}) != nil {
		t.Error("IssueOf() without a linked issue should be nil")
	}
}
