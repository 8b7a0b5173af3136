// SPDX-License-Identifier: MPL-2.0

// Package diag defines the structured diagnostics that compile stages return
// to their callers instead of writing to stderr, so the CLI owns the
// rendering policy.
package diag

import "fmt"

const (
	// SeverityWarning indicates a recoverable compile warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal compile error diagnostic.
	SeverityError Severity = "error"
)

// Diagnostic codes.
const (
	// CodeHeaderLineSkipped marks a header line that did not match the
	// "@key value" pattern and was ignored.
	CodeHeaderLineSkipped Code = "header_line_skipped"
	// CodeVersionUnresolved marks an artifact whose version could not be
	// derived from git history.
	CodeVersionUnresolved Code = "version_unresolved"
	// CodePropsOrphaned marks a props file with no matching script or style.
	CodePropsOrphaned Code = "props_orphaned"
	// CodeEmptyBody marks an artifact whose body is empty after trimming.
	CodeEmptyBody Code = "empty_body"
	// CodeImportCycle marks fragments that import each other. Each fragment
	// is still inlined once.
	CodeImportCycle Code = "import_cycle"
	// CodeDirectoryLoop marks a symlinked directory that leads back to one of
	// its ancestors. It is not compiled again.
	CodeDirectoryLoop Code = "directory_loop"
)

type (
	// Severity represents diagnostic severity.
	Severity string

	// Code is a machine-readable diagnostic identifier.
	Code string

	// Diagnostic is a structured, non-fatal finding.
	Diagnostic struct {
		// Severity is the diagnostic level (warning or error).
		Severity Severity
		// Code is a machine-readable identifier (e.g., "props_orphaned").
		Code Code
		// Message is the human-readable description.
		Message string
		// Path is the file path associated with this diagnostic (optional).
		Path string
		// Line is the 1-based line in Path, or 0 when not applicable.
		Line int
		// Cause is the underlying error (optional, for programmatic inspection).
		Cause error
	}
)

// Warn builds a warning diagnostic.
func Warn(code Code, path, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Path:     path,
	}
}

// SkippedHeaderLine builds the warning for a header line that was ignored.
func SkippedHeaderLine(path string, line int, text string) Diagnostic {
	d := Warn(CodeHeaderLineSkipped, path, "header line ignored: %q", text)
	d.Line = line
	return d
}

// String renders the diagnostic as "path:line: message [code]".
func (d Diagnostic) String() string {
	loc := d.Path
	if d.Line > 0 {
		loc = fmt.Sprintf("%s:%d", d.Path, d.Line)
	}
	if loc == "" {
		return fmt.Sprintf("%s [%s]", d.Message, d.Code)
	}
	return fmt.Sprintf("%s: %s [%s]", loc, d.Message, d.Code)
}
