// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries what was attempted, the file involved and hints for
// fixing the problem. Errors that map to a known failure kind also carry an
// issue Id whose Markdown guide the CLI renders with glamour.
package issue
