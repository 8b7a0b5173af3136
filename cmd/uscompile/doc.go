// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands for uscompile.
//
// The command tree is built around an App, which owns the configuration
// provider and the output streams. Commands load configuration, call into
// internal/compiler and render the results; no compile logic lives here.
package cmd
