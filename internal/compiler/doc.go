// SPDX-License-Identifier: MPL-2.0

// Package compiler turns a source tree of annotated script and style files
// into userscripts, userstyles and a manifest describing them.
//
// A build walks the source directory depth first. Each directory may hold a
// common.props.json file that applies to it and to every directory below,
// script bodies (*.user.js), style bodies (*.user.css) and per-artifact
// property files (*.props.json). Output mirrors the source layout, and the
// manifest is written once at the output root when the walk completes.
package compiler
