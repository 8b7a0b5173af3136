// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE parsing utilities.
//
// Two flows are covered. ParseAndDecode validates a CUE document against an
// embedded schema definition and decodes it:
//
//	result, err := cueutil.ParseAndDecode[map[string]any](
//	    schemaBytes,
//	    userFileBytes,
//	    "#Config",
//	    cueutil.WithFilename("uscompile.cue"),
//	)
//
// ExtractJSON loads a JSON document as a CUE value so callers can walk object
// members in document order, which encoding/json maps do not preserve.
package cueutil
