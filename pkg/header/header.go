// SPDX-License-Identifier: MPL-2.0

// Package header parses userscript and userstyle sources into their metadata
// header and body.
//
// Parsing is permissive: header lines that do not look like "@key value" or a
// bare "@flag" are skipped rather than rejected, and reported through
// Document.Skipped so the caller can surface them as warnings. Keys may carry
// dashes and locale suffixes ("@run-at", "@name:fr").
package header

import (
	"regexp"
	"strings"

	"github.com/uscompile/uscompile/pkg/props"
)

// Directive names accepted inline in script bodies.
const (
	DirectiveImport  = "import"
	DirectiveGrant   = "grant"
	DirectiveRequire = "require"
)

var (
	// Script is the userscript dialect: a "// ==UserScript==" line comment
	// block plus @import{}, @grant{} and @require{} inline directives.
	Script = &Dialect{
		Name:       "script",
		Start:      "// ==UserScript==",
		End:        "// ==/UserScript==",
		LinePrefix: "// ",
		property:   regexp.MustCompile(`^//\s*@([\w:-]+)(?:\s+(.*?))?\s*$`),
		directives: regexp.MustCompile(`^\s*//\s*@(import|grant|require)\{(.*)\}\s*$`),
	}

	// Style is the userstyle dialect: a "/* ==UserStyle==" block comment
	// header and no inline directives.
	Style = &Dialect{
		Name:     "style",
		Start:    "/* ==UserStyle==",
		End:      "==/UserStyle== */",
		property: regexp.MustCompile(`^\s*@([\w:-]+)(?:\s+(.*?))?\s*$`),
	}
)

type (
	// Dialect describes how a header block is delimited and how its lines
	// are matched.
	Dialect struct {
		// Name identifies the dialect in diagnostics ("script" or "style").
		Name string
		// Start is the prefix of the line opening the header block.
		Start string
		// End is the prefix of the line closing the header block.
		End string
		// LinePrefix precedes "@key" on rendered property lines.
		LinePrefix string

		property   *regexp.Regexp
		directives *regexp.Regexp
	}

	// Document is the result of parsing one source.
	Document struct {
		// Imports lists @import{} names in order of appearance, duplicates kept.
		Imports []string
		// Grants lists @grant{} values in order of appearance.
		Grants []string
		// Requires lists @require{} values in order of appearance.
		Requires []string
		// Body holds the non-header, non-directive lines, trimmed of leading
		// and trailing blank lines.
		Body []string
		// Props holds the header properties.
		Props *props.Set
		// Skipped lists header lines that did not match the property pattern.
		Skipped []SkippedLine
	}

	// SkippedLine is a non-blank header line that was ignored.
	SkippedLine struct {
		// Line is the 1-based line number in the source.
		Line int
		// Text is the raw line.
		Text string
	}
)

// Parse splits content into header properties, inline directives and body.
func Parse(d *Dialect, content string) *Document {
	doc := &Document{Props: props.New()}

	inHeader := false
	var body []string
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")

		switch {
		case strings.HasPrefix(line, d.Start):
			inHeader = true
		case strings.HasPrefix(line, d.End):
			inHeader = false
		case inHeader:
			if m := d.property.FindStringSubmatch(line); m != nil {
				doc.Props.Add(m[1], m[2])
			} else if !isBlankComment(line) {
				doc.Skipped = append(doc.Skipped, SkippedLine{Line: i + 1, Text: line})
			}
		default:
			if d.directives != nil {
				if m := d.directives.FindStringSubmatch(line); m != nil {
					doc.addDirective(m[1], m[2])
					continue
				}
			}
			body = append(body, line)
		}
	}

	doc.Body = trimBlank(body)
	return doc
}

func (doc *Document) addDirective(kind, value string) {
	switch kind {
	case DirectiveImport:
		doc.Imports = append(doc.Imports, value)
	case DirectiveGrant:
		doc.Grants = append(doc.Grants, value)
	case DirectiveRequire:
		doc.Requires = append(doc.Requires, value)
	}
}

// trimBlank keeps the inclusive window between the first and last non-blank
// lines. Blank lines inside the window are preserved.
func trimBlank(lines []string) []string {
	begin, end := -1, -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if begin < 0 {
			begin = i
		}
		end = i
	}
	if begin < 0 {
		return nil
	}
	return lines[begin : end+1]
}

// isBlankComment reports whether a header line carries no content at all,
// e.g. "" or "//".
func isBlankComment(line string) bool {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimPrefix(trimmed, "//")
	return strings.TrimSpace(trimmed) == ""
}
