// SPDX-License-Identifier: MPL-2.0

package header

import (
	"strings"

	"github.com/uscompile/uscompile/pkg/props"
)

// Render returns the header block for p, delimiter lines included.
//
// Keys follow props.Set.HeaderKeys order. A list value produces one line per
// item, and values are aligned one column past the longest key.
func Render(d *Dialect, p *props.Set) []string {
	width := p.KeyWidth()

	lines := []string{d.Start}
	for _, key := range p.HeaderKeys() {
		v, _ := p.Get(key)
		for _, item := range v.Items() {
			lines = append(lines, d.propertyLine(key, item, width))
		}
	}
	return append(lines, d.End)
}

func (d *Dialect) propertyLine(key, value string, width int) string {
	var b strings.Builder
	b.WriteString(d.LinePrefix)
	b.WriteByte('@')
	b.WriteString(key)
	if value == "" {
		return b.String()
	}
	b.WriteString(strings.Repeat(" ", width-len(key)+1))
	b.WriteString(value)
	return b.String()
}
