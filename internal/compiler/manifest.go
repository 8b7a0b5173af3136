// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"cuelang.org/go/cue"

	"github.com/uscompile/uscompile/pkg/cueutil"
	"github.com/uscompile/uscompile/pkg/props"
)

// TypeKey is the manifest pair naming the artifact kind.
const TypeKey = "type"

// DefaultManifestName is the manifest file written at the output root.
const DefaultManifestName = "userscripts.json"

// ErrInvalidManifest is returned when a manifest document has the wrong shape.
var ErrInvalidManifest = errors.New("invalid manifest")

type (
	// Manifest maps output-relative artifact paths to their flattened
	// properties. Entries keep insertion order.
	Manifest struct {
		entries []Entry
		index   map[string]int
	}

	// Entry is the manifest record of one artifact.
	Entry struct {
		// Path is the slash separated path relative to the output root.
		Path string
		// Pairs lists the artifact properties, type last.
		Pairs []props.Pair
	}
)

// NewManifest creates an empty Manifest.
func NewManifest() *Manifest {
	return &Manifest{index: make(map[string]int)}
}

// Add records the effective properties of an artifact. Adding a path again
// replaces its entry in place.
func (m *Manifest) Add(path string, kind Kind, p *props.Set) {
	pairs := append(p.Pairs(), props.Pair{TypeKey, string(kind)})
	m.put(Entry{Path: path, Pairs: pairs})
}

func (m *Manifest) put(e Entry) {
	if i, ok := m.index[e.Path]; ok {
		m.entries[i] = e
		return
	}
	m.index[e.Path] = len(m.entries)
	m.entries = append(m.entries, e)
}

// Entries returns the entries in insertion order.
func (m *Manifest) Entries() []Entry {
	return slices.Clone(m.entries)
}

// Lookup returns the entry recorded for path.
func (m *Manifest) Lookup(path string) (Entry, bool) {
	i, ok := m.index[path]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Get returns the first value recorded for key, or "".
func (e Entry) Get(key string) string {
	for _, p := range e.Pairs {
		if p[0] == key {
			return p[1]
		}
	}
	return ""
}

// Kind returns the artifact kind recorded in the entry.
func (e Entry) Kind() Kind {
	return Kind(e.Get(TypeKey))
}

// MarshalJSON encodes the manifest as a compact JSON object whose members
// appear in insertion order.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(e.Path); err != nil {
			return nil, err
		}
		trimNewline(&buf)
		buf.WriteByte(':')

		pairs := e.Pairs
		if pairs == nil {
			pairs = []props.Pair{}
		}
		if err := enc.Encode(pairs); err != nil {
			return nil, err
		}
		trimNewline(&buf)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encoder.Encode terminates every value with a newline.
func trimNewline(buf *bytes.Buffer) {
	buf.Truncate(buf.Len() - 1)
}

// ParseManifest decodes a manifest document, keeping entry order.
func ParseManifest(data []byte, filename string) (*Manifest, error) {
	v, err := cueutil.ExtractJSON(data, filename)
	if err != nil {
		return nil, err
	}
	if v.Kind() != cue.StructKind {
		return nil, fmt.Errorf("%w: %s: expected a JSON object", ErrInvalidManifest, filename)
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	m := NewManifest()
	for iter.Next() {
		path := iter.Selector().Unquoted()
		pairs, err := decodePairs(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s: %w", ErrInvalidManifest, filename, path, err)
		}
		m.put(Entry{Path: path, Pairs: pairs})
	}
	return m, nil
}

func decodePairs(v cue.Value) ([]props.Pair, error) {
	var raw [][]string
	if err := v.Decode(&raw); err != nil {
		return nil, err
	}
	pairs := make([]props.Pair, 0, len(raw))
	for i, r := range raw {
		if len(r) != 2 {
			return nil, fmt.Errorf("pair %d has %d elements, want 2", i, len(r))
		}
		pairs = append(pairs, props.Pair{r[0], r[1]})
	}
	return pairs, nil
}

// LoadManifest reads and parses the manifest file at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseManifest(data, path)
}
