// SPDX-License-Identifier: MPL-2.0

// Package props implements the userscript property set and the cascade that
// merges property layers into the effective header of an artifact.
//
// A property is either scalar (last write wins) or multi-valued. Multi-valued
// names are fixed (see IsMulti); every assignment to them appends, keeping the
// first occurrence of each value. Sets remember the order in which names were
// first assigned so headers and manifests are emitted in a stable order.
package props

import (
	"slices"
	"strings"
)

const (
	// ImportKey is the synthetic property used to request imports from a
	// props file instead of an inline @import{} directive.
	ImportKey = "@import"

	// GrantKey is the permission grant property.
	GrantKey = "grant"
	// RequireKey is the required resource property.
	RequireKey = "require"
	// NameKey is the artifact name property.
	NameKey = "name"
	// VersionKey is the artifact version property.
	VersionKey = "version"
	// DescriptionKey is the artifact description property.
	DescriptionKey = "description"

	// GrantNone is the grant meaning "no special permissions".
	GrantNone = "none"
)

// multiValued lists the names that accumulate instead of overwriting.
var multiValued = []string{GrantKey, "antifeature", RequireKey, "resource", "include", "match", "connect"}

type (
	// Value is a property value: a single string or an ordered list.
	Value struct {
		items []string
		list  bool
	}

	// Set is an insertion-ordered property mapping.
	// The zero value is not usable; create sets with New.
	Set struct {
		keys   []string
		values map[string]Value
	}

	// Pair is a flattened (name, value) entry. It marshals to a two element
	// JSON array.
	Pair [2]string
)

// IsMulti reports whether name accumulates values.
func IsMulti(name string) bool {
	return slices.Contains(multiValued, name)
}

// Scalar creates a single string value.
func Scalar(s string) Value {
	return Value{items: []string{s}}
}

// List creates a list value.
func List(items ...string) Value {
	return Value{items: slices.Clone(items), list: true}
}

// Items returns a copy of the value's items. A scalar yields one item.
func (v Value) Items() []string { return slices.Clone(v.items) }

// String returns the scalar value, or the list items joined by ", ".
func (v Value) String() string {
	if !v.list && len(v.items) == 1 {
		return v.items[0]
	}
	return strings.Join(v.items, ", ")
}

// blank reports whether every item of v is empty.
func (v Value) blank() bool {
	return !slices.ContainsFunc(v.items, func(item string) bool { return item != "" })
}

// New creates an empty Set.
func New() *Set {
	return &Set{values: make(map[string]Value)}
}

// Add assigns a single value following the multi/scalar rule.
func (s *Set) Add(name, value string) {
	s.Put(name, Scalar(value))
}

// Put assigns v to name. Multi-valued names append every non-empty item of v
// that is not already present; other names are replaced by v. An empty value
// only sets a name that has no value yet, so a bare "@flag" never clears one.
func (s *Set) Put(name string, v Value) {
	existing, ok := s.values[name]

	if !IsMulti(name) {
		if ok && v.blank() && !existing.blank() {
			return
		}
		if !ok {
			s.keys = append(s.keys, name)
		}
		s.values[name] = Value{items: slices.Clone(v.items), list: v.list}
		return
	}

	merged := Value{items: existing.Items(), list: true}
	for _, item := range v.items {
		if item != "" && !slices.Contains(merged.items, item) {
			merged.items = append(merged.items, item)
		}
	}
	if !ok {
		if len(merged.items) == 0 {
			return
		}
		s.keys = append(s.keys, name)
	}
	s.values[name] = merged
}

// Get returns the value stored under name.
func (s *Set) Get(name string) (Value, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Lookup returns the string form of name, or "" when unset.
func (s *Set) Lookup(name string) string {
	v, ok := s.values[name]
	if !ok {
		return ""
	}
	return v.String()
}

// Has reports whether name is set to a non-empty value.
func (s *Set) Has(name string) bool {
	v, ok := s.values[name]
	return ok && !v.blank()
}

// Delete removes name.
func (s *Set) Delete(name string) {
	if _, ok := s.values[name]; !ok {
		return
	}
	delete(s.values, name)
	s.keys = slices.DeleteFunc(s.keys, func(k string) bool { return k == name })
}

// Keys returns property names in first-assignment order.
func (s *Set) Keys() []string {
	return slices.Clone(s.keys)
}

// Len returns the number of properties.
func (s *Set) Len() int {
	return len(s.keys)
}

// Clone returns a deep copy of s.
func (s *Set) Clone() *Set {
	c := New()
	for _, k := range s.keys {
		v := s.values[k]
		c.keys = append(c.keys, k)
		c.values[k] = Value{items: v.Items(), list: v.list}
	}
	return c
}

// TakeImports removes the synthetic ImportKey and returns its items.
func (s *Set) TakeImports() []string {
	v, ok := s.values[ImportKey]
	if !ok {
		return nil
	}
	s.Delete(ImportKey)
	return v.Items()
}

// Pairs flattens the set in key order; list values produce one pair per item.
func (s *Set) Pairs() []Pair {
	pairs := make([]Pair, 0, len(s.keys))
	for _, k := range s.keys {
		for _, item := range s.values[k].items {
			pairs = append(pairs, Pair{k, item})
		}
	}
	return pairs
}
