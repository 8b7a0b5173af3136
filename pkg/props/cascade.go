// SPDX-License-Identifier: MPL-2.0

package props

import "slices"

// headerOrder is the canonical order of well-known header keys. Keys not
// listed here follow in first-assignment order.
var headerOrder = []string{
	NameKey, "namespace", VersionKey, DescriptionKey, "author",
	"homepage", "supportURL", "match", "icon", GrantKey,
}

// Merge folds a cascade chain into a new Set, outermost layer first.
// Scalar names take the rightmost value; multi-valued names accumulate every
// value in chain order without duplicates. Nil layers are skipped.
func Merge(chain ...*Set) *Set {
	merged := New()
	for _, layer := range chain {
		if layer == nil {
			continue
		}
		for _, k := range layer.keys {
			merged.Put(k, layer.values[k])
		}
	}
	return merged
}

// DropNoneGrant removes the "none" grant once any other grant is present.
func DropNoneGrant(s *Set) {
	v, ok := s.values[GrantKey]
	if !ok || len(v.items) < 2 || !slices.Contains(v.items, GrantNone) {
		return
	}
	v.items = slices.DeleteFunc(slices.Clone(v.items), func(g string) bool { return g == GrantNone })
	s.values[GrantKey] = v
}

// HeaderKeys returns the keys of s in header emission order.
func (s *Set) HeaderKeys() []string {
	keys := make([]string, 0, len(s.keys))
	for _, k := range headerOrder {
		if _, ok := s.values[k]; ok {
			keys = append(keys, k)
		}
	}
	for _, k := range s.keys {
		if !slices.Contains(headerOrder, k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// KeyWidth returns the length of the longest key, used to align header values.
func (s *Set) KeyWidth() int {
	width := 0
	for _, k := range s.keys {
		width = max(width, len(k))
	}
	return width
}
