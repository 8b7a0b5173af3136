// SPDX-License-Identifier: MPL-2.0

package props

import "slices"

// fromMap builds a Set from scalar values, adding keys in sorted order.
func fromMap(m map[string]string) *Set {
	s := New()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		s.Add(k, m[k])
	}
	return s
}
