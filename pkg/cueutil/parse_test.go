// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"

	"cuelang.org/go/cue"
	"github.com/google/go-cmp/cmp"
)

const testSchema = `
#Config: {
	name?: string
	retries?: int & >=0
	nested?: {
		enabled?: bool
	}
}
`

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	res, err := ParseAndDecode[map[string]any]([]byte(testSchema),
		[]byte("name: \"x\"\nnested: enabled: true\n"), "#Config", WithFilename("cfg.cue"))
	if err != nil {
		t.Fatalf("ParseAndDecode() error: %v", err)
	}

	want := map[string]any{"name": "x", "nested": map[string]any{"enabled": true}}
	if diff := cmp.Diff(want, *res.Value); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAndDecodeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     string
		opts     []Option
		contains []string
	}{
		{"syntax", "name: ", nil, []string{"cfg.cue"}},
		{"schema violation", "retries: -1", nil, []string{"cfg.cue", "retries"}},
		{"unknown field", "bogus: 1", nil, []string{"cfg.cue", "bogus"}},
		{"too large", "name: \"abcdef\"", []Option{func(o *options) { o.maxFileSize = 4 }}, []string{"exceeds maximum"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := append([]Option{WithFilename("cfg.cue")}, tt.opts...)
			_, err := ParseAndDecode[map[string]any]([]byte(testSchema), []byte(tt.data), "#Config", opts...)
			if err == nil {
				t.Fatal("ParseAndDecode() returned nil error")
			}
			for _, want := range tt.contains {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q should contain %q", err, want)
				}
			}
		})
	}
}

func TestExtractJSONKeepsOrder(t *testing.T) {
	t.Parallel()

	v, err := ExtractJSON([]byte(`{"zeta": 1, "alpha": 2, "mid": 3}`), "p.json")
	if err != nil {
		t.Fatalf("ExtractJSON() error: %v", err)
	}

	iter, err := v.Fields()
	if err != nil {
		t.Fatal(err)
	}
	var keys []string
	for iter.Next() {
		keys = append(keys, iter.Selector().Unquoted())
	}
	if diff := cmp.Diff([]string{"zeta", "alpha", "mid"}, keys); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}

	if _, err := ExtractJSON([]byte(`{"a":`), "bad.json"); err == nil || !strings.Contains(err.Error(), "bad.json") {
		t.Errorf("ExtractJSON() on broken input error = %v", err)
	}
}

func TestExtractJSONDuplicateKeys(t *testing.T) {
	t.Parallel()

	v, err := ExtractJSON([]byte(`{"a": "1", "b": {"x": 1, "x": 2}, "a": "2"}`), "p.json")
	if err != nil {
		t.Fatalf("ExtractJSON() error: %v", err)
	}

	iter, err := v.Fields()
	if err != nil {
		t.Fatal(err)
	}
	var keys []string
	for iter.Next() {
		keys = append(keys, iter.Selector().Unquoted())
	}
	if diff := cmp.Diff([]string{"a", "b"}, keys); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}
	if a, _ := v.LookupPath(cue.ParsePath("a")).String(); a != "2" {
		t.Errorf("a = %q, want 2", a)
	}
	if x, _ := v.LookupPath(cue.ParsePath("b.x")).Int64(); x != 2 {
		t.Errorf("b.x = %d, want 2", x)
	}
}
