// SPDX-License-Identifier: MPL-2.0

package imports

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/uscompile/uscompile/internal/diag"
	"github.com/uscompile/uscompile/pkg/props"
)

// countingSource records how often each name is loaded.
type countingSource struct {
	Source
	loads map[string]int
}

func (s *countingSource) Load(ctx context.Context, name string) (Fragment, error) {
	s.loads[name]++
	return s.Source.Load(ctx, name)
}

func countCode(diags []diag.Diagnostic, code diag.Code) int {
	n := 0
	for _, d := range diags {
		if d.Code == code {
			n++
		}
	}
	return n
}

func TestResolveDependencyOrder(t *testing.T) {
	t.Parallel()

	src := MapSource{
		"a": "// @import{b}\na();",
		"b": "b();",
	}

	out := props.New()
	res, err := NewResolver(src).Resolve(context.Background(), []string{"a"}, out)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if diff := cmp.Diff([]string{"b", "a"}, res.Order); diff != "" {
		t.Errorf("Order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b.js", "a.js"}, res.Paths); diff != "" {
		t.Errorf("Paths mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a();"}, res.Bodies["a"]); diff != "" {
		t.Errorf("Bodies[a] mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveEachNameOnce(t *testing.T) {
	t.Parallel()

	src := &countingSource{
		Source: MapSource{
			"a":    "// @import{util}\n// @import{b}\na();",
			"b":    "// @import{util}\nb();",
			"util": "util();",
		},
		loads: make(map[string]int),
	}

	res, err := NewResolver(src).Resolve(context.Background(), []string{"a", "b", "util", "a"}, props.New())
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if diff := cmp.Diff([]string{"util", "b", "a"}, res.Order); diff != "" {
		t.Errorf("Order mismatch (-want +got):\n%s", diff)
	}
	for name, n := range src.loads {
		if n != 1 {
			t.Errorf("%q loaded %d times, want 1", name, n)
		}
	}
}

func TestResolveCycleTerminates(t *testing.T) {
	t.Parallel()

	src := MapSource{
		"a": "// @import{b}\na();",
		"b": "// @import{c}\nb();",
		"c": "// @import{a}\n// @import{c}\nc();",
	}

	res, err := NewResolver(src).Resolve(context.Background(), []string{"a"}, props.New())
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if diff := cmp.Diff([]string{"c", "b", "a"}, res.Order); diff != "" {
		t.Errorf("Order mismatch (-want +got):\n%s", diff)
	}
	if len(res.Bodies) != 3 {
		t.Errorf("len(Bodies) = %d, want 3", len(res.Bodies))
	}

	var got []string
	for _, d := range res.Diagnostics {
		if d.Code == diag.CodeImportCycle {
			got = append(got, d.Path+": "+d.Message)
		}
	}
	want := []string{"a.js: import cycle: a -> b -> c -> a"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("import_cycle diagnostics mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveAcyclicHasNoCycleDiagnostic(t *testing.T) {
	t.Parallel()

	src := MapSource{
		"a":    "// @import{util}\n// @import{b}\na();",
		"b":    "// @import{util}\nb();",
		"util": "util();",
	}
	res, err := NewResolver(src).Resolve(context.Background(), []string{"a"}, props.New())
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if n := countCode(res.Diagnostics, diag.CodeImportCycle); n != 0 {
		t.Errorf("import_cycle diagnostics = %d, want 0", n)
	}
}

func TestResolveMergesDeclarations(t *testing.T) {
	t.Parallel()

	src := MapSource{
		"net": "// ==UserScript==\n// @grant GM_xmlhttpRequest\n// @connect api.example\n// ==/UserScript==\n// @grant{GM_setValue}\nnet();",
		"dom": "// @require{https://cdn.example/x.js}\n// @grant{GM_setValue}\ndom();",
	}

	out := props.New()
	out.Add(props.GrantKey, "none")

	if _, err := NewResolver(src).Resolve(context.Background(), []string{"net", "dom"}, out); err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	grant, _ := out.Get(props.GrantKey)
	if diff := cmp.Diff([]string{"none", "GM_xmlhttpRequest", "GM_setValue"}, grant.Items()); diff != "" {
		t.Errorf("grant mismatch (-want +got):\n%s", diff)
	}
	if got := out.Lookup(props.RequireKey); got != "https://cdn.example/x.js" {
		t.Errorf("require = %q", got)
	}
	if _, ok := out.Get("connect"); ok {
		t.Error("non grant/require header keys of a fragment leaked into the artifact")
	}
}

func TestResolveMissingFragment(t *testing.T) {
	t.Parallel()

	src := MapSource{"a": "// @import{ghost}\na();"}

	_, err := NewResolver(src).Resolve(context.Background(), []string{"a"}, props.New())
	if err == nil {
		t.Fatal("Resolve() returned nil error for a missing import")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("errors.Is(err, ErrNotFound) = false (err: %v)", err)
	}
}

func TestResolveReportsSkippedHeaderLines(t *testing.T) {
	t.Parallel()

	src := MapSource{"a": "// ==UserScript==\n// junk\n// ==/UserScript==\na();"}

	res, err := NewResolver(src).Resolve(context.Background(), []string{"a"}, props.New())
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got := countCode(res.Diagnostics, diag.CodeHeaderLineSkipped); got != 1 {
		t.Fatalf("header_line_skipped count = %d, want 1", got)
	}
	if got, want := res.Diagnostics[0].String(), `a.js:2: header line ignored: "// junk" [header_line_skipped]`; got != want {
		t.Errorf("diagnostic = %q, want %q", got, want)
	}
}
