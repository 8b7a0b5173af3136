// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/uscompile/uscompile/internal/imports"
	"github.com/uscompile/uscompile/internal/testutil"
	"github.com/uscompile/uscompile/pkg/props"
)

func TestRenderScriptImports(t *testing.T) {
	t.Parallel()

	p := props.New()
	p.Add("name", "m")
	res := &imports.Result{
		Order:  []string{"b", "a"},
		Bodies: map[string][]string{"a": {"a();"}, "b": {"b1();", "", "b2();"}},
	}

	got := string(renderScript("m", p, res, []string{"m();"}))
	want := "console.log(`Begin - ${script_id}`)\n" +
		"\n" +
		"\n// @imported_begin{b}\nb1();\n\nb2();\n// @imported_end{b}\n" +
		"\n// @imported_begin{a}\na();\n// @imported_end{a}\n" +
		"\n// @main_begin{m}\nm();\n// @main_end{m}\n" +
		"\nconsole.log(`End - ${script_id}`)\n"
	if !strings.HasSuffix(got, want) {
		t.Errorf("renderScript() =\n%s\nwant suffix\n%s", got, want)
	}
}

func TestWriteAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "nested", "a.user.js")

	if err := writeAtomic(p, []byte("one")); err != nil {
		t.Fatalf("writeAtomic() error: %v", err)
	}
	if err := writeAtomic(p, []byte("two")); err != nil {
		t.Fatalf("writeAtomic() overwrite error: %v", err)
	}
	if got := testutil.MustReadFile(t, p); got != "two" {
		t.Errorf("content = %q, want two", got)
	}

	entries, err := os.ReadDir(filepath.Dir(p))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the artifact", len(entries))
	}
}

func TestWriteAtomicFailureLeavesNoTemp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// renaming a file over a non-empty directory fails
	target := filepath.Join(dir, "out")
	testutil.MustWriteFile(t, filepath.Join(target, "keep"), "x")

	if err := writeAtomic(target, []byte("data")); err == nil {
		t.Fatal("writeAtomic() over a directory returned nil error")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
