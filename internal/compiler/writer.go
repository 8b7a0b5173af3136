// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/uscompile/uscompile/internal/imports"
	"github.com/uscompile/uscompile/pkg/header"
	"github.com/uscompile/uscompile/pkg/props"
)

// preamble logs the start of a compiled script in the browser console.
var preamble = []string{
	"const script_name = GM_info?.script?.name || 'no-name'",
	"const script_version = GM_info?.script?.version || 'no-version'",
	"const script_id = `${script_name} ${script_version}`",
	"console.log(`Begin - ${script_id}`)",
}

const epilogue = "console.log(`End - ${script_id}`)"

type lineWriter struct {
	b strings.Builder
}

func (w *lineWriter) line(s string) {
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

func (w *lineWriter) lines(ls []string) {
	for _, l := range ls {
		w.line(l)
	}
}

// renderScript lays out a compiled userscript: header, console preamble,
// each import between @imported markers, the main body between @main
// markers and the closing console line.
func renderScript(base string, p *props.Set, res *imports.Result, body []string) []byte {
	var w lineWriter
	w.lines(header.Render(header.Script, p))
	w.line("")
	w.lines(preamble)
	w.line("")

	for _, name := range res.Order {
		w.line("")
		w.line("// @imported_begin{" + name + "}")
		w.lines(res.Bodies[name])
		w.line("// @imported_end{" + name + "}")
	}

	w.line("")
	w.line("// @main_begin{" + base + "}")
	w.lines(body)
	w.line("// @main_end{" + base + "}")
	w.line("")
	w.line(epilogue)
	return []byte(w.b.String())
}

// renderStyle lays out a compiled userstyle: header, blank line, body.
func renderStyle(p *props.Set, body []string) []byte {
	var w lineWriter
	w.lines(header.Render(header.Style, p))
	w.line("")
	w.lines(body)
	return []byte(w.b.String())
}

// writeAtomic writes data to a temporary file next to path and renames it
// into place, so readers never observe a partially written file. The
// temporary file is removed when any step fails.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
