// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/uscompile/uscompile/internal/diag"
	"github.com/uscompile/uscompile/internal/issue"
	"github.com/uscompile/uscompile/pkg/props"
)

// listing is the classified content of one source directory.
type listing struct {
	dirs    []string
	common  *props.Set
	scripts []*ScriptDescriptor
	styles  []*StyleDescriptor
	// orphans lists props files matching neither a script nor a style.
	orphans []string
}

// compileDir compiles the directory rel (slash separated, "" for the root)
// with the inherited property chain. Subdirectories go first, then scripts,
// then styles. The root call writes the manifest.
func (c *Compiler) compileDir(ctx context.Context, b *build, rel string, chain []*props.Set) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Join(c.opts.SourceDir, filepath.FromSlash(rel))
	resolved := dir
	if r, err := filepath.EvalSymlinks(dir); err == nil {
		resolved = r
	}
	if slices.Contains(b.ancestors, resolved) {
		b.warn(diag.Warn(diag.CodeDirectoryLoop, dir, "directory links back to %s; skipped", resolved))
		return nil
	}
	b.ancestors = append(b.ancestors, resolved)
	defer func() { b.ancestors = b.ancestors[:len(b.ancestors)-1] }()

	c.logger.Debug("scanning directory", "dir", dir)

	l, err := scanDir(dir)
	if err != nil {
		return err
	}
	for _, orphan := range l.orphans {
		b.warn(diag.Warn(diag.CodePropsOrphaned, orphan,
			"no %s or %s file shares this base name; properties ignored", ScriptExt, StyleExt))
	}

	if l.common != nil {
		chain = append(slices.Clip(chain), l.common)
	}

	for _, sub := range l.dirs {
		if err := c.compileDir(ctx, b, path.Join(rel, sub), chain); err != nil {
			return err
		}
	}
	for _, d := range l.scripts {
		if err := c.compileArtifact(ctx, b, rel, d, chain); err != nil {
			return err
		}
	}
	for _, d := range l.styles {
		if err := c.compileArtifact(ctx, b, rel, d, chain); err != nil {
			return err
		}
	}

	if rel == "" {
		return c.writeManifest(b.manifest)
	}
	return nil
}

// isDir reports whether e is a directory, following symlinks. A dangling
// link is not a directory.
func isDir(e fs.DirEntry, p string) bool {
	if e.Type()&fs.ModeSymlink == 0 {
		return e.IsDir()
	}
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// scanDir reads dir once and classifies its entries. Props files are matched
// to bodies after the whole listing is known, since "x.props.json" sorts
// before "x.user.js".
func scanDir(dir string) (*listing, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}

	l := &listing{}
	scripts := make(map[string]*ScriptDescriptor)
	styles := make(map[string]*StyleDescriptor)
	type propsFile struct {
		base, path string
		set        *props.Set
	}
	var propsFiles []propsFile

	for _, e := range entries {
		name := e.Name()
		p := filepath.Join(dir, name)

		if isDir(e, p) {
			l.dirs = append(l.dirs, name)
			continue
		}

		switch {
		case name == CommonPropsFile:
			set, err := readProps(p)
			if err != nil {
				return nil, err
			}
			l.common = set
		case strings.HasSuffix(name, ScriptExt):
			base := strings.TrimSuffix(name, ScriptExt)
			content, err := os.ReadFile(p)
			if err != nil {
				return nil, fmt.Errorf("read script: %w", err)
			}
			d := &ScriptDescriptor{Source{Base: base}}
			d.setBody(p, string(content))
			scripts[base] = d
			l.scripts = append(l.scripts, d)
		case strings.HasSuffix(name, StyleExt):
			base := strings.TrimSuffix(name, StyleExt)
			content, err := os.ReadFile(p)
			if err != nil {
				return nil, fmt.Errorf("read style: %w", err)
			}
			d := &StyleDescriptor{Source{Base: base}}
			d.setBody(p, string(content))
			styles[base] = d
			l.styles = append(l.styles, d)
		case strings.HasSuffix(name, PropsExt):
			set, err := readProps(p)
			if err != nil {
				return nil, err
			}
			propsFiles = append(propsFiles, propsFile{base: strings.TrimSuffix(name, PropsExt), path: p, set: set})
		}
	}

	for _, pf := range propsFiles {
		matched := false
		if d, ok := scripts[pf.base]; ok {
			d.setProps(pf.path, pf.set)
			matched = true
		}
		if d, ok := styles[pf.base]; ok {
			d.setProps(pf.path, pf.set.Clone())
			matched = true
		}
		if !matched {
			l.orphans = append(l.orphans, pf.path)
		}
	}
	return l, nil
}

// readProps decodes a props JSON file.
func readProps(p string) (*props.Set, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read properties: %w", err)
	}
	set, err := props.DecodeJSON(data, p)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("parse properties").
			WithResource(p).
			WithSuggestion("Properties files hold a JSON object of strings, numbers, booleans or string lists").
			WithIssue(issue.PropsParseErrorId).
			Wrap(err).
			BuildError()
	}
	return set, nil
}

func (c *Compiler) manifestPath() string {
	return filepath.Join(c.opts.OutputDir, c.opts.ManifestName)
}

func (c *Compiler) writeManifest(m *Manifest) error {
	data, err := m.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	p := c.manifestPath()
	if err := writeAtomic(p, data); err != nil {
		return outputWriteError(p, err)
	}
	c.logger.Debug("wrote manifest", "path", p, "entries", m.Len())
	return nil
}
