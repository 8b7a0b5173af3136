// SPDX-License-Identifier: MPL-2.0

// Package imports resolves @import{} references into inlined fragment bodies.
//
// Resolution is depth-first: a fragment's own imports are inlined before the
// fragment itself, so dependencies always precede dependents. Each name is
// resolved at most once per Resolve call; a name is marked before its imports
// are followed, which makes cyclic references terminate; each cycle is
// reported as an import_cycle diagnostic.
package imports

import (
	"context"
	"fmt"

	"github.com/uscompile/uscompile/internal/dag"
	"github.com/uscompile/uscompile/internal/diag"
	"github.com/uscompile/uscompile/pkg/header"
	"github.com/uscompile/uscompile/pkg/props"
)

type (
	// Resolver computes the transitive closure of import names.
	Resolver struct {
		source Source
	}

	// Result holds the inlined fragments of one artifact.
	Result struct {
		// Order lists import names in first-resolved order.
		Order []string
		// Bodies maps each import name to its body lines.
		Bodies map[string][]string
		// Paths lists the files of every resolved fragment, in Order.
		Paths []string
		// Diagnostics collects warnings raised while parsing fragments.
		Diagnostics []diag.Diagnostic
	}

	// resolution is the per-artifact accumulator threaded through the
	// recursive walk.
	resolution struct {
		seen   map[string]bool
		paths  map[string]string
		graph  *dag.Graph
		out    *props.Set
		result *Result
	}
)

// NewResolver creates a Resolver reading fragments from source.
func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// Resolve inlines names and everything they import. Grants and requires
// declared by fragments, inline or in their header, are merged into out.
// A missing fragment aborts resolution with an error wrapping ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, names []string, out *props.Set) (*Result, error) {
	res := &resolution{
		seen:  make(map[string]bool),
		paths: make(map[string]string),
		graph: dag.New(),
		out:   out,
		result: &Result{
			Bodies: make(map[string][]string),
		},
	}
	if err := r.resolve(ctx, res, names, nil); err != nil {
		return nil, err
	}
	for _, cycle := range res.graph.Cycles() {
		res.result.Diagnostics = append(res.result.Diagnostics,
			diag.Warn(diag.CodeImportCycle, res.paths[cycle.Cycle[0]], "import %s", cycle))
	}
	return res.result, nil
}

func (r *Resolver) resolve(ctx context.Context, res *resolution, names, chain []string) error {
	for _, name := range names {
		if res.seen[name] {
			continue
		}

		frag, err := r.source.Load(ctx, name)
		if err != nil {
			if len(chain) > 0 {
				return fmt.Errorf("resolve %q (imported by %q): %w", name, chain[len(chain)-1], err)
			}
			return fmt.Errorf("resolve %q: %w", name, err)
		}

		doc := header.Parse(header.Script, frag.Content)
		res.seen[name] = true
		res.paths[name] = frag.Path
		res.graph.AddNode(name)
		for _, imp := range doc.Imports {
			res.graph.AddEdge(name, imp)
		}

		if err := r.resolve(ctx, res, doc.Imports, append(chain, name)); err != nil {
			return err
		}

		mergeDeclarations(res.out, doc)
		res.result.Order = append(res.result.Order, name)
		res.result.Bodies[name] = doc.Body
		res.result.Paths = append(res.result.Paths, frag.Path)
		for _, s := range doc.Skipped {
			res.result.Diagnostics = append(res.result.Diagnostics, diag.SkippedHeaderLine(frag.Path, s.Line, s.Text))
		}
	}
	return nil
}

// mergeDeclarations copies grant and require declarations of a fragment into
// out. Header lines come first, then inline directives.
func mergeDeclarations(out *props.Set, doc *header.Document) {
	for _, key := range []string{props.GrantKey, props.RequireKey} {
		if v, ok := doc.Props.Get(key); ok {
			out.Put(key, v)
		}
	}
	for _, g := range doc.Grants {
		out.Add(props.GrantKey, g)
	}
	for _, r := range doc.Requires {
		out.Add(props.RequireKey, r)
	}
}
