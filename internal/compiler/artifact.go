// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"slices"

	"github.com/uscompile/uscompile/internal/diag"
	"github.com/uscompile/uscompile/internal/imports"
	"github.com/uscompile/uscompile/internal/issue"
	"github.com/uscompile/uscompile/pkg/header"
	"github.com/uscompile/uscompile/pkg/props"
)

// compileArtifact dispatches on the descriptor variant. Descriptors without
// a body file produce nothing.
func (c *Compiler) compileArtifact(ctx context.Context, b *build, rel string, d Descriptor, chain []*props.Set) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !d.files().HasBody {
		return nil
	}

	switch d := d.(type) {
	case *ScriptDescriptor:
		return c.compileScript(ctx, b, rel, d, chain)
	case *StyleDescriptor:
		return c.compileStyle(ctx, b, rel, d, chain)
	default:
		return fmt.Errorf("unknown descriptor %T", d)
	}
}

func (c *Compiler) compileScript(ctx context.Context, b *build, rel string, d *ScriptDescriptor, chain []*props.Set) error {
	doc := header.Parse(header.Script, d.Content)
	b.reportParse(d.BodyPath, doc)

	p := cascade(chain, d.Props, doc.Props, d.Base)
	names := append(slices.Clone(doc.Imports), p.TakeImports()...)
	for _, g := range doc.Grants {
		p.Add(props.GrantKey, g)
	}
	for _, r := range doc.Requires {
		p.Add(props.RequireKey, r)
	}

	res, err := c.resolver.Resolve(ctx, names, p)
	if err != nil {
		if errors.Is(err, imports.ErrNotFound) {
			return issue.NewErrorContext().
				WithOperation("compile script").
				WithResource(d.BodyPath).
				WithSuggestion("Create the missing fragment in the import directory or fix the @import{} name").
				WithIssue(issue.ImportNotFoundId).
				Wrap(fmt.Errorf("%w: %w", ErrMissingSource, err)).
				BuildError()
		}
		return fmt.Errorf("compile script %s: %w", d.BodyPath, err)
	}
	b.diags = append(b.diags, res.Diagnostics...)
	props.DropNoneGrant(p)

	outRel := path.Join(rel, OutputName(d))
	if err := c.finishProps(ctx, b, p, outRel, append(slices.Clone(d.Paths), res.Paths...)); err != nil {
		return err
	}
	b.manifest.Add(outRel, KindScript, p)

	if err := c.writeArtifact(outRel, renderScript(d.Base, p, res, doc.Body)); err != nil {
		return err
	}
	b.scripts++
	c.logger.Info("compiled", "path", outRel, "type", KindScript, "version", p.Lookup(props.VersionKey))
	return nil
}

func (c *Compiler) compileStyle(ctx context.Context, b *build, rel string, d *StyleDescriptor, chain []*props.Set) error {
	doc := header.Parse(header.Style, d.Content)
	b.reportParse(d.BodyPath, doc)

	p := cascade(chain, d.Props, doc.Props, d.Base)

	outRel := path.Join(rel, OutputName(d))
	if err := c.finishProps(ctx, b, p, outRel, d.Paths); err != nil {
		return err
	}
	b.manifest.Add(outRel, KindStyle, p)

	if err := c.writeArtifact(outRel, renderStyle(p, doc.Body)); err != nil {
		return err
	}
	b.styles++
	c.logger.Info("compiled", "path", outRel, "type", KindStyle, "version", p.Lookup(props.VersionKey))
	return nil
}

// cascade merges the inherited chain, the props file and the header. The
// artifact name is always its base name.
func cascade(chain []*props.Set, file, local *props.Set, base string) *props.Set {
	name := props.New()
	name.Add(props.NameKey, base)

	layers := make([]*props.Set, 0, len(chain)+3)
	layers = append(layers, chain...)
	layers = append(layers, file, local, name)
	return props.Merge(layers...)
}

// finishProps fills in version and description when the cascade left them
// empty. The version resolver is consulted only in that case.
func (c *Compiler) finishProps(ctx context.Context, b *build, p *props.Set, outRel string, paths []string) error {
	if !p.Has(props.VersionKey) {
		p.Delete(props.VersionKey)

		v, err := c.opts.Versions.Resolve(ctx, paths)
		if err != nil {
			return issue.NewErrorContext().
				WithOperation("derive version").
				WithResource(outRel).
				WithSuggestion("Declare @version explicitly or build with --no-git").
				WithIssue(issue.GitHistoryFailedId).
				Wrap(err).
				BuildError()
		}
		if v == "" {
			b.warn(diag.Warn(diag.CodeVersionUnresolved, outRel,
				"no version declared and none of its files has history; userscript managers will not detect updates"))
		} else {
			p.Add(props.VersionKey, v)
		}
	}

	if !p.Has(props.DescriptionKey) {
		p.Delete(props.DescriptionKey)
		p.Add(props.DescriptionKey, p.Lookup(props.NameKey))
	}
	return nil
}

func (c *Compiler) writeArtifact(outRel string, data []byte) error {
	p := filepath.Join(c.opts.OutputDir, filepath.FromSlash(outRel))
	if err := writeAtomic(p, data); err != nil {
		return outputWriteError(p, err)
	}
	return nil
}

// reportParse turns parser findings into diagnostics.
func (b *build) reportParse(src string, doc *header.Document) {
	for _, s := range doc.Skipped {
		b.warn(diag.SkippedHeaderLine(src, s.Line, s.Text))
	}
	if len(doc.Body) == 0 {
		b.warn(diag.Warn(diag.CodeEmptyBody, src, "body is empty"))
	}
}
