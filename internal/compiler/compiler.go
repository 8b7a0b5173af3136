// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"

	"github.com/uscompile/uscompile/internal/diag"
	"github.com/uscompile/uscompile/internal/imports"
	"github.com/uscompile/uscompile/internal/issue"
	"github.com/uscompile/uscompile/internal/version"
)

var (
	// ErrMissingSource is returned when an imported fragment does not exist.
	// It wraps the imports.ErrNotFound cause.
	ErrMissingSource = errors.New("missing import source")

	// ErrOutputWrite is returned when an artifact or the manifest cannot be
	// written.
	ErrOutputWrite = errors.New("output write failed")

	// ErrNoSourceDir is returned when the source directory does not exist.
	ErrNoSourceDir = errors.New("source directory not found")
)

type (
	// Options configures a Compiler.
	Options struct {
		// SourceDir is the root of the source tree.
		SourceDir string
		// OutputDir receives the compiled tree and the manifest.
		OutputDir string
		// ImportDir holds importable fragments. Ignored when Imports is set.
		ImportDir string
		// ManifestName is the manifest file name. Defaults to
		// DefaultManifestName.
		ManifestName string
		// Imports looks up fragments by name. Defaults to a DirSource over
		// ImportDir.
		Imports imports.Source
		// Versions derives versions for artifacts that declare none.
		// Defaults to version.None.
		Versions version.Resolver
		// Logger receives progress output. Defaults to a discarding logger.
		Logger *log.Logger
	}

	// Compiler compiles a source tree.
	Compiler struct {
		opts     Options
		resolver *imports.Resolver
		logger   *log.Logger
	}

	// Result summarizes a completed build.
	Result struct {
		// Manifest describes every compiled artifact.
		Manifest *Manifest
		// ManifestPath is where the manifest was written.
		ManifestPath string
		// Diagnostics lists warnings raised during the build.
		Diagnostics []diag.Diagnostic
		// Scripts is the number of compiled userscripts.
		Scripts int
		// Styles is the number of compiled userstyles.
		Styles int
	}

	// build is the accumulator shared by every directory of one Build call.
	build struct {
		manifest *Manifest
		diags    []diag.Diagnostic
		scripts  int
		styles   int
		// ancestors holds the resolved paths of the directories being compiled,
		// outermost first.
		ancestors []string
	}
)

// New creates a Compiler, filling in defaults for unset options.
func New(opts Options) *Compiler {
	if opts.ManifestName == "" {
		opts.ManifestName = DefaultManifestName
	}
	if opts.Imports == nil {
		opts.Imports = imports.DirSource{Dir: opts.ImportDir}
	}
	if opts.Versions == nil {
		opts.Versions = version.None
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Compiler{
		opts:     opts,
		resolver: imports.NewResolver(opts.Imports),
		logger:   logger,
	}
}

// Build compiles the whole source tree and writes the manifest. Any read
// or write failure aborts the build; no manifest is written in that case.
func (c *Compiler) Build(ctx context.Context) (*Result, error) {
	info, err := os.Stat(c.opts.SourceDir)
	if err != nil || !info.IsDir() {
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			err = ErrNoSourceDir
		} else {
			err = fmt.Errorf("%w: %w", ErrNoSourceDir, err)
		}
		return nil, issue.NewErrorContext().
			WithOperation("compile source tree").
			WithResource(c.opts.SourceDir).
			WithSuggestion("Pass the source directory with --src or set source_dir in the config").
			WithIssue(issue.SourceDirNotFoundId).
			Wrap(err).
			BuildError()
	}

	b := &build{manifest: NewManifest()}
	if err := c.compileDir(ctx, b, "", nil); err != nil {
		return nil, err
	}

	return &Result{
		Manifest:     b.manifest,
		ManifestPath: c.manifestPath(),
		Diagnostics:  b.diags,
		Scripts:      b.scripts,
		Styles:       b.styles,
	}, nil
}

func (b *build) warn(d diag.Diagnostic) {
	b.diags = append(b.diags, d)
}

func outputWriteError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("write output").
		WithResource(path).
		WithSuggestion("Check that the output directory is writable").
		WithIssue(issue.OutputWriteFailedId).
		Wrap(fmt.Errorf("%w: %w", ErrOutputWrite, err)).
		BuildError()
}
