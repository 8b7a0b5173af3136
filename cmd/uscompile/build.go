// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/uscompile/uscompile/internal/compiler"
	"github.com/uscompile/uscompile/internal/config"
	"github.com/uscompile/uscompile/internal/imports"
	"github.com/uscompile/uscompile/internal/version"
	"github.com/uscompile/uscompile/internal/watch"
)

// watchPatterns select the files whose change triggers a rebuild, relative
// to the source or import root.
var watchPatterns = []string{
	"**/*.user.js",
	"**/*.user.css",
	"**/*" + compiler.PropsExt,
	"**/*.js",
}

type buildFlags struct {
	src     string
	out     string
	imports string
	watch   bool
	noGit   bool
}

// apply overrides configuration values with the flags that were set.
func (f *buildFlags) apply(cfg *config.Config) {
	if f.src != "" {
		cfg.SourceDir = f.src
	}
	if f.out != "" {
		cfg.OutputDir = f.out
	}
	if f.imports != "" {
		cfg.ImportDir = f.imports
	}
	if f.noGit {
		cfg.Version.Git = false
	}
}

func newBuildCommand(app *App, g *globalFlags) *cobra.Command {
	f := &buildFlags{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile the source tree into userscripts and userstyles",
		Long: `Compile every *.user.js and *.user.css below the source directory.

Outputs mirror the source layout under the output directory, and a manifest
describing every artifact is written at the output root.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd.Context(), app, g, f)
		},
	}

	cmd.Flags().StringVar(&f.src, "src", "", "source directory (default from config: src)")
	cmd.Flags().StringVar(&f.out, "out", "", "output directory (default from config: dist)")
	cmd.Flags().StringVar(&f.imports, "imports", "", "import directory (default from config: snippet)")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "rebuild when a source or import changes")
	cmd.Flags().BoolVar(&f.noGit, "no-git", false, "do not derive missing versions from git history")
	return cmd
}

func runBuild(ctx context.Context, app *App, g *globalFlags, f *buildFlags) error {
	cfg, err := app.loadConfig(ctx, g)
	if err != nil {
		return app.fail(err, g.verbose)
	}
	f.apply(cfg)
	logger := app.newLogger(cfg, g.verbose)

	cache, err := imports.NewCachedSource(imports.DirSource{Dir: cfg.ImportDir}, cfg.Imports.CacheSize)
	if err != nil {
		return app.fail(err, g.verbose)
	}
	c := compiler.New(compiler.Options{
		SourceDir:    cfg.SourceDir,
		OutputDir:    cfg.OutputDir,
		ImportDir:    cfg.ImportDir,
		ManifestName: cfg.ManifestFile,
		Imports:      cache,
		Versions:     versionResolver(cfg),
		Logger:       logger,
	})

	if !f.watch {
		if err := app.buildOnce(ctx, c, logger, cfg); err != nil {
			return app.fail(err, g.verbose)
		}
		return nil
	}
	return app.watchBuild(ctx, c, cache, cfg, logger, g.verbose)
}

func versionResolver(cfg *config.Config) version.Resolver {
	if !cfg.Version.Git {
		return version.None
	}
	return version.NewGit(cfg.Version.RepoDir)
}

// buildOnce runs one build and prints its diagnostics and a summary.
func (a *App) buildOnce(ctx context.Context, c *compiler.Compiler, logger *log.Logger, cfg *config.Config) error {
	res, err := c.Build(ctx)
	if err != nil {
		return err
	}
	renderDiagnostics(logger, res.Diagnostics)
	fmt.Fprintf(a.stdout, "%s %d scripts, %d styles → %s\n",
		SuccessStyle.Render("✓"), res.Scripts, res.Styles, cfg.OutputDir)
	return nil
}

// watchBuild builds once, then rebuilds on every settled change below the
// source and import directories until ctx ends. Failed rebuilds are reported
// and watching continues.
func (a *App) watchBuild(ctx context.Context, c *compiler.Compiler, cache *imports.CachedSource, cfg *config.Config, logger *log.Logger, verbose bool) error {
	if err := a.buildOnce(ctx, c, logger, cfg); err != nil {
		a.report(err, verbose)
	}

	roots := []string{cfg.SourceDir}
	if info, err := os.Stat(cfg.ImportDir); err == nil && info.IsDir() {
		roots = append(roots, cfg.ImportDir)
	}

	w, err := watch.New(watch.Config{
		Roots:    roots,
		Patterns: watchPatterns,
		Ignore:   cfg.Watch.Ignore,
		Exclude:  []string{cfg.OutputDir},
		Debounce: cfg.Watch.Debounce,
		Logger:   logger,
		OnChange: func(ctx context.Context, changed []string) error {
			logger.Info("rebuilding", "changed", len(changed))
			cache.Purge()
			if err := a.buildOnce(ctx, c, logger, cfg); err != nil {
				a.report(err, verbose)
			}
			return nil
		},
	})
	if err != nil {
		return a.fail(err, verbose)
	}

	logger.Info("watching for changes", "roots", w.Roots())
	if err := w.Run(ctx); err != nil {
		return a.fail(err, verbose)
	}
	return nil
}
