// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uscompile/uscompile/internal/config"
	"github.com/uscompile/uscompile/internal/issue"
)

// newConfigCommand creates the `uscompile config` command tree.
func newConfigCommand(app *App, g *globalFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the uscompile configuration",
		Long: `Inspect or create the uscompile configuration.

Configuration is read from the first of:
  - the file given with --config
  - ./` + config.LocalConfigFile + `
  - the user config directory (see 'uscompile config path')

USCOMPILE_* environment variables, also read from ./.env, override file
values. Flags of 'uscompile build' override both.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd.Context(), app, g)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context(), g)
			if err != nil {
				return app.fail(err, g.verbose)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	var global bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(app, g, global)
		},
	}
	initCmd.Flags().BoolVar(&global, "global", false, "write to the user config directory instead of ./"+config.LocalConfigFile)
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show where configuration is looked up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfigPath(cmd.Context(), app, g)
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App, g *globalFlags) error {
	cfg, err := app.loadConfig(ctx, g)
	if err != nil {
		return app.fail(err, g.verbose)
	}

	w := app.stdout
	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("Config file"), sourceLabel(cfg))
	fmt.Fprintln(w)

	rows := []struct{ key, value string }{
		{"source_dir", cfg.SourceDir},
		{"output_dir", cfg.OutputDir},
		{"import_dir", cfg.ImportDir},
		{"manifest_file", cfg.ManifestFile},
		{"version.git", strconv.FormatBool(cfg.Version.Git)},
		{"version.repo_dir", orNone(cfg.Version.RepoDir)},
		{"imports.cache_size", strconv.Itoa(cfg.Imports.CacheSize)},
		{"watch.debounce", cfg.Watch.Debounce.String()},
		{"watch.ignore", orNone(strings.Join(cfg.Watch.Ignore, ", "))},
		{"log.level", cfg.Log.Level.String()},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render(r.key), SuccessStyle.Render(r.value))
	}
	return nil
}

func initConfig(app *App, g *globalFlags, global bool) error {
	path := config.LocalConfigFile
	if global {
		userPath, err := config.UserConfigPath()
		if err != nil {
			return app.fail(issue.WrapWithContext(err, "locate the user config directory", ""), g.verbose)
		}
		path = userPath
	}

	written, err := config.WriteDefault(path)
	if err != nil {
		return app.fail(issue.WrapWithContext(err, "write configuration", path), g.verbose)
	}
	if !written {
		fmt.Fprintf(app.stdout, "%s %s already exists, left unchanged\n", WarningStyle.Render("!"), path)
		return nil
	}
	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath(ctx context.Context, app *App, g *globalFlags) error {
	w := app.stdout
	local, err := filepath.Abs(config.LocalConfigFile)
	if err != nil {
		local = config.LocalConfigFile
	}
	fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("Project config"), local)

	if userPath, err := config.UserConfigPath(); err == nil {
		fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("User config"), userPath)
	}

	cfg, err := app.loadConfig(ctx, g)
	if err != nil {
		return app.fail(err, g.verbose)
	}
	fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("In use"), sourceLabel(cfg))
	return nil
}

func sourceLabel(cfg *config.Config) string {
	if cfg.Source == "" {
		return SubtitleStyle.Render("(using defaults)")
	}
	return cfg.Source
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
