// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	verbose    bool
	configPath string
}

// NewRootCommand builds the uscompile command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "uscompile",
		Short: "Compile userscripts and userstyles from annotated sources",
		Long: TitleStyle.Render("uscompile") + SubtitleStyle.Render(" - a userscript and userstyle compiler") + `

uscompile turns a tree of annotated script and style fragments into
standalone *.user.js and *.user.css files. Imports are inlined once,
properties cascade from common.props.json files, and versions fall back
to the git history of the sources.

` + SubtitleStyle.Render("Examples:") + `
  uscompile build                    Compile src/ into dist/
  uscompile build --watch            Rebuild whenever a source changes
  uscompile manifest                 List the compiled artifacts
  uscompile config init              Write uscompile.cue with the defaults`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging and full error chains")
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default ./uscompile.cue, then the user config directory)")

	root.AddCommand(
		newBuildCommand(app, g),
		newManifestCommand(app, g),
		newConfigCommand(app, g),
	)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the code carried by an ExitError.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// handleError leaves ExitErrors alone since their command already rendered
// them; everything else (flag parsing, unknown commands) goes to fang.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
