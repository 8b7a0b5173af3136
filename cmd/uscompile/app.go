// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/uscompile/uscompile/internal/config"
	"github.com/uscompile/uscompile/internal/diag"
	"github.com/uscompile/uscompile/internal/issue"
)

// issueStyle is the glamour style used for issue catalog entries. "auto"
// falls back to plain text when stdout is not a terminal.
const issueStyle = "auto"

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives the same App.
	App struct {
		Config ConfigProvider
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{
		Config: deps.Config,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
}

// loadConfig loads the configuration selected by the global flags.
func (a *App) loadConfig(ctx context.Context, g *globalFlags) (*config.Config, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: g.configPath})
}

// newLogger builds the stderr logger. --verbose wins over log.level.
func (a *App) newLogger(cfg *config.Config, verbose bool) *log.Logger {
	level := log.InfoLevel
	if parsed, err := log.ParseLevel(string(cfg.Log.Level)); err == nil {
		level = parsed
	}
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
}

// renderDiagnostics logs each diagnostic as a warning.
func renderDiagnostics(logger *log.Logger, diags []diag.Diagnostic) {
	for _, d := range diags {
		kv := []any{"code", d.Code}
		if d.Path != "" {
			kv = append(kv, "path", d.Path)
		}
		if d.Line > 0 {
			kv = append(kv, "line", d.Line)
		}
		logger.Warn(d.Message, kv...)
	}
}

// report prints err to stderr, followed by its issue catalog entry if it
// carries one.
func (a *App) report(err error, verbose bool) {
	msg := err.Error()
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		msg = ae.Format(verbose)
	}
	fmt.Fprintln(a.stderr, ErrorStyle.Render("✗")+" "+msg)

	entry := issue.IssueOf(err)
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render(issueStyle)
	if renderErr != nil {
		fmt.Fprintln(a.stderr, WarningStyle.Render("could not render help: ")+renderErr.Error())
		return
	}
	fmt.Fprint(a.stderr, rendered)
}

// fail reports err and turns it into an ExitError.
func (a *App) fail(err error, verbose bool) error {
	a.report(err, verbose)
	return &ExitError{Code: 1, Err: err}
}
