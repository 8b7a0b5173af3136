// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/uscompile/uscompile/internal/compiler"
	"github.com/uscompile/uscompile/internal/issue"
	"github.com/uscompile/uscompile/pkg/props"
)

// manifestColumns are the properties shown per artifact, after its path.
var manifestColumns = []string{props.NameKey, props.VersionKey, props.DescriptionKey}

func newManifestCommand(app *App, g *globalFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "List the compiled artifacts recorded in the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runManifest(cmd.Context(), app, g, out)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output directory holding the manifest (default from config: dist)")
	return cmd
}

func runManifest(ctx context.Context, app *App, g *globalFlags, out string) error {
	cfg, err := app.loadConfig(ctx, g)
	if err != nil {
		return app.fail(err, g.verbose)
	}
	if out != "" {
		cfg.OutputDir = out
	}

	path := filepath.Join(cfg.OutputDir, cfg.ManifestFile)
	m, err := compiler.LoadManifest(path)
	if err != nil {
		ctxErr := issue.NewErrorContext().
			WithOperation("read manifest").
			WithResource(path).
			Wrap(err)
		if errors.Is(err, fs.ErrNotExist) {
			ctxErr = ctxErr.
				WithSuggestion("Run 'uscompile build' to compile the sources first").
				WithSuggestion("Pass the output directory with --out if it is not " + cfg.OutputDir).
				WithIssue(issue.ManifestNotFoundId)
		}
		return app.fail(ctxErr.BuildError(), g.verbose)
	}

	fmt.Fprint(app.stdout, renderManifest(m))
	return nil
}

// renderManifest renders one table per artifact kind, scripts first.
func renderManifest(m *compiler.Manifest) string {
	if m.Len() == 0 {
		return SubtitleStyle.Render("(no artifacts in the manifest)") + "\n"
	}

	sections := []struct {
		kind  compiler.Kind
		title string
	}{
		{compiler.KindScript, "Userscripts"},
		{compiler.KindStyle, "Userstyles"},
	}

	var b strings.Builder
	for _, s := range sections {
		var rows [][]string
		for _, e := range m.Entries() {
			if e.Kind() != s.kind {
				continue
			}
			row := []string{e.Path}
			for _, key := range manifestColumns {
				row = append(row, e.Get(key))
			}
			rows = append(rows, row)
		}
		if len(rows) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s\n", TitleStyle.Render(s.title), SubtitleStyle.Render(fmt.Sprintf("(%d)", len(rows))))
		b.WriteString(manifestTable(rows).String())
		b.WriteString("\n")
	}
	return b.String()
}

func manifestTable(rows [][]string) *table.Table {
	headers := []string{"path"}
	headers = append(headers, manifestColumns...)
	for i, h := range headers {
		headers[i] = strings.ToUpper(h)
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tableBorderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
}
