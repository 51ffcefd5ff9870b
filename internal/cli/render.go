package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/reservoir-charts/internal/pipeline"
)

func newRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw the trend and comparison charts",
		Long: `Load the levels and rainfall tables and draw, in order:

  figure 1   levels trend        saved as <plots-dir>/levels.<format>
  figure 2   rainfall trend      saved as <plots-dir>/rainfall.<format>
  figure 3+  one comparison per reservoir, saved as <plots-dir>/<RESERVOIR>.<format>

Charts are saved and not displayed unless --show/--save say otherwise.`,
		Example: `  # Save PDFs under plots/
  reservoir render

  # Show each chart in the terminal without saving, waiting for Enter between charts
  reservoir render --show --save=false

  # SVG documents through go-chart, report as YAML
  reservoir render --backend gochart --format svg -o yaml`,
		RunE: runRender,
	}

	cmd.Flags().Bool("show", false, "display each chart in the terminal")
	cmd.Flags().Bool("save", true, "save each chart as a document")
	cmd.Flags().String("display-mode", "", "block to wait for Enter after each displayed chart, nonblock to continue")
	cmd.Flags().String("metrics-textfile", "", "write Prometheus metrics to this file after the run")
	return cmd
}

func runRender(cmd *cobra.Command, _ []string) error {
	app, err := getApp(cmd)
	if err != nil {
		return err
	}
	cfg := app.Config

	p := pipeline.New(app.Loader(), app.Renderer(cmd.OutOrStdout(), cmd.InOrStdin()), app.Clock, app.Logger, app.Metrics)
	report, runErr := p.Run(cmd.Context(), pipeline.Options{
		LevelsPath:   cfg.LevelsPath(),
		RainfallPath: cfg.RainfallPath(),
		PlotsDir:     cfg.PlotsDir,
		Format:       cfg.Format,
		Show:         cfg.Show,
		Save:         cfg.Save,
	})

	if err := app.WriteMetrics(); err != nil {
		app.Logger.Warn("metrics textfile not written", "error", err)
	}
	if runErr != nil {
		return runErr
	}

	if app.Out.Structured() {
		return app.Out.Encode(report)
	}
	printReport(app, report)
	return nil
}

func printReport(app *App, report *pipeline.Report) {
	out := app.Out
	out.Header(fmt.Sprintf("Rendered %d charts in %s", len(report.Charts), report.Duration().Round(time.Millisecond)))

	tables := make([][]any, 0, len(report.Tables))
	for _, t := range report.Tables {
		tables = append(tables, []any{t.Name, t.Path, t.Rows, len(t.Series), t.First, t.Last})
	}
	out.Table([]string{"Table", "Path", "Rows", "Series", "First", "Last"}, tables)

	charts := make([][]any, 0, len(report.Charts))
	for _, c := range report.Charts {
		doc := c.Document
		if doc == "" {
			doc = "-"
		}
		charts = append(charts, []any{strconv.Itoa(c.Figure), c.Kind, c.Title, doc})
	}
	out.Table([]string{"Figure", "Kind", "Title", "Document"}, charts)
	out.Muted("%d documents written", len(report.Documents()))
}
