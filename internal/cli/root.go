// Package cli provides the reservoir command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/reservoir-charts/internal/adapter/csvfile"
	"github.com/couchcryptid/reservoir-charts/internal/adapter/gochart"
	"github.com/couchcryptid/reservoir-charts/internal/adapter/gonumplot"
	"github.com/couchcryptid/reservoir-charts/internal/adapter/terminal"
	"github.com/couchcryptid/reservoir-charts/internal/cli/output"
	"github.com/couchcryptid/reservoir-charts/internal/config"
	"github.com/couchcryptid/reservoir-charts/internal/observability"
	"github.com/couchcryptid/reservoir-charts/internal/render"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// appKey is used to store the App in the command context.
type appKey struct{}

// App carries what every command needs once configuration is loaded.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Clock    clockwork.Clock
	Out      *output.Renderer
}

// NewRootCmd creates the root command and all subcommands.
func NewRootCmd() *cobra.Command {
	var cfgFile, envFile string

	rootCmd := &cobra.Command{
		Use:   "reservoir",
		Short: "Chart reservoir levels and rainfall over time",
		Long: `reservoir loads day-first reservoir level and rainfall tables, adds a
per-row Cumulative total and draws trend and level-versus-rainfall charts.

Settings come from defaults, ./reservoir.yaml, RESERVOIR_* environment
variables (a .env file is honoured) and flags, in increasing precedence.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(config.Sources{File: cfgFile, EnvFile: envFile, Flags: cmd.Flags()})
			if err != nil {
				return err
			}
			app := newApp(cfg, cmd.ErrOrStderr(), cmd.OutOrStdout())
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, app))
			app.Logger.Debug("config loaded", "command", cmd.Name(), "backend", cfg.Backend, "format", cfg.Format)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./"+config.DefaultFile+")")
	pf.StringVar(&envFile, "env-file", "", "dotenv file (default: ./.env)")
	pf.String("data-dir", "", "directory holding the reading files")
	pf.String("levels-file", "", "levels file, relative to --data-dir")
	pf.String("rainfall-file", "", "rainfall file, relative to --data-dir")
	pf.String("plots-dir", "", "directory charts are saved to")
	pf.String("format", "", "document format (pdf|svg|eps|png|jpg|tif)")
	pf.String("backend", "", "chart backend (gonum|gochart)")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.String("log-format", "", "log format (json|text)")
	pf.StringP("output", "o", "", "output format (text|json|yaml)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("backend", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"gonum", "gochart"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newSummaryCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newSampleCommand())
	rootCmd.AddCommand(newServeCommand())

	return rootCmd
}

// Execute runs the root command with ctx and prints any error to stderr.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

// newApp wires the logger and a private metrics registry. The registry
// carries the Go and process collectors so /metrics and the textfile export
// look like a regular Prometheus target.
func newApp(cfg *config.Config, logOut, out io.Writer) *App {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &App{
		Config:   cfg,
		Logger:   observability.NewLogger(cfg.LogLevel, cfg.LogFormat, logOut),
		Registry: reg,
		Metrics:  observability.NewMetricsWith(reg),
		Clock:    clockwork.NewRealClock(),
		Out:      output.NewRenderer(out, output.Mode(cfg.Output)),
	}
}

// getApp retrieves the App stored by the root command.
func getApp(cmd *cobra.Command) (*App, error) {
	if app, ok := cmd.Context().Value(appKey{}).(*App); ok {
		return app, nil
	}
	return nil, fmt.Errorf("%s: configuration was not loaded", cmd.Name())
}

// Loader returns a CSV loader reporting into the app's metrics.
func (a *App) Loader() *csvfile.Loader {
	return csvfile.NewLoader(csvfile.DefaultOptions(), a.Logger, a.Metrics)
}

// Encoder returns the configured chart backend.
func (a *App) Encoder() render.Encoder {
	if a.Config.Backend == "gochart" {
		return gochart.New(a.Config.ChartWidth, a.Config.ChartHeight)
	}
	return gonumplot.New(a.Config.ChartWidth, a.Config.ChartHeight)
}

// Renderer returns a chart renderer. When a viewer is needed it draws on out
// and, in block mode, waits for Enter on in.
func (a *App) Renderer(out io.Writer, in io.Reader) *render.Renderer {
	viewer := terminal.New(out, in, terminal.Options{
		Width:  a.Config.DisplayWidth,
		Height: a.Config.DisplayHeight,
		Block:  a.Config.DisplayMode == "block",
	})
	return render.New(render.NewFigures(a.Metrics.FiguresOpen), a.Encoder(), viewer, a.Logger, a.Metrics)
}

// WriteMetrics exports the registry to the configured textfile, if any.
func (a *App) WriteMetrics() error {
	if a.Config.MetricsTextfile == "" {
		return nil
	}
	if err := observability.WriteTextfile(a.Config.MetricsTextfile, a.Registry); err != nil {
		return err
	}
	a.Logger.Debug("metrics written", "path", a.Config.MetricsTextfile)
	return nil
}
