// Package pipeline loads the levels and rainfall tables and drives the chart
// renderers over them.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/reservoir-charts/internal/domain"
	"github.com/couchcryptid/reservoir-charts/internal/observability"
	"github.com/couchcryptid/reservoir-charts/internal/render"
)

// TableLoader reads one reading file into a table.
type TableLoader interface {
	Load(path string) (*domain.Table, error)
}

// ChartRenderer draws trend and comparison charts.
type ChartRenderer interface {
	Trend(table *domain.Table, opts render.TrendOptions) (*render.Plot, error)
	Comparisons(levels, rainfall *domain.Table, opts render.ComparisonOptions) ([]*render.Plot, error)
}

// Options selects the inputs of a run and what happens to each chart.
type Options struct {
	LevelsPath   string
	RainfallPath string
	PlotsDir     string
	Format       string // document extension without the dot
	Show         bool
	Save         bool
}

// Pipeline renders the levels trend, the rainfall trend and one comparison
// chart per reservoir, in that order.
type Pipeline struct {
	loader   TableLoader
	renderer ChartRenderer
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Pipeline with the given stages and observability.
func New(loader TableLoader, renderer ChartRenderer, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		loader:   loader,
		renderer: renderer,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run executes one full render pass. The first error stops the run; the
// report still lists everything finished before it.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{StartedAt: p.clock.Now()}
	p.logger.Info("render run started", "levels", opts.LevelsPath, "rainfall", opts.RainfallPath, "save", opts.Save, "show", opts.Show)

	err := p.run(ctx, opts, report)
	report.FinishedAt = p.clock.Now()
	if err != nil {
		p.metrics.LastRunSucceeded.Set(0)
		p.logger.Error("render run failed", "error", err, "charts", len(report.Charts))
		return report, err
	}

	p.metrics.LastRunSucceeded.Set(1)
	p.logger.Info("render run finished",
		"charts", len(report.Charts),
		"documents", len(report.Documents()),
		"duration", report.Duration(),
	)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, opts Options, report *Report) error {
	ds, err := LoadDataset(p.loader, opts.LevelsPath, opts.RainfallPath)
	if err != nil {
		return err
	}
	report.Tables = []TableSummary{
		summarize(domain.LevelsName, opts.LevelsPath, ds.Levels),
		summarize(domain.RainfallName, opts.RainfallPath, ds.Rainfall),
	}

	trends := []struct {
		name  string
		table *domain.Table
	}{
		{domain.LevelsName, ds.Levels},
		{domain.RainfallName, ds.Rainfall},
	}
	for i, tr := range trends {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("render run cancelled: %w", err)
		}
		plot, err := p.renderer.Trend(tr.table, render.TrendOptions{
			Show:     opts.Show,
			Save:     opts.Save,
			FigureID: i + 1,
			YLabel:   render.YLabelFor(tr.name),
			SaveDir:  opts.PlotsDir,
			SaveName: tr.name + "." + opts.Format,
		})
		if err != nil {
			return fmt.Errorf("render %s trend: %w", tr.name, err)
		}
		report.add(plot)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("render run cancelled: %w", err)
	}
	plots, err := p.renderer.Comparisons(ds.Levels, ds.Rainfall, render.ComparisonOptions{
		Show:     opts.Show,
		Save:     opts.Save,
		FigureID: len(trends) + 1,
		SaveDir:  opts.PlotsDir,
		Format:   opts.Format,
	})
	if err != nil {
		return fmt.Errorf("render comparisons: %w", err)
	}
	for _, plot := range plots {
		report.add(plot)
	}
	return nil
}

// LoadDataset loads both tables of a run.
func LoadDataset(loader TableLoader, levelsPath, rainfallPath string) (*domain.Dataset, error) {
	levels, err := loader.Load(levelsPath)
	if err != nil {
		return nil, fmt.Errorf("load levels: %w", err)
	}
	rainfall, err := loader.Load(rainfallPath)
	if err != nil {
		return nil, fmt.Errorf("load rainfall: %w", err)
	}
	return &domain.Dataset{Levels: levels, Rainfall: rainfall}, nil
}

func summarize(name, path string, t *domain.Table) TableSummary {
	s := TableSummary{Name: name, Path: path, Rows: t.Len(), Series: t.Series}
	if first, last := t.Span(); !first.IsZero() {
		s.First = domain.FormatDate(first)
		s.Last = domain.FormatDate(last)
	}
	return s
}

// Report describes one render run.
type Report struct {
	StartedAt  time.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time      `json:"finished_at" yaml:"finished_at"`
	Tables     []TableSummary `json:"tables" yaml:"tables"`
	Charts     []ChartSummary `json:"charts" yaml:"charts"`
}

// TableSummary describes one loaded table.
type TableSummary struct {
	Name   string   `json:"name" yaml:"name"`
	Path   string   `json:"path" yaml:"path"`
	Rows   int      `json:"rows" yaml:"rows"`
	Series []string `json:"series" yaml:"series"`
	First  string   `json:"first,omitempty" yaml:"first,omitempty"`
	Last   string   `json:"last,omitempty" yaml:"last,omitempty"`
}

// ChartSummary describes one rendered chart.
type ChartSummary struct {
	Figure   int    `json:"figure" yaml:"figure"`
	Kind     string `json:"kind" yaml:"kind"`
	Title    string `json:"title" yaml:"title"`
	Document string `json:"document,omitempty" yaml:"document,omitempty"`
}

func (r *Report) add(p *render.Plot) {
	r.Charts = append(r.Charts, ChartSummary{Figure: p.Figure, Kind: p.Kind, Title: p.Title, Document: p.Path})
}

// Documents lists the files written during the run.
func (r *Report) Documents() []string {
	var docs []string
	for _, c := range r.Charts {
		if c.Document != "" {
			docs = append(docs, c.Document)
		}
	}
	return docs
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
