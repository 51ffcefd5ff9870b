// Package render turns reading tables into trend and comparison charts and
// hands them to an encoder for saving and a viewer for display.
package render

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/reservoir-charts/internal/domain"
	"github.com/couchcryptid/reservoir-charts/internal/observability"
)

// Encoder draws a plot as a document in the given format ("pdf", "svg", ...).
type Encoder interface {
	Encode(w io.Writer, p *Plot, format string) error
	Formats() []string
}

// Viewer displays a plot to the user. Whether Show blocks until the viewer is
// dismissed is up to the implementation.
type Viewer interface {
	Show(p *Plot) error
}

// Renderer draws charts into figures claimed from a shared registry. Every
// figure is released before a render call returns, whatever the outcome.
type Renderer struct {
	figures *Figures
	encoder Encoder
	viewer  Viewer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Renderer. viewer may be nil when charts are never shown. A
// nil metrics disables instrumentation.
func New(figures *Figures, encoder Encoder, viewer Viewer, logger *slog.Logger, metrics *observability.Metrics) *Renderer {
	return &Renderer{
		figures: figures,
		encoder: encoder,
		viewer:  viewer,
		logger:  logger,
		metrics: metrics,
	}
}

// Trend draws every series of table on one chart. Date and Cumulative are
// never plotted.
func (r *Renderer) Trend(table *domain.Table, opts TrendOptions) (*Plot, error) {
	start := clock.Now()
	if len(table.Series) == 0 {
		return nil, r.fail(KindTrend, fmt.Errorf("%w: table %q has no series to plot", domain.ErrRender, table.Name))
	}

	p := TrendPlot(table, opts.YLabel, opts.FigureID)
	if err := r.draw(p, opts.Show, opts.Save, filepath.Join(opts.SaveDir, opts.SaveName)); err != nil {
		return nil, r.fail(KindTrend, err)
	}
	r.done(p, start)
	return p, nil
}

// Comparisons draws one chart per levels series, overlaying the same-named
// rainfall series. Figure identifiers start at opts.FigureID and increase by
// one per series. Alignment of the two tables is checked before any figure
// is opened.
func (r *Renderer) Comparisons(levels, rainfall *domain.Table, opts ComparisonOptions) ([]*Plot, error) {
	if err := domain.CheckAligned(levels, rainfall); err != nil {
		return nil, r.fail(KindComparison, err)
	}

	plots := make([]*Plot, 0, len(levels.Series))
	for i, series := range levels.Series {
		start := clock.Now()
		p, err := ComparisonPlot(levels, rainfall, series, opts.FigureID+i)
		if err != nil {
			return nil, r.fail(KindComparison, err)
		}
		path := filepath.Join(opts.SaveDir, series+"."+opts.Format)
		if err := r.draw(p, opts.Show, opts.Save, path); err != nil {
			return nil, r.fail(KindComparison, err)
		}
		r.done(p, start)
		plots = append(plots, p)
	}
	return plots, nil
}

// Encode writes p as a document in format without touching the figure
// registry. It serves on-demand rendering where nothing is displayed.
func (r *Renderer) Encode(w io.Writer, p *Plot, format string) error {
	if err := r.encoder.Encode(w, p, format); err != nil {
		return fmt.Errorf("%w: encode %s %s: %w", domain.ErrRender, p.Kind, format, err)
	}
	return nil
}

// Formats lists the document formats the configured encoder supports.
func (r *Renderer) Formats() []string {
	return r.encoder.Formats()
}

// draw claims the plot's figure, then shows and saves it as requested. The
// figure is released on every path out.
func (r *Renderer) draw(p *Plot, show, save bool, path string) error {
	release, err := r.figures.Open(p.Figure)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRender, err)
	}
	defer release()

	p.RenderedAt = clock.Now()

	if show {
		if r.viewer == nil {
			return fmt.Errorf("%w: figure %d: no viewer configured", domain.ErrRender, p.Figure)
		}
		if err := r.viewer.Show(p); err != nil {
			return fmt.Errorf("%w: show figure %d: %w", domain.ErrRender, p.Figure, err)
		}
	}
	if save {
		if err := r.save(p, path); err != nil {
			return err
		}
		p.Path = path
	}
	return nil
}

// save encodes into memory first so a backend failure never leaves a partial
// document behind.
func (r *Renderer) save(p *Plot, path string) error {
	format := FormatFromPath(path)
	if format == "" {
		return fmt.Errorf("%w: %s has no format extension", domain.ErrSave, path)
	}

	var buf bytes.Buffer
	if err := r.Encode(&buf, p, format); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: create directory for %s: %w", domain.ErrSave, path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrSave, path, err)
	}

	if r.metrics != nil {
		r.metrics.DocumentsSaved.WithLabelValues(format).Inc()
	}
	r.logger.Debug("chart saved", "path", path, "figure", p.Figure, "bytes", buf.Len())
	return nil
}

func (r *Renderer) done(p *Plot, start time.Time) {
	if r.metrics != nil {
		r.metrics.ChartsRendered.WithLabelValues(p.Kind).Inc()
		r.metrics.RenderDuration.WithLabelValues(p.Kind).Observe(clock.Since(start).Seconds())
	}
	r.logger.Debug("chart rendered",
		"kind", p.Kind,
		"figure", p.Figure,
		"title", p.Title,
		"lines", len(p.Lines),
	)
}

func (r *Renderer) fail(kind string, err error) error {
	if r.metrics != nil {
		r.metrics.RenderErrors.WithLabelValues(kind).Inc()
	}
	r.logger.Debug("chart failed", "kind", kind, "error", err)
	return err
}
