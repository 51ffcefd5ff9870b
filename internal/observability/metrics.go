package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for loading and rendering.
type Metrics struct {
	TablesLoaded prometheus.Counter
	RowsLoaded   prometheus.Counter
	LoadErrors   prometheus.Counter

	// Rendering metrics.
	ChartsRendered   *prometheus.CounterVec   // labels: kind={trend,comparison}
	RenderErrors     *prometheus.CounterVec   // labels: kind={trend,comparison}
	RenderDuration   *prometheus.HistogramVec // labels: kind={trend,comparison}
	DocumentsSaved   *prometheus.CounterVec   // labels: format={pdf,svg,png,...}
	FiguresOpen      prometheus.Gauge
	ChartRequests    *prometheus.CounterVec // labels: route, outcome={success,error}
	LastRunSucceeded prometheus.Gauge
}

// NewMetricsWith creates metrics registered with reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		TablesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reservoir",
			Name:      "tables_loaded_total",
			Help:      "Total reading tables loaded from disk.",
		}),
		RowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reservoir",
			Name:      "rows_loaded_total",
			Help:      "Total reading rows loaded from disk.",
		}),
		LoadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reservoir",
			Name:      "load_errors_total",
			Help:      "Total reading files that failed to load.",
		}),
		ChartsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reservoir",
			Name:      "charts_rendered_total",
			Help:      "Charts rendered by kind.",
		}, []string{"kind"}),
		RenderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reservoir",
			Name:      "render_errors_total",
			Help:      "Chart rendering failures by kind.",
		}, []string{"kind"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reservoir",
			Name:      "render_duration_seconds",
			Help:      "Time to build, display and save one chart.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"kind"}),
		DocumentsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reservoir",
			Name:      "documents_saved_total",
			Help:      "Chart documents written to disk by format.",
		}, []string{"format"}),
		FiguresOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "reservoir",
			Name:      "figures_open",
			Help:      "Figures currently held open by a renderer.",
		}),
		ChartRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reservoir",
			Name:      "chart_requests_total",
			Help:      "HTTP chart requests by route and outcome.",
		}, []string{"route", "outcome"}),
		LastRunSucceeded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "reservoir",
			Name:      "last_run_success",
			Help:      "1 when the last render run completed without error, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.TablesLoaded,
		m.RowsLoaded,
		m.LoadErrors,
		m.ChartsRendered,
		m.RenderErrors,
		m.RenderDuration,
		m.DocumentsSaved,
		m.FiguresOpen,
		m.ChartRequests,
		m.LastRunSucceeded,
	}
}
