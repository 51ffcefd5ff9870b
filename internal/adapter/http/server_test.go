package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/reservoir-charts/internal/adapter/http"
	"github.com/couchcryptid/reservoir-charts/internal/domain"
	"github.com/couchcryptid/reservoir-charts/internal/observability"
	"github.com/couchcryptid/reservoir-charts/internal/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockCatalog struct {
	ds  *domain.Dataset
	err error
}

func (m *mockCatalog) CheckReadiness(_ context.Context) error { return m.err }

func (m *mockCatalog) Dataset() (*domain.Dataset, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.ds, nil
}

type mockCharts struct {
	err   error
	plots []*render.Plot
}

func (m *mockCharts) Encode(w io.Writer, p *render.Plot, format string) error {
	if m.err != nil {
		return m.err
	}
	m.plots = append(m.plots, p)
	_, err := fmt.Fprintf(w, "<%s>%s</%s>", format, p.Title, format)
	return err
}

func (m *mockCharts) Formats() []string { return []string{"svg", "png"} }

// --- fixtures ---

func dataset(t *testing.T) *domain.Dataset {
	t.Helper()
	d1 := time.Date(2004, time.January, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2004, time.January, 2, 0, 0, 0, 0, time.UTC)

	levels, err := domain.NewTable("chennai_reservoir_levels", []string{"POONDI", "CHOLAVARAM"}, []domain.Row{
		{Date: d1, Values: []float64{3.5, 0.1}},
		{Date: d2, Values: []float64{3.3, math.NaN()}},
	})
	require.NoError(t, err)
	rainfall, err := domain.NewTable("chennai_reservoir_rainfall", []string{"POONDI", "CHOLAVARAM"}, []domain.Row{
		{Date: d1, Values: []float64{0, 0}},
		{Date: d2, Values: []float64{12, 4}},
	})
	require.NoError(t, err)
	return &domain.Dataset{Levels: levels, Rainfall: rainfall}
}

type fixture struct {
	srv     *httpadapter.Server
	catalog *mockCatalog
	charts  *mockCharts
	metrics *observability.Metrics
}

func newFixture(t *testing.T, catalogErr error) *fixture {
	t.Helper()
	f := &fixture{charts: &mockCharts{}, metrics: observability.NewMetricsForTesting()}
	f.catalog = &mockCatalog{ds: dataset(t), err: catalogErr}
	f.srv = httpadapter.NewServer(":0", f.catalog, f.charts, prometheus.DefaultGatherer, f.metrics, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

// --- tests ---

func TestHealthzReturns200(t *testing.T) {
	rec := newFixture(t, nil).get("/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := newFixture(t, nil).get("/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := newFixture(t, errors.New("tables not loaded yet")).get("/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "tables not loaded yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := newFixture(t, nil).get("/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestTrendChart(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.get("/charts/trend/rainfall")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<svg>Time vs Reservoir rainfall</svg>", rec.Body.String())

	require.Len(t, f.charts.plots, 1)
	assert.Equal(t, []string{"POONDI", "CHOLAVARAM"}, f.charts.plots[0].Legend.Entries)
	assert.InDelta(t, 1.0, testutil.ToFloat64(f.metrics.ChartRequests.WithLabelValues("trend", "success")), 0)
}

func TestTrendChart_PNG(t *testing.T) {
	rec := newFixture(t, nil).get("/charts/trend/levels?format=png")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<png>Time vs Reservoir level</png>", rec.Body.String())
}

func TestChart_RepeatRequestIsCached(t *testing.T) {
	f := newFixture(t, nil)

	first := f.get("/charts/compare/POONDI")
	second := f.get("/charts/compare/POONDI")
	other := f.get("/charts/compare/POONDI?format=png")

	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "<png>Time vs POONDI levels</png>", other.Body.String())
	assert.Len(t, f.charts.plots, 2, "second svg request is served from cache")
}

func TestChart_ReloadedDatasetIsRedrawn(t *testing.T) {
	f := newFixture(t, nil)
	f.catalog.ds.Generation = 1
	require.Equal(t, http.StatusOK, f.get("/charts/trend/levels").Code)

	reloaded := dataset(t)
	reloaded.Generation = 2
	reloaded.Levels.Series = []string{"REDHILLS", "CHOLAVARAM"}
	f.catalog.ds = reloaded

	rec := f.get("/charts/trend/levels")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.charts.plots, 2, "new generation misses the cache")
	assert.Equal(t, []string{"REDHILLS", "CHOLAVARAM"}, f.charts.plots[1].Legend.Entries)
}

func TestCompareChart(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.get("/charts/compare/CHOLAVARAM")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<svg>Time vs CHOLAVARAM levels</svg>", rec.Body.String())
	require.Len(t, f.charts.plots, 1)
	assert.Len(t, f.charts.plots[0].Lines[0].Points, 1, "missing level reading is skipped")
}

func TestChartErrors(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		status int
		route  string
	}{
		{"unknown table", "/charts/trend/evaporation", http.StatusNotFound, "trend"},
		{"unknown series", "/charts/compare/REDHILLS", http.StatusNotFound, "compare"},
		{"unsupported format", "/charts/trend/levels?format=pdf", http.StatusBadRequest, "trend"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			rec := f.get(tc.path)

			assert.Equal(t, tc.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			assert.InDelta(t, 1.0, testutil.ToFloat64(f.metrics.ChartRequests.WithLabelValues(tc.route, "error")), 0)
		})
	}
}

func TestChart_EncodeFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.charts.err = errors.New("backend exploded")

	rec := f.get("/charts/trend/levels")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "backend exploded")
}

func TestChart_NotReady(t *testing.T) {
	rec := newFixture(t, errors.New("tables not loaded yet")).get("/charts/compare/POONDI")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTables(t *testing.T) {
	rec := newFixture(t, nil).get("/tables")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []struct {
		Name   string   `json:"name"`
		Rows   int      `json:"rows"`
		Series []string `json:"series"`
		First  string   `json:"first"`
		Last   string   `json:"last"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "levels", body[0].Name)
	assert.Equal(t, 2, body[0].Rows)
	assert.Equal(t, "01-01-2004", body[0].First)
	assert.Equal(t, "02-01-2004", body[0].Last)
	assert.Equal(t, "rainfall", body[1].Name)
}

func TestTable(t *testing.T) {
	rec := newFixture(t, nil).get("/tables/levels")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Name string `json:"name"`
		Rows []struct {
			Date       string              `json:"date"`
			Values     map[string]*float64 `json:"values"`
			Cumulative float64             `json:"cumulative"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Rows, 2)
	assert.Equal(t, "02-01-2004", body.Rows[1].Date)
	require.NotNil(t, body.Rows[1].Values["POONDI"])
	assert.InDelta(t, 3.3, *body.Rows[1].Values["POONDI"], 0)
	assert.Nil(t, body.Rows[1].Values["CHOLAVARAM"])
	assert.InDelta(t, 3.6, body.Rows[0].Cumulative, 1e-9)

	assert.Equal(t, http.StatusNotFound, newFixture(t, nil).get("/tables/evaporation").Code)
}
