package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/reservoir-charts/internal/domain"
	"github.com/couchcryptid/reservoir-charts/internal/observability"
	"github.com/couchcryptid/reservoir-charts/internal/render"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Catalog hands out the loaded tables. It is ready once both tables loaded.
type Catalog interface {
	ReadinessChecker
	Dataset() (*domain.Dataset, error)
}

// Charts encodes plots into documents.
type Charts interface {
	Encode(w io.Writer, p *render.Plot, format string) error
	Formats() []string
}

// DefaultFormat is served when a chart request names no format.
const DefaultFormat = "svg"

var contentTypes = map[string]string{
	"svg":  "image/svg+xml",
	"png":  "image/png",
	"pdf":  "application/pdf",
	"eps":  "application/postscript",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
}

// Server exposes health, readiness, metrics, chart and table endpoints.
type Server struct {
	httpServer *http.Server
	catalog    Catalog
	charts     Charts
	metrics    *observability.Metrics
	logger     *slog.Logger
	documents  *lru.Cache[string, []byte]
}

// cachedDocuments bounds how many encoded charts the server keeps.
const cachedDocuments = 64

// newDocumentCache returns an LRU of encoded charts keyed by dataset
// generation, route, name and format.
func newDocumentCache(size int) *lru.Cache[string, []byte] {
	c, err := lru.New[string, []byte](size)
	if err != nil {
		panic(fmt.Sprintf("document cache: %v", err))
	}
	return c
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, the
// /charts routes and the /tables routes. /metrics serves gatherer.
func NewServer(addr string, catalog Catalog, charts Charts, gatherer prometheus.Gatherer, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		catalog:   catalog,
		charts:    charts,
		metrics:   metrics,
		logger:    logger,
		documents: newDocumentCache(cachedDocuments),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(catalog))
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /charts/trend/{table}", s.handleTrend)
	mux.HandleFunc("GET /charts/compare/{series}", s.handleCompare)
	mux.HandleFunc("GET /tables", s.handleTables)
	mux.HandleFunc("GET /tables/{table}", s.handleTable)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	const route = "trend"
	ds, ok := s.dataset(w, route)
	if !ok {
		return
	}
	name := r.PathValue("table")
	table, found := ds.Lookup(name)
	if !found {
		s.fail(w, route, http.StatusNotFound, "unknown table "+name)
		return
	}
	if len(table.Series) == 0 {
		s.fail(w, route, http.StatusUnprocessableEntity, "table "+name+" has no series")
		return
	}
	s.writeChart(w, r, route, ds, name, render.TrendPlot(table, render.YLabelFor(name), 1))
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	const route = "compare"
	ds, ok := s.dataset(w, route)
	if !ok {
		return
	}
	series := r.PathValue("series")
	p, err := render.ComparisonPlot(ds.Levels, ds.Rainfall, series, 1)
	if errors.Is(err, domain.ErrKeyMismatch) {
		s.fail(w, route, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.fail(w, route, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeChart(w, r, route, ds, series, p)
}

type tableInfo struct {
	Name   string   `json:"name"`
	Rows   int      `json:"rows"`
	Series []string `json:"series"`
	First  string   `json:"first,omitempty"`
	Last   string   `json:"last,omitempty"`
}

func (s *Server) handleTables(w http.ResponseWriter, _ *http.Request) {
	ds, ok := s.dataset(w, "tables")
	if !ok {
		return
	}
	infos := make([]tableInfo, 0, 2)
	for _, name := range []string{domain.LevelsName, domain.RainfallName} {
		t, _ := ds.Lookup(name)
		info := tableInfo{Name: name, Rows: t.Len(), Series: t.Series}
		if first, last := t.Span(); !first.IsZero() {
			info.First = domain.FormatDate(first)
			info.Last = domain.FormatDate(last)
		}
		infos = append(infos, info)
	}
	s.metrics.ChartRequests.WithLabelValues("tables", "success").Inc()
	writeJSON(w, http.StatusOK, infos)
}

type rowBody struct {
	Date       string              `json:"date"`
	Values     map[string]*float64 `json:"values"`
	Cumulative float64             `json:"cumulative"`
}

type tableBody struct {
	Name   string    `json:"name"`
	Series []string  `json:"series"`
	Rows   []rowBody `json:"rows"`
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	const route = "table"
	ds, ok := s.dataset(w, route)
	if !ok {
		return
	}
	name := r.PathValue("table")
	t, found := ds.Lookup(name)
	if !found {
		s.fail(w, route, http.StatusNotFound, "unknown table "+name)
		return
	}

	body := tableBody{Name: name, Series: t.Series, Rows: make([]rowBody, len(t.Rows))}
	for i, row := range t.Rows {
		values := make(map[string]*float64, len(t.Series))
		for j, series := range t.Series {
			if v := row.Values[j]; !domain.IsMissing(v) {
				values[series] = &v
			} else {
				values[series] = nil
			}
		}
		body.Rows[i] = rowBody{Date: domain.FormatDate(row.Date), Values: values, Cumulative: row.Cumulative}
	}
	s.metrics.ChartRequests.WithLabelValues(route, "success").Inc()
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) dataset(w http.ResponseWriter, route string) (*domain.Dataset, bool) {
	ds, err := s.catalog.Dataset()
	if err != nil {
		s.fail(w, route, http.StatusServiceUnavailable, err.Error())
		return nil, false
	}
	return ds, true
}

// writeChart encodes p, or replays the document encoded for the same dataset
// generation, route, name and format.
func (s *Server) writeChart(w http.ResponseWriter, r *http.Request, route string, ds *domain.Dataset, name string, p *render.Plot) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = DefaultFormat
	}
	if !slices.Contains(s.charts.Formats(), format) {
		s.fail(w, route, http.StatusBadRequest, "unsupported format "+format)
		return
	}

	key := fmt.Sprintf("%d|%s|%s|%s", ds.Generation, route, name, format)
	doc, ok := s.documents.Get(key)
	if !ok {
		var buf bytes.Buffer
		if err := s.charts.Encode(&buf, p, format); err != nil {
			s.logger.Error("chart encode failed", "error", err, "route", route, "title", p.Title)
			s.fail(w, route, http.StatusInternalServerError, err.Error())
			return
		}
		doc = buf.Bytes()
		s.documents.Add(key, doc)
	}

	s.metrics.ChartRequests.WithLabelValues(route, "success").Inc()
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	w.Write(doc) //nolint:errcheck // client may have gone away
}

func (s *Server) fail(w http.ResponseWriter, route string, status int, msg string) {
	s.metrics.ChartRequests.WithLabelValues(route, "error").Inc()
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
