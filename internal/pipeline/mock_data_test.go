package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/couchcryptid/reservoir-charts/internal/adapter/csvfile"
	"github.com/couchcryptid/reservoir-charts/internal/adapter/gonumplot"
	"github.com/couchcryptid/reservoir-charts/internal/observability"
	"github.com/couchcryptid/reservoir-charts/internal/pipeline"
	"github.com/couchcryptid/reservoir-charts/internal/render"
	"github.com/couchcryptid/reservoir-charts/internal/sample"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	threeRowLevels = `Date,POONDI,CHOLAVARAM
01-01-2004,3.3,0.1
02-01-2004,3.2,0.1
03-01-2004,3.1,0.2
`
	threeRowRainfall = `Date,POONDI,CHOLAVARAM
01-01-2004,0,0
02-01-2004,12,4
03-01-2004,0,1.5
`
)

func newRealRenderer(metrics *observability.Metrics) *render.Renderer {
	return render.New(render.NewFigures(metrics.FiguresOpen), gonumplot.New(4, 3), nil, discardLogger(), metrics)
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestEndToEnd_ThreeRowSample(t *testing.T) {
	dataDir := t.TempDir()
	levelsPath := filepath.Join(dataDir, "levels.csv")
	rainfallPath := filepath.Join(dataDir, "rainfall.csv")
	require.NoError(t, os.WriteFile(levelsPath, []byte(threeRowLevels), 0o600))
	require.NoError(t, os.WriteFile(rainfallPath, []byte(threeRowRainfall), 0o600))

	metrics := observability.NewMetricsForTesting()
	loader := csvfile.NewLoader(csvfile.DefaultOptions(), discardLogger(), metrics)
	renderer := newRealRenderer(metrics)

	levels, err := loader.Load(levelsPath)
	require.NoError(t, err)
	rainfall, err := loader.Load(rainfallPath)
	require.NoError(t, err)

	trendDir := filepath.Join(t.TempDir(), "trend")
	opts := render.DefaultTrendOptions()
	opts.Show = false
	opts.Save = true
	opts.SaveDir = trendDir
	_, err = renderer.Trend(levels, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"plot.pdf"}, listDir(t, trendDir))

	compareDir := filepath.Join(t.TempDir(), "compare")
	copts := render.DefaultComparisonOptions()
	copts.Show = false
	copts.Save = true
	copts.SaveDir = compareDir
	plots, err := renderer.Comparisons(levels, rainfall, copts)
	require.NoError(t, err)
	assert.Len(t, plots, 2)
	assert.Equal(t, []string{"CHOLAVARAM.pdf", "POONDI.pdf"}, listDir(t, compareDir))
}

func TestEndToEnd_GeneratedSample(t *testing.T) {
	opts := sample.DefaultOptions()
	opts.Days = 60
	opts.Gaps = true
	levelsPath, rainfallPath, err := sample.WriteFiles(t.TempDir(), opts)
	require.NoError(t, err)

	metrics := observability.NewMetricsForTesting()
	loader := csvfile.NewLoader(csvfile.DefaultOptions(), discardLogger(), metrics)
	p := pipeline.New(loader, newRealRenderer(metrics), clockwork.NewFakeClock(), discardLogger(), metrics)

	plotsDir := t.TempDir()
	report, err := p.Run(context.Background(), pipeline.Options{
		LevelsPath:   levelsPath,
		RainfallPath: rainfallPath,
		PlotsDir:     plotsDir,
		Format:       "svg",
		Save:         true,
	})
	require.NoError(t, err)

	want := []string{"CHEMBARAMBAKKAM.svg", "CHOLAVARAM.svg", "POONDI.svg", "REDHILLS.svg", "levels.svg", "rainfall.svg"}
	assert.Equal(t, want, listDir(t, plotsDir))
	assert.Len(t, report.Documents(), len(want))
	assert.Equal(t, 60, report.Tables[0].Rows)
	assert.InDelta(t, 0.0, testutil.ToFloat64(metrics.FiguresOpen), 0, "every figure released")
}
