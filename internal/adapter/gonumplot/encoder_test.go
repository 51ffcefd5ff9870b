package gonumplot

import (
	"bytes"
	"testing"
	"time"

	"github.com/couchcryptid/reservoir-charts/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlot(placement render.Placement) *render.Plot {
	d := func(day int) time.Time { return time.Date(2004, time.January, day, 0, 0, 0, 0, time.UTC) }
	return &render.Plot{
		Figure: 1,
		Kind:   render.KindTrend,
		Title:  "Time vs Reservoir level",
		XLabel: render.XAxisLabel,
		YLabel: "Reservoir level" + render.UnitSuffix,
		Lines: []render.Line{
			{Name: "POONDI", Points: []render.Point{{Date: d(1), Value: 3.5}, {Date: d(2), Value: 3.3}, {Date: d(3), Value: 3.1}}},
			{Name: "CHOLAVARAM", Points: []render.Point{{Date: d(1), Value: 0.1}, {Date: d(3), Value: 0.2}}},
			{Name: "REDHILLS"},
		},
		Legend: render.Legend{
			Entries:   []string{"POONDI", "CHOLAVARAM", "REDHILLS"},
			Columns:   2,
			Placement: placement,
		},
	}
}

func TestEncode_Formats(t *testing.T) {
	cases := []struct {
		format string
		prefix string
	}{
		{"pdf", "%PDF-"},
		{"svg", "<?xml"},
		{"jpg", "\xff\xd8"},
		{"png", "\x89PNG"},
	}
	enc := New(4, 3)
	for _, tc := range cases {
		t.Run(tc.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, enc.Encode(&buf, samplePlot(render.LegendAboveRight), tc.format))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte(tc.prefix)), "got %q", buf.Bytes()[:min(16, buf.Len())])
		})
	}
}

func TestEncode_LegendInside(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(4, 3).Encode(&buf, samplePlot(render.LegendInside), "svg"))
	assert.NotZero(t, buf.Len())
}

func TestEncode_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	err := New(4, 3).Encode(&buf, samplePlot(render.LegendAboveRight), "docx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "docx")
	assert.Zero(t, buf.Len())
}

func TestFormats(t *testing.T) {
	enc := New(4, 3)
	assert.Contains(t, enc.Formats(), "pdf")
	assert.Contains(t, enc.Formats(), "tiff")

	enc.Formats()[0] = "mutated"
	assert.Equal(t, "pdf", enc.Formats()[0])
}

func TestLegendRows(t *testing.T) {
	assert.Equal(t, 2, legendRows(render.Legend{Entries: []string{"a", "b", "c"}, Columns: 2}))
	assert.Equal(t, 2, legendRows(render.Legend{Entries: []string{"Level", "Rainfall"}, Columns: 1}))
	assert.Equal(t, 1, legendRows(render.Legend{Entries: []string{"a"}}))
}
