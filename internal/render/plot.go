package render

import (
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/reservoir-charts/internal/domain"
)

// Chart kinds, used as metric labels and in render reports.
const (
	KindTrend      = "trend"
	KindComparison = "comparison"
)

// Axis and legend text shared by every chart.
const (
	XAxisLabel = "Date (in years)"
	UnitSuffix = " (in mil. cu.ft.)"

	LevelEntry    = "Level"
	RainfallEntry = "Rainfall"

	LevelsYLabel   = "Reservoir level"
	RainfallYLabel = "Reservoir rainfall"
)

// YLabelFor returns the trend chart y label for a dataset table name.
func YLabelFor(name string) string {
	if name == domain.RainfallName {
		return RainfallYLabel
	}
	return LevelsYLabel
}

// Placement positions the legend relative to the plot area.
type Placement int

const (
	// LegendAboveRight sits outside the plot area, right-aligned above it.
	LegendAboveRight Placement = iota
	// LegendInside lets the backend choose a spot within the plot area.
	LegendInside
)

// Point is one dated value of a line.
type Point struct {
	Date  time.Time
	Value float64
}

// Line is one named series drawn against the date axis.
type Line struct {
	Name   string
	Points []Point
}

// Legend describes the legend box: its entries in draw order, how many
// columns they wrap into and where the box sits.
type Legend struct {
	Entries   []string
	Columns   int
	Placement Placement
}

// Plot is the in-memory description of one chart. It outlives the figure it
// was drawn on: the figure is released before the renderer returns, the Plot
// is handed back to the caller.
type Plot struct {
	Figure     int
	Kind       string
	Title      string
	XLabel     string
	YLabel     string
	Lines      []Line
	Legend     Legend
	Path       string // document written for this plot; empty when not saved
	RenderedAt time.Time
}

// Span returns the earliest and latest dates over all lines.
func (p *Plot) Span() (time.Time, time.Time) {
	var first, last time.Time
	for _, l := range p.Lines {
		for _, pt := range l.Points {
			if first.IsZero() || pt.Date.Before(first) {
				first = pt.Date
			}
			if last.IsZero() || pt.Date.After(last) {
				last = pt.Date
			}
		}
	}
	return first, last
}

// Range returns the smallest and largest values over all lines.
func (p *Plot) Range() (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, l := range p.Lines {
		for _, pt := range l.Points {
			lo = math.Min(lo, pt.Value)
			hi = math.Max(hi, pt.Value)
		}
	}
	return lo, hi
}

// TrendPlot describes the trend chart of one table: every series against the
// date axis. Date and Cumulative are never series.
func TrendPlot(table *domain.Table, yLabel string, figure int) *Plot {
	lines := make([]Line, 0, len(table.Series))
	for i, name := range table.Series {
		lines = append(lines, Line{Name: name, Points: points(table, i)})
	}
	return &Plot{
		Figure: figure,
		Kind:   KindTrend,
		Title:  "Time vs " + yLabel,
		XLabel: XAxisLabel,
		YLabel: yLabel + UnitSuffix,
		Lines:  lines,
		Legend: Legend{
			Entries:   append([]string(nil), table.Series...),
			Columns:   2,
			Placement: LegendAboveRight,
		},
	}
}

// ComparisonPlot describes the chart overlaying one series from the levels
// table with the same-named series from the rainfall table.
func ComparisonPlot(levels, rainfall *domain.Table, series string, figure int) (*Plot, error) {
	li := slices.Index(levels.Series, series)
	if li < 0 {
		return nil, fmt.Errorf("%w: table %q has no series %q", domain.ErrKeyMismatch, levels.Name, series)
	}
	ri := slices.Index(rainfall.Series, series)
	if ri < 0 {
		return nil, fmt.Errorf("%w: table %q has no series %q", domain.ErrKeyMismatch, rainfall.Name, series)
	}
	return &Plot{
		Figure: figure,
		Kind:   KindComparison,
		Title:  "Time vs " + series + " levels",
		XLabel: XAxisLabel,
		YLabel: series + UnitSuffix,
		Lines: []Line{
			{Name: LevelEntry, Points: points(levels, li)},
			{Name: RainfallEntry, Points: points(rainfall, ri)},
		},
		Legend: Legend{
			Entries:   []string{LevelEntry, RainfallEntry},
			Columns:   1,
			Placement: LegendAboveRight,
		},
	}, nil
}

// points collects one series in date order, dropping missing readings.
func points(table *domain.Table, idx int) []Point {
	out := make([]Point, 0, len(table.Rows))
	for _, r := range table.Rows {
		v := r.Values[idx]
		if domain.IsMissing(v) {
			continue
		}
		out = append(out, Point{Date: r.Date, Value: v})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// FormatFromPath returns the lower-cased extension of path without the dot.
func FormatFromPath(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
