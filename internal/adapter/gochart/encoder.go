// Package gochart draws charts with go-chart. It only writes raster and
// vector web formats (PNG and SVG) and backs the HTTP chart previews.
package gochart

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/couchcryptid/reservoir-charts/internal/render"
)

// DPI converts page inches into pixels.
const DPI = 100

var formats = []string{"png", "svg"}

var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorGreen,
	chart.ColorRed,
	chart.ColorOrange,
	chart.ColorCyan,
	chart.ColorAlternateGray,
}

// Encoder implements render.Encoder on top of go-chart.
type Encoder struct {
	Width  int // pixels
	Height int // pixels
}

// New creates an Encoder drawing images of the given size in inches.
func New(widthIn, heightIn float64) *Encoder {
	return &Encoder{Width: int(widthIn * DPI), Height: int(heightIn * DPI)}
}

// Formats lists the supported document formats.
func (e *Encoder) Formats() []string {
	return slices.Clone(formats)
}

// Encode draws p and writes it to w in format.
func (e *Encoder) Encode(w io.Writer, p *render.Plot, format string) error {
	var provider chart.RendererProvider
	switch format {
	case "png":
		provider = chart.PNG
	case "svg":
		provider = chart.SVG
	default:
		return fmt.Errorf("unsupported format %q", format)
	}

	ch, err := e.build(p)
	if err != nil {
		return err
	}
	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	return nil
}

func (e *Encoder) build(p *render.Plot) (*chart.Chart, error) {
	series := make([]chart.Series, 0, len(p.Lines))
	for i, l := range p.Lines {
		if len(l.Points) == 0 {
			continue
		}
		ts := chart.TimeSeries{
			Name:    l.Name,
			XValues: make([]time.Time, len(l.Points)),
			YValues: make([]float64, len(l.Points)),
			Style: chart.Style{
				StrokeColor: palette[i%len(palette)],
				StrokeWidth: 1.5,
			},
		}
		for j, pt := range l.Points {
			ts.XValues[j] = pt.Date
			ts.YValues[j] = pt.Value
		}
		series = append(series, ts)
	}
	if len(series) == 0 {
		return nil, errors.New("no points to draw")
	}

	xAxis := chart.XAxis{
		Name:           p.XLabel,
		ValueFormatter: chart.TimeValueFormatterWithFormat("2006"),
	}
	// go-chart rejects a zero-width range, so a single date gets a day either side.
	if first, last := p.Span(); !last.After(first) {
		xAxis.Range = &chart.ContinuousRange{
			Min: chart.TimeToFloat64(first.Add(-24 * time.Hour)),
			Max: chart.TimeToFloat64(last.Add(24 * time.Hour)),
		}
	}
	yAxis := chart.YAxis{Name: p.YLabel}
	if lo, hi := p.Range(); hi <= lo {
		yAxis.Range = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}

	ch := &chart.Chart{
		Title:      p.Title,
		Width:      e.Width,
		Height:     e.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      xAxis,
		YAxis:      yAxis,
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(ch)}
	return ch, nil
}
