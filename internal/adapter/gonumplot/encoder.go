// Package gonumplot draws charts with gonum/plot. It writes every document
// format gonum supports: PDF, SVG, EPS, PNG, JPEG and TIFF.
package gonumplot

import (
	"fmt"
	"io"
	"math"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/couchcryptid/reservoir-charts/internal/render"
)

var formats = []string{"pdf", "svg", "eps", "png", "jpg", "jpeg", "tif", "tiff"}

const (
	legendRowHeight = 16 // points per legend row
	legendPadding   = 6  // points above and below the legend band
)

// Encoder implements render.Encoder on top of gonum/plot.
type Encoder struct {
	Width  vg.Length
	Height vg.Length
}

// New creates an Encoder drawing pages of the given size in inches.
func New(widthIn, heightIn float64) *Encoder {
	return &Encoder{
		Width:  vg.Length(widthIn) * vg.Inch,
		Height: vg.Length(heightIn) * vg.Inch,
	}
}

// Formats lists the supported document formats.
func (e *Encoder) Formats() []string {
	return slices.Clone(formats)
}

// Encode draws p and writes it to w in format.
func (e *Encoder) Encode(w io.Writer, p *render.Plot, format string) error {
	if !slices.Contains(formats, format) {
		return fmt.Errorf("unsupported format %q", format)
	}

	chart, legends, err := build(p)
	if err != nil {
		return err
	}

	c, err := draw.NewFormattedCanvas(e.Width, e.Height, format)
	if err != nil {
		return fmt.Errorf("create %s canvas: %w", format, err)
	}
	dc := draw.New(c)

	// The legend sits in a band above the plot area, right-aligned, one
	// gonum legend per column.
	band := vg.Points(legendPadding*2 + legendRowHeight*float64(legendRows(p.Legend)))
	if p.Legend.Placement != render.LegendAboveRight || len(legends) == 0 {
		band = 0
	}
	chart.Draw(draw.Crop(dc, 0, 0, 0, -band))
	if band > 0 {
		drawLegends(draw.Crop(dc, 0, 0, e.Height-band, 0), legends)
	}

	if _, err := c.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	return nil
}

// build assembles the gonum plot and the legend columns for p.
func build(p *render.Plot) (*plot.Plot, []plot.Legend, error) {
	chart := plot.New()
	chart.Title.Text = p.Title
	chart.X.Label.Text = p.XLabel
	chart.Y.Label.Text = p.YLabel
	chart.X.Tick.Marker = plot.TimeTicks{Format: "2006"}
	chart.Add(plotter.NewGrid())

	columns := max(p.Legend.Columns, 1)
	legends := make([]plot.Legend, columns)
	for i := range legends {
		legends[i] = plot.NewLegend()
		legends[i].Top = true
	}

	for i, l := range p.Lines {
		line, err := plotter.NewLine(xys(l.Points))
		if err != nil {
			return nil, nil, fmt.Errorf("line %q: %w", l.Name, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)

		// An all-missing series still gets its legend entry.
		if len(l.Points) > 0 {
			chart.Add(line)
		}
		if p.Legend.Placement == render.LegendInside {
			chart.Legend.Add(l.Name, line)
			continue
		}
		legends[i%columns].Add(l.Name, line)
	}
	if p.Legend.Placement == render.LegendInside {
		chart.Legend.Top = true
		return chart, nil, nil
	}
	return chart, legends, nil
}

// drawLegends lays the legend columns out right to left inside band.
func drawLegends(band draw.Canvas, legends []plot.Legend) {
	width := band.Max.X - band.Min.X
	colWidth := width * 0.3
	if n := vg.Length(len(legends)); colWidth*n > width {
		colWidth = width / n
	}
	n := len(legends)
	for i, l := range legends {
		right := vg.Length(n-1-i) * colWidth
		left := width - right - colWidth
		l.Draw(draw.Crop(band, left, -right, vg.Points(legendPadding), -vg.Points(legendPadding)))
	}
}

func legendRows(l render.Legend) int {
	columns := max(l.Columns, 1)
	return int(math.Ceil(float64(len(l.Entries)) / float64(columns)))
}

func xys(points []render.Point) plotter.XYs {
	out := make(plotter.XYs, len(points))
	for i, pt := range points {
		out[i].X = float64(pt.Date.Unix())
		out[i].Y = pt.Value
	}
	return out
}
