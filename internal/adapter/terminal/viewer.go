// Package terminal displays charts as text line charts on a terminal.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	tm "github.com/buger/goterm"

	"github.com/couchcryptid/reservoir-charts/internal/render"
)

// Options controls the size of the drawn chart and whether Show waits for
// the user.
type Options struct {
	Width  int
	Height int
	Block  bool // wait for Enter after each chart
}

// Viewer implements render.Viewer by drawing plots with goterm.
type Viewer struct {
	mu   sync.Mutex
	out  io.Writer
	in   *bufio.Reader
	opts Options
}

// New creates a Viewer writing to out. in is only read in blocking mode.
func New(out io.Writer, in io.Reader, opts Options) *Viewer {
	v := &Viewer{out: out, opts: opts}
	if in != nil {
		v.in = bufio.NewReader(in)
	}
	return v
}

// Show draws p. In blocking mode it returns once the user presses Enter or
// the input is closed.
func (v *Viewer) Show(p *render.Plot) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "%s  [figure %d]\n", tm.Bold(p.Title), p.Figure)
	fmt.Fprintf(&b, "y: %s\n", p.YLabel)

	if columns, rows := grid(p); len(rows) >= 2 {
		data := new(tm.DataTable)
		for _, c := range columns {
			data.AddColumn(c)
		}
		for _, r := range rows {
			data.AddRow(r...)
		}
		b.WriteString(tm.NewLineChart(v.opts.Width, v.opts.Height).Draw(data))
	} else {
		b.WriteString("(not enough dated points to draw)\n")
	}
	fmt.Fprintf(&b, "x: %s\n", p.XLabel)
	fmt.Fprintf(&b, "legend: %s\n", strings.Join(p.Legend.Entries, ", "))

	if _, err := io.WriteString(v.out, b.String()); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	if !v.opts.Block {
		return nil
	}
	return v.wait()
}

func (v *Viewer) wait() error {
	if v.in == nil {
		return errors.New("blocking display needs an input")
	}
	if _, err := io.WriteString(v.out, "press Enter to continue "); err != nil {
		return fmt.Errorf("write prompt: %w", err)
	}
	if _, err := v.in.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("wait for input: %w", err)
	}
	return nil
}

// grid lays the plot out as one x column of fractional years plus one
// column per line. goterm needs a value in every cell, so a line carries its
// last reading forward over dates it has no reading for.
func grid(p *render.Plot) ([]string, [][]float64) {
	var dates []time.Time
	for _, l := range p.Lines {
		for _, pt := range l.Points {
			dates = append(dates, pt.Date)
		}
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })
	dates = slices.CompactFunc(dates, func(a, b time.Time) bool { return a.Equal(b) })

	columns := []string{"Year"}
	for _, l := range p.Lines {
		columns = append(columns, l.Name)
	}

	cursors := make([]int, len(p.Lines))
	last := make([]float64, len(p.Lines))
	for i, l := range p.Lines {
		if len(l.Points) > 0 {
			last[i] = l.Points[0].Value
		}
	}
	rows := make([][]float64, 0, len(dates))
	for _, d := range dates {
		row := make([]float64, len(p.Lines)+1)
		row[0] = fractionalYear(d)
		for i, l := range p.Lines {
			for cursors[i] < len(l.Points) && !l.Points[cursors[i]].Date.After(d) {
				last[i] = l.Points[cursors[i]].Value
				cursors[i]++
			}
			row[i+1] = last[i]
		}
		rows = append(rows, row)
	}
	return columns, rows
}

func fractionalYear(t time.Time) float64 {
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	return float64(t.Year()) + float64(t.Sub(start))/float64(end.Sub(start))
}
