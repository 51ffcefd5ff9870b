package domain

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

const (
	// DateColumn is the header of the first column of every reading table.
	DateColumn = "Date"

	// CumulativeColumn is the header of the derived per-row total.
	CumulativeColumn = "Cumulative"
)

// Row is one dated reading across all series of a table.
type Row struct {
	Date       time.Time
	Values     []float64 // aligned with Table.Series; NaN marks a missing reading
	Cumulative float64
}

// Table is an ordered set of rows sharing a fixed list of series columns.
// Date and Cumulative are modelled as fields of Row, not as series, so
// renderers never have to infer them from column position.
type Table struct {
	Name   string
	Series []string
	Rows   []Row
}

// NewTable builds a table and derives Cumulative for every row. Series names
// also name saved documents, so they may not contain path separators.
func NewTable(name string, series []string, rows []Row) (*Table, error) {
	for _, s := range series {
		if s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
			return nil, fmt.Errorf("series %q cannot be used as a file name", s)
		}
	}
	for i := range rows {
		if len(rows[i].Values) != len(series) {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(rows[i].Values), len(series))
		}
		rows[i].Cumulative = Cumulative(rows[i].Values)
	}
	return &Table{Name: name, Series: series, Rows: rows}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Columns returns the logical column headers: Date, every series, Cumulative.
func (t *Table) Columns() []string {
	cols := make([]string, 0, len(t.Series)+2)
	cols = append(cols, DateColumn)
	cols = append(cols, t.Series...)
	return append(cols, CumulativeColumn)
}

// HasSeries reports whether the table carries a series with this exact name.
func (t *Table) HasSeries(name string) bool {
	return slices.Contains(t.Series, name)
}

// Dates returns the date of every row in file order.
func (t *Table) Dates() []time.Time {
	out := make([]time.Time, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Date
	}
	return out
}

// Column returns the values of one series in row order.
func (t *Table) Column(name string) ([]float64, error) {
	idx := slices.Index(t.Series, name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: table %q has no series %q", ErrKeyMismatch, t.Name, name)
	}
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Values[idx]
	}
	return out, nil
}

// CumulativeValues returns the derived totals in row order.
func (t *Table) CumulativeValues() []float64 {
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Cumulative
	}
	return out
}

// Span returns the earliest and latest row dates. Both are zero for an empty table.
func (t *Table) Span() (time.Time, time.Time) {
	if len(t.Rows) == 0 {
		return time.Time{}, time.Time{}
	}
	first, last := t.Rows[0].Date, t.Rows[0].Date
	for _, r := range t.Rows[1:] {
		if r.Date.Before(first) {
			first = r.Date
		}
		if r.Date.After(last) {
			last = r.Date
		}
	}
	return first, last
}

// IsMissing reports whether v marks a missing reading.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// MissingSeries returns the series of want that other does not carry, in
// want's order. Names are compared as exact header strings.
func MissingSeries(want, other *Table) []string {
	var missing []string
	for _, s := range want.Series {
		if !other.HasSeries(s) {
			missing = append(missing, s)
		}
	}
	return missing
}

// CheckAligned fails with ErrKeyMismatch when other lacks any series of want.
func CheckAligned(want, other *Table) error {
	missing := MissingSeries(want, other)
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: table %q has no series %s", ErrKeyMismatch, other.Name, strings.Join(missing, ", "))
}

// Dataset is the pair of tables charts are drawn from. Generation grows by
// one each time a catalog swaps in a freshly loaded pair.
type Dataset struct {
	Levels     *Table
	Rainfall   *Table
	Generation uint64
}

// Dataset table names, as used in routes and reports.
const (
	LevelsName   = "levels"
	RainfallName = "rainfall"
)

// Lookup returns the table called name ("levels" or "rainfall").
func (d *Dataset) Lookup(name string) (*Table, bool) {
	switch name {
	case LevelsName:
		return d.Levels, d.Levels != nil
	case RainfallName:
		return d.Rainfall, d.Rainfall != nil
	}
	return nil, false
}
