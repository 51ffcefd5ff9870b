// Package csvfile reads and writes reservoir reading tables as delimited text.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/reservoir-charts/internal/domain"
	"github.com/couchcryptid/reservoir-charts/internal/observability"
)

// Options controls how a reading file is parsed.
type Options struct {
	DateColumn string // header of the first column (default: "Date")
	Delimiter  rune   // field delimiter (default: ',')
}

// DefaultOptions returns the options used for the bundled data files.
func DefaultOptions() Options {
	return Options{
		DateColumn: domain.DateColumn,
		Delimiter:  ',',
	}
}

// Loader reads reading tables from disk and records load metrics.
type Loader struct {
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLoader creates a Loader. A nil metrics disables instrumentation.
func NewLoader(opts Options, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{opts: opts, logger: logger, metrics: metrics}
}

// Load reads the file at path into a table named after the file.
func (l *Loader) Load(path string) (*domain.Table, error) {
	table, err := Load(path, l.opts)
	if err != nil {
		if l.metrics != nil {
			l.metrics.LoadErrors.Inc()
		}
		return nil, err
	}
	if l.metrics != nil {
		l.metrics.TablesLoaded.Inc()
		l.metrics.RowsLoaded.Add(float64(table.Len()))
	}
	l.logger.Debug("table loaded", "path", path, "rows", table.Len(), "series", len(table.Series))
	return table, nil
}

// Load reads a reading file. The table is named after the file's base name
// without extension.
func Load(path string, opts Options) (*domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrFileAccess, path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	table, err := Read(f, path, opts)
	if err != nil {
		return nil, err
	}
	table.Name = name
	return table, nil
}

// Read parses a reading table from r. source names the input in errors and
// becomes the table name.
func Read(r io.Reader, source string, opts Options) (*domain.Table, error) {
	if opts.DateColumn == "" {
		opts.DateColumn = domain.DateColumn
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &domain.ParseError{Source: source, Line: 1, Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, csvError(source, err)
	}

	series, cumulativeIdx, err := parseHeader(header, opts.DateColumn)
	if err != nil {
		return nil, &domain.ParseError{Source: source, Line: 1, Err: err}
	}

	var rows []domain.Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(source, err)
		}
		line, _ := reader.FieldPos(0)

		row, perr := parseRecord(record, header, cumulativeIdx)
		if perr != nil {
			perr.Source = source
			perr.Line = line
			return nil, perr
		}
		rows = append(rows, row)
	}

	table, err := domain.NewTable(source, series, rows)
	if err != nil {
		return nil, &domain.ParseError{Source: source, Err: err}
	}
	return table, nil
}

// parseHeader validates the header and returns the series names plus the
// index of a previously derived Cumulative column (-1 when absent).
func parseHeader(header []string, dateColumn string) ([]string, int, error) {
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	if header[0] != dateColumn {
		return nil, -1, fmt.Errorf("first column is %q, want %q", header[0], dateColumn)
	}

	seen := make(map[string]bool, len(header))
	series := make([]string, 0, len(header)-1)
	cumulativeIdx := -1
	for i, h := range header {
		if h == "" {
			return nil, -1, fmt.Errorf("column %d has an empty header", i+1)
		}
		if seen[h] {
			return nil, -1, fmt.Errorf("duplicate column %q", h)
		}
		seen[h] = true

		switch {
		case i == 0:
		case h == domain.CumulativeColumn:
			cumulativeIdx = i
		default:
			series = append(series, h)
		}
	}
	return series, cumulativeIdx, nil
}

func parseRecord(record, header []string, cumulativeIdx int) (domain.Row, *domain.ParseError) {
	date, err := domain.ParseDate(record[0])
	if err != nil {
		return domain.Row{}, &domain.ParseError{Column: header[0], Err: err}
	}

	values := make([]float64, 0, len(record)-1)
	for i := 1; i < len(record); i++ {
		if i == cumulativeIdx {
			continue
		}
		v, err := parseValue(record[i])
		if err != nil {
			return domain.Row{}, &domain.ParseError{Column: header[i], Err: err}
		}
		values = append(values, v)
	}
	return domain.Row{Date: date, Values: values}, nil
}

// parseValue parses a numeric cell. Missing-value sentinels become NaN.
func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "NA", "NaN", "nan", "null":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("value %q is not a number", s)
	}
	return v, nil
}

// csvError converts encoding/csv failures, which already carry line numbers.
func csvError(source string, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &domain.ParseError{Source: source, Line: perr.Line, Err: perr.Err}
	}
	return fmt.Errorf("%w: read %s: %w", domain.ErrFileAccess, source, err)
}
