package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/couchcryptid/reservoir-charts/internal/domain"
)

// WriteOptions controls how a table is written back out.
type WriteOptions struct {
	IncludeCumulative bool
}

// Write encodes a table as CSV with day-first dates. Missing readings are
// written as empty cells.
func Write(w io.Writer, table *domain.Table, opts WriteOptions) error {
	cw := csv.NewWriter(w)

	header := append([]string{domain.DateColumn}, table.Series...)
	if opts.IncludeCumulative {
		header = append(header, domain.CumulativeColumn)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(header))
	for i, row := range table.Rows {
		record[0] = domain.FormatDate(row.Date)
		for j, v := range row.Values {
			record[j+1] = formatValue(v)
		}
		if opts.IncludeCumulative {
			record[len(record)-1] = formatValue(row.Cumulative)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes a table to path, replacing any existing file.
func WriteFile(path string, table *domain.Table, opts WriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", domain.ErrSave, path, err)
	}
	if err := Write(f, table, opts); err != nil {
		f.Close()
		return fmt.Errorf("%w: %s: %w", domain.ErrSave, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", domain.ErrSave, path, err)
	}
	return nil
}

func formatValue(v float64) string {
	if domain.IsMissing(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
