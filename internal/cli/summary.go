package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/reservoir-charts/internal/domain"
)

type summaryRow struct {
	Date       string              `json:"date" yaml:"date"`
	Values     map[string]*float64 `json:"values" yaml:"values"`
	Cumulative float64             `json:"cumulative" yaml:"cumulative"`
}

type summaryTable struct {
	Name   string       `json:"name" yaml:"name"`
	Path   string       `json:"path" yaml:"path"`
	Rows   int          `json:"rows" yaml:"rows"`
	Series []string     `json:"series" yaml:"series"`
	Head   []summaryRow `json:"head" yaml:"head"`
}

func newSummaryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary [levels|rainfall|FILE]",
		Short: "Print the first rows of a table with its Cumulative column",
		Example: `  reservoir summary
  reservoir summary rainfall --limit 20
  reservoir summary data/other.csv -o json`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return []string{domain.LevelsName, domain.RainfallName}, cobra.ShellCompDirectiveDefault
		},
		RunE: runSummary,
	}
	cmd.Flags().Int("limit", 5, "rows to print (0 for all)")
	return cmd
}

func runSummary(cmd *cobra.Command, args []string) error {
	app, err := getApp(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	path := app.Config.LevelsPath()
	if len(args) == 1 {
		switch args[0] {
		case domain.LevelsName:
		case domain.RainfallName:
			path = app.Config.RainfallPath()
		default:
			path = args[0]
		}
	}

	table, err := app.Loader().Load(path)
	if err != nil {
		return err
	}

	rows := table.Rows
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	if app.Out.Structured() {
		return app.Out.Encode(summarize(table, path, rows))
	}

	first, last := table.Span()
	app.Out.Header(table.Name)
	app.Out.Muted("%s: %d rows, %d series, %s to %s", path, table.Len(), len(table.Series), formatDay(first), formatDay(last))

	header := table.Columns()
	body := make([][]any, 0, len(rows))
	for _, row := range rows {
		line := make([]any, 0, len(header))
		line = append(line, domain.FormatDate(row.Date))
		for _, v := range row.Values {
			line = append(line, formatReading(v))
		}
		line = append(line, formatReading(row.Cumulative))
		body = append(body, line)
	}
	app.Out.Table(header, body)
	return nil
}

func summarize(table *domain.Table, path string, rows []domain.Row) summaryTable {
	out := summaryTable{
		Name:   table.Name,
		Path:   path,
		Rows:   table.Len(),
		Series: table.Series,
		Head:   make([]summaryRow, 0, len(rows)),
	}
	for _, row := range rows {
		values := make(map[string]*float64, len(row.Values))
		for i, v := range row.Values {
			if domain.IsMissing(v) {
				values[table.Series[i]] = nil
				continue
			}
			values[table.Series[i]] = &v
		}
		out.Head = append(out.Head, summaryRow{
			Date:       domain.FormatDate(row.Date),
			Values:     values,
			Cumulative: row.Cumulative,
		})
	}
	return out
}

func formatReading(v float64) string {
	if domain.IsMissing(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return domain.FormatDate(t)
}
