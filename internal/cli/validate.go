package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/reservoir-charts/internal/pipeline"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that the levels and rainfall tables can be charted",
		Long: `Load both tables and run the integrity phases:

  Series alignment   every levels series has a rainfall series
  Date order         dates are unique and ascending
  Readings present   every series has at least one reading
  Date coverage      the two tables cover overlapping periods

Exits non-zero when a table cannot be loaded or a phase fails.`,
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, _ []string) error {
	app, err := getApp(cmd)
	if err != nil {
		return err
	}
	levelsPath, rainfallPath := app.Config.LevelsPath(), app.Config.RainfallPath()

	ds, err := pipeline.LoadDataset(app.Loader(), levelsPath, rainfallPath)
	if err != nil {
		return err
	}
	result := pipeline.Validate(ds, levelsPath, rainfallPath)

	if app.Out.Structured() {
		if err := app.Out.Encode(result); err != nil {
			return err
		}
	} else {
		printValidation(app, result)
	}

	if !result.Passed() {
		failed := 0
		for _, p := range result.Phases {
			if !p.Passed() {
				failed++
			}
		}
		return fmt.Errorf("validation failed: %d of %d phases", failed, len(result.Phases))
	}
	return nil
}

func printValidation(app *App, result *pipeline.Validation) {
	out := app.Out
	out.Header("Tables")
	rows := make([][]any, 0, len(result.Tables))
	for _, t := range result.Tables {
		rows = append(rows, []any{t.Name, t.Path, t.Rows, len(t.Series), t.First, t.Last})
	}
	out.Table([]string{"Table", "Path", "Rows", "Series", "First", "Last"}, rows)

	out.Header("Checks")
	for _, p := range result.Phases {
		detail := ""
		if !p.Passed() {
			detail = fmt.Sprintf("%d errors", len(p.Errors))
		}
		out.Status(p.Name, p.Passed(), detail)
		for _, e := range p.Errors {
			out.Muted("    %s", e)
		}
	}
}
