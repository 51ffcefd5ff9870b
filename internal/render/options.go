package render

// TrendOptions configures one trend chart.
type TrendOptions struct {
	Show     bool
	Save     bool
	FigureID int
	YLabel   string
	SaveDir  string
	SaveName string // the extension selects the document format
}

// DefaultTrendOptions returns the interactive defaults: displayed, not saved.
func DefaultTrendOptions() TrendOptions {
	return TrendOptions{
		Show:     true,
		Save:     false,
		FigureID: 1,
		YLabel:   LevelsYLabel,
		SaveDir:  "plots",
		SaveName: "plot.pdf",
	}
}

// ComparisonOptions configures a run of comparison charts, one per series.
type ComparisonOptions struct {
	Show     bool
	Save     bool
	FigureID int // first figure; incremented by one per series
	SaveDir  string
	Format   string // document extension without the dot
}

// DefaultComparisonOptions returns the interactive defaults: displayed, not saved.
func DefaultComparisonOptions() ComparisonOptions {
	return ComparisonOptions{
		Show:     true,
		Save:     false,
		FigureID: 1,
		SaveDir:  "plots",
		Format:   "pdf",
	}
}
