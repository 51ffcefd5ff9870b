// Package sample generates deterministic reservoir level and rainfall tables
// for demos and tests.
package sample

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/couchcryptid/reservoir-charts/internal/adapter/csvfile"
	"github.com/couchcryptid/reservoir-charts/internal/domain"
)

// File names written by WriteFiles, matching the bundled data layout.
const (
	LevelsFile   = "chennai_reservoir_levels.csv"
	RainfallFile = "chennai_reservoir_rainfall.csv"
)

// capacity is the full storage of each reservoir in mil. cu.ft.
var capacity = map[string]float64{
	"POONDI":          3231,
	"CHOLAVARAM":      881,
	"REDHILLS":        3300,
	"CHEMBARAMBAKKAM": 3645,
}

// Options shapes the generated tables.
type Options struct {
	Start      time.Time
	Days       int
	Reservoirs []string
	Seed       uint64
	Gaps       bool // blank out an occasional reading
}

// DefaultOptions covers 2004 for the four Chennai reservoirs.
func DefaultOptions() Options {
	return Options{
		Start:      time.Date(2004, time.January, 1, 0, 0, 0, 0, time.UTC),
		Days:       366,
		Reservoirs: []string{"POONDI", "CHOLAVARAM", "REDHILLS", "CHEMBARAMBAKKAM"},
		Seed:       2004,
	}
}

// Generate builds matching levels and rainfall tables. The same options
// always produce the same tables.
func Generate(opts Options) (*domain.Dataset, error) {
	if opts.Days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", opts.Days)
	}
	if len(opts.Reservoirs) == 0 {
		return nil, fmt.Errorf("no reservoirs to generate")
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x5eed))
	levelRows := make([]domain.Row, opts.Days)
	rainRows := make([]domain.Row, opts.Days)
	for d := range opts.Days {
		date := opts.Start.AddDate(0, 0, d)
		levels := make([]float64, len(opts.Reservoirs))
		rain := make([]float64, len(opts.Reservoirs))
		for i, name := range opts.Reservoirs {
			levels[i] = level(name, i, date, rng)
			rain[i] = rainfall(date, rng)
			if opts.Gaps && rng.IntN(50) == 0 {
				levels[i] = math.NaN()
			}
		}
		levelRows[d] = domain.Row{Date: date, Values: levels}
		rainRows[d] = domain.Row{Date: date, Values: rain}
	}

	series := append([]string(nil), opts.Reservoirs...)
	levelsTable, err := domain.NewTable(trimExt(LevelsFile), series, levelRows)
	if err != nil {
		return nil, err
	}
	rainfallTable, err := domain.NewTable(trimExt(RainfallFile), append([]string(nil), series...), rainRows)
	if err != nil {
		return nil, err
	}
	return &domain.Dataset{Levels: levelsTable, Rainfall: rainfallTable}, nil
}

// WriteFiles generates a dataset and writes it under dir as day-first CSV.
// It returns the levels and rainfall paths.
func WriteFiles(dir string, opts Options) (string, string, error) {
	ds, err := Generate(opts)
	if err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("%w: create %s: %w", domain.ErrSave, dir, err)
	}

	levelsPath := filepath.Join(dir, LevelsFile)
	rainfallPath := filepath.Join(dir, RainfallFile)
	if err := csvfile.WriteFile(levelsPath, ds.Levels, csvfile.WriteOptions{}); err != nil {
		return "", "", err
	}
	if err := csvfile.WriteFile(rainfallPath, ds.Rainfall, csvfile.WriteOptions{}); err != nil {
		return "", "", err
	}
	return levelsPath, rainfallPath, nil
}

// level follows a yearly cycle that peaks after the north-east monsoon.
func level(name string, idx int, date time.Time, rng *rand.Rand) float64 {
	full, ok := capacity[name]
	if !ok {
		full = 1000
	}
	phase := 2 * math.Pi * float64(date.YearDay()-330+idx*7) / 365
	v := full * (0.45 + 0.3*math.Cos(phase) + 0.02*rng.NormFloat64())
	return round(math.Max(v, 0), 1)
}

// rainfall is dry most days with heavier, likelier rain from October to December.
func rainfall(date time.Time, rng *rand.Rand) float64 {
	chance, scale := 0.1, 8.0
	if m := date.Month(); m >= time.October && m <= time.December {
		chance, scale = 0.45, 35.0
	}
	if rng.Float64() >= chance {
		return 0
	}
	return round(rng.ExpFloat64()*scale, 1)
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
