package pipeline

import (
	"fmt"

	"github.com/couchcryptid/reservoir-charts/internal/domain"
)

// Phase is one named group of integrity checks.
type Phase struct {
	Name   string   `json:"name" yaml:"name"`
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func (p *Phase) errorf(format string, args ...any) {
	p.Errors = append(p.Errors, fmt.Sprintf(format, args...))
}

// Passed reports whether the phase found no errors.
func (p *Phase) Passed() bool { return len(p.Errors) == 0 }

// Validation is the outcome of Validate.
type Validation struct {
	Tables []TableSummary `json:"tables" yaml:"tables"`
	Phases []*Phase       `json:"phases" yaml:"phases"`
}

// Passed reports whether every phase passed.
func (v *Validation) Passed() bool {
	for _, p := range v.Phases {
		if !p.Passed() {
			return false
		}
	}
	return true
}

// Validate checks that a dataset can be charted: the rainfall table carries
// every levels series, dates are unique and ordered, every series has at
// least one reading and the two tables cover overlapping periods.
func Validate(ds *domain.Dataset, levelsPath, rainfallPath string) *Validation {
	return &Validation{
		Tables: []TableSummary{
			summarize(domain.LevelsName, levelsPath, ds.Levels),
			summarize(domain.RainfallName, rainfallPath, ds.Rainfall),
		},
		Phases: []*Phase{
			validateSeriesAlignment(ds),
			validateDateOrder(ds),
			validateReadings(ds),
			validateCoverage(ds),
		},
	}
}

func validateSeriesAlignment(ds *domain.Dataset) *Phase {
	p := &Phase{Name: "Series alignment"}
	for _, s := range domain.MissingSeries(ds.Levels, ds.Rainfall) {
		p.errorf("rainfall table has no series %q", s)
	}
	if len(ds.Levels.Series) == 0 {
		p.errorf("levels table has no series")
	}
	return p
}

func validateDateOrder(ds *domain.Dataset) *Phase {
	p := &Phase{Name: "Date order"}
	for _, name := range []string{domain.LevelsName, domain.RainfallName} {
		t, _ := ds.Lookup(name)
		for i := 1; i < len(t.Rows); i++ {
			prev, cur := t.Rows[i-1].Date, t.Rows[i].Date
			switch {
			case cur.Equal(prev):
				p.errorf("%s row %d repeats date %s", name, i+1, domain.FormatDate(cur))
			case cur.Before(prev):
				p.errorf("%s row %d (%s) is earlier than the row before it (%s)",
					name, i+1, domain.FormatDate(cur), domain.FormatDate(prev))
			}
		}
	}
	return p
}

func validateReadings(ds *domain.Dataset) *Phase {
	p := &Phase{Name: "Readings present"}
	for _, name := range []string{domain.LevelsName, domain.RainfallName} {
		t, _ := ds.Lookup(name)
		if t.Len() == 0 {
			p.errorf("%s table has no rows", name)
			continue
		}
		for i, series := range t.Series {
			if !hasReading(t, i) {
				p.errorf("%s series %q has no readings", name, series)
			}
		}
	}
	return p
}

func hasReading(t *domain.Table, idx int) bool {
	for _, r := range t.Rows {
		if !domain.IsMissing(r.Values[idx]) {
			return true
		}
	}
	return false
}

func validateCoverage(ds *domain.Dataset) *Phase {
	p := &Phase{Name: "Date coverage"}
	lf, ll := ds.Levels.Span()
	rf, rl := ds.Rainfall.Span()
	if lf.IsZero() || rf.IsZero() {
		return p
	}
	if ll.Before(rf) || rl.Before(lf) {
		p.errorf("levels (%s to %s) and rainfall (%s to %s) do not overlap",
			domain.FormatDate(lf), domain.FormatDate(ll), domain.FormatDate(rf), domain.FormatDate(rl))
	}
	return p
}
