package domain

import (
	"fmt"
	"strings"
	"time"
)

// dayFirstLayouts are tried in order. Go's "2" and "1" verbs accept one or
// two digits, so "5/3/2019" and "05/03/2019" share a layout.
var dayFirstLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2/1/2006 15:04",
	"2-1-2006 15:04",
	"2/1/2006 15:04:05",
	"2-1-2006 15:04:05",
	"2/1/06",
	"2-1-06",
	"2.1.06",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseDate parses a reading date under the day-first convention:
// "05/03/2019" is 5 March 2019. Times are returned in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q is not a day-first date", s)
}

// FormatDate renders a date in the canonical day-first form used by the
// sample files.
func FormatDate(t time.Time) string {
	return t.Format("02-01-2006")
}
