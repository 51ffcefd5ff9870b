package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// Cumulative sums the non-missing values of one row. The sum is carried out
// in decimal so that values read from text add up the way they were written.
func Cumulative(values []float64) float64 {
	sum := decimal.Zero
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum.InexactFloat64()
}
