// Package domain models reservoir reading tables: water levels and rainfall
// recorded per reservoir over time.
//
// # Data Source
//
// Readings arrive as comma-separated files with one header row. The first
// column is the reading date; every other column is one reservoir (a series):
//
//	Date,POONDI,CHOLAVARAM,REDHILLS,CHEMBARAMBAKKAM
//	01-01-2004,3.3,0.1,2.3,1.0
//
// Level files hold storage in millions of cubic feet (mcft). Rainfall files
// carry the same reservoir columns so the two tables can be paired by series
// name.
//
// # Date Convention
//
// Dates are day-first: "05/03/2019" is 5 March 2019, never 3 May. Slash, dash
// and dot separators are accepted, with two- or four-digit years and an
// optional time of day. ISO dates (2019-03-05) are unambiguous and accepted
// as-is. See [ParseDate].
//
// # Missing Values
//
// Empty cells and the sentinels "NA", "NaN" and "null" are missing readings,
// held as NaN. They are skipped when summing and when drawing lines.
//
// # Cumulative
//
// Every row carries a derived Cumulative value: the sum of that row's
// non-missing series values. The Date column never contributes. A column
// literally named "Cumulative" in the input is treated as an earlier
// derivation: it is dropped from the series and recomputed, so loading
// augmented output twice does not double count. Sums are computed in decimal
// so 0.1 + 0.2 is exactly 0.3. See [Cumulative].
package domain
