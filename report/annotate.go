// Package report turns scraped tables into annotated, rendered and exported output.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"wing-sales-extractor/internal/types"
)

const (
	upArrow   = "▲"
	downArrow = "▼"
)

var numericCleaner = strings.NewReplacer(",", "", "%", "")

// Annotate returns a copy of table where every metric cell after the first
// row carries its change against the previous row, e.g. "150 (▲50%)".
// Cells that do not parse as numbers, or follow one that does not, are
// left unchanged. The date column is never touched.
func Annotate(table types.ResultTable) types.ResultTable {
	out := types.ResultTable{Rows: make([]types.MetricRecord, len(table.Rows))}
	copy(out.Rows, table.Rows)

	for _, col := range types.MetricColumns() {
		annotated := AnnotateColumn(table.Column(col.Key))
		for i := range out.Rows {
			out.Rows[i].Set(col.Key, annotated[i])
		}
	}
	return out
}

// AnnotateColumn applies the day-over-day annotation to a single column
func AnnotateColumn(raw []string) []string {
	values := make([]float64, len(raw))
	for i, s := range raw {
		values[i] = ParseNumber(s)
	}

	out := make([]string, len(raw))
	for i, s := range raw {
		if i == 0 {
			out[i] = s
			continue
		}
		change := PercentChange(values[i-1], values[i])
		if math.IsNaN(values[i]) || math.IsNaN(change) {
			out[i] = s
			continue
		}
		out[i] = s + " " + FormatChange(change)
	}
	return out
}

// ParseNumber strips thousands separators and percent signs and parses the
// rest as a float. Anything unparsable, including "", yields NaN.
func ParseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(numericCleaner.Replace(s)), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// PercentChange returns the fractional change from prev to cur, NaN when
// either side is NaN. A zero prev gives ±Inf, or NaN when cur is zero too.
func PercentChange(prev, cur float64) float64 {
	if math.IsNaN(prev) || math.IsNaN(cur) {
		return math.NaN()
	}
	return (cur - prev) / prev
}

// FormatChange renders a fractional change as "(▲50%)" or "(▼10%)",
// rounded to whole percent. Zero counts as an increase.
func FormatChange(change float64) string {
	arrow := upArrow
	if change < 0 {
		arrow = downArrow
	}
	pct := math.Abs(change) * 100
	if math.IsInf(pct, 0) {
		return fmt.Sprintf("(%sinf%%)", arrow)
	}
	return fmt.Sprintf("(%s%s%%)", arrow, strconv.FormatFloat(pct, 'f', 0, 64))
}
