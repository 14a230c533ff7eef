package analysis

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"

	"insight-dashboard/internal/models"
)

const (
	maxSumKPIs = 2
	maxKPIs    = 1 + maxSumKPIs + 1
)

// SynthesizeKPIs emits, in order: the record count, totals for the first two
// numeric columns, and the distinct count of the first categorical column.
func SynthesizeKPIs(ds models.Dataset, cols models.ColumnClassification) []models.KPI {
	kpis := make([]models.KPI, 0, maxKPIs)

	kpis = append(kpis, models.KPI{
		ID:    "total_count",
		Label: "Total Records",
		Value: humanize.Comma(int64(ds.RowCount)),
		Kind:  models.KPICount,
	})

	for _, col := range cols.Numeric[:min(len(cols.Numeric), maxSumKPIs)] {
		kpis = append(kpis, models.KPI{
			ID:    "sum_" + col,
			Label: "Total " + col,
			Value: FormatCompact(sumColumn(ds.Rows, col)),
			Kind:  models.KPISum,
		})
	}

	if len(cols.Categorical) > 0 {
		col := cols.Categorical[0]
		kpis = append(kpis, models.KPI{
			ID:    "unique_" + col,
			Label: "Unique " + col,
			Value: humanize.Comma(int64(countDistinct(ds.Rows, col))),
			Kind:  models.KPICount,
		})
	}

	return kpis
}

// FormatCompact renders a total with two decimals, scaled to K or M when its
// magnitude exceeds a thousand or a million.
func FormatCompact(n float64) string {
	abs := math.Abs(n)
	switch {
	case abs > 1_000_000:
		return strconv.FormatFloat(n/1_000_000, 'f', 2, 64) + "M"
	case abs > 1_000:
		return strconv.FormatFloat(n/1_000, 'f', 2, 64) + "K"
	default:
		return strconv.FormatFloat(n, 'f', 2, 64)
	}
}

// sumColumn adds every finite numeric cell; anything else is skipped, not zeroed.
func sumColumn(rows []models.Row, col string) float64 {
	var sum float64
	for _, row := range rows {
		if v, ok := NumericValue(row[col]); ok {
			sum += v
		}
	}
	return sum
}

// countDistinct counts raw values, including missing ones, across all rows.
func countDistinct(rows []models.Row, col string) int {
	seen := make(map[cellKey]struct{})
	for _, row := range rows {
		seen[keyOf(row[col])] = struct{}{}
	}
	return len(seen)
}
