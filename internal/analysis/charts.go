package analysis

import (
	"cmp"
	"slices"
	"time"

	"insight-dashboard/internal/models"
)

const (
	maxCharts = 3

	// A category column needs more than one and at most this many distinct labels.
	maxCategoryCardinality = 20

	seriesLabelKey = "label"
	seriesValueKey = "value"
)

// SynthesizeCharts picks a category, measure and time column and emits up to
// three aggregated chart configurations: bar, line and pie, in that order.
func SynthesizeCharts(ds models.Dataset, cols models.ColumnClassification) []models.ChartConfig {
	charts := make([]models.ChartConfig, 0, maxCharts)

	categoryCol, hasCategory := pickCategoryColumn(ds.Rows, cols.Categorical)
	measureCol, hasMeasure := first(cols.Numeric)
	timeCol, hasTime := first(cols.Date)

	var byCategory []models.SeriesPoint
	if hasCategory && hasMeasure {
		byCategory = aggregateSum(ds.Rows, categoryCol, measureCol)

		bar := slices.Clone(byCategory)
		slices.SortStableFunc(bar, func(a, b models.SeriesPoint) int {
			return cmp.Compare(b.Value, a.Value)
		})

		charts = append(charts, newChart(models.ChartBar,
			"bar_"+categoryCol+"_"+measureCol,
			measureCol+" by "+categoryCol,
			bar,
		))
	}

	if hasTime && hasMeasure {
		trend := aggregateSum(ds.Rows, timeCol, measureCol)
		sortChronologically(trend)

		charts = append(charts, newChart(models.ChartLine,
			"line_"+timeCol+"_"+measureCol,
			measureCol+" Trend over Time",
			trend,
		))
	}

	if hasCategory && hasMeasure && len(charts) < maxCharts {
		charts = append(charts, newChart(models.ChartPie,
			"pie_"+categoryCol,
			"Distribution of "+measureCol+" by "+categoryCol,
			byCategory,
		))
	}

	return charts
}

func newChart(kind models.ChartKind, id, title string, series []models.SeriesPoint) models.ChartConfig {
	return models.ChartConfig{
		ID:       id,
		Kind:     kind,
		Title:    title,
		DataKey:  seriesValueKey,
		XAxisKey: seriesLabelKey,
		Series:   series,
	}
}

func first(cols []string) (string, bool) {
	if len(cols) == 0 {
		return "", false
	}
	return cols[0], true
}

// pickCategoryColumn returns the first categorical column whose distinct label
// count is usable on a chart axis.
func pickCategoryColumn(rows []models.Row, categorical []string) (string, bool) {
	for _, col := range categorical {
		labels := make(map[string]struct{})
		for _, row := range rows {
			labels[Label(row[col])] = struct{}{}
			if len(labels) > maxCategoryCardinality {
				break
			}
		}
		if n := len(labels); n > 1 && n <= maxCategoryCardinality {
			return col, true
		}
	}
	return "", false
}

// aggregateSum groups rows by the label of groupCol and sums measureCol.
// Points keep the order in which their label first appeared. Rows with an
// empty label or a non-numeric measure are skipped.
func aggregateSum(rows []models.Row, groupCol, measureCol string) []models.SeriesPoint {
	points := make([]models.SeriesPoint, 0)
	index := make(map[string]int)

	for _, row := range rows {
		label := Label(row[groupCol])
		if label == "" {
			continue
		}
		v, ok := NumericValue(row[measureCol])
		if !ok {
			continue
		}

		i, seen := index[label]
		if !seen {
			i = len(points)
			index[label] = i
			points = append(points, models.SeriesPoint{Label: label})
		}
		points[i].Value += v
	}

	return points
}

// sortChronologically orders points by the calendar date in their label.
// Labels that fail to parse go last, in their original order.
func sortChronologically(points []models.SeriesPoint) {
	type dated struct {
		point models.SeriesPoint
		at    time.Time
		ok    bool
	}

	keyed := make([]dated, len(points))
	for i, p := range points {
		at, ok := ParseDate(p.Label)
		keyed[i] = dated{point: p, at: at, ok: ok}
	}

	slices.SortStableFunc(keyed, func(a, b dated) int {
		switch {
		case a.ok && b.ok:
			return a.at.Compare(b.at)
		case a.ok:
			return -1
		case b.ok:
			return 1
		}
		return 0
	})

	for i, k := range keyed {
		points[i] = k.point
	}
}
