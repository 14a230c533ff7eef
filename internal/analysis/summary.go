package analysis

import (
	"maps"
	"math"

	"insight-dashboard/internal/models"
)

const (
	previewRows = 5

	minAnomalySamples  = 10
	zScoreLimit        = 3
	maxAnomalyExamples = 3
	anomalyReason      = "Z-Score > 3 (Statistical Outlier)"
)

// Summarize profiles each column (missing and unique counts, numeric ranges),
// flags z-score outliers in numeric columns and returns a short row preview.
func Summarize(ds models.Dataset, cols models.ColumnClassification) models.DatasetSummary {
	summary := models.DatasetSummary{
		RowCount:    ds.RowCount,
		ColumnCount: len(ds.Headers),
		Columns:     make([]models.ColumnProfile, 0, len(ds.Headers)),
		Anomalies:   make([]models.Anomaly, 0),
		Preview:     make([]models.Row, 0, min(len(ds.Rows), previewRows)),
	}

	for _, header := range ds.Headers {
		typ := typeOf(header, cols)
		profile, values := profileColumn(header, typ, ds.Rows)
		summary.Columns = append(summary.Columns, profile)

		if typ != typeNumeric {
			continue
		}
		if anomaly, ok := detectOutliers(header, values); ok {
			summary.Anomalies = append(summary.Anomalies, anomaly)
		}
	}

	for _, row := range ds.Rows[:min(len(ds.Rows), previewRows)] {
		summary.Preview = append(summary.Preview, maps.Clone(row))
	}

	return summary
}

// profileColumn also returns the column's finite numeric values when typ is numeric.
func profileColumn(header string, typ columnType, rows []models.Row) (models.ColumnProfile, []float64) {
	profile := models.ColumnProfile{
		Name: header,
		Type: typ.String(),
	}

	unique := make(map[cellKey]struct{})
	var values []float64

	for _, row := range rows {
		v := row[header]
		if isMissing(v) {
			profile.Missing++
			continue
		}
		unique[keyOf(v)] = struct{}{}

		if typ == typeNumeric {
			if f, ok := NumericValue(v); ok {
				values = append(values, f)
			}
		}
	}
	profile.Unique = len(unique)

	if len(values) > 0 {
		stats := &models.NumericStats{Min: values[0], Max: values[0]}
		var sum float64
		for _, f := range values {
			stats.Min = math.Min(stats.Min, f)
			stats.Max = math.Max(stats.Max, f)
			sum += f
		}
		stats.Mean = sum / float64(len(values))
		profile.Stats = stats
	}

	return profile, values
}

func detectOutliers(header string, values []float64) (models.Anomaly, bool) {
	if len(values) < minAnomalySamples {
		return models.Anomaly{}, false
	}

	mean, std := meanStdDev(values)
	if std == 0 {
		return models.Anomaly{}, false
	}

	anomaly := models.Anomaly{
		Column:   header,
		Examples: make([]float64, 0, maxAnomalyExamples),
		Reason:   anomalyReason,
	}
	for _, f := range values {
		if math.Abs((f-mean)/std) <= zScoreLimit {
			continue
		}
		anomaly.Count++
		if len(anomaly.Examples) < maxAnomalyExamples {
			anomaly.Examples = append(anomaly.Examples, f)
		}
	}

	return anomaly, anomaly.Count > 0
}

// meanStdDev uses the sample (n-1) standard deviation.
func meanStdDev(values []float64) (float64, float64) {
	var sum float64
	for _, f := range values {
		sum += f
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, f := range values {
		d := f - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)-1))
}
