package analysis

import (
	"slices"

	"insight-dashboard/internal/models"
)

// classificationThreshold is the share of sampled cells that must agree on a
// type. The comparison is strict, so exactly 80% falls through to categorical.
const classificationThreshold = 0.8

type columnType int

const (
	typeCategorical columnType = iota
	typeNumeric
	typeDate
)

func (t columnType) String() string {
	switch t {
	case typeNumeric:
		return "numeric"
	case typeDate:
		return "date"
	}
	return "categorical"
}

// Classify partitions headers into numeric, categorical and date columns by
// inspecting the leading sample window of rows. Every header lands in exactly
// one bucket; mixed columns below the threshold are categorical. With no rows
// all three buckets are empty.
func Classify(headers []string, rows []models.Row, opts ...Option) models.ColumnClassification {
	result := models.EmptyClassification()
	if len(rows) == 0 {
		return result
	}

	o := applyOptions(opts)
	sample := rows[:min(len(rows), o.sampleSize)]

	for _, header := range headers {
		switch detectColumnType(header, sample) {
		case typeNumeric:
			result.Numeric = append(result.Numeric, header)
		case typeDate:
			result.Date = append(result.Date, header)
		default:
			result.Categorical = append(result.Categorical, header)
		}
	}

	return result
}

// detectColumnType tallies numeric and temporal cells. A value is only tested
// as a date after failing the numeric test, so numbers never count as dates.
func detectColumnType(header string, sample []models.Row) columnType {
	numCount := 0
	dateCount := 0

	for _, row := range sample {
		v := row[header]
		if looksNumeric(v) {
			numCount++
		} else if looksTemporal(v) {
			dateCount++
		}
	}

	threshold := float64(len(sample)) * classificationThreshold

	switch {
	case float64(numCount) > threshold:
		return typeNumeric
	case float64(dateCount) > threshold:
		return typeDate
	default:
		return typeCategorical
	}
}

func typeOf(header string, cols models.ColumnClassification) columnType {
	switch {
	case slices.Contains(cols.Numeric, header):
		return typeNumeric
	case slices.Contains(cols.Date, header):
		return typeDate
	}
	return typeCategorical
}
