// Package analysis infers column types, headline KPIs and chart configurations
// from a decoded tabular dataset. Every function is a pure function of its
// input: nothing is cached or shared between calls, so concurrent callers need
// no coordination.
package analysis

import "insight-dashboard/internal/models"

// Analyze classifies the dataset's columns and synthesizes KPIs and charts.
// A dataset without rows yields an empty result rather than an error.
func Analyze(ds models.Dataset, opts ...Option) models.AnalysisResult {
	if len(ds.Rows) == 0 {
		return models.EmptyResult()
	}

	cols := Classify(ds.Headers, ds.Rows, opts...)

	return models.AnalysisResult{
		KPIs:    SynthesizeKPIs(ds, cols),
		Charts:  SynthesizeCharts(ds, cols),
		Columns: cols,
	}
}
