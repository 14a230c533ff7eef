package models

// Row is one decoded record. Values are nil, a string, or a Go number.
// A header missing from the map is treated as an absent value.
type Row map[string]any

type Dataset struct {
	FileName string   `json:"fileName"`
	Headers  []string `json:"headers"`
	Rows     []Row    `json:"rows"`
	// RowCount is the true total; Rows may be a preview subset.
	RowCount int `json:"rowCount"`
}

type ColumnClassification struct {
	Numeric     []string `json:"numeric"`
	Categorical []string `json:"categorical"`
	Date        []string `json:"date"`
}

// EmptyClassification returns a classification whose slices encode as [] rather than null.
func EmptyClassification() ColumnClassification {
	return ColumnClassification{
		Numeric:     []string{},
		Categorical: []string{},
		Date:        []string{},
	}
}

type KPIKind string

const (
	KPICount KPIKind = "count"
	KPISum   KPIKind = "sum"
	KPIAvg   KPIKind = "avg"
	KPIMin   KPIKind = "min"
	KPIMax   KPIKind = "max"
)

type Trend struct {
	Value      float64 `json:"value"`
	IsPositive bool    `json:"isPositive"`
}

type KPI struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Value string  `json:"value"`
	Kind  KPIKind `json:"kind"`
	Trend *Trend  `json:"trend,omitempty"`
}

type ChartKind string

const (
	ChartBar  ChartKind = "bar"
	ChartLine ChartKind = "line"
	ChartPie  ChartKind = "pie"
)

type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type ChartConfig struct {
	ID       string        `json:"id"`
	Kind     ChartKind     `json:"kind"`
	Title    string        `json:"title"`
	DataKey  string        `json:"dataKey"`
	XAxisKey string        `json:"xAxisKey"`
	Series   []SeriesPoint `json:"series"`
}

type AnalysisResult struct {
	KPIs    []KPI                `json:"kpis"`
	Charts  []ChartConfig        `json:"charts"`
	Columns ColumnClassification `json:"columns"`
}

// EmptyResult is the "no analysis possible" result returned for datasets without rows.
func EmptyResult() AnalysisResult {
	return AnalysisResult{
		KPIs:    []KPI{},
		Charts:  []ChartConfig{},
		Columns: EmptyClassification(),
	}
}
