package models

type NumericStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

type ColumnProfile struct {
	Name    string        `json:"name"`
	Type    string        `json:"type"`
	Missing int           `json:"missing"`
	Unique  int           `json:"unique"`
	Stats   *NumericStats `json:"stats,omitempty"`
}

type Anomaly struct {
	Column   string    `json:"column"`
	Count    int       `json:"count"`
	Examples []float64 `json:"examples"`
	Reason   string    `json:"reason"`
}

type DatasetSummary struct {
	RowCount    int             `json:"rowCount"`
	ColumnCount int             `json:"columnCount"`
	Columns     []ColumnProfile `json:"columns"`
	Anomalies   []Anomaly       `json:"anomalies"`
	Preview     []Row           `json:"preview"`
}
