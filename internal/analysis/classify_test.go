package analysis

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"insight-dashboard/internal/models"
)

func columnRows(header string, values []any) []models.Row {
	rows := make([]models.Row, len(values))
	for i, v := range values {
		rows[i] = models.Row{header: v}
	}
	return rows
}

func TestClassify_EmptyRows(t *testing.T) {
	got := Classify([]string{"a", "b"}, nil)

	if diff := cmp.Diff(models.EmptyClassification(), got); diff != "" {
		t.Errorf("Classify() mismatch (-want +got):\n%s", diff)
	}
}

func TestClassify_Totality(t *testing.T) {
	headers := []string{"Region", "Sales", "Date", "Notes", "Empty"}
	rows := []models.Row{
		{"Region": "N", "Sales": 10.0, "Date": "2023-01-01", "Notes": "first"},
		{"Region": "S", "Sales": "20", "Date": "2023-01-02", "Notes": "second"},
		{"Region": "N", "Sales": 30, "Date": "2023-01-03", "Notes": nil},
	}

	got := Classify(headers, rows)
	want := models.ColumnClassification{
		Numeric:     []string{"Sales"},
		Categorical: []string{"Region", "Notes", "Empty"},
		Date:        []string{"Date"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Classify() mismatch (-want +got):\n%s", diff)
	}

	seen := make(map[string]int)
	for _, bucket := range [][]string{got.Numeric, got.Categorical, got.Date} {
		for _, h := range bucket {
			seen[h]++
		}
	}
	for _, h := range headers {
		if seen[h] != 1 {
			t.Errorf("header %q appears %d times, want exactly once", h, seen[h])
		}
	}
}

func TestClassify_Thresholds(t *testing.T) {
	tests := []struct {
		name   string
		values func(i int) any
		want   string
	}{
		{
			name: "85 dates out of 100 is date",
			values: func(i int) any {
				if i < 85 {
					return fmt.Sprintf("2023-01-%02d", i%28+1)
				}
				return "unknown"
			},
			want: "date",
		},
		{
			name: "60 numbers out of 100 is categorical",
			values: func(i int) any {
				if i < 60 {
					return fmt.Sprintf("%d", i)
				}
				return "abc"
			},
			want: "categorical",
		},
		{
			name: "exactly 80 percent numeric falls through",
			values: func(i int) any {
				if i < 80 {
					return float64(i)
				}
				return "abc"
			},
			want: "categorical",
		},
		{
			name: "81 percent numeric is numeric",
			values: func(i int) any {
				if i < 81 {
					return float64(i)
				}
				return nil
			},
			want: "numeric",
		},
		{
			name:   "all null is categorical",
			values: func(i int) any { return nil },
			want:   "categorical",
		},
		{
			name:   "numeric strings never count as dates",
			values: func(i int) any { return fmt.Sprintf("2023%04d", i) },
			want:   "numeric",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make([]any, 100)
			for i := range values {
				values[i] = tt.values(i)
			}

			got := Classify([]string{"col"}, columnRows("col", values))

			var bucket string
			switch {
			case len(got.Numeric) == 1:
				bucket = "numeric"
			case len(got.Date) == 1:
				bucket = "date"
			case len(got.Categorical) == 1:
				bucket = "categorical"
			}
			if bucket != tt.want {
				t.Errorf("Classify() put column in %q, want %q", bucket, tt.want)
			}
		})
	}
}

func TestClassify_SampleWindow(t *testing.T) {
	values := make([]any, 200)
	for i := range values {
		if i < 100 {
			values[i] = float64(i)
		} else {
			values[i] = "text"
		}
	}
	rows := columnRows("col", values)

	if got := Classify([]string{"col"}, rows); len(got.Numeric) != 1 {
		t.Errorf("default window should only see the numeric head, got %+v", got)
	}

	if got := Classify([]string{"col"}, rows, WithSampleSize(200)); len(got.Categorical) != 1 {
		t.Errorf("widened window should see the text tail, got %+v", got)
	}

	if got := Classify([]string{"col"}, rows, WithSampleSize(0)); len(got.Numeric) != 1 {
		t.Errorf("non-positive sample size should keep the default, got %+v", got)
	}
}

func TestLooksNumeric(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{42, true},
		{3.5, true},
		{int64(7), true},
		{"42", true},
		{" 3.25 ", true},
		{"-1e3", true},
		{"12abc", false},
		{"", false},
		{"NaN", false},
		{"Inf", false},
		{"0x1p-2", false},
		{"-0X10p0", false},
		{nil, false},
		{true, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.value), func(t *testing.T) {
			if got := looksNumeric(tt.value); got != tt.want {
				t.Errorf("looksNumeric(%#v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestLooksTemporal(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{"2023-01-15", true},
		{"2023-01-15T10:30:00Z", true},
		{"01/15/2023", true},
		{"2023", false},
		{"January", false},
		{"North", false},
		{20230115, false},
		{nil, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.value), func(t *testing.T) {
			if got := looksTemporal(tt.value); got != tt.want {
				t.Errorf("looksTemporal(%#v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{nil, ""},
		{"North", "North"},
		{1.5, "1.5"},
		{10.0, "10"},
		{int32(3), "3"},
		{true, "true"},
	}

	for _, tt := range tests {
		if got := Label(tt.value); got != tt.want {
			t.Errorf("Label(%#v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
