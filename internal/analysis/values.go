package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
)

// minDateLength is the shortest string considered for date detection; it keeps
// bare years and short codes like "Q1-24" out of the temporal bucket.
const minDateLength = 5

// ParseFloat reports whether s, ignoring surrounding whitespace, is entirely a finite number.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || isHexLiteral(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// isHexLiteral reports a "0x" prefix after an optional sign. strconv accepts
// hex floats such as "0x1p-2", which are not decimal cell values.
func isHexLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// ParseDate parses s as a calendar date using a format-agnostic parser.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// numberKind converts Go numeric kinds to float64. Strings are never numbers here.
func numberKind(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// NumericValue returns the finite number a cell holds, parsing strings fully.
func NumericValue(v any) (float64, bool) {
	if f, ok := numberKind(v); ok {
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	if s, ok := v.(string); ok {
		return ParseFloat(s)
	}
	return 0, false
}

func looksNumeric(v any) bool {
	if _, ok := numberKind(v); ok {
		return true
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, ok = ParseFloat(s)
	return ok
}

func looksTemporal(v any) bool {
	s, ok := v.(string)
	if !ok || len(s) <= minDateLength || !strings.ContainsFunc(s, unicode.IsDigit) {
		return false
	}
	_, ok = ParseDate(s)
	return ok
}

// Label renders a cell as the string used for grouping. Missing values render empty.
func Label(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	}
	if f, ok := numberKind(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// cellKey identifies a raw cell value for distinct counting. Values of
// different kinds stay distinct, so "1" and 1 count twice.
type cellKey struct {
	kind string
	text string
}

func keyOf(v any) cellKey {
	switch x := v.(type) {
	case nil:
		return cellKey{kind: "null"}
	case string:
		return cellKey{kind: "string", text: x}
	case bool:
		return cellKey{kind: "bool", text: strconv.FormatBool(x)}
	}
	if _, ok := numberKind(v); ok {
		return cellKey{kind: "number", text: Label(v)}
	}
	return cellKey{kind: fmt.Sprintf("%T", v), text: fmt.Sprint(v)}
}

func isMissing(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
