package dataview

// convert.go normalizes the loosely typed values found in rows before they
// are compared, matched or displayed.
//
// Rows come from pgx (native Go types plus pgtype wrappers), from JSON
// (float64, json.Number, strings holding dates) or from hand-built records.
// Everything is reduced to nil, string, float64, bool or time.Time.

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Date layouts accepted when a date arrives as a string.
// Ordered most specific first; day-first layouts win over month-first ones.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006 15:04",
	"02/01/2006",
	"2.1.2006",
	"02.01.2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"20060102",
}

// Normalize unwraps driver values, pgtype wrappers and pointers.
// Invalid (SQL NULL) wrappers and nil pointers become nil.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string, bool, float64, time.Time:
		return x
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return string(x)
	case driver.Valuer:
		val, err := x.Value()
		if err != nil {
			return nil
		}
		if _, again := val.(driver.Valuer); again {
			return val
		}
		return Normalize(val)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	}
	return v
}

// IsNull reports whether v represents a missing value.
// Empty strings are values, not nulls.
func IsNull(v any) bool {
	n := Normalize(v)
	if n == nil {
		return true
	}
	if f, ok := n.(float64); ok && math.IsNaN(f) {
		return true
	}
	return false
}

// Stringify returns the display projection of v used by search and
// equality filters. Nulls project to the empty string.
func Stringify(v any) string {
	switch x := Normalize(v).(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// ToFloat converts numeric values and numeric strings to float64.
func ToFloat(v any) (float64, bool) {
	switch x := Normalize(v).(type) {
	case float64:
		if math.IsNaN(x) {
			return 0, false
		}
		return x, true
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(x), "%"))
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// ToTime converts time values and date strings to time.Time.
func ToTime(v any) (time.Time, bool) {
	switch x := Normalize(v).(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x, true
	case string:
		return ParseDate(x)
	}
	return time.Time{}, false
}

// ParseDate parses s with the accepted layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
