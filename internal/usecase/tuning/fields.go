package tuning

import (
	"time"
)

// numericValue coerces a document field to float64.
// String values are deliberately not parsed: a numeric-looking string is
// still a non-numeric field for boosting purposes.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// dateLayouts are tried in order when a date field arrives as a string.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// timeValue coerces a document field to a timestamp. Numeric values are
// treated as unix seconds. ok=false means the field is missing or
// unparsable, which callers treat as a neutral boost, never an error.
func timeValue(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, d); err == nil {
				return t, true
			}
		}
	case float64:
		return time.Unix(int64(d), 0), true
	case int64:
		return time.Unix(d, 0), true
	case int:
		return time.Unix(int64(d), 0), true
	}
	return time.Time{}, false
}

// stringValue coerces a document field to a string. Returns "" for
// non-string values.
func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
