// Package util holds small value-comparison helpers shared by the storage
// package's index key comparator.
package util

import (
	"fmt"
	"reflect"
	"strconv"
)

// CompareEqual reports whether two column values are equal, preferring
// numeric comparison and falling back to string comparison.
func CompareEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == b
	}

	if cmp, ok := CompareNumeric(a, b); ok {
		return cmp == 0
	}

	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// CompareNumeric compares two values as numbers, returning -1/0/1 and
// whether both values converted cleanly.
func CompareNumeric(a, b interface{}) (int, bool) {
	aFloat, okA := ConvertToFloat64(a)
	bFloat, okB := ConvertToFloat64(b)
	if !okA || !okB {
		return 0, false
	}

	if aFloat < bFloat {
		return -1, true
	} else if aFloat > bFloat {
		return 1, true
	}
	return 0, true
}

// CompareValues orders two column values for index key ordering: nil sorts
// first, numeric values compare numerically, everything else falls back to
// string comparison.
func CompareValues(a, b interface{}) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	if cmp, ok := CompareNumeric(a, b); ok {
		return cmp
	}

	aStr := fmt.Sprintf("%v", a)
	bStr := fmt.Sprintf("%v", b)
	if aStr < bStr {
		return -1
	} else if aStr > bStr {
		return 1
	}
	return 0
}

// ConvertToFloat64 converts a value to float64 for numeric comparison.
func ConvertToFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return float64(rv.Int()), true
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return float64(rv.Uint()), true
		case reflect.Float32, reflect.Float64:
			return rv.Float(), true
		}
		return 0, false
	}
}
