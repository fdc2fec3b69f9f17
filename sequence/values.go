package sequence

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
)

// OrderValue coerces a payload or store value into an int64 order value.
// JSON decoding yields float64, YAML yields int, and database drivers yield
// int64 or []byte, so every numeric shape a record can round-trip through is
// accepted. Fractional floats are rejected.
func OrderValue(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return OrderValue(float64(n))
	case float64:
		if math.Trunc(n) != n || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	case []byte:
		return parseOrderString(string(n))
	case string:
		return parseOrderString(n)
	default:
		return 0, false
	}
}

func parseOrderString(s string) (int64, bool) {
	parsed, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// ValueEqual reports whether two record field values identify the same group.
// Numeric values compare by value regardless of their Go type; everything
// else falls back to deep equality. Nil only equals nil.
func ValueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if an, ok := OrderValue(a); ok {
		if bn, ok := OrderValue(b); ok {
			return an == bn
		}
	}
	return reflect.DeepEqual(a, b)
}
