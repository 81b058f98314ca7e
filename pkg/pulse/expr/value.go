package expr

import (
	"fmt"
	"strconv"
	"strings"
)

var builtin = map[string]BinaryOp{
	"==": Equal,
	"!=": func(l, r any) bool { return !Equal(l, r) },
	"<":  func(l, r any) bool { return ToFloat64(l) < ToFloat64(r) },
	">":  func(l, r any) bool { return ToFloat64(l) > ToFloat64(r) },
	"<=": func(l, r any) bool { return ToFloat64(l) <= ToFloat64(r) },
	">=": func(l, r any) bool { return ToFloat64(l) >= ToFloat64(r) },
}

func contains(l, r any) bool {
	return strings.Contains(fmt.Sprint(l), fmt.Sprint(r))
}

// Equal compares numerically when both values are numbers or booleans, treats
// nil as equal only to nil, and otherwise compares the %v text.
func Equal(l, r any) bool {
	if l == nil || r == nil {
		return l == nil && r == nil
	}
	lf, lok := number(l)
	rf, rok := number(r)
	if lok && rok {
		return lf == rf
	}
	return fmt.Sprint(l) == fmt.Sprint(r)
}

// IsTruthy returns whether a value is truthy.
// nil is false, bools return their value, empty strings are false,
// zero numbers are false, everything else is true.
func IsTruthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	}
	if f, ok := number(v); ok {
		return f != 0
	}
	return true
}

// ToFloat64 converts a value to float64 for numeric comparison.
// Numeric strings are parsed; other values that cannot be converted return 0.
func ToFloat64(v any) float64 {
	if f, ok := number(v); ok {
		return f
	}
	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return 0
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case bool:
		if n {
			return 1, true
		}
		return 0, true
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
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
