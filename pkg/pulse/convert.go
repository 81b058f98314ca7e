package pulse

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Convert performs a checked conversion of v to T.
//
// Values already of type T are returned as is. Otherwise the conversion follows
// mapstructure's weak decoding rules: floats truncate toward zero when converted
// to integers, booleans become 0/1, numeric strings are parsed. Anything that
// cannot be represented fails with a *CastError rather than yielding a zero value:
// NaN, infinities and out-of-range numbers never convert to integers, and blank
// strings never convert to numbers or booleans.
func Convert[T any](v any) (T, error) {
	var out T
	if t, ok := v.(T); ok {
		return t, nil
	}
	target := typeOf[T]()
	if v == nil {
		return out, &CastError{From: v, To: typeName(target)}
	}
	if err := checkRepresentable(v, target); err != nil {
		return out, &CastError{From: v, To: typeName(target), Err: err}
	}
	if f, ok := v.(float32); ok && target.Kind() == reflect.String {
		// Shortest float32 form: 3.7 stays "3.7".
		reflect.ValueOf(&out).Elem().SetString(strconv.FormatFloat(float64(f), 'g', -1, 32))
		return out, nil
	}
	if err := mapstructure.WeakDecode(v, &out); err != nil {
		return out, &CastError{From: v, To: typeName(target), Err: err}
	}
	return out, nil
}

var errOutOfRange = errors.New("out of range")

// checkRepresentable rejects the inputs weak decoding would silently map to
// a zero or wrapped value.
func checkRepresentable(v any, target reflect.Type) error {
	tk := target.Kind()
	if !isInteger(tk) && !isFloatKind(tk) && tk != reflect.Bool {
		return nil
	}
	rv := reflect.ValueOf(v)
	zero := reflect.New(target).Elem()
	switch rv.Kind() {
	case reflect.String:
		if strings.TrimSpace(rv.String()) == "" {
			return errors.New("blank string")
		}
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if isFloatKind(tk) {
			if zero.OverflowFloat(f) {
				return errOutOfRange
			}
			return nil
		}
		if !isInteger(tk) {
			return nil
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return errors.New("not a finite number")
		}
		f = math.Trunc(f)
		if isUnsigned(tk) {
			if f < 0 || f >= math.Exp2(64) || zero.OverflowUint(uint64(f)) {
				return errOutOfRange
			}
			return nil
		}
		if f < -math.Exp2(63) || f >= math.Exp2(63) || zero.OverflowInt(int64(f)) {
			return errOutOfRange
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		switch {
		case isUnsigned(tk) && (i < 0 || zero.OverflowUint(uint64(i))):
			return errOutOfRange
		case isInteger(tk) && !isUnsigned(tk) && zero.OverflowInt(i):
			return errOutOfRange
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		switch {
		case isUnsigned(tk) && zero.OverflowUint(u):
			return errOutOfRange
		case isInteger(tk) && !isUnsigned(tk) && (u > math.MaxInt64 || zero.OverflowInt(int64(u))):
			return errOutOfRange
		}
	}
	return nil
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return isUnsigned(k)
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isFloatKind(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
