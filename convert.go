// File: lattice/convert.go
package lattice

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// coerce converts a raw value to the target type. This is the fallback
// converter used when a field declares no custom conversion function.
func coerce(raw any, t reflect.Type) (any, error) {
	if raw == nil || t == nil {
		return raw, nil
	}
	rt := reflect.TypeOf(raw)
	if rt.AssignableTo(t) {
		return raw, nil
	}

	// Durations parse from strings like "250ms" before falling back to
	// plain integer nanoseconds.
	if t == durationType {
		if s, ok := raw.(string); ok {
			if d, err := time.ParseDuration(s); err == nil {
				return d, nil
			}
		}
	}

	switch t.Kind() {
	case reflect.String:
		return toString(raw)
	case reflect.Bool:
		return toBool(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := toInt64(raw)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(i).Convert(t).Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, err := toInt64(raw)
		if err != nil {
			return nil, err
		}
		if i < 0 {
			return nil, fmt.Errorf("cannot convert negative value %d to %s", i, t)
		}
		return reflect.ValueOf(uint64(i)).Convert(t).Interface(), nil
	case reflect.Float32, reflect.Float64:
		f, err := toFloat64(raw)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(f).Convert(t).Interface(), nil
	case reflect.Slice:
		if s, ok := raw.(string); ok {
			return coerceSlice(s, t)
		}
	}

	if rt.ConvertibleTo(t) {
		return reflect.ValueOf(raw).Convert(t).Interface(), nil
	}
	return nil, fmt.Errorf("cannot convert type %T to %s", raw, t)
}

// coerceSlice splits a comma-separated string and coerces each element to
// the slice's element type.
func coerceSlice(s string, t reflect.Type) (any, error) {
	parts := strings.Split(s, ",")
	out := reflect.MakeSlice(t, 0, len(parts))
	for _, part := range parts {
		elem, err := coerce(strings.TrimSpace(part), t.Elem())
		if err != nil {
			return nil, err
		}
		out = reflect.Append(out, reflect.ValueOf(elem))
	}
	return out.Interface(), nil
}

// toString converts common types to a string representation.
func toString(val any) (string, error) {
	if strVal, ok := val.(string); ok {
		return strVal, nil
	}

	switch v := val.(type) {
	case fmt.Stringer:
		return v.String(), nil
	case []byte:
		return string(v), nil
	case int, int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(val).Int(), 10), nil
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(val).Uint(), 10), nil
	case float32, float64:
		return strconv.FormatFloat(reflect.ValueOf(val).Float(), 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case error:
		return v.Error(), nil
	default:
		return "", fmt.Errorf("cannot convert type %T to string", val)
	}
}

// toInt64 converts numeric types, parsable strings, and booleans to int64.
func toInt64(val any) (int64, error) {
	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		maxInt64 := int64(^uint64(0) >> 1)
		if u > uint64(maxInt64) {
			return 0, fmt.Errorf("cannot convert unsigned integer %d to int64: overflow", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return int64(v.Float()), nil
	case reflect.String:
		s := v.String()
		// Base 0 for auto-detection (e.g., "0xFF").
		if i, err := strconv.ParseInt(s, 0, 64); err == nil {
			return i, nil
		} else if f, ferr := strconv.ParseFloat(s, 64); ferr == nil && f == float64(int64(f)) {
			return int64(f), nil
		} else {
			return 0, fmt.Errorf("cannot convert string %q to int64: %w", s, err)
		}
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	}

	return 0, fmt.Errorf("cannot convert type %T to int64", val)
}

// toBool converts booleans, parsable strings, and numbers (0 is false,
// non-zero is true) to bool.
func toBool(val any) (bool, error) {
	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.String:
		s := v.String()
		if b, err := strconv.ParseBool(s); err == nil {
			return b, nil
		} else {
			return false, fmt.Errorf("cannot convert string %q to bool: %w", s, err)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() != 0, nil
	case reflect.Float32, reflect.Float64:
		return v.Float() != 0, nil
	}

	return false, fmt.Errorf("cannot convert type %T to bool", val)
}

// toFloat64 converts numeric types, parsable strings, and booleans to
// float64.
func toFloat64(val any) (float64, error) {
	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), nil
	case reflect.String:
		s := v.String()
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, nil
		} else {
			return 0, fmt.Errorf("cannot convert string %q to float64: %w", s, err)
		}
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	}

	return 0, fmt.Errorf("cannot convert type %T to float64", val)
}
