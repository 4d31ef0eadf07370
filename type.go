// File: lattice/type.go
package lattice

import (
	"fmt"
	"time"
)

// String retrieves a string value at the path, converting from common
// types if the stored value isn't already a string.
func (c *Config) String(path string) (string, error) {
	val, found := c.Get(path)
	if !found {
		return "", fmt.Errorf("unknown path: %s", path)
	}
	if val == nil {
		return "", nil // Treat nil as empty string for convenience
	}
	s, err := toString(val)
	if err != nil {
		return "", fmt.Errorf("%w for path %s", err, path)
	}
	return s, nil
}

// Int64 retrieves an int64 value at the path, converting from numeric
// types, parsable strings, and booleans.
func (c *Config) Int64(path string) (int64, error) {
	val, found := c.Get(path)
	if !found {
		return 0, fmt.Errorf("unknown path: %s", path)
	}
	if val == nil {
		return 0, fmt.Errorf("value for path %s is nil, cannot convert to int64", path)
	}
	i, err := toInt64(val)
	if err != nil {
		return 0, fmt.Errorf("%w for path %s", err, path)
	}
	return i, nil
}

// Bool retrieves a boolean value at the path, converting from numeric
// types and parsable strings.
func (c *Config) Bool(path string) (bool, error) {
	val, found := c.Get(path)
	if !found {
		return false, fmt.Errorf("unknown path: %s", path)
	}
	if val == nil {
		return false, fmt.Errorf("value for path %s is nil, cannot convert to bool", path)
	}
	b, err := toBool(val)
	if err != nil {
		return false, fmt.Errorf("%w for path %s", err, path)
	}
	return b, nil
}

// Float64 retrieves a float64 value at the path, converting from numeric
// types, parsable strings, and booleans.
func (c *Config) Float64(path string) (float64, error) {
	val, found := c.Get(path)
	if !found {
		return 0, fmt.Errorf("unknown path: %s", path)
	}
	if val == nil {
		return 0, fmt.Errorf("value for path %s is nil, cannot convert to float64", path)
	}
	f, err := toFloat64(val)
	if err != nil {
		return 0, fmt.Errorf("%w for path %s", err, path)
	}
	return f, nil
}

// Duration retrieves a time.Duration value at the path, parsing strings
// like "250ms" and accepting integer nanoseconds.
func (c *Config) Duration(path string) (time.Duration, error) {
	val, found := c.Get(path)
	if !found {
		return 0, fmt.Errorf("unknown path: %s", path)
	}
	if d, ok := val.(time.Duration); ok {
		return d, nil
	}
	v, err := coerce(val, durationType)
	if err != nil {
		return 0, fmt.Errorf("%w for path %s", err, path)
	}
	return v.(time.Duration), nil
}
