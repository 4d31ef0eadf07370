// File: lattice/errors.go
package lattice

import (
	"errors"
	"fmt"
	"strings"
)

// ErrHelp is returned by Apply when -h or --help was present in the
// override tokens. The help page has already been written at that point;
// no usable configuration state should be assumed.
var ErrHelp = errors.New("help requested")

// ConfigurationError reports structural or declaration misuse: unknown
// override paths, invalid group names, conflicting field specifications.
// These are never retried.
type ConfigurationError struct {
	Path   string // dotted path of the offending slot, may be empty
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// ConversionError reports a raw override value that could not be converted
// by the field's converter or declared type. No alternate converters are
// attempted.
type ConversionError struct {
	Path  string
	Value any
	Type  string // target type name
	Err   error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("cannot convert value %v to %s for path %s", e.Value, e.Type, e.Path)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConversionError) Unwrap() error { return e.Err }

// ValidationError reports a field-level or node-level validation predicate
// that rejected a value. The first failure stops the validation phase.
type ValidationError struct {
	Path  string
	Value any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for path %s with value %v", e.Path, e.Value)
}

// MissingFieldsError lists every required field still unset after
// resolution. Missing fields are batch-reported so all of them can be
// fixed in one iteration.
type MissingFieldsError struct {
	Paths []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required arguments: %s", strings.Join(e.Paths, ", "))
}

// ReferenceError wraps an error raised inside a reference function,
// tagged with the owning field's path.
type ReferenceError struct {
	Path string
	Err  error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("reference for path %s failed: %v", e.Path, e.Err)
}

func (e *ReferenceError) Unwrap() error { return e.Err }
