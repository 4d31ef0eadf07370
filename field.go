// File: lattice/field.go
package lattice

import (
	"reflect"
)

// missingType is the sentinel for required fields with no value yet.
// It is distinct from nil, which is a legal resolved value.
type missingType struct{}

func (missingType) String() string { return "MISSING" }

// Missing marks a field value as absent. A field still holding Missing
// after resolution fails the required-field check.
var Missing = missingType{}

// ConvertFunc converts a raw override value into the field's typed value.
type ConvertFunc func(raw any) (any, error)

// ValidateFunc reports whether a resolved value is acceptable.
type ValidateFunc func(value any) bool

// ReferenceFunc derives a field value from a configuration node. For
// WithReference the argument is the innermost enclosing node, for
// WithReferenceRoot it is the tree root. The function must only read the
// tree, never mutate it.
type ReferenceFunc func(cfg *Config) (any, error)

// Field is a single leaf configuration slot: a default (or factory, or
// reference), a declared or inferred type, optional conversion and
// validation, and help text.
type Field struct {
	typ           reflect.Type
	def           any
	hasDefault    bool
	factory       func() any
	convert       ConvertFunc
	validate      ValidateFunc
	reference     ReferenceFunc
	referenceRoot ReferenceFunc
	help          string

	value      any
	overridden bool
}

// NewField creates an empty required field. Chain WithDefault,
// WithReference etc. to define its resolution source.
func NewField() *Field {
	return &Field{value: Missing}
}

// WithDefault sets a static default value. The field's type is inferred
// from the value when not declared explicitly.
func (f *Field) WithDefault(v any) *Field {
	f.def = v
	f.hasDefault = true
	f.value = v
	f.inferType(v)
	return f
}

// WithDefaultFactory sets a zero-argument producer of the default value.
// The factory is called fresh on every resolution so mutable defaults are
// never shared between instances.
func (f *Field) WithDefaultFactory(fn func() any) *Field {
	f.factory = fn
	if fn != nil {
		v := fn()
		f.value = v
		f.inferType(v)
	}
	return f
}

// WithType declares the field's type explicitly, overriding inference.
func (f *Field) WithType(t reflect.Type) *Field {
	f.typ = t
	return f
}

// WithConvert sets a converter applied to raw override values. It takes
// precedence over the type-based fallback conversion.
func (f *Field) WithConvert(fn ConvertFunc) *Field {
	f.convert = fn
	return f
}

// WithValidate sets a predicate evaluated during the validation phase.
func (f *Field) WithValidate(fn ValidateFunc) *Field {
	f.validate = fn
	return f
}

// WithReference marks the field as derived from the innermost enclosing
// configuration node. Mutually exclusive with defaults; an explicit
// override still takes precedence over the reference.
func (f *Field) WithReference(fn ReferenceFunc) *Field {
	f.reference = fn
	return f
}

// WithReferenceRoot is like WithReference but the function receives the
// root of the tree instead of the innermost enclosing node.
func (f *Field) WithReferenceRoot(fn ReferenceFunc) *Field {
	f.referenceRoot = fn
	return f
}

// WithHelp sets the documentation string shown on the help page.
func (f *Field) WithHelp(text string) *Field {
	f.help = text
	return f
}

// Value returns the field's current value, or Missing if unset.
func (f *Field) Value() any { return f.value }

// IsMissing reports whether the field has no value yet.
func (f *Field) IsMissing() bool {
	_, missing := f.value.(missingType)
	return missing
}

// Help returns the field's documentation string.
func (f *Field) Help() string { return f.help }

// Type returns the field's declared or inferred type, nil if undetermined.
func (f *Field) Type() reflect.Type { return f.typ }

func (f *Field) inferType(v any) {
	if f.typ == nil && v != nil {
		f.typ = reflect.TypeOf(v)
	}
}

func (f *Field) isDerived() bool {
	return f.reference != nil || f.referenceRoot != nil
}

// checkSpec verifies the field declaration is internally consistent:
// exactly one of default, default factory, reference, or nothing (required)
// determines the resolution source.
func (f *Field) checkSpec(path string) error {
	if f.hasDefault && f.factory != nil {
		return &ConfigurationError{Path: path, Reason: "both default and default factory are set"}
	}
	if f.reference != nil && f.referenceRoot != nil {
		return &ConfigurationError{Path: path, Reason: "both reference and root reference are set"}
	}
	if f.isDerived() && (f.hasDefault || f.factory != nil) {
		return &ConfigurationError{Path: path, Reason: "a derived field cannot also have a default"}
	}
	return nil
}

// typeName returns a printable name for the field's type.
func (f *Field) typeName() string {
	if f.typ == nil {
		return "any"
	}
	return f.typ.String()
}

// isBool reports whether the field holds a boolean, which enables the
// bare --key / --no-key flag convention in the override parser.
func (f *Field) isBool() bool {
	return f.typ != nil && f.typ.Kind() == reflect.Bool
}

// setOverride converts and stores a raw override value. Conversion is
// skipped when the value already satisfies the field type or is nil.
func (f *Field) setOverride(path string, raw any) error {
	v := raw
	if raw != nil && !f.satisfies(raw) {
		var err error
		switch {
		case f.convert != nil:
			v, err = f.convert(raw)
		case f.typ != nil:
			v, err = coerce(raw, f.typ)
		default:
			// No declared type and no converter: keep the raw value.
		}
		if err != nil {
			return &ConversionError{Path: path, Value: raw, Type: f.typeName(), Err: err}
		}
	}
	f.value = v
	f.overridden = true
	return nil
}

// satisfies reports whether a raw value already matches the field's type.
func (f *Field) satisfies(raw any) bool {
	if f.typ == nil {
		return f.convert == nil
	}
	rt := reflect.TypeOf(raw)
	return rt != nil && rt.AssignableTo(f.typ)
}

// refreshDefault re-evaluates the default source for a field that has not
// been explicitly overridden. Called at the start of every resolution.
func (f *Field) refreshDefault() {
	if f.overridden {
		return
	}
	if f.factory != nil {
		f.value = f.factory()
	} else if f.hasDefault {
		f.value = f.def
	}
}

// defaultValue returns the field's declared default (factory-produced if
// needed), or Missing when the field has none.
func (f *Field) defaultValue() any {
	switch {
	case f.hasDefault:
		return f.def
	case f.factory != nil:
		return f.factory()
	default:
		return Missing
	}
}
