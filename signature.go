// File: lattice/signature.go
package lattice

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Param describes one parameter of an external callable. Go erases
// parameter names at runtime, so the caller supplies the list explicitly;
// this is the reduced-capability substitute for signature introspection.
type Param struct {
	Name       string
	Type       reflect.Type // nil if undeclared
	Default    any
	HasDefault bool
	Help       string
}

// FromParams builds a configuration node with one field per parameter.
// A parameter without type and without default becomes a required field
// of undetermined type; its overrides pass through unconverted.
func FromParams(params ...Param) *Config {
	cfg := New()
	for _, p := range params {
		f := NewField().WithHelp(p.Help)
		if p.Type != nil {
			f.WithType(p.Type)
		}
		if p.HasDefault {
			f.WithDefault(p.Default)
		}
		cfg.WithField(p.Name, f)
	}
	return cfg
}

// FromStruct builds a configuration node from a struct carrying default
// values, using `toml` tags for key names the way configuration structs
// are usually tagged. Nested structs are supported one level deep; deeper
// nesting is rejected.
func FromStruct(v any) (*Config, error) {
	return fromStruct(v, 0)
}

func fromStruct(v any, depth int) (*Config, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, fmt.Errorf("FromStruct requires a non-nil struct pointer or value")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("FromStruct requires a struct or struct pointer, got %T", v)
	}

	cfg := New()
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get("toml")
		if tag == "-" {
			continue
		}
		key := field.Name
		if tag != "" {
			if name := strings.Split(tag, ",")[0]; name != "" {
				key = name
			}
		}
		help := field.Tag.Get("help")

		value := rv.Field(i)
		if value.Kind() == reflect.Struct && field.Type != durationType && field.Type != reflect.TypeOf(time.Time{}) {
			if depth >= 1 {
				return nil, fmt.Errorf("field %s: struct nesting deeper than one level is not supported", field.Name)
			}
			sub, err := fromStruct(value.Interface(), depth+1)
			if err != nil {
				return nil, err
			}
			cfg.WithSection(key, sub)
			continue
		}

		cfg.WithField(key, NewField().
			WithType(field.Type).
			WithDefault(value.Interface()).
			WithHelp(help))
	}
	return cfg, nil
}

// Scan decodes the resolved values under basePath into the target struct
// or map. The target must be a non-nil pointer; `toml` tags map fields.
// An empty basePath scans the whole tree.
func (c *Config) Scan(basePath string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("target of Scan must be a non-nil pointer, got %T", target)
	}

	var sectionMap map[string]any
	if basePath == "" {
		sectionMap = c.ToMap()
	} else {
		section := c.Section(basePath)
		if section == nil {
			return fmt.Errorf("configuration path %q does not refer to a scannable section", basePath)
		}
		sectionMap = section.ToMap()
	}

	// Missing leaves cannot decode meaningfully; Scan is for resolved trees.
	stripMissing(sectionMap)

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "toml",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(sectionMap); err != nil {
		return fmt.Errorf("failed to scan section %q into %T: %w", basePath, target, err)
	}
	return nil
}

func stripMissing(m map[string]any) {
	for k, v := range m {
		switch t := v.(type) {
		case missingType:
			delete(m, k)
		case map[string]any:
			stripMissing(t)
		}
	}
}
