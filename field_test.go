// File: lattice/field_test.go
package lattice

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldConstruction(t *testing.T) {
	t.Run("DefaultSetsValueAndType", func(t *testing.T) {
		f := NewField().WithDefault(42)
		assert.Equal(t, 42, f.Value())
		assert.Equal(t, reflect.TypeOf(0), f.Type())
		assert.False(t, f.IsMissing())
	})

	t.Run("NoDefaultIsMissing", func(t *testing.T) {
		f := NewField()
		assert.True(t, f.IsMissing())
		assert.Equal(t, "any", f.typeName())
	})

	t.Run("ExplicitTypeWinsOverInference", func(t *testing.T) {
		f := NewField().WithType(reflect.TypeOf(int64(0))).WithDefault(1)
		assert.Equal(t, reflect.TypeOf(int64(0)), f.Type())
	})

	t.Run("FactoryEvaluatedAtConstruction", func(t *testing.T) {
		f := NewField().WithDefaultFactory(func() any { return []string{"a"} })
		assert.Equal(t, []string{"a"}, f.Value())
		assert.Equal(t, reflect.TypeOf([]string{}), f.Type())
	})

	t.Run("NilDefaultIsNotMissing", func(t *testing.T) {
		f := NewField().WithDefault(nil)
		assert.False(t, f.IsMissing())
		assert.Nil(t, f.Value())
	})
}

func TestFieldSpecConflicts(t *testing.T) {
	tests := []struct {
		name  string
		field *Field
	}{
		{"DefaultAndFactory", NewField().WithDefault(1).WithDefaultFactory(func() any { return 2 })},
		{"ReferenceAndDefault", NewField().WithDefault(1).WithReference(func(*Config) (any, error) { return 1, nil })},
		{"ReferenceAndRootReference", NewField().
			WithReference(func(*Config) (any, error) { return 1, nil }).
			WithReferenceRoot(func(*Config) (any, error) { return 1, nil })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New().WithField("x", tt.field)
			err := cfg.Apply(nil)
			require.Error(t, err)
			var ce *ConfigurationError
			assert.ErrorAs(t, err, &ce)
			assert.Equal(t, "x", ce.Path)
		})
	}
}

func TestFieldOverrideConversion(t *testing.T) {
	t.Run("StringCoercedToInt", func(t *testing.T) {
		f := NewField().WithDefault(1)
		require.NoError(t, f.setOverride("n", "7"))
		assert.Equal(t, 7, f.Value())
	})

	t.Run("MatchingTypeSkipsConversion", func(t *testing.T) {
		called := false
		f := NewField().WithDefault(1).WithConvert(func(raw any) (any, error) {
			called = true
			return raw, nil
		})
		require.NoError(t, f.setOverride("n", 5))
		assert.False(t, called)
		assert.Equal(t, 5, f.Value())
	})

	t.Run("NilSkipsConversion", func(t *testing.T) {
		f := NewField().WithDefault("x")
		require.NoError(t, f.setOverride("s", nil))
		assert.Nil(t, f.Value())
	})

	t.Run("CustomConverterWinsOverType", func(t *testing.T) {
		f := NewField().WithDefault(0).WithConvert(func(raw any) (any, error) {
			return len(raw.(string)), nil
		})
		require.NoError(t, f.setOverride("n", "abcd"))
		assert.Equal(t, 4, f.Value())
	})

	t.Run("UnconvertibleValueFails", func(t *testing.T) {
		f := NewField().WithDefault(1)
		err := f.setOverride("n", "not-a-number")
		require.Error(t, err)
		var ce *ConversionError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "n", ce.Path)
		assert.Equal(t, "not-a-number", ce.Value)
	})

	t.Run("UntypedFieldKeepsRawValue", func(t *testing.T) {
		f := NewField()
		require.NoError(t, f.setOverride("x", "anything"))
		assert.Equal(t, "anything", f.Value())
	})
}

func TestFactoryDefaultsNotAliased(t *testing.T) {
	factory := func() any { return []string{"a"} }
	cfg := New().WithField("tags", NewField().WithDefaultFactory(factory))
	require.NoError(t, cfg.Apply(nil))

	v, ok := cfg.Get("tags")
	require.True(t, ok)
	tags := v.([]string)
	_ = append(tags, "mutation") // mutate capacity-permitting
	tags[0] = "changed"

	require.NoError(t, cfg.Apply(nil))
	v, _ = cfg.Get("tags")
	assert.Equal(t, []string{"a"}, v)
}
