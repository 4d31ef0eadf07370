// File: lattice/group_test.go
package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modelTree() *Config {
	lstm := New().
		WithValue("hidden_size", 512)
	transformer := New().
		WithValue("num_attention_heads", 4).
		WithValue("num_layers", 6)

	return New().
		WithValue("epochs", 10).
		WithGroup("model", NewGroup("lstm").
			WithOption("lstm", lstm).
			WithOption("transformer", transformer))
}

func TestGroupDefaults(t *testing.T) {
	cfg := modelTree()
	require.NoError(t, cfg.Apply(nil))

	v, ok := cfg.Get("model.hidden_size")
	require.True(t, ok)
	assert.Equal(t, 512, v)

	v, ok = cfg.Get("model")
	require.True(t, ok)
	assert.Equal(t, "lstm", v)

	// Fields of the inactive alternative are not addressable.
	_, ok = cfg.Get("model.num_attention_heads")
	assert.False(t, ok)
}

func TestGroupSwitch(t *testing.T) {
	t.Run("SwitchReplacesWholesale", func(t *testing.T) {
		cfg := modelTree()
		require.NoError(t, cfg.Apply([]string{"model=transformer"}))

		v, ok := cfg.Get("model.num_attention_heads")
		require.True(t, ok)
		assert.Equal(t, 4, v)

		_, ok = cfg.Get("model.hidden_size")
		assert.False(t, ok)
	})

	t.Run("SwitchAppliesBeforeFieldOverrides", func(t *testing.T) {
		cfg := modelTree()
		require.NoError(t, cfg.Apply([]string{"model=transformer", "model.num_attention_heads=99"}))
		v, _ := cfg.Get("model.num_attention_heads")
		assert.Equal(t, 99, v)
	})

	t.Run("OrderIndependence", func(t *testing.T) {
		cfg := modelTree()
		require.NoError(t, cfg.Apply([]string{"model.num_attention_heads=99", "model=transformer"}))
		v, _ := cfg.Get("model.num_attention_heads")
		assert.Equal(t, 99, v)
	})

	t.Run("InvalidGroupName", func(t *testing.T) {
		cfg := modelTree()
		err := cfg.Apply([]string{"model=convnet"})
		require.Error(t, err)
		var ce *ConfigurationError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "model", ce.Path)
		assert.Contains(t, ce.Reason, "convnet")
	})

	t.Run("StaleFieldOverrideIsError", func(t *testing.T) {
		cfg := modelTree()
		err := cfg.Apply([]string{"model=transformer", "model.hidden_size=42"})
		require.Error(t, err)
		var ce *ConfigurationError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "model.hidden_size", ce.Path)
	})

	t.Run("SwitchViaFlagForm", func(t *testing.T) {
		cfg := modelTree()
		require.NoError(t, cfg.Apply([]string{"--model", "transformer"}))
		v, _ := cfg.Get("model")
		assert.Equal(t, "transformer", v)
	})

	t.Run("SwitchViaDocument", func(t *testing.T) {
		cfg := modelTree()
		require.NoError(t, cfg.ApplyOverrides(nil, map[string]any{"model": "transformer"}))
		v, _ := cfg.Get("model")
		assert.Equal(t, "transformer", v)
	})
}

func TestGroupLiteralAlternatives(t *testing.T) {
	cfg := New().WithGroup("activation", NewGroup("relu").
		WithOption("relu", "relu-impl").
		WithOption("gelu", "gelu-impl"))
	require.NoError(t, cfg.Apply([]string{"activation=gelu"}))

	v, ok := cfg.Get("activation")
	require.True(t, ok)
	assert.Equal(t, "gelu-impl", v)
}

func TestGroupDeclarationErrors(t *testing.T) {
	t.Run("NoAlternatives", func(t *testing.T) {
		cfg := New().WithGroup("g", NewGroup("x"))
		err := cfg.Apply(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no alternatives")
	})

	t.Run("DefaultNotDeclared", func(t *testing.T) {
		cfg := New().WithGroup("g", NewGroup("missing").WithOption("a", New().WithValue("x", 1)))
		err := cfg.Apply(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing")
	})

	t.Run("DuplicateAlternative", func(t *testing.T) {
		cfg := New().WithGroup("g", NewGroup("a").
			WithOption("a", New().WithValue("x", 1)).
			WithOption("a", New().WithValue("x", 2)))
		err := cfg.Apply(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})
}

func TestNestedGroupSwitch(t *testing.T) {
	// A group alternative that itself contains a group slot: both switches
	// arrive in one token list, inner one only addressable after the outer
	// switch.
	inner := NewGroup("small").
		WithOption("small", New().WithValue("dim", 64)).
		WithOption("large", New().WithValue("dim", 1024))
	deep := New().WithGroup("size", inner)

	cfg := New().WithGroup("model", NewGroup("flat").
		WithOption("flat", New().WithValue("dim", 8)).
		WithOption("deep", deep))

	require.NoError(t, cfg.Apply([]string{"model.size=large", "model=deep"}))
	v, ok := cfg.Get("model.size.dim")
	require.True(t, ok)
	assert.Equal(t, 1024, v)
}
