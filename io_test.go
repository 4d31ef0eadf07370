// File: lattice/io_test.go
package lattice

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSave(t *testing.T) {
	cfg := New().
		WithValue("name", "base").
		WithSection("train", New().
			WithValue("epochs", 10).
			WithField("warmup", NewField().WithReferenceRoot(func(root *Config) (any, error) {
				v, err := root.Int64("train.epochs")
				return v / 10, err
			})))
	require.NoError(t, cfg.Apply([]string{"train.epochs=20"}))

	dir := t.TempDir()
	require.NoError(t, cfg.Save(dir))

	resolved, err := os.ReadFile(filepath.Join(dir, ConfigFileName))
	require.NoError(t, err)
	assert.Contains(t, string(resolved), "epochs: 20")
	assert.Contains(t, string(resolved), "warmup: 2")

	// The defaults snapshot records the declaration, not the override:
	// static defaults, null for derived fields.
	defaults, err := os.ReadFile(filepath.Join(dir, DefaultsFileName))
	require.NoError(t, err)
	assert.Contains(t, string(defaults), "epochs: 10")
	assert.Contains(t, string(defaults), "warmup: null")

	overrides, err := os.ReadFile(filepath.Join(dir, OverridesFileName))
	require.NoError(t, err)
	assert.Contains(t, string(overrides), "epochs: 20")
	assert.NotContains(t, string(overrides), "name")
}

func TestSaveDefaultsForGroupsAndRequired(t *testing.T) {
	cfg := modelTree().WithField("run_name", NewField())
	require.NoError(t, cfg.Apply([]string{"run_name=x", "model=transformer"}))

	dir := t.TempDir()
	require.NoError(t, cfg.Save(dir))

	defaults, err := os.ReadFile(filepath.Join(dir, DefaultsFileName))
	require.NoError(t, err)
	// Defaults always show the default alternative, even after a switch.
	assert.Contains(t, string(defaults), "hidden_size: 512")
	assert.NotContains(t, string(defaults), "num_layers")
	assert.Contains(t, string(defaults), "run_name: MISSING")

	resolved, err := os.ReadFile(filepath.Join(dir, ConfigFileName))
	require.NoError(t, err)
	assert.Contains(t, string(resolved), "num_layers: 6")
}

func TestLoadOverridesFile(t *testing.T) {
	write := func(t *testing.T, name, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	t.Run("YAML", func(t *testing.T) {
		doc, err := LoadOverridesFile(write(t, "o.yaml", "train:\n  epochs: 20\n"))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"train": map[string]any{"epochs": 20}}, doc)
	})

	t.Run("TOML", func(t *testing.T) {
		doc, err := LoadOverridesFile(write(t, "o.toml", "[train]\nepochs = 20\n"))
		require.NoError(t, err)
		train, ok := doc["train"].(map[string]any)
		require.True(t, ok)
		assert.EqualValues(t, 20, train["epochs"])
	})

	t.Run("JSON", func(t *testing.T) {
		doc, err := LoadOverridesFile(write(t, "o.json", `{"train": {"epochs": 20}}`))
		require.NoError(t, err)
		train, ok := doc["train"].(map[string]any)
		require.True(t, ok)
		// UseNumber keeps integer precision intact.
		assert.Equal(t, json.Number("20"), train["epochs"])
	})

	t.Run("ContentDetectionWithoutExtension", func(t *testing.T) {
		doc, err := LoadOverridesFile(write(t, "overrides", `{"a": 1}`))
		require.NoError(t, err)
		assert.Contains(t, doc, "a")

		doc, err = LoadOverridesFile(write(t, "noext", "a = 1\n"))
		require.NoError(t, err)
		assert.Contains(t, doc, "a")
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadOverridesFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorIs(t, err, ErrOverridesNotFound)
	})

	t.Run("MalformedDocument", func(t *testing.T) {
		_, err := LoadOverridesFile(write(t, "bad.json", "{not json"))
		assert.Error(t, err)
	})
}

func TestDocumentDrivenResolution(t *testing.T) {
	path := filepath.Join(t.TempDir(), "o.yaml")
	require.NoError(t, os.WriteFile(path, []byte("train:\n  epochs: 20\n"), 0644))

	doc, err := LoadOverridesFile(path)
	require.NoError(t, err)

	cfg := New().WithSection("train", New().WithValue("epochs", 10))
	require.NoError(t, cfg.ApplyOverrides(nil, doc))

	v, _ := cfg.Get("train.epochs")
	assert.Equal(t, 20, v)
}
