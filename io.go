// File: lattice/io.go
package lattice

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrOverridesNotFound is returned when an override document path does
// not exist.
var ErrOverridesNotFound = errors.New("override document not found")

// Persisted document names written by Save.
const (
	ConfigFileName    = "config.yaml"
	DefaultsFileName  = "defaults.yaml"
	OverridesFileName = "overrides.yaml"
)

// Save writes three sibling documents into dir: the fully resolved
// configuration, a defaults-only snapshot, and the override set actually
// applied by the last Apply. Each write is atomic.
func (c *Config) Save(dir string) error {
	resolved, err := c.ToYAML()
	if err != nil {
		return err
	}
	if err := atomicWriteFile(filepath.Join(dir, ConfigFileName), []byte(resolved)); err != nil {
		return err
	}

	defaults, err := c.defaultsYAML()
	if err != nil {
		return err
	}
	if err := atomicWriteFile(filepath.Join(dir, DefaultsFileName), []byte(defaults)); err != nil {
		return err
	}

	overrides := make(map[string]any)
	for path, value := range c.applied {
		setNestedValue(overrides, path, value)
	}
	data, err := yaml.Marshal(overrides)
	if err != nil {
		return fmt.Errorf("failed to marshal applied overrides: %w", err)
	}
	return atomicWriteFile(filepath.Join(dir, OverridesFileName), data)
}

// defaultsYAML renders the declared defaults: static defaults and factory
// results, the default group alternatives, MISSING for required fields
// and null for derived ones.
func (c *Config) defaultsYAML() (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c.defaultsNode()); err != nil {
		return "", fmt.Errorf("failed to marshal defaults to YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize defaults document: %w", err)
	}
	return buf.String(), nil
}

func (c *Config) defaultsNode() *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range c.keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
		var valNode *yaml.Node
		switch n := c.children[key].(type) {
		case *Field:
			valNode = defaultScalarNode(n)
		case *Config:
			valNode = n.defaultsNode()
		case *Group:
			switch def := n.alts[n.defaultName].(type) {
			case *Config:
				valNode = def.defaultsNode()
			case *Field:
				valNode = defaultScalarNode(def)
			default:
				valNode = scalarNode(nil)
			}
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node
}

func defaultScalarNode(f *Field) *yaml.Node {
	if f.isDerived() {
		return scalarNode(nil)
	}
	return scalarNode(f.defaultValue())
}

// LoadOverridesFile reads a structured override document from disk. The
// format is detected from the file extension first, then from content:
// YAML, TOML, or JSON.
func LoadOverridesFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrOverridesNotFound, path)
		}
		return nil, fmt.Errorf("failed to read override document %q: %w", path, err)
	}

	format := detectFileFormat(path)
	if format == "" {
		format = detectFormatFromContent(data)
		if format == "" {
			return nil, fmt.Errorf("unable to determine format of override document %q", path)
		}
	}

	doc := make(map[string]any)
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML override document %q: %w", path, err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse TOML override document %q: %w", path, err)
		}
	case "json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber() // Preserve number precision
		if err := decoder.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON override document %q: %w", path, err)
		}
	}
	return doc, nil
}

// detectFileFormat determines format from the file extension.
func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml", ".tml":
		return "toml"
	case ".json":
		return "json"
	default:
		return ""
	}
}

// detectFormatFromContent attempts detection by parsing: JSON first
// (strict), then TOML, then YAML (accepts nearly anything).
func detectFormatFromContent(data []byte) string {
	var jsonTest any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return "json"
	}

	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return "toml"
	}

	var yamlTest any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		return "yaml"
	}

	return ""
}

// atomicWriteFile writes data through a temp file in the target directory
// followed by a rename, so readers never observe a partial document.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // Clean up on any error

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
