// File: lattice/present.go
package lattice

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ToMap converts the tree to a plain nested mapping of values. Group
// slots serialize as their active alternative's mapping only; the
// selection name is not recoverable from the output alone.
func (c *Config) ToMap() map[string]any {
	out := make(map[string]any, len(c.keys))
	for _, key := range c.keys {
		switch n := c.children[key].(type) {
		case *Field:
			out[key] = n.Value()
		case *Config:
			out[key] = n.ToMap()
		case *Group:
			switch active := n.Active().(type) {
			case *Config:
				out[key] = active.ToMap()
			case *Field:
				out[key] = active.Value()
			}
		}
	}
	return out
}

// FromMap builds a configuration node from a plain nested mapping. Nested
// maps become sections, everything else becomes a defaulted field. Keys
// are taken in lexical order since Go maps carry no ordering. Group
// structure cannot be reconstructed; a map produced by ToMap for a tree
// with group slots yields plain sections.
func FromMap(m map[string]any) *Config {
	cfg := New()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if sub, isMap := m[k].(map[string]any); isMap {
			cfg.WithSection(k, FromMap(sub))
		} else {
			cfg.WithValue(k, m[k])
		}
	}
	return cfg
}

// ToYAML renders the tree as a YAML document preserving declaration
// order. Values the codec cannot represent fall back to their string
// form; Missing renders as the literal MISSING.
func (c *Config) ToYAML() (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c.yamlNode()); err != nil {
		return "", fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize YAML document: %w", err)
	}
	return buf.String(), nil
}

// PrintYAML writes the YAML rendering to standard output.
func (c *Config) PrintYAML() {
	s, err := c.ToYAML()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lattice: %v\n", err)
		return
	}
	fmt.Print(s)
}

// yamlNode builds an order-preserving YAML mapping node for the tree.
// Plain Go maps would lose declaration order in the encoder.
func (c *Config) yamlNode() *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range c.keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
		var valNode *yaml.Node
		switch n := c.children[key].(type) {
		case *Field:
			valNode = scalarNode(n.Value())
		case *Config:
			valNode = n.yamlNode()
		case *Group:
			switch active := n.Active().(type) {
			case *Config:
				valNode = active.yamlNode()
			case *Field:
				valNode = scalarNode(active.Value())
			}
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node
}

func scalarNode(v any) *yaml.Node {
	node := &yaml.Node{}
	if _, missing := v.(missingType); missing {
		node.SetString("MISSING")
		return node
	}
	if err := node.Encode(v); err != nil {
		node.SetString(fmt.Sprintf("%v", v))
	}
	return node
}

// ToTOML renders the tree through the TOML codec. TOML cannot represent
// nil or Missing values, those leaves are omitted.
func (c *Config) ToTOML() (string, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(sanitizeForTOML(c.ToMap())); err != nil {
		return "", fmt.Errorf("failed to marshal config to TOML: %w", err)
	}
	return buf.String(), nil
}

func sanitizeForTOML(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case nil, missingType:
			continue
		case map[string]any:
			out[k] = sanitizeForTOML(t)
		default:
			out[k] = v
		}
	}
	return out
}

// WriteHelp renders the help page: every field in declaration order with
// its dotted path, type, default and help text, and every group slot with
// its alternatives. Fields of inactive alternatives are listed too,
// annotated with the selection that activates them.
func (c *Config) WriteHelp(w io.Writer) {
	prog := "app"
	if len(os.Args) > 0 {
		prog = os.Args[0]
	}
	fmt.Fprintf(w, "Usage: %s [key=value | --key value | --flag] [--overrides <file>]\n\n", prog)
	c.writeHelpNode(w, "", "")
}

// PrintHelp writes the help page to standard output.
func (c *Config) PrintHelp() {
	c.WriteHelp(os.Stdout)
}

func (c *Config) writeHelpNode(w io.Writer, prefix, condition string) {
	for _, key := range c.keys {
		path := prefix + key
		switch n := c.children[key].(type) {
		case *Field:
			writeHelpField(w, path, n, condition)
		case *Config:
			n.writeHelpNode(w, path+".", condition)
		case *Group:
			fmt.Fprintf(w, "  %-40s group: %s (default %s)\n",
				path, strings.Join(n.Names(), " | "), n.DefaultName())
			for _, name := range n.Names() {
				cond := fmt.Sprintf("active if %s=%s", path, name)
				switch alt := n.alts[name].(type) {
				case *Config:
					alt.writeHelpNode(w, path+".", cond)
				case *Field:
					writeHelpField(w, path, alt, cond)
				}
			}
		}
	}
}

func writeHelpField(w io.Writer, path string, f *Field, condition string) {
	def := "required"
	if dv := f.defaultValue(); !isMissing(dv) {
		def = fmt.Sprintf("= %v", dv)
	} else if f.isDerived() {
		def = "derived"
	}
	line := fmt.Sprintf("  %-40s (%s) %s", path, f.typeName(), def)
	if f.help != "" {
		line += "  " + f.help
	}
	if condition != "" {
		line += "  [" + condition + "]"
	}
	fmt.Fprintln(w, line)
}

func isMissing(v any) bool {
	_, missing := v.(missingType)
	return missing
}
