// File: lattice/config.go
package lattice

import (
	"io"
	"os"
	"strings"
)

// Config is a named, ordered tree of fields, nested sections, and group
// selectors. The dot-joined path of keys from the root is the sole
// namespace for overrides.
//
// A Config is built once, resolved once with Apply, and then read.
// Concurrent Apply calls on the same tree are not supported.
type Config struct {
	keys     []string
	children map[string]any // *Field | *Config | *Group
	validate func(*Config) bool

	helpWriter io.Writer
	applied    map[string]any // flattened overrides applied by the last Apply
	err        error          // first construction error, surfaced at Apply
}

// New creates an empty configuration node.
func New() *Config {
	return &Config{children: make(map[string]any)}
}

// WithField adds a leaf field under the given key.
func (c *Config) WithField(key string, f *Field) *Config {
	return c.add(key, f)
}

// WithValue is shorthand for a field with a static default.
func (c *Config) WithValue(key string, v any) *Config {
	return c.add(key, NewField().WithDefault(v))
}

// WithSection nests a configuration node under the given key.
func (c *Config) WithSection(key string, sub *Config) *Config {
	return c.add(key, sub)
}

// WithGroup adds a group selector slot under the given key.
func (c *Config) WithGroup(key string, g *Group) *Config {
	return c.add(key, g)
}

// WithValidate sets a node-level predicate evaluated after all children
// have resolved.
func (c *Config) WithValidate(fn func(*Config) bool) *Config {
	c.validate = fn
	return c
}

// WithHelpWriter redirects the help page rendered on -h/--help. Defaults
// to standard output.
func (c *Config) WithHelpWriter(w io.Writer) *Config {
	c.helpWriter = w
	return c
}

func (c *Config) add(key string, child any) *Config {
	if c.err == nil && !isValidKeySegment(key) {
		c.err = &ConfigurationError{Reason: "invalid key " + quote(key)}
		return c
	}
	if c.err == nil {
		if _, dup := c.children[key]; dup {
			c.err = &ConfigurationError{Path: key, Reason: "duplicate key"}
			return c
		}
	}
	if _, exists := c.children[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.children[key] = child
	return c
}

// Keys returns the node's child keys in declaration order.
func (c *Config) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Child returns the direct child under key: a *Field, *Config or *Group.
func (c *Config) Child(key string) (any, bool) {
	child, ok := c.children[key]
	return child, ok
}

// Field returns the field at the dotted path, nil if the path does not
// resolve to a field. Group slots are traversed through their active
// alternative.
func (c *Config) Field(path string) *Field {
	_, _, target, err := c.locate(path)
	if err != nil {
		return nil
	}
	f, _ := target.(*Field)
	return f
}

// Section returns the configuration node at the dotted path, nil if the
// path does not resolve to a section.
func (c *Config) Section(path string) *Config {
	_, _, target, err := c.locate(path)
	if err != nil {
		return nil
	}
	switch t := target.(type) {
	case *Config:
		return t
	case *Group:
		sub, _ := t.Active().(*Config)
		return sub
	}
	return nil
}

// Get retrieves the value at the dotted path. Field paths yield the field
// value, group slot paths yield the active alternative name.
func (c *Config) Get(path string) (any, bool) {
	_, _, target, err := c.locate(path)
	if err != nil {
		return nil, false
	}
	switch t := target.(type) {
	case *Field:
		return t.Value(), true
	case *Group:
		if f, ok := t.Active().(*Field); ok {
			return f.Value(), true
		}
		return t.ActiveName(), true
	}
	return nil, false
}

// locate walks the tree to the parent node of the path's last segment and
// returns that parent, the final key, and the addressed child. Group slots
// on the way are traversed through their active alternative.
func (c *Config) locate(path string) (parent *Config, key string, target any, err error) {
	segments := strings.Split(path, ".")
	cur := c
	for i, segment := range segments {
		child, ok := cur.children[segment]
		if !ok {
			return nil, "", nil, &ConfigurationError{Path: path, Reason: "unknown override path"}
		}
		if i == len(segments)-1 {
			return cur, segment, child, nil
		}
		switch n := child.(type) {
		case *Config:
			cur = n
		case *Group:
			sub, ok := n.Active().(*Config)
			if !ok {
				return nil, "", nil, &ConfigurationError{Path: path, Reason: "path descends into a literal group alternative"}
			}
			cur = sub
		default:
			return nil, "", nil, &ConfigurationError{Path: path, Reason: "path descends into a leaf field"}
		}
	}
	return nil, "", nil, &ConfigurationError{Path: path, Reason: "unknown override path"}
}

// checkDeclaration validates the declared tree before resolution:
// construction errors, field spec conflicts, and group consistency.
func (c *Config) checkDeclaration(prefix string) error {
	if c.err != nil {
		if ce, ok := c.err.(*ConfigurationError); ok && prefix != "" && ce.Path == "" {
			ce.Path = strings.TrimSuffix(prefix, ".")
		}
		return c.err
	}
	for _, key := range c.keys {
		path := prefix + key
		switch n := c.children[key].(type) {
		case *Field:
			if err := n.checkSpec(path); err != nil {
				return err
			}
		case *Config:
			if err := n.checkDeclaration(path + "."); err != nil {
				return err
			}
		case *Group:
			if err := n.checkSpec(path); err != nil {
				return err
			}
			for _, name := range n.names {
				if sub, ok := n.alts[name].(*Config); ok {
					if err := sub.checkDeclaration(path + "."); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// walkFields visits every field in the active view of the tree in
// declaration order (pre-order). parent is the innermost enclosing node.
func (c *Config) walkFields(prefix string, fn func(path string, parent *Config, f *Field) error) error {
	for _, key := range c.keys {
		path := prefix + key
		switch n := c.children[key].(type) {
		case *Field:
			if err := fn(path, c, n); err != nil {
				return err
			}
		case *Config:
			if err := n.walkFields(path+".", fn); err != nil {
				return err
			}
		case *Group:
			switch active := n.Active().(type) {
			case *Config:
				if err := active.walkFields(path+".", fn); err != nil {
					return err
				}
			case *Field:
				if err := fn(path, c, active); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (c *Config) writer() io.Writer {
	if c.helpWriter != nil {
		return c.helpWriter
	}
	return os.Stdout
}
