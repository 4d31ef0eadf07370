// File: lattice/group.go
package lattice

// Group is a slot offering mutually exclusive named sub-tree alternatives.
// Exactly one alternative is active; selecting another replaces the slot's
// children wholesale, it never merges overlapping keys.
type Group struct {
	names       []string
	alts        map[string]any // *Config or *Field per alternative
	defaultName string
	active      string
	err         error
}

// NewGroup creates a group selector whose initially active alternative is
// defaultName. The named alternative must be added with WithOption before
// resolution.
func NewGroup(defaultName string) *Group {
	return &Group{
		alts:        make(map[string]any),
		defaultName: defaultName,
		active:      defaultName,
	}
}

// WithOption adds a named alternative. alt may be a *Config sub-tree, a
// *Field, or a literal value which is wrapped into a defaulted field.
func (g *Group) WithOption(name string, alt any) *Group {
	if g.err == nil && !isValidKeySegment(name) {
		g.err = &ConfigurationError{Reason: "invalid group alternative name " + quote(name)}
		return g
	}
	if g.err == nil {
		if _, dup := g.alts[name]; dup {
			g.err = &ConfigurationError{Reason: "duplicate group alternative " + quote(name)}
			return g
		}
	}
	switch alt.(type) {
	case *Config, *Field:
	default:
		alt = NewField().WithDefault(alt)
	}
	g.names = append(g.names, name)
	g.alts[name] = alt
	return g
}

// Select activates the named alternative, discarding the previously active
// one. Unknown names are a configuration error.
func (g *Group) Select(name string) error {
	if _, ok := g.alts[name]; !ok {
		return &ConfigurationError{Reason: "unknown group alternative " + quote(name)}
	}
	g.active = name
	return nil
}

// ActiveName returns the name of the currently active alternative.
func (g *Group) ActiveName() string { return g.active }

// Active returns the currently active alternative (*Config or *Field).
func (g *Group) Active() any { return g.alts[g.active] }

// DefaultName returns the name of the declared default alternative.
func (g *Group) DefaultName() string { return g.defaultName }

// Names returns the alternative names in declaration order.
func (g *Group) Names() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// checkSpec verifies the group declaration: at least one alternative, and
// the default must name one of them.
func (g *Group) checkSpec(path string) error {
	if g.err != nil {
		if ce, ok := g.err.(*ConfigurationError); ok && ce.Path == "" {
			ce.Path = path
		}
		return g.err
	}
	if len(g.names) == 0 {
		return &ConfigurationError{Path: path, Reason: "group has no alternatives"}
	}
	if _, ok := g.alts[g.defaultName]; !ok {
		return &ConfigurationError{Path: path, Reason: "default alternative " + quote(g.defaultName) + " is not declared"}
	}
	return nil
}
