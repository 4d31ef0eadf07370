// File: lattice/override.go
package lattice

import (
	"strconv"
	"strings"
)

// assignment is a single (dotted path, raw value) override, ordered by
// arrival. Document assignments sort before CLI assignments of the same
// path so the CLI keeps the last word.
type assignment struct {
	path  string
	value any
}

// parseOverrides normalizes CLI tokens and an optional structured override
// document into an ordered assignment sequence. Reserved tokens handled
// here: -h/--help (short-circuits everything) and --overrides <path> /
// --overrides=<path>, which loads a document from disk. A document loaded
// from the CLI flag replaces one passed programmatically.
func (c *Config) parseOverrides(tokens []string, doc map[string]any) ([]assignment, bool, error) {
	for _, tok := range tokens {
		if tok == "-h" || tok == "--help" {
			return nil, true, nil
		}
	}

	rest := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok == "--overrides":
			if i+1 >= len(tokens) {
				return nil, false, &ConfigurationError{Reason: "--overrides requires a file path"}
			}
			loaded, err := LoadOverridesFile(tokens[i+1])
			if err != nil {
				return nil, false, err
			}
			doc = loaded
			i++
		case strings.HasPrefix(tok, "--overrides="):
			loaded, err := LoadOverridesFile(strings.TrimPrefix(tok, "--overrides="))
			if err != nil {
				return nil, false, err
			}
			doc = loaded
		default:
			rest = append(rest, tok)
		}
	}

	var asgs []assignment

	// Document overrides first: the coarse-grained bulk source. Flat paths
	// are unique within a document, lexical order keeps errors stable.
	if doc != nil {
		flat := flattenMap(doc, "")
		for _, path := range sortedPaths(flat) {
			asgs = append(asgs, assignment{path: path, value: flat[path]})
		}
	}

	cli, err := c.parseTokens(rest)
	if err != nil {
		return nil, false, err
	}
	asgs = append(asgs, cli...)

	return asgs, false, nil
}

// parseTokens scans CLI tokens left to right. Accepted forms:
//
//	key=value
//	--key=value
//	--key value
//	--key        (boolean fields: true)
//	--no-key     (boolean fields: false)
//
// A boolean field's "--key value" form consumes the value only when it is
// a boolean literal, so "--flag --other ..." and "--flag false" both work.
func (c *Config) parseTokens(tokens []string) ([]assignment, error) {
	var asgs []assignment

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		if eq := strings.Index(tok, "="); eq >= 0 {
			key := strings.TrimPrefix(tok[:eq], "--")
			if key == "" {
				return nil, &ConfigurationError{Reason: "empty key in token " + quote(tok)}
			}
			asgs = append(asgs, assignment{path: key, value: tok[eq+1:]})
			continue
		}

		if !strings.HasPrefix(tok, "--") {
			return nil, &ConfigurationError{Reason: "unexpected token " + quote(tok)}
		}

		key := strings.TrimPrefix(tok, "--")
		if key == "" {
			return nil, &ConfigurationError{Reason: "empty flag"}
		}

		// Negation form: --no-key sets a boolean field to false.
		if trimmed, ok := strings.CutPrefix(key, "no-"); ok && c.Field(key) == nil {
			f := c.Field(trimmed)
			if f == nil || !f.isBool() {
				return nil, &ConfigurationError{Path: trimmed, Reason: "--no- flag does not address a boolean field"}
			}
			asgs = append(asgs, assignment{path: trimmed, value: false})
			continue
		}

		if f := c.Field(key); f != nil && f.isBool() {
			if i+1 < len(tokens) {
				if _, err := strconv.ParseBool(tokens[i+1]); err == nil {
					asgs = append(asgs, assignment{path: key, value: tokens[i+1]})
					i++
					continue
				}
			}
			asgs = append(asgs, assignment{path: key, value: true})
			continue
		}

		// Non-boolean flags need a value token.
		if i+1 >= len(tokens) {
			return nil, &ConfigurationError{Path: key, Reason: "flag requires a value"}
		}
		asgs = append(asgs, assignment{path: key, value: tokens[i+1]})
		i++
	}

	return asgs, nil
}

// applyAssignments runs the override phase. Group switches are applied
// before any per-field override regardless of their position among the raw
// tokens; otherwise per-field overrides could target nodes discarded by a
// later switch. Switches can reveal nested group slots, so classification
// repeats until it reaches a fixed point.
func (c *Config) applyAssignments(asgs []assignment) error {
	pending := asgs
	for {
		var fields []assignment
		switched := false
		for _, a := range pending {
			if c.isGroupSwitch(a) {
				if err := c.applyOne(a); err != nil {
					return err
				}
				switched = true
			} else {
				fields = append(fields, a)
			}
		}
		pending = fields
		if !switched {
			break
		}
	}

	for _, a := range pending {
		if err := c.applyOne(a); err != nil {
			return err
		}
	}
	return nil
}

// isGroupSwitch reports whether the assignment addresses a group selector
// slot in the current active view. Unknown paths are not classified here;
// they may become valid after a pending switch and are rejected in
// applyOne if they never do.
func (c *Config) isGroupSwitch(a assignment) bool {
	_, _, target, err := c.locate(a.path)
	if err != nil {
		return false
	}
	_, isGroup := target.(*Group)
	return isGroup
}

// applyOne applies a single assignment to the addressed slot: a selector
// switch for group slots, a convert-and-store for fields.
func (c *Config) applyOne(a assignment) error {
	_, _, target, err := c.locate(a.path)
	if err != nil {
		return err
	}

	switch n := target.(type) {
	case *Group:
		name, err := toString(a.value)
		if err != nil {
			return &ConfigurationError{Path: a.path, Reason: "group selection requires an alternative name"}
		}
		if err := n.Select(name); err != nil {
			if ce, ok := err.(*ConfigurationError); ok {
				ce.Path = a.path
			}
			return err
		}
		c.recordApplied(a.path, name)
		return nil
	case *Field:
		if err := n.setOverride(a.path, a.value); err != nil {
			return err
		}
		c.recordApplied(a.path, n.value)
		return nil
	default:
		return &ConfigurationError{Path: a.path, Reason: "cannot override a section, only fields and group selectors"}
	}
}

func (c *Config) recordApplied(path string, value any) {
	if c.applied == nil {
		c.applied = make(map[string]any)
	}
	c.applied[path] = value
}
