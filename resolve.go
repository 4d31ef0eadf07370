// File: lattice/resolve.go
package lattice

import (
	"fmt"
	"os"
)

// osExit is swapped out in tests.
var osExit = os.Exit

// Apply resolves the tree against CLI-style override tokens, in four
// strictly ordered phases: override application, reference resolution,
// validation, required-field check. The tree is mutated in place; after a
// nil return it is fully resolved.
//
// -h or --help anywhere in the tokens renders the help page instead and
// returns ErrHelp without touching the tree.
func (c *Config) Apply(tokens []string) error {
	return c.ApplyOverrides(tokens, nil)
}

// ApplyOverrides is Apply with an additional structured override document
// (a nested mapping mirroring the dotted-path namespace). Explicit CLI
// tokens take precedence over the document when both address the same
// path.
func (c *Config) ApplyOverrides(tokens []string, doc map[string]any) error {
	if err := c.checkDeclaration(""); err != nil {
		return err
	}

	asgs, help, err := c.parseOverrides(tokens, doc)
	if err != nil {
		return err
	}
	if help {
		c.WriteHelp(c.writer())
		return ErrHelp
	}

	// Re-evaluate default factories so mutable defaults are fresh per
	// resolution and never aliased between sibling instances.
	c.forEachField(func(f *Field) { f.refreshDefault() })

	if err := c.applyAssignments(asgs); err != nil {
		return err
	}
	if err := c.resolveReferences(c); err != nil {
		return err
	}
	if err := c.runValidation(""); err != nil {
		return err
	}
	return c.checkRequired()
}

// MustApply is like Apply but terminates the process: exit 0 after the
// help page, panic on any other resolution error.
func (c *Config) MustApply(tokens []string) *Config {
	if err := c.Apply(tokens); err != nil {
		if err == ErrHelp {
			osExit(0)
			return c
		}
		panic(fmt.Sprintf("configuration resolution failed: %v", err))
	}
	return c
}

// forEachField visits every field in the active view, ignoring errors.
func (c *Config) forEachField(fn func(f *Field)) {
	_ = c.walkFields("", func(_ string, _ *Config, f *Field) error {
		fn(f)
		return nil
	})
}

// resolveReferences evaluates derived fields in a single stable pre-order
// walk. No dependency analysis is attempted: a reference reading another
// derived field that resolves later in the same pass observes whatever
// placeholder currently occupies that slot, including Missing. Explicitly
// overridden derived fields keep their override.
func (c *Config) resolveReferences(root *Config) error {
	return c.walkFields("", func(path string, parent *Config, f *Field) error {
		if !f.isDerived() || f.overridden {
			return nil
		}
		var (
			v   any
			err error
		)
		if f.reference != nil {
			v, err = f.reference(parent)
		} else {
			v, err = f.referenceRoot(root)
		}
		if err != nil {
			return &ReferenceError{Path: path, Err: err}
		}
		f.value = v
		return nil
	})
}

// runValidation evaluates field-level and node-level predicates in
// post-order, children before their enclosing node, so node validators
// read fully-resolved children. The first failure stops the phase.
func (c *Config) runValidation(prefix string) error {
	for _, key := range c.keys {
		path := prefix + key
		switch n := c.children[key].(type) {
		case *Field:
			if err := n.runValidate(path); err != nil {
				return err
			}
		case *Config:
			if err := n.runValidation(path + "."); err != nil {
				return err
			}
		case *Group:
			switch active := n.Active().(type) {
			case *Config:
				if err := active.runValidation(path + "."); err != nil {
					return err
				}
			case *Field:
				if err := active.runValidate(path); err != nil {
					return err
				}
			}
		}
	}
	if c.validate != nil && !c.validate(c) {
		return &ValidationError{Path: nodePath(prefix), Value: c.ToMap()}
	}
	return nil
}

func (f *Field) runValidate(path string) error {
	if f.validate == nil || f.IsMissing() {
		return nil
	}
	if !f.validate(f.value) {
		return &ValidationError{Path: path, Value: f.value}
	}
	return nil
}

// checkRequired walks the whole active view and batch-reports every field
// still Missing, so all absent arguments surface in one run.
func (c *Config) checkRequired() error {
	var missing []string
	_ = c.walkFields("", func(path string, _ *Config, f *Field) error {
		if f.IsMissing() {
			missing = append(missing, path)
		}
		return nil
	})
	if len(missing) > 0 {
		return &MissingFieldsError{Paths: missing}
	}
	return nil
}

// nodePath turns a walk prefix like "server." into the node path
// "server"; the root prefix becomes "(root)".
func nodePath(prefix string) string {
	if prefix == "" {
		return "(root)"
	}
	return prefix[:len(prefix)-1]
}
