// File: lattice/doc.go

// Package lattice materializes declarative configuration trees: developers
// describe typed fields, nested sections, and interchangeable groups of
// sibling shapes, and the resolution engine turns that description plus a
// set of raw overrides into a fully resolved, validated object graph.
//
// Features:
//   - Fields with defaults, default factories, type-based conversion,
//     custom converters, validators, and help text
//   - Derived fields computed from the rest of the tree (references)
//   - Group selectors: named alternative sub-trees swapped wholesale
//   - CLI tokens and structured override documents (YAML, TOML, JSON)
//     merged with a fixed precedence
//   - Batch reporting of missing required arguments
//   - YAML/TOML rendering, help page generation, persistence to disk
//
// Quick Start:
//
//	cfg := lattice.New().
//	    WithValue("epochs", 10).
//	    WithField("lr", lattice.NewField().
//	        WithDefault(0.003).
//	        WithValidate(func(v any) bool { return v.(float64) > 0 }).
//	        WithHelp("learning rate")).
//	    WithSection("data", lattice.New().
//	        WithValue("dir", "./data"))
//
//	if err := cfg.Apply(os.Args[1:]); err != nil {
//	    log.Fatal(err)
//	}
//
//	lr, _ := cfg.Float64("lr")
//
// Override Precedence (highest to lowest):
//  1. Command-line tokens (epochs=20, --lr 0.01, --flag, --no-flag)
//  2. Override document (--overrides run.yaml, or passed programmatically)
//  3. Declared defaults
//
// Resolution runs in four fixed phases: override application (with
// immediate conversion), reference resolution, validation, and the
// required-field check. -h/--help short-circuits all of them and renders
// the help page instead.
//
// Concurrency:
// A tree is built once, resolved once, and then read. Apply mutates the
// tree in place without locking; calling it concurrently on the same tree
// is not supported.
package lattice
