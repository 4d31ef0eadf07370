// File: lattice/builder.go
package lattice

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ValidatorFunc validates a fully resolved configuration tree. It runs
// after the engine's own validation phase.
type ValidatorFunc func(c *Config) error

// Builder provides a fluent entry point around Apply for the common case:
// a tree, os.Args, and optionally an override document from memory, an
// explicit file, or discovery.
type Builder struct {
	cfg        *Config
	args       []string
	doc        map[string]any
	docFile    string
	validators []ValidatorFunc
	helpWriter io.Writer
	err        error
}

// NewBuilder creates a builder initialized with the process arguments.
func NewBuilder() *Builder {
	return &Builder{
		args: os.Args[1:],
	}
}

// WithConfig sets the configuration tree to resolve.
func (b *Builder) WithConfig(cfg *Config) *Builder {
	b.cfg = cfg
	return b
}

// WithArgs replaces the command-line tokens (defaults to os.Args[1:]).
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	return b
}

// WithOverrides supplies a structured override document programmatically.
// A document named on the CLI via --overrides takes precedence.
func (b *Builder) WithOverrides(doc map[string]any) *Builder {
	b.doc = doc
	return b
}

// WithOverridesFile names an override document on disk. Its entries are
// merged over any programmatic document, path by path.
func (b *Builder) WithOverridesFile(path string) *Builder {
	b.docFile = path
	return b
}

// WithValidator adds a validation function run after resolution.
// Validators execute in the order added.
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// WithHelpWriter redirects the help page rendered on -h/--help.
func (b *Builder) WithHelpWriter(w io.Writer) *Builder {
	b.helpWriter = w
	return b
}

// DiscoveryOptions configures automatic override-document discovery.
type DiscoveryOptions struct {
	// Base name of the document (without extension)
	Name string

	// Extensions to try (in order)
	Extensions []string

	// Custom search paths (in addition to defaults)
	Paths []string

	// Environment variable to check for an explicit path
	EnvVar string

	// Whether to search in XDG config directories
	UseXDG bool

	// Whether to search in the current directory
	UseCurrentDir bool
}

// DefaultDiscoveryOptions returns sensible defaults for an application name.
func DefaultDiscoveryOptions(appName string) DiscoveryOptions {
	return DiscoveryOptions{
		Name:          appName,
		Extensions:    []string{".yaml", ".yml", ".toml", ".json"},
		EnvVar:        strings.ToUpper(appName) + "_OVERRIDES",
		UseXDG:        true,
		UseCurrentDir: true,
	}
}

// WithOverridesDiscovery searches for an override document: environment
// variable first, then custom paths, current directory, and XDG config
// directories. Finding nothing is not an error; an explicit --overrides
// flag still wins at Apply time.
func (b *Builder) WithOverridesDiscovery(opts DiscoveryOptions) *Builder {
	if opts.EnvVar != "" {
		if path := os.Getenv(opts.EnvVar); path != "" {
			b.docFile = path
			return b
		}
	}

	var searchPaths []string
	searchPaths = append(searchPaths, opts.Paths...)

	if opts.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			searchPaths = append(searchPaths, cwd)
		}
	}

	if opts.UseXDG {
		searchPaths = append(searchPaths, getXDGConfigPaths(opts.Name)...)
	}

	for _, dir := range searchPaths {
		for _, ext := range opts.Extensions {
			path := filepath.Join(dir, opts.Name+ext)
			if _, err := os.Stat(path); err == nil {
				b.docFile = path
				return b
			}
		}
	}

	// No document found is fine, the tree resolves from defaults and CLI.
	return b
}

// Apply resolves the tree and runs the extra validators. Returns ErrHelp
// after rendering the help page when the tokens request it.
func (b *Builder) Apply() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.cfg == nil {
		return nil, &ConfigurationError{Reason: "no configuration tree supplied to builder"}
	}

	doc := b.doc
	if b.docFile != "" {
		loaded, err := LoadOverridesFile(b.docFile)
		if err != nil {
			return nil, err
		}
		doc = mergeDocs(doc, loaded)
	}

	if b.helpWriter != nil {
		b.cfg.WithHelpWriter(b.helpWriter)
	}

	if err := b.cfg.ApplyOverrides(b.args, doc); err != nil {
		return nil, err
	}

	for _, validator := range b.validators {
		if err := validator(b.cfg); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	return b.cfg, nil
}

// MustApply is like Apply but terminates the process: exit 0 after the
// help page, panic on any other error.
func (b *Builder) MustApply() *Config {
	cfg, err := b.Apply()
	if err != nil {
		if err == ErrHelp {
			osExit(0)
		}
		panic(fmt.Sprintf("configuration resolution failed: %v", err))
	}
	return cfg
}

// mergeDocs layers the second document over the first, path by path.
func mergeDocs(base, over map[string]any) map[string]any {
	if base == nil {
		return over
	}
	merged := make(map[string]any)
	for path, value := range flattenMap(base, "") {
		setNestedValue(merged, path, value)
	}
	for path, value := range flattenMap(over, "") {
		setNestedValue(merged, path, value)
	}
	return merged
}

// getXDGConfigPaths returns XDG-compliant config search paths.
func getXDGConfigPaths(appName string) []string {
	var paths []string

	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, appName))
	} else if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}

	if xdgDirs := os.Getenv("XDG_CONFIG_DIRS"); xdgDirs != "" {
		for _, dir := range filepath.SplitList(xdgDirs) {
			paths = append(paths, filepath.Join(dir, appName))
		}
	} else {
		paths = append(paths,
			filepath.Join("/etc/xdg", appName),
			filepath.Join("/etc", appName),
		)
	}

	return paths
}
