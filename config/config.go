// Package config loads cfw settings from cfw.toml, CFW_* environment
// variables and command-line overrides.
package config

import (
	"os"
	"path/filepath"

	"github.com/teranos/cfw/document"
	"github.com/teranos/cfw/errors"
	"github.com/teranos/cfw/header"
	"github.com/teranos/cfw/wrapgen"
)

// Config is the complete cfw configuration
type Config struct {
	Wrap       WrapConfig      `mapstructure:"wrap" toml:"wrap"`
	Input      InputConfig     `mapstructure:"input" toml:"input"`
	Output     OutputConfig    `mapstructure:"output" toml:"output"`
	Templates  TemplatesConfig `mapstructure:"templates" toml:"templates"`
	Aggregates []wrapgen.Group `mapstructure:"aggregate" toml:"aggregate,omitempty"`

	// Path of the file the configuration was read from, empty for defaults
	Path string `mapstructure:"-" toml:"-"`
}

// WrapConfig controls class naming
type WrapConfig struct {
	BaseNamespace      string   `mapstructure:"base_namespace" toml:"base_namespace"`
	ComponentNamespace string   `mapstructure:"component_namespace" toml:"component_namespace"`
	MockNamespace      string   `mapstructure:"mock_namespace" toml:"mock_namespace"`
	FunctionPrefix     string   `mapstructure:"function_prefix" toml:"function_prefix"`
	InterfacePrefix    string   `mapstructure:"interface_prefix" toml:"interface_prefix"`
	ComponentSuffix    string   `mapstructure:"component_suffix" toml:"component_suffix"`
	GenerateMocks      bool     `mapstructure:"generate_mocks" toml:"generate_mocks"`
	StripMacros        []string `mapstructure:"strip_macros" toml:"strip_macros"` // project macros removed from types
}

// InputConfig locates the function list and the headers declaring the functions
type InputConfig struct {
	FunctionList string `mapstructure:"function_list" toml:"function_list"`
	IncludePath  string `mapstructure:"include_path" toml:"include_path"` // empty = INCLUDE environment variable
}

// OutputConfig places the generated documents.
// Directories are relative to BaseInclude.
type OutputConfig struct {
	BaseInclude  string `mapstructure:"base_include" toml:"base_include"`
	InterfaceDir string `mapstructure:"interface_dir" toml:"interface_dir"`
	ComponentDir string `mapstructure:"component_dir" toml:"component_dir"`
	MockDir      string `mapstructure:"mock_dir" toml:"mock_dir"`
}

// TemplatesConfig points at template overrides
type TemplatesConfig struct {
	Dir string `mapstructure:"dir" toml:"dir"`
}

// WrapOptions returns the naming options of a generation run.
func (c *Config) WrapOptions() wrapgen.Options {
	return wrapgen.Options{
		BaseNamespace:      c.Wrap.BaseNamespace,
		ComponentNamespace: c.Wrap.ComponentNamespace,
		MockNamespace:      c.Wrap.MockNamespace,
		FunctionPrefix:     c.Wrap.FunctionPrefix,
		InterfacePrefix:    c.Wrap.InterfacePrefix,
		ComponentSuffix:    c.Wrap.ComponentSuffix,
	}
}

// IncludeDirs returns the header search directories. An empty include_path
// falls back to the INCLUDE environment variable.
func (c *Config) IncludeDirs() ([]string, error) {
	raw := c.Input.IncludePath
	if raw == "" {
		raw = os.Getenv("INCLUDE")
	}
	dirs := header.SplitIncludePath(raw)
	if len(dirs) == 0 {
		return nil, errors.WithHint(
			errors.NewInvalidConfig("no include path"),
			"set input.include_path, pass --include-path or define the INCLUDE environment variable")
	}
	return dirs, nil
}

// Dir returns the output directory of a document, relative to the working directory.
func (c *Config) Dir(kind document.Kind) string {
	return filepath.Join(c.Output.BaseInclude, c.subdir(kind))
}

// OutputPath returns the file a document is written to.
func (c *Config) OutputPath(kind document.Kind) string {
	return filepath.Join(c.Dir(kind), kind.FileName())
}

// IncludePath returns the include spelling of a generated document.
func (c *Config) IncludePath(kind document.Kind) string {
	return document.IncludePath(c.Output.BaseInclude, c.subdir(kind), kind.FileName())
}

func (c *Config) subdir(kind document.Kind) string {
	switch kind {
	case document.Component:
		return c.Output.ComponentDir
	case document.Mock:
		return c.Output.MockDir
	default:
		return c.Output.InterfaceDir
	}
}

// Kinds returns the documents this configuration generates.
func (c *Config) Kinds() []document.Kind {
	if c.Wrap.GenerateMocks {
		return document.Kinds
	}
	return []document.Kind{document.Interface, document.Component}
}
