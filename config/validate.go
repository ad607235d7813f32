package config

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/teranos/cfw/errors"
	"github.com/teranos/cfw/wrapgen"
)

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	// prefixes and suffixes are glued to identifiers, so a leading digit is fine for suffixes
	affixPattern = regexp.MustCompile(`^[A-Za-z0-9_]*$`)
)

// Validate checks that the configuration produces compilable, unambiguous
// C++ names and distinct output files.
func (c *Config) Validate() error {
	w := c.Wrap

	namespaces := []struct{ key, value string }{
		{"wrap.base_namespace", w.BaseNamespace},
		{"wrap.component_namespace", w.ComponentNamespace},
		{"wrap.mock_namespace", w.MockNamespace},
	}
	for _, ns := range namespaces {
		for _, part := range wrapgen.SplitNamespace(ns.value) {
			if !identifierPattern.MatchString(part) {
				return errors.NewInvalidConfig("%s: %q is not a C++ identifier", ns.key, part)
			}
		}
	}

	// The component method would call itself instead of the C function
	if w.FunctionPrefix == "" {
		return errors.WithHint(
			errors.NewInvalidConfig("wrap.function_prefix cannot be empty"),
			"wrapper methods forward to the C function of the same name without the prefix")
	}
	if !identifierPattern.MatchString(w.FunctionPrefix) {
		return errors.NewInvalidConfig("wrap.function_prefix: %q is not a C++ identifier", w.FunctionPrefix)
	}
	if w.InterfacePrefix != "" && !identifierPattern.MatchString(w.InterfacePrefix) {
		return errors.NewInvalidConfig("wrap.interface_prefix: %q is not a C++ identifier", w.InterfacePrefix)
	}
	if !affixPattern.MatchString(w.ComponentSuffix) {
		return errors.NewInvalidConfig("wrap.component_suffix: %q may only contain letters, digits and underscores", w.ComponentSuffix)
	}

	opts := c.WrapOptions()
	if w.InterfacePrefix == "" && w.ComponentSuffix == "" && sameNamespace(opts.InterfacePath(), opts.ComponentPath()) {
		return errors.NewInvalidConfig("interface and component classes would share names: set wrap.interface_prefix, wrap.component_suffix or wrap.component_namespace")
	}
	if w.GenerateMocks && sameNamespace(opts.ComponentPath(), opts.MockPath()) {
		return errors.NewInvalidConfig("wrap.component_namespace and wrap.mock_namespace resolve to the same namespace %q", strings.Join(opts.MockPath(), "::"))
	}

	if w.GenerateMocks && filepath.Clean(c.Output.ComponentDir) == filepath.Clean(c.Output.MockDir) {
		return errors.NewInvalidConfig("output.component_dir and output.mock_dir are both %q: the mock document would overwrite the component document", c.Output.MockDir)
	}
	if c.Output.BaseInclude == "" {
		return errors.NewInvalidConfig("output.base_include cannot be empty")
	}

	seen := make(map[string]bool, len(c.Aggregates))
	for _, g := range c.Aggregates {
		switch {
		case !identifierPattern.MatchString(g.Name):
			return errors.NewInvalidConfig("aggregate %q: name is not a C++ identifier", g.Name)
		case g.Name == wrapgen.MasterName:
			return errors.NewInvalidConfig("aggregate name %q is reserved", wrapgen.MasterName)
		case seen[g.Name]:
			return errors.NewInvalidConfig("aggregate %q is declared twice", g.Name)
		case len(g.Members) == 0:
			return errors.NewInvalidConfig("aggregate %q has no members", g.Name)
		}
		seen[g.Name] = true
	}
	return nil
}

func sameNamespace(a, b []string) bool {
	return strings.Join(a, "::") == strings.Join(b, "::")
}
