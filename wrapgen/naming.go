// Package wrapgen generates the C++ interface, component and mock classes
// that wrap C functions.
package wrapgen

// MasterName is the name of the aggregate that contains every wrapper.
const MasterName = "MasterC"

// Options holds the naming and namespace configuration of a generation run.
type Options struct {
	BaseNamespace      string
	ComponentNamespace string
	MockNamespace      string
	FunctionPrefix     string
	InterfacePrefix    string
	ComponentSuffix    string
}

// DefaultOptions returns the default naming scheme.
func DefaultOptions() Options {
	return Options{
		BaseNamespace:      "",
		ComponentNamespace: "Component",
		MockNamespace:      "Mock",
		FunctionPrefix:     "my",
		InterfacePrefix:    "I",
		ComponentSuffix:    "Wrapper",
	}
}

// InterfacePath is the namespace path of interface classes.
func (o Options) InterfacePath() []string {
	return SplitNamespace(o.BaseNamespace)
}

// ComponentPath is base_namespace::component_namespace.
func (o Options) ComponentPath() []string {
	return SplitNamespace(o.BaseNamespace, o.ComponentNamespace)
}

// MockPath is base_namespace::mock_namespace.
func (o Options) MockPath() []string {
	return SplitNamespace(o.BaseNamespace, o.MockNamespace)
}

// Named is anything that produces an interface/component/mock class triple:
// a Wrapper or an Aggregate.
type Named interface {
	Name() string
	InterfaceName() string
	ComponentName() string
	// Wrappers returns the flattened member wrappers in order.
	Wrappers() []*Wrapper
}

// QualifiedInterface returns the fully qualified interface class name.
func QualifiedInterface(o Options, n Named) string {
	return Qualify(o.InterfacePath(), n.InterfaceName())
}

// QualifiedComponent returns the fully qualified component class name.
func QualifiedComponent(o Options, n Named) string {
	return Qualify(o.ComponentPath(), n.ComponentName())
}

// QualifiedMock returns the fully qualified mock class name. Mock classes
// share the component class name inside the mock namespace.
func QualifiedMock(o Options, n Named) string {
	return Qualify(o.MockPath(), n.ComponentName())
}
