package wrapgen

import (
	"strings"

	"github.com/teranos/cfw/errors"
)

// Aggregate groups wrappers, and possibly earlier aggregates, behind one
// combined interface.
type Aggregate struct {
	name    string
	members []Named
	opts    Options
}

// NewAggregate builds an aggregate over members, kept in insertion order.
func NewAggregate(name string, opts Options, members ...Named) *Aggregate {
	return &Aggregate{name: name, opts: opts, members: members}
}

// NewMaster builds the MasterC aggregate over every wrapper of the run.
func NewMaster(opts Options, wrappers []*Wrapper) *Aggregate {
	members := make([]Named, len(wrappers))
	for i, w := range wrappers {
		members[i] = w
	}
	return NewAggregate(MasterName, opts, members...)
}

// Name returns the aggregate name.
func (a *Aggregate) Name() string { return a.name }

// InterfaceName is <interface_prefix><name><suffix>, e.g. IGroupWrapper.
func (a *Aggregate) InterfaceName() string {
	return a.opts.InterfacePrefix + a.name + a.opts.ComponentSuffix
}

// ComponentName is <name><suffix>, e.g. GroupWrapper.
func (a *Aggregate) ComponentName() string { return a.name + a.opts.ComponentSuffix }

// Members returns the direct members in insertion order.
func (a *Aggregate) Members() []Named {
	out := make([]Named, len(a.members))
	copy(out, a.members)
	return out
}

// Wrappers flattens nested aggregates into their wrappers, in order.
func (a *Aggregate) Wrappers() []*Wrapper {
	var out []*Wrapper
	for _, m := range a.members {
		out = append(out, m.Wrappers()...)
	}
	return out
}

// InterfaceAggregate renders an interface class inheriting every direct
// member interface. It declares no methods of its own.
func (a *Aggregate) InterfaceAggregate() string {
	bases := make([]string, len(a.members))
	for i, m := range a.members {
		bases[i] = QualifiedInterface(a.opts, m)
	}
	var sb strings.Builder
	writeClassHead(&sb, QualifiedInterface(a.opts, a), bases)
	sb.WriteString("public:\n")
	writeDestructor(&sb, a.InterfaceName())
	sb.WriteString("};\n\n")
	return sb.String()
}

// ComponentAggregate renders one class implementing every member method
// exactly as the member's own component does.
func (a *Aggregate) ComponentAggregate() string {
	var sb strings.Builder
	writeClassHead(&sb, QualifiedComponent(a.opts, a), []string{QualifiedInterface(a.opts, a)})
	sb.WriteString("public:\n")
	writeDestructor(&sb, a.ComponentName())
	for _, w := range a.Wrappers() {
		sb.WriteString("\n")
		sb.WriteString(w.ComponentMethod())
	}
	sb.WriteString("};\n\n")
	return sb.String()
}

// MockAggregate renders the mock class of the aggregate interface. It fails
// with ErrUnmockable naming every member that cannot be mocked.
func (a *Aggregate) MockAggregate() (string, error) {
	var methods []string
	var unmockable []string
	for _, w := range a.Wrappers() {
		m, err := w.MockMethod()
		if err != nil {
			unmockable = append(unmockable, w.Name())
			continue
		}
		methods = append(methods, m)
	}
	if len(unmockable) > 0 {
		return "", errors.WithHint(
			errors.Wrapf(errors.ErrUnmockable, "%s: members %s", a.name, strings.Join(unmockable, ", ")),
			"the aggregate interface inherits every member, so one unmockable member prevents the whole mock")
	}

	var sb strings.Builder
	writeClassHead(&sb, QualifiedMock(a.opts, a), []string{QualifiedInterface(a.opts, a)})
	sb.WriteString("public:\n")
	for _, m := range methods {
		sb.WriteString(m)
	}
	sb.WriteString("};\n\n")
	return sb.String(), nil
}

// Group is a configured aggregate: a name and the function or earlier group
// names it contains.
type Group struct {
	Name    string   `mapstructure:"name" toml:"name" json:"name"`
	Members []string `mapstructure:"members" toml:"members" json:"members"`
}

// BuildAggregates resolves groups, in configuration order, into aggregates.
// A member names either a wrapped function or a group declared earlier.
func BuildAggregates(opts Options, wrappers []*Wrapper, groups []Group) ([]*Aggregate, error) {
	byName := make(map[string]Named, len(wrappers)+len(groups))
	for _, w := range wrappers {
		byName[w.Name()] = w
	}

	aggregates := make([]*Aggregate, 0, len(groups))
	for _, g := range groups {
		if err := checkGroupName(g.Name, byName); err != nil {
			return nil, err
		}
		if len(g.Members) == 0 {
			return nil, errors.NewInvalidConfig("aggregate %q has no members", g.Name)
		}

		members := make([]Named, 0, len(g.Members))
		for _, name := range g.Members {
			m, found := byName[name]
			if !found {
				return nil, errors.WithDetailf(errors.NewFunctionNotFound(name), "member of aggregate %q", g.Name)
			}
			members = append(members, m)
		}

		agg := NewAggregate(g.Name, opts, members...)
		seen := make(map[string]bool)
		for _, w := range agg.Wrappers() {
			if seen[w.Name()] {
				return nil, errors.WithHint(
					errors.NewInvalidConfig("aggregate %q contains %s more than once", g.Name, w.Name()),
					"an aggregate interface cannot inherit the same member interface twice")
			}
			seen[w.Name()] = true
		}

		byName[g.Name] = agg
		aggregates = append(aggregates, agg)
	}
	return aggregates, nil
}

func checkGroupName(name string, known map[string]Named) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.NewInvalidConfig("aggregate without a name")
	case name == MasterName:
		return errors.NewInvalidConfig("aggregate name %q is reserved", MasterName)
	}
	if existing, taken := known[name]; taken {
		if _, isWrapper := existing.(*Wrapper); isWrapper {
			return errors.NewInvalidConfig("aggregate %q has the same name as a wrapped function", name)
		}
		return errors.NewInvalidConfig("aggregate %q is declared twice", name)
	}
	return nil
}
