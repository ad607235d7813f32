// Package generate runs cfw end to end: it reads the function list, finds
// the declarations in the headers, builds the wrapper classes and renders
// the interface, component and mock documents.
package generate

import (
	"fmt"
	"strings"

	"github.com/teranos/cfw/diag"
	"github.com/teranos/cfw/document"
	"github.com/teranos/cfw/errors"
	"github.com/teranos/cfw/prototype"
	"github.com/teranos/cfw/wrapgen"
)

// Section is the generated body of one document.
type Section struct {
	Declarations string
	Classes      string
}

// Output holds the classes of a generation run, before templates are applied.
type Output struct {
	Wrappers []*wrapgen.Wrapper
	// Aggregates in configuration order, the master aggregate last
	Aggregates []*wrapgen.Aggregate
	Sections   map[document.Kind]Section
	// Unmockable names the wrappers and aggregates left without a mock class
	Unmockable []string
}

// Build generates every class for protos. Wrappers keep the order of protos;
// a later prototype with an already seen name is reported and skipped.
// Groups become aggregates after the wrappers and the master aggregate comes
// last. With mocks unset no mock section is built.
func Build(opts wrapgen.Options, protos []*prototype.Prototype, groups []wrapgen.Group, mocks bool, sink diag.Sink) (*Output, error) {
	sink = diag.OrNop(sink)

	out := &Output{Sections: make(map[document.Kind]Section, len(document.Kinds))}
	first := make(map[string]*prototype.Prototype, len(protos))
	for _, p := range protos {
		if kept, dup := first[p.Name()]; dup {
			sink.Duplicate(p.Name(), kept.Pos(), p.Pos())
			continue
		}
		first[p.Name()] = p
		out.Wrappers = append(out.Wrappers, wrapgen.NewWrapper(p, opts))
	}

	aggregates, err := wrapgen.BuildAggregates(opts, out.Wrappers, groups)
	if err != nil {
		return nil, err
	}
	out.Aggregates = append(aggregates, wrapgen.NewMaster(opts, out.Wrappers))

	var interfaces, components, interfaceNames, componentNames []string
	for _, w := range out.Wrappers {
		interfaces = append(interfaces, w.InterfaceClass())
		components = append(components, w.ComponentClass())
		interfaceNames = append(interfaceNames, w.InterfaceName())
		componentNames = append(componentNames, w.ComponentName())
	}
	for _, a := range out.Aggregates {
		interfaces = append(interfaces, a.InterfaceAggregate())
		components = append(components, a.ComponentAggregate())
		interfaceNames = append(interfaceNames, a.InterfaceName())
		componentNames = append(componentNames, a.ComponentName())
	}

	out.Sections[document.Interface] = Section{
		Declarations: wrapgen.RenderHierarchy(opts.InterfacePath(), interfaceNames),
		Classes:      strings.Join(interfaces, ""),
	}
	out.Sections[document.Component] = Section{
		Declarations: wrapgen.RenderHierarchy(opts.ComponentPath(), componentNames),
		Classes:      strings.Join(components, ""),
	}

	if mocks {
		out.Sections[document.Mock] = out.buildMocks(opts, sink)
	}
	return out, nil
}

// buildMocks renders the mock classes. A class that cannot be mocked is
// reported to sink and replaced by a marker comment.
func (o *Output) buildMocks(opts wrapgen.Options, sink diag.Sink) Section {
	var classes, names []string
	add := func(n wrapgen.Named, class string, err error) {
		if err != nil {
			o.Unmockable = append(o.Unmockable, n.Name())
			sink.Unmockable(n.Name(), err.Error())
			classes = append(classes, unmockableMarker(n, err))
			return
		}
		classes = append(classes, class)
		names = append(names, n.ComponentName())
	}

	for _, w := range o.Wrappers {
		class, err := w.MockClass()
		add(w, class, err)
	}
	for _, a := range o.Aggregates {
		class, err := a.MockAggregate()
		add(a, class, err)
	}

	return Section{
		Declarations: wrapgen.RenderHierarchy(opts.MockPath(), names),
		Classes:      strings.Join(classes, ""),
	}
}

func unmockableMarker(n wrapgen.Named, err error) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "// %s: no mock generated (%s)\n", n.ComponentName(), err)
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(&sb, "// hint: %s\n", hint)
	}
	sb.WriteString("\n")
	return sb.String()
}
