package wrapgen

import (
	"fmt"
	"strings"

	"github.com/teranos/cfw/errors"
	"github.com/teranos/cfw/prototype"
)

// maxMockArity is the largest arity MOCK_CONST_METHOD<N> supports.
const maxMockArity = 10

// Wrapper is the interface/component/mock triple for one prototype.
type Wrapper struct {
	proto *prototype.Prototype
	opts  Options
}

// NewWrapper wraps one prototype under the given naming scheme.
func NewWrapper(p *prototype.Prototype, opts Options) *Wrapper {
	return &Wrapper{proto: p, opts: opts}
}

// Prototype returns the wrapped prototype.
func (w *Wrapper) Prototype() *prototype.Prototype { return w.proto }

// Name returns the bare C function name.
func (w *Wrapper) Name() string { return w.proto.Name() }

// InterfaceName is <interface_prefix><name>, e.g. IFoo.
func (w *Wrapper) InterfaceName() string { return w.opts.InterfacePrefix + w.proto.Name() }

// ComponentName is <name><component_suffix>, e.g. FooWrapper.
func (w *Wrapper) ComponentName() string { return w.proto.Name() + w.opts.ComponentSuffix }

// FunctionName is <function_prefix><name>, e.g. myFoo.
func (w *Wrapper) FunctionName() string { return w.opts.FunctionPrefix + w.proto.Name() }

// Wrappers returns the wrapper itself.
func (w *Wrapper) Wrappers() []*Wrapper { return []*Wrapper{w} }

// params returns each argument rendered as "type name". Unnamed arguments are
// given positional names so the component can forward them.
func (w *Wrapper) params() []string {
	args := w.proto.Arguments()
	out := make([]string, len(args))
	for i, a := range args {
		if a.IsEllipsis() {
			out[i] = string(prototype.Ellipsis)
			continue
		}
		out[i] = string(a.Type) + " " + argName(a, i)
	}
	return out
}

// callArgs returns the argument names forwarded to the C function.
func (w *Wrapper) callArgs() []string {
	args := w.proto.Arguments()
	out := make([]string, 0, len(args))
	for i, a := range args {
		if a.IsEllipsis() {
			continue
		}
		out = append(out, argName(a, i))
	}
	return out
}

func argName(a prototype.Argument, i int) string {
	if a.Name != "" {
		return a.Name
	}
	return fmt.Sprintf("arg%d", i+1)
}

// ParamList renders the parenthesized parameter list, one parameter per line.
// Interface and component methods both use it.
func (w *Wrapper) ParamList() string {
	return multiline(w.params(), 2*indentStep)
}

func multiline(items []string, indent int) string {
	if len(items) == 0 {
		return "()"
	}
	pad := strings.Repeat(" ", indent)
	return "(\n" + pad + strings.Join(items, ",\n"+pad) + ")"
}

// signature is "<ret> <fn>(<params>) const".
func (w *Wrapper) signature() string {
	return fmt.Sprintf("virtual %s %s%s const", w.proto.ReturnType(), w.FunctionName(), w.ParamList())
}

// InterfaceMethod renders the pure virtual method declaration.
func (w *Wrapper) InterfaceMethod() string {
	return "    " + w.signature() + " = 0;\n"
}

// ComponentMethod renders the forwarding method definition.
func (w *Wrapper) ComponentMethod() string {
	var sb strings.Builder
	sb.WriteString("    " + w.signature() + "\n")
	sb.WriteString("    {\n")
	sb.WriteString("        ")
	if w.proto.ReturnType() != "void" {
		sb.WriteString("return ")
	}
	sb.WriteString(w.proto.Name())
	sb.WriteString(multiline(w.callArgs(), 3*indentStep))
	sb.WriteString(";\n")
	sb.WriteString("    }\n")
	return sb.String()
}

// MockMethod renders the gmock declaration. Variadic prototypes and arities
// beyond what gmock supports are rejected with ErrUnmockable.
func (w *Wrapper) MockMethod() (string, error) {
	if w.proto.Variadic() {
		return "", errors.WithHint(
			errors.Wrapf(errors.ErrUnmockable, "%s: variadic", w.Name()),
			"wrap a fixed-argument variant (e.g. vprintf instead of printf) to mock it")
	}
	if w.proto.Arity() > maxMockArity {
		return "", errors.Wrapf(errors.ErrUnmockable, "%s: %d arguments exceed MOCK_CONST_METHOD%d", w.Name(), w.proto.Arity(), maxMockArity)
	}
	return fmt.Sprintf("    MOCK_CONST_METHOD%d(%s, %s(%s));\n",
		w.proto.Arity(), w.FunctionName(), w.proto.ReturnType(), strings.Join(w.params(), ", ")), nil
}

// InterfaceClass renders the abstract interface class.
func (w *Wrapper) InterfaceClass() string {
	var sb strings.Builder
	writeClassHead(&sb, QualifiedInterface(w.opts, w), nil)
	sb.WriteString("public:\n")
	writeDestructor(&sb, w.InterfaceName())
	sb.WriteString("\n")
	sb.WriteString(w.InterfaceMethod())
	sb.WriteString("};\n\n")
	return sb.String()
}

// ComponentClass renders the class forwarding to the real C function.
func (w *Wrapper) ComponentClass() string {
	var sb strings.Builder
	writeClassHead(&sb, QualifiedComponent(w.opts, w), []string{QualifiedInterface(w.opts, w)})
	sb.WriteString("public:\n")
	writeDestructor(&sb, w.ComponentName())
	sb.WriteString("\n")
	sb.WriteString(w.ComponentMethod())
	sb.WriteString("};\n\n")
	return sb.String()
}

// MockClass renders the mock class implementing the interface.
func (w *Wrapper) MockClass() (string, error) {
	method, err := w.MockMethod()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	writeClassHead(&sb, QualifiedMock(w.opts, w), []string{QualifiedInterface(w.opts, w)})
	sb.WriteString("public:\n")
	sb.WriteString(method)
	sb.WriteString("};\n\n")
	return sb.String(), nil
}

// writeClassHead writes "class X : public A" (or one base per line when there
// are several) followed by the opening brace.
func writeClassHead(sb *strings.Builder, name string, bases []string) {
	sb.WriteString("class " + name)
	switch len(bases) {
	case 0:
		sb.WriteString("\n")
	case 1:
		sb.WriteString(" : public " + bases[0] + "\n")
	default:
		sb.WriteString(" :\n")
		for i, base := range bases {
			sb.WriteString("    public " + base)
			if i < len(bases)-1 {
				sb.WriteString(",")
			}
			sb.WriteString("\n")
		}
	}
	sb.WriteString("{\n")
}

func writeDestructor(sb *strings.Builder, class string) {
	sb.WriteString("    virtual ~" + class + "() {}\n")
}
