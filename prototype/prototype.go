// Package prototype models a normalized C function prototype.
package prototype

import (
	"strings"

	"github.com/teranos/cfw/cdecl"
	"github.com/teranos/cfw/errors"
)

// Ellipsis is the type of the variadic argument sentinel.
const Ellipsis Type = "..."

// Argument is one normalized parameter. Name is empty for unnamed parameters
// and for the variadic sentinel.
type Argument struct {
	Type Type   `json:"type" yaml:"type"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// IsEllipsis reports whether the argument is the variadic sentinel.
func (a Argument) IsEllipsis() bool { return a.Type == Ellipsis }

// String renders "type name", or just the type when unnamed.
func (a Argument) String() string {
	return strings.TrimSpace(string(a.Type) + " " + a.Name)
}

// Prototype is one C function declaration with normalized types.
// It is immutable once built.
type Prototype struct {
	name      string
	ret       Type
	qualifier string
	args      []Argument
	pos       cdecl.Pos
}

// New builds a prototype with the default normalizer.
func New(decl cdecl.Declaration) (*Prototype, Result) {
	return defaultNormalizer.Prototype(decl)
}

// Prototype builds a prototype from a declaration. A non-OK Result means the
// declaration should be dropped; the Result says why.
func (n *Normalizer) Prototype(decl cdecl.Declaration) (*Prototype, Result) {
	if strings.TrimSpace(decl.Name) == "" {
		return nil, fail(errors.Wrap(errors.ErrMalformedDeclaration, "declaration has no name"))
	}

	ret := n.NormalizeReturn(decl.Return)
	if !ret.OK() {
		return nil, annotate(ret, "%s: return type", decl.Name)
	}

	args, res := n.arguments(decl)
	if !res.OK() {
		return nil, res
	}

	p := &Prototype{
		name: decl.Name,
		ret:  ret.Type,
		args: args,
		pos:  decl.Pos,
	}
	if len(decl.Qualifiers) > 0 {
		p.qualifier = decl.Qualifiers[0]
	}
	return p, ret
}

func (n *Normalizer) arguments(decl cdecl.Declaration) ([]Argument, Result) {
	if !decl.HasPrototype || isVoidList(decl.Params) {
		return nil, ok("")
	}

	args := make([]Argument, 0, len(decl.Params))
	for i, param := range decl.Params {
		res := n.Normalize(param.Type)
		if !res.OK() {
			return nil, annotate(res, "%s: argument %d", decl.Name, i+1)
		}
		if res.Type == Ellipsis {
			if i != len(decl.Params)-1 {
				return nil, fail(errors.Wrapf(errors.ErrMalformedDeclaration, "%s: ellipsis must be the last argument", decl.Name))
			}
			args = append(args, Argument{Type: Ellipsis})
			continue
		}
		args = append(args, Argument{Type: res.Type, Name: param.Name})
	}
	return args, ok("")
}

// voidAliases spell an empty parameter list; Windows headers write f(VOID).
var voidAliases = map[string]bool{
	"void": true,
	"VOID": true,
}

// isVoidList reports whether the parameter list is a lone unnamed void.
func isVoidList(params []cdecl.Param) bool {
	if len(params) != 1 || params[0].Name != "" {
		return false
	}
	named, isNamed := params[0].Type.(cdecl.Named)
	return isNamed && voidAliases[named.Name] && len(named.Modifiers) == 0 &&
		!named.Reference && named.TemplateArgs == ""
}

func annotate(r Result, format string, args ...interface{}) Result {
	r.Err = errors.Wrapf(r.Err, format, args...)
	return r
}

// Name returns the bare C function name.
func (p *Prototype) Name() string { return p.name }

// ReturnType returns the normalized return type.
func (p *Prototype) ReturnType() Type { return p.ret }

// Qualifier returns the first trailing qualifier of the declaration, or "".
func (p *Prototype) Qualifier() string { return p.qualifier }

// Pos returns where the declaration was found.
func (p *Prototype) Pos() cdecl.Pos { return p.pos }

// Arguments returns a copy of the normalized argument list.
func (p *Prototype) Arguments() []Argument {
	out := make([]Argument, len(p.args))
	copy(out, p.args)
	return out
}

// Arity counts declared arguments, including the ellipsis slot.
func (p *Prototype) Arity() int { return len(p.args) }

// Variadic reports whether the last argument is the ellipsis.
func (p *Prototype) Variadic() bool {
	return len(p.args) > 0 && p.args[len(p.args)-1].IsEllipsis()
}

// String renders the prototype as a single-line C declaration.
func (p *Prototype) String() string {
	var sb strings.Builder
	sb.WriteString(string(p.ret))
	sb.WriteString(" ")
	sb.WriteString(p.name)
	sb.WriteString("(")
	for i, a := range p.args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	sb.WriteString(")")
	if p.qualifier != "" {
		sb.WriteString(" ")
		sb.WriteString(p.qualifier)
	}
	return sb.String()
}

// Description is the serializable form of a prototype.
type Description struct {
	Name       string     `json:"name" yaml:"name"`
	ReturnType string     `json:"return_type" yaml:"return_type"`
	Qualifier  string     `json:"qualifier,omitempty" yaml:"qualifier,omitempty"`
	Arguments  []Argument `json:"arguments" yaml:"arguments"`
	Variadic   bool       `json:"variadic" yaml:"variadic"`
	Position   cdecl.Pos  `json:"position" yaml:"position"`
}

// Describe returns the serializable form of the prototype.
func (p *Prototype) Describe() Description {
	return Description{
		Name:       p.name,
		ReturnType: string(p.ret),
		Qualifier:  p.qualifier,
		Arguments:  p.Arguments(),
		Variadic:   p.Variadic(),
		Position:   p.pos,
	}
}
