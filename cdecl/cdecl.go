// Package cdecl is a minimal view of a parsed C function declaration.
//
// A declarator is one of a closed set of shapes: Named, Pointer, Array,
// Struct, Ellipsis or Unknown. Consumers branch with a type switch.
package cdecl

import (
	"fmt"
	"strings"
)

// Declarator is the type shape of a parameter or return value.
type Declarator interface {
	declarator()
	String() string
}

// Named is a base type name with its modifier tokens, e.g. "const unsigned long".
type Named struct {
	// Modifiers precede the name in source order (const, unsigned, __in, WINAPI...)
	Modifiers []string
	Name      string
	// TemplateArgs is appended verbatim as <TemplateArgs> when non-empty
	TemplateArgs string
	Reference    bool
}

// Pointer adds one level of indirection to Elem.
type Pointer struct {
	Elem       Declarator
	Qualifiers []string // const/volatile/restrict after the '*'
}

// Array marks Elem as an array. Size is kept for diagnostics only.
type Array struct {
	Elem Declarator
	Size string
}

// Struct is a struct/union/enum tagged type.
type Struct struct {
	Kind      string // "struct", "union" or "enum"
	Tag       string
	Modifiers []string
}

// Ellipsis is the variadic "..." parameter.
type Ellipsis struct{}

// Unknown is a shape the parser could not classify (function pointers, K&R
// identifier lists, bit fields...).
type Unknown struct {
	Kind string
	Text string
}

func (Named) declarator()    {}
func (Pointer) declarator()  {}
func (Array) declarator()    {}
func (Struct) declarator()   {}
func (Ellipsis) declarator() {}
func (Unknown) declarator()  {}

func (n Named) String() string {
	parts := append(append([]string{}, n.Modifiers...), n.Name)
	s := strings.Join(parts, " ")
	if n.TemplateArgs != "" {
		s += "<" + n.TemplateArgs + ">"
	}
	if n.Reference {
		s += "&"
	}
	return s
}

func (p Pointer) String() string {
	if p.Elem == nil {
		return "<nil>*"
	}
	s := p.Elem.String() + "*"
	if len(p.Qualifiers) > 0 {
		s += " " + strings.Join(p.Qualifiers, " ")
	}
	return s
}

func (a Array) String() string {
	if a.Elem == nil {
		return "<nil>[]"
	}
	return fmt.Sprintf("%s[%s]", a.Elem.String(), a.Size)
}

func (s Struct) String() string {
	kind := s.Kind
	if kind == "" {
		kind = "struct"
	}
	parts := append(append([]string{}, s.Modifiers...), kind, s.Tag)
	return strings.Join(parts, " ")
}

func (Ellipsis) String() string { return "..." }

func (u Unknown) String() string { return fmt.Sprintf("<%s: %s>", u.Kind, u.Text) }

// Param is one entry of a parameter list. Name is empty for unnamed parameters.
type Param struct {
	Name string
	Type Declarator
}

// Pos locates a declaration in its header.
type Pos struct {
	File string `json:"file" yaml:"file"`
	Line int    `json:"line" yaml:"line"`
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("line %d", p.Line)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Declaration is one parsed function declaration.
type Declaration struct {
	Name   string
	Return Declarator
	// Qualifiers trailing the declaration, in source order
	Qualifiers []string
	Params     []Param
	// HasPrototype is false for the legacy "int f();" form
	HasPrototype bool
	Pos          Pos
}

// String renders the declaration roughly as it appeared in source.
func (d Declaration) String() string {
	var sb strings.Builder
	if d.Return != nil {
		sb.WriteString(d.Return.String())
		sb.WriteString(" ")
	}
	sb.WriteString(d.Name)
	sb.WriteString("(")
	for i, p := range d.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		if p.Type != nil {
			sb.WriteString(p.Type.String())
		}
		if p.Name != "" {
			sb.WriteString(" ")
			sb.WriteString(p.Name)
		}
	}
	sb.WriteString(")")
	for _, q := range d.Qualifiers {
		sb.WriteString(" ")
		sb.WriteString(q)
	}
	return sb.String()
}

// PointerDepth walks nested Pointer declarators and returns the depth and the
// innermost non-pointer declarator.
func PointerDepth(d Declarator) (int, Declarator) {
	depth := 0
	for {
		p, ok := d.(Pointer)
		if !ok {
			return depth, d
		}
		depth++
		d = p.Elem
	}
}
