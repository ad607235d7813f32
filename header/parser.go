package header

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"github.com/teranos/cfw/cdecl"
	"github.com/teranos/cfw/errors"
	"github.com/teranos/cfw/prototype"
)

// File is the result of parsing one header.
type File struct {
	Path         string
	Declarations []cdecl.Declaration
	// Recovered counts declarations read by the token scanner
	Recovered int
}

// Parser extracts function declarations from C headers using the
// tree-sitter C grammar. A Parser is not safe for concurrent use.
type Parser struct {
	ts           *sitter.Parser
	isAnnotation func(string) bool
}

// NewParser creates a C parser. Tokens for which isAnnotation returns true are
// treated as decorations by the recovery scanner; nil uses prototype.IsAnnotation.
func NewParser(isAnnotation func(string) bool) *Parser {
	if isAnnotation == nil {
		isAnnotation = prototype.IsAnnotation
	}
	ts := sitter.NewParser()
	ts.SetLanguage(c.GetLanguage())
	return &Parser{ts: ts, isAnnotation: isAnnotation}
}

// Close releases the tree-sitter parser.
func (p *Parser) Close() {
	p.ts.Close()
}

// Parse returns every function declaration in src, in source order.
// Regions tree-sitter cannot parse are re-read by the token scanner.
func (p *Parser) Parse(ctx context.Context, path string, src []byte) (*File, error) {
	tree, err := p.ts.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	defer tree.Close()

	w := &walker{
		src:  src,
		file: &File{Path: path},
		scan: &scanner{file: path, isAnnotation: p.isAnnotation},
	}
	w.container(tree.RootNode())
	return w.file, nil
}

// walker collects declarations from a syntax tree.
type walker struct {
	src  []byte
	file *File
	scan *scanner

	// pending error region, flushed through the scanner
	regionStart, regionEnd uint32
	regionLine             int
	inRegion               bool
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(w.src)
}

// container visits the statements of a translation unit, preprocessor block
// or extern "C" body.
func (w *walker) container(n *sitter.Node) {
	// #ifdef NAME / #if CONDITION are not statements
	var guard *sitter.Node
	for _, field := range []string{"name", "condition"} {
		if g := n.ChildByFieldName(field); g != nil {
			guard = g
		}
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		if guard != nil && child.StartByte() == guard.StartByte() && child.EndByte() == guard.EndByte() {
			continue
		}

		switch child.Type() {
		case "comment":
			continue
		case "preproc_if", "preproc_ifdef", "preproc_else", "preproc_elif", "preproc_elifdef":
			w.flush()
			w.container(child)
			continue
		case "preproc_include", "preproc_def", "preproc_function_def", "preproc_call":
			w.flush()
			continue
		case "linkage_specification":
			w.flush()
			if body := child.ChildByFieldName("body"); body != nil {
				if body.Type() == "declaration_list" {
					w.container(body)
				} else {
					w.statement(body)
				}
			}
			continue
		}

		// A pending region is an unterminated broken statement: whatever
		// follows up to the next ';' belongs to it.
		if w.inRegion || child.HasError() || !isDeclarationNode(child.Type()) {
			w.extend(child)
			t := strings.TrimSpace(w.text(child))
			if strings.HasSuffix(t, ";") || strings.HasSuffix(t, "}") {
				w.flush()
			}
			continue
		}

		w.flush()
		w.statement(child)
	}
	w.flush()
}

func isDeclarationNode(typ string) bool {
	switch typ {
	case "declaration", "function_definition", "type_definition",
		"struct_specifier", "union_specifier", "enum_specifier":
		return true
	}
	return false
}

func (w *walker) extend(n *sitter.Node) {
	if !w.inRegion {
		w.inRegion = true
		w.regionStart = n.StartByte()
		w.regionLine = int(n.StartPoint().Row) + 1
	}
	w.regionEnd = n.EndByte()
}

// flush scans the pending error region.
func (w *walker) flush() {
	if !w.inRegion {
		return
	}
	w.inRegion = false
	decls := w.scan.scan(w.src[w.regionStart:w.regionEnd], w.regionLine)
	w.file.Declarations = append(w.file.Declarations, decls...)
	w.file.Recovered += len(decls)
}

// statement extracts function declarators from a clean declaration.
func (w *walker) statement(n *sitter.Node) {
	switch n.Type() {
	case "declaration", "function_definition":
	default:
		return
	}

	base := w.baseType(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil || !isDeclarator(child.Type()) {
			continue
		}
		if child.Type() == "init_declarator" {
			// int (*fp)(void) = 0; never a function
			continue
		}
		name, ret, fn := w.resolve(child, base)
		if fn == nil || name == "" {
			continue
		}
		decl := cdecl.Declaration{
			Name:   name,
			Return: ret,
			Pos:    cdecl.Pos{File: w.file.Path, Line: int(child.StartPoint().Row) + 1},
		}
		w.parameters(fn, &decl)
		w.file.Declarations = append(w.file.Declarations, decl)
	}
}

func isDeclarator(typ string) bool {
	switch typ {
	case "function_declarator", "pointer_declarator", "parenthesized_declarator",
		"attributed_declarator", "init_declarator", "array_declarator", "identifier":
		return true
	}
	return false
}

// Node types that decorate a declaration without being its type.
var modifierNodes = map[string]bool{
	"type_qualifier":          true,
	"storage_class_specifier": true,
	"ms_call_modifier":        true,
	"ms_declspec_modifier":    true,
	"ms_pointer_modifier":     true,
	"attribute_specifier":     true,
	"attribute_declaration":   true,
}

// baseType reads the type specifier of a declaration or parameter together
// with its modifier tokens.
func (w *walker) baseType(n *sitter.Node) cdecl.Declarator {
	typeNode := n.ChildByFieldName("type")
	var modifiers []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child != nil && modifierNodes[child.Type()] {
			modifiers = append(modifiers, strings.Join(strings.Fields(w.text(child)), " "))
		}
	}
	if typeNode == nil {
		return cdecl.Unknown{Kind: "missing_type", Text: w.text(n)}
	}

	switch typeNode.Type() {
	case "primitive_type", "type_identifier":
		return cdecl.Named{Modifiers: modifiers, Name: w.text(typeNode)}
	case "sized_type_specifier":
		// "unsigned long int": the last word is the name
		words := strings.Fields(w.text(typeNode))
		return cdecl.Named{Modifiers: append(modifiers, words[:len(words)-1]...), Name: words[len(words)-1]}
	case "struct_specifier", "union_specifier", "enum_specifier":
		kind := strings.TrimSuffix(typeNode.Type(), "_specifier")
		return cdecl.Struct{Kind: kind, Tag: w.text(typeNode.ChildByFieldName("name")), Modifiers: modifiers}
	default:
		return cdecl.Unknown{Kind: typeNode.Type(), Text: w.text(typeNode)}
	}
}

// resolve applies declarator nodes to t from the outside in. For a function
// declarator naming an identifier it also returns the function node.
func (w *walker) resolve(n *sitter.Node, t cdecl.Declarator) (string, cdecl.Declarator, *sitter.Node) {
	if n == nil {
		return "", t, nil
	}
	switch n.Type() {
	case "identifier", "field_identifier", "type_identifier":
		return w.text(n), t, nil

	case "pointer_declarator", "abstract_pointer_declarator":
		var quals []string
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if q := n.NamedChild(i); q != nil && q.Type() == "type_qualifier" {
				quals = append(quals, w.text(q))
			}
		}
		return w.resolve(n.ChildByFieldName("declarator"), cdecl.Pointer{Elem: t, Qualifiers: quals})

	case "array_declarator", "abstract_array_declarator":
		return w.resolve(n.ChildByFieldName("declarator"), cdecl.Array{Elem: t, Size: w.text(n.ChildByFieldName("size"))})

	case "parenthesized_declarator", "abstract_parenthesized_declarator", "attributed_declarator":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if inner := n.NamedChild(i); inner != nil && inner.Type() != "attribute_declaration" {
				return w.resolve(inner, t)
			}
		}
		return "", t, nil

	case "function_declarator":
		inner := n.ChildByFieldName("declarator")
		if inner != nil && inner.Type() == "identifier" {
			return w.text(inner), t, n
		}
		name, _, _ := w.resolve(inner, t)
		return name, cdecl.Unknown{Kind: "function_declarator", Text: w.text(n)}, nil

	default:
		return "", cdecl.Unknown{Kind: n.Type(), Text: w.text(n)}, nil
	}
}

// parameters fills Params, HasPrototype and Qualifiers from a function declarator.
func (w *walker) parameters(fn *sitter.Node, decl *cdecl.Declaration) {
	list := fn.ChildByFieldName("parameters")
	if list == nil {
		return
	}
	for i := 0; i < int(list.ChildCount()); i++ {
		child := list.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "parameter_declaration":
			base := w.baseType(child)
			name, typ, fnNode := w.resolve(child.ChildByFieldName("declarator"), base)
			if fnNode != nil {
				typ = cdecl.Unknown{Kind: "function_parameter", Text: w.text(child)}
			}
			decl.Params = append(decl.Params, cdecl.Param{Name: name, Type: typ})
		case "variadic_parameter", "...":
			decl.Params = append(decl.Params, cdecl.Param{Type: cdecl.Ellipsis{}})
		case "identifier":
			// K&R identifier list
			decl.Params = append(decl.Params, cdecl.Param{Name: w.text(child), Type: cdecl.Unknown{Kind: "identifier_list", Text: w.text(child)}})
		case "optional_parameter_declaration":
			decl.Params = append(decl.Params, cdecl.Param{Type: cdecl.Unknown{Kind: child.Type(), Text: w.text(child)}})
		}
	}
	decl.HasPrototype = len(decl.Params) > 0

	for i := 0; i < int(fn.NamedChildCount()); i++ {
		if q := fn.NamedChild(i); q != nil && q.Type() == "type_qualifier" {
			decl.Qualifiers = append(decl.Qualifiers, w.text(q))
		}
	}
}
