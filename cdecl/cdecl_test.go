package cdecl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointerDepth(t *testing.T) {
	base := Named{Name: "char"}
	depth, inner := PointerDepth(Pointer{Elem: Pointer{Elem: base}})
	assert.Equal(t, 2, depth)
	assert.Equal(t, base, inner)

	depth, inner = PointerDepth(base)
	assert.Equal(t, 0, depth)
	assert.Equal(t, base, inner)
}

func TestDeclarationString(t *testing.T) {
	d := Declaration{
		Name:   "Foo",
		Return: Named{Name: "int"},
		Params: []Param{
			{Name: "name", Type: Pointer{Elem: Named{Name: "char"}}},
			{Type: Ellipsis{}},
		},
		HasPrototype: true,
	}
	assert.Equal(t, "int Foo(char* name, ...)", d.String())
}

func TestDeclaratorStrings(t *testing.T) {
	assert.Equal(t, "const unsigned long", Named{Modifiers: []string{"const", "unsigned"}, Name: "long"}.String())
	assert.Equal(t, "vector<int>&", Named{Name: "vector", TemplateArgs: "int", Reference: true}.String())
	assert.Equal(t, "struct _SECURITY_ATTRIBUTES", Struct{Tag: "_SECURITY_ATTRIBUTES"}.String())
	assert.Equal(t, "char[16]", Array{Elem: Named{Name: "char"}, Size: "16"}.String())
	assert.Equal(t, "<function_declarator: int (*cb)(void)>", Unknown{Kind: "function_declarator", Text: "int (*cb)(void)"}.String())
	assert.Equal(t, "windows.h:12", Pos{File: "windows.h", Line: 12}.String())
}
