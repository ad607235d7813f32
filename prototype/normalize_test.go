package prototype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cfw/cdecl"
	"github.com/teranos/cfw/errors"
)

func named(name string, modifiers ...string) cdecl.Named {
	return cdecl.Named{Name: name, Modifiers: modifiers}
}

func ptr(d cdecl.Declarator) cdecl.Pointer { return cdecl.Pointer{Elem: d} }

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		decl cdecl.Declarator
		want Type
	}{
		{name: "plain", decl: named("int"), want: "int"},
		{name: "modifiers", decl: named("long", "const", "unsigned"), want: "const unsigned long"},
		{name: "pointer", decl: ptr(named("char")), want: "char*"},
		{name: "pointer depth", decl: ptr(ptr(ptr(named("char")))), want: "char***"},
		{name: "array of pointers", decl: cdecl.Array{Elem: ptr(named("char")), Size: "4"}, want: "char*[]"},
		{name: "template and reference", decl: cdecl.Named{Name: "vector", TemplateArgs: "int", Reference: true}, want: "vector<int>&"},
		{name: "struct", decl: ptr(cdecl.Struct{Tag: "_SECURITY_ATTRIBUTES", Modifiers: []string{"const"}}), want: "struct _SECURITY_ATTRIBUTES*"},
		{name: "union", decl: cdecl.Struct{Kind: "union", Tag: "U"}, want: "union U"},
		{name: "ellipsis", decl: cdecl.Ellipsis{}, want: "..."},
		{name: "sal1 direction", decl: named("LPCSTR", "__in"), want: "LPCSTR"},
		{name: "sal1 sized", decl: ptr(named("VOID", "__out_bcount(nNumberOfBytesToRead)")), want: "VOID*"},
		{name: "IN OUT", decl: named("HANDLE", "IN", "OUT"), want: "HANDLE"},
		{name: "sal2", decl: ptr(named("DWORD", "_Out_writes_(n)")), want: "DWORD*"},
		{name: "sal2 optional", decl: named("LPSECURITY_ATTRIBUTES", "_In_opt_"), want: "LPSECURITY_ATTRIBUTES"},
		{name: "bracketed", decl: named("BSTR", "[in]"), want: "BSTR"},
		{name: "calling convention", decl: named("int", "__stdcall"), want: "int"},
		{name: "decoration with args", decl: named("int", "__declspec(dllimport)"), want: "int"},
		{name: "msvc int8", decl: named("__int8"), want: "__int8"},
		{name: "msvc int16", decl: named("__int16", "unsigned"), want: "unsigned __int16"},
		{name: "msvc int32", decl: ptr(named("__int32")), want: "__int32*"},
		{name: "msvc int64", decl: named("__int64", "unsigned"), want: "unsigned __int64"},
		{name: "sal1 before msvc int", decl: named("__int64", "__in", "unsigned"), want: "unsigned __int64"},
		{name: "sal1 inout sized", decl: ptr(named("BYTE", "__inout_ecount(n)")), want: "BYTE*"},
		{name: "sal1 deref", decl: ptr(ptr(named("VOID", "__deref_out"))), want: "VOID**"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Normalize(tt.decl)
			require.True(t, res.OK(), "outcome %s: %v", res.Outcome, res.Err)
			assert.Equal(t, tt.want, res.Type)
		})
	}
}

func TestNormalizeSuffixOrder(t *testing.T) {
	res := Normalize(cdecl.Array{Elem: ptr(ptr(cdecl.Named{Name: "T", TemplateArgs: "X", Reference: true}))})
	require.True(t, res.OK())
	assert.Equal(t, Type("T<X>&**[]"), res.Type)
}

func TestNormalizeOutcomes(t *testing.T) {
	res := Normalize(cdecl.Unknown{Kind: "function_declarator", Text: "int (*cb)(void)"})
	assert.Equal(t, OutcomeSkip, res.Outcome)
	assert.True(t, errors.Is(res.Err, errors.ErrUnsupportedDeclarator))

	res = Normalize(ptr(cdecl.Array{Elem: named("int")}))
	assert.Equal(t, OutcomeSkip, res.Outcome)

	res = Normalize(nil)
	assert.Equal(t, OutcomeError, res.Outcome)
	assert.True(t, errors.Is(res.Err, errors.ErrMalformedDeclaration))

	res = Normalize(named(""))
	assert.Equal(t, OutcomeError, res.Outcome)

	res = Normalize(cdecl.Pointer{})
	assert.Equal(t, OutcomeError, res.Outcome)

	res = NormalizeReturn(cdecl.Ellipsis{})
	assert.Equal(t, OutcomeError, res.Outcome)
}

func TestNormalizeReturn(t *testing.T) {
	tests := []struct {
		name string
		decl cdecl.Declarator
		want Type
	}{
		{name: "winbase", decl: named("BOOL", "WINBASEAPI", "WINAPI"), want: "BOOL"},
		{name: "userenv", decl: named("BOOL", "USERENVAPI", "WINAPI"), want: "BOOL"},
		{name: "pointer return", decl: ptr(named("char", "const")), want: "const char*"},
		{name: "first qualifier only", decl: named("int", "unsigned", "volatile", "const"), want: "volatile unsigned int"},
		{name: "sal on return", decl: named("HANDLE", "__out", "WINAPI"), want: "HANDLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NormalizeReturn(tt.decl)
			require.True(t, res.OK(), "%v", res.Err)
			assert.Equal(t, tt.want, res.Type)
		})
	}

	// Argument side keeps return-only macros
	assert.Equal(t, Type("CALLBACK int"), Normalize(named("int", "CALLBACK")).Type)
}

func TestNormalizeExtraMacros(t *testing.T) {
	n := NewNormalizer("MYLIB_API", " ")
	res := n.NormalizeReturn(named("int", "MYLIB_API"))
	require.True(t, res.OK())
	assert.Equal(t, Type("int"), res.Type)
	assert.Equal(t, Type("MYLIB_API int"), Normalize(named("int", "MYLIB_API")).Type)
}

func TestNormalizeStringIdempotent(t *testing.T) {
	inputs := []string{
		"__in LPCSTR",
		"char  *",
		"const   unsigned char * *",
		"_In_reads_bytes_(n) const void *",
		"vector< int,  char * >&",
		"struct _FILETIME *",
		"IN OUT PHANDLE",
		"int [ ]",
		"unsigned __int64",
		"__in __int32 *",
		"__int8",
	}
	for _, in := range inputs {
		once := NormalizeString(in)
		assert.Equal(t, once, NormalizeString(string(once)), "input %q", in)
	}
	assert.Equal(t, Type("LPCSTR"), NormalizeString("__in LPCSTR"))
	assert.Equal(t, Type("char*"), NormalizeString("char  *"))
	assert.Equal(t, Type("const unsigned char**"), NormalizeString("const   unsigned char * *"))
	assert.Equal(t, Type("unsigned __int64"), NormalizeString("unsigned __int64"))
	assert.Equal(t, Type("__int32*"), NormalizeString("__in __int32 *"))
}

func TestNormalizeReturnKeepsMSVCIntegers(t *testing.T) {
	res := NormalizeReturn(named("__int64", "WINAPI"))
	require.True(t, res.OK(), "outcome %s: %v", res.Outcome, res.Err)
	assert.Equal(t, Type("__int64"), res.Type)
}

func TestNormalizeOutputIsFixedPoint(t *testing.T) {
	decls := []cdecl.Declarator{
		ptr(named("char", "const")),
		cdecl.Named{Name: "map", TemplateArgs: "int,  char *"},
		ptr(cdecl.Struct{Tag: "X"}),
		cdecl.Array{Elem: named("int")},
	}
	for _, d := range decls {
		res := Normalize(d)
		require.True(t, res.OK())
		assert.Equal(t, res.Type, NormalizeString(string(res.Type)))
	}
}
