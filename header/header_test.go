package header

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cfw/cdecl"
	"github.com/teranos/cfw/diag"
	"github.com/teranos/cfw/prototype"
)

func scanSource(t *testing.T, src string, firstLine int) []cdecl.Declaration {
	t.Helper()
	sc := &scanner{file: "winbase.h", isAnnotation: prototype.IsAnnotation}
	return sc.scan([]byte(src), firstLine)
}

// rendered normalizes every declaration and renders it on one line.
func rendered(t *testing.T, decls []cdecl.Declaration) []string {
	t.Helper()
	var out []string
	for _, d := range decls {
		p, res := prototype.New(d)
		require.True(t, res.OK(), "%s: %v", d.Name, res.Err)
		out = append(out, p.String())
	}
	return out
}

func names(decls []cdecl.Declaration) []string {
	var out []string
	for _, d := range decls {
		out = append(out, d.Name)
	}
	return out
}

func TestScanAnnotatedPrototypes(t *testing.T) {
	src := `
WINBASEAPI BOOL WINAPI CloseHandle(__in HANDLE hObject);

WINBASEAPI
BOOL
WINAPI
ReadFile(
    __in HANDLE hFile,
    __out_bcount_part_opt(nNumberOfBytesToRead, *lpNumberOfBytesRead) LPVOID lpBuffer,
    __in DWORD nNumberOfBytesToRead,
    __out_opt LPDWORD lpNumberOfBytesRead,
    __inout_opt LPOVERLAPPED lpOverlapped
    );

HANDLE WINAPI OpenMutexA(DWORD dwDesiredAccess, BOOL bInheritHandle, LPCSTR lpName OPTIONAL);
void __stdcall Sleep(DWORD);
int __cdecl printf(const char * _Format, ...);
int Fill(char buf[256]);
`
	got := rendered(t, scanSource(t, src, 1))
	assert.Equal(t, []string{
		"BOOL CloseHandle(HANDLE hObject)",
		"BOOL ReadFile(HANDLE hFile, LPVOID lpBuffer, DWORD nNumberOfBytesToRead, LPDWORD lpNumberOfBytesRead, LPOVERLAPPED lpOverlapped)",
		"HANDLE OpenMutexA(DWORD dwDesiredAccess, BOOL bInheritHandle, LPCSTR lpName)",
		"void Sleep(DWORD)",
		"int printf(const char* _Format, ...)",
		"int Fill(char[] buf)",
	}, got)
}

func TestScanRawDeclaration(t *testing.T) {
	decls := scanSource(t, "int Foo(char* name);", 1)
	require.Len(t, decls, 1)
	assert.Equal(t, cdecl.Declaration{
		Name:         "Foo",
		Return:       cdecl.Named{Name: "int"},
		Params:       []cdecl.Param{{Name: "name", Type: cdecl.Pointer{Elem: cdecl.Named{Name: "char"}}}},
		HasPrototype: true,
		Pos:          cdecl.Pos{File: "winbase.h", Line: 1},
	}, decls[0])
}

func TestScanSkipsNonPrototypes(t *testing.T) {
	src := `
#define MAX_PATH 260
#if defined(_WIN32) && \
    !defined(NOAPI)
typedef BOOL (WINAPI *PHANDLER_ROUTINE)(DWORD CtrlType);
int (*signal(int sig, void (*func)(int)))(int);
struct point { int x; int y; };
extern int counter;
// int Commented(int x);
/* int Block(int x); */
#endif
int Kept(int x);
`
	assert.Equal(t, []string{"Kept"}, names(scanSource(t, src, 1)))
}

func TestScanExternCBlock(t *testing.T) {
	src := `#ifdef __cplusplus
extern "C" {
#endif

int Inside(int x);
static int Twice(int x) { return x * 2; }
int After(void);

#ifdef __cplusplus
}
#endif
`
	decls := scanSource(t, src, 1)
	assert.Equal(t, []string{"Inside", "Twice", "After"}, names(decls))
}

func TestScanLineNumbers(t *testing.T) {
	src := "/* header\n   comment */\nint A(int x);\n\n#define X \\\n  1\nint\nB(int y);\n"
	decls := scanSource(t, src, 10)
	require.Len(t, decls, 2)
	assert.Equal(t, 12, decls[0].Pos.Line)
	assert.Equal(t, 17, decls[1].Pos.Line)
}

func TestScanTrailingQualifiers(t *testing.T) {
	decls := scanSource(t, "int Get(int key) const;", 1)
	require.Len(t, decls, 1)
	assert.Equal(t, []string{"const"}, decls[0].Qualifiers)
}

func TestScanUnprototyped(t *testing.T) {
	decls := scanSource(t, "int legacy();", 1)
	require.Len(t, decls, 1)
	assert.False(t, decls[0].HasPrototype)
	assert.Empty(t, decls[0].Params)
}

func TestTokenizeKeepsCompoundTokens(t *testing.T) {
	var texts []string
	for _, tok := range tokenize([]byte(`f(a, ...) :: "x;y"`), 1) {
		texts = append(texts, tok.text)
	}
	assert.Equal(t, []string{"f", "(", "a", ",", "...", ")", "::", `"x;y"`}, texts)
}

func parseSource(t *testing.T, src string) *File {
	t.Helper()
	p := NewParser(nil)
	defer p.Close()
	f, err := p.Parse(context.Background(), "sample.h", []byte(src))
	require.NoError(t, err)
	return f
}

func TestParsePlainC(t *testing.T) {
	src := `#include <stddef.h>
/* comment */
int Foo(char *name);
void A(void);
extern const char *GetName(unsigned long id, struct tm *when);
int printf(const char *format, ...);
int legacy();
static inline int Twice(int x) { return 2 * x; }
typedef int (*callback_t)(int);
int (*fp)(void);
int var;
#ifdef FOO
int Guarded(double d);
#endif
`
	f := parseSource(t, src)
	assert.Equal(t, []string{"Foo", "A", "GetName", "printf", "legacy", "Twice", "Guarded"}, names(f.Declarations))
	assert.Equal(t, 0, f.Recovered)

	assert.Equal(t, cdecl.Declaration{
		Name:         "Foo",
		Return:       cdecl.Named{Name: "int"},
		Params:       []cdecl.Param{{Name: "name", Type: cdecl.Pointer{Elem: cdecl.Named{Name: "char"}}}},
		HasPrototype: true,
		Pos:          cdecl.Pos{File: "sample.h", Line: 3},
	}, f.Declarations[0])

	assert.Equal(t, []string{
		"int Foo(char* name)",
		"void A()",
		"const char* GetName(unsigned long id, struct tm* when)",
		"int printf(const char* format, ...)",
		"int legacy()",
		"int Twice(int x)",
		"int Guarded(double d)",
	}, rendered(t, f.Declarations))
}

func TestParseRecoversVendorMacros(t *testing.T) {
	src := `#pragma once
#include <windows.h>

#ifdef __cplusplus
extern "C" {
#endif

WINBASEAPI
BOOL
WINAPI
CloseHandle(
    __in HANDLE hObject
    );

int PlainFunction(int value);

WINBASEAPI DWORD WINAPI GetTickCount(VOID);

#ifdef __cplusplus
}
#endif
`
	f := parseSource(t, src)
	assert.Equal(t, []string{"CloseHandle", "PlainFunction", "GetTickCount"}, names(f.Declarations))
	assert.GreaterOrEqual(t, f.Recovered, 1)

	closeHandle := f.Declarations[0]
	p, res := prototype.New(closeHandle)
	require.True(t, res.OK())
	assert.Equal(t, "BOOL CloseHandle(HANDLE hObject)", p.String())

	// (VOID) is an empty parameter list
	tick, res := prototype.New(f.Declarations[2])
	require.True(t, res.OK())
	assert.Empty(t, tick.Arguments())
	assert.Equal(t, "DWORD GetTickCount()", tick.String())
}

func TestParseKeepsMSVCIntegerTypes(t *testing.T) {
	src := `unsigned __int64 Big(unsigned __int64 value);
__int64 Signed(__int32 low, __in __int16 *high);
`
	f := parseSource(t, src)
	assert.Equal(t, []string{
		"unsigned __int64 Big(unsigned __int64 value)",
		"__int64 Signed(__int32 low, __int16* high)",
	}, rendered(t, f.Declarations))
}

func TestSplitIncludePath(t *testing.T) {
	sep := string(os.PathListSeparator)
	assert.Equal(t, []string{"a", "b/c"}, SplitIncludePath("a"+sep+sep+" b/c "+sep))
	assert.Empty(t, SplitIncludePath(""))
}

func writeHeader(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestLocate(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	writeHeader(t, second, "foo.h", "int Foo(int);")
	want := writeHeader(t, first, "sys/bar.h", "int Bar(int);")
	writeHeader(t, second, "sys/bar.h", "int Bar(int);")
	require.NoError(t, os.MkdirAll(filepath.Join(first, "dir.h"), 0o755))

	path, ok := Locate([]string{first, second}, "sys/bar.h")
	require.True(t, ok)
	assert.Equal(t, want, path)

	path, ok = Locate([]string{first, second}, "foo.h")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(second, "foo.h"), path)

	_, ok = Locate([]string{first}, "dir.h")
	assert.False(t, ok, "directories are not headers")

	_, ok = Locate([]string{first, second}, "missing.h")
	assert.False(t, ok)
}

func TestCache(t *testing.T) {
	dir := t.TempDir()
	path := writeHeader(t, dir, "a.h", "int A(int x);")
	info, err := os.Stat(path)
	require.NoError(t, err)

	c, err := NewCache(0)
	require.NoError(t, err)

	_, hit := c.Get(path, info)
	assert.False(t, hit)

	f := &File{Path: path}
	c.Add(path, info, f)
	got, hit := c.Get(path, info)
	require.True(t, hit)
	assert.Same(t, f, got)
	assert.Equal(t, 1, c.Len())

	writeHeader(t, dir, "a.h", "int A(int x);\nint B(int y);")
	changed, err := os.Stat(path)
	require.NoError(t, err)
	_, hit = c.Get(path, changed)
	assert.False(t, hit, "a changed header is parsed again")

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestNilCache(t *testing.T) {
	var c *Cache
	c.Add("x", nil, &File{})
	_, hit := c.Get("x", nil)
	assert.False(t, hit)
	assert.Equal(t, 0, c.Len())
	c.Purge()
}

func TestLoaderMergesInRequestOrder(t *testing.T) {
	dir := t.TempDir()
	writeHeader(t, dir, "a.h", "int Foo(int x);\nint Bar(void);\n")
	writeHeader(t, dir, "b.h", "int Foo(int y);\nvoid Baz(char *s);\n")

	rec := diag.NewRecorder()
	l := NewLoader([]string{dir}, WithConcurrency(2))
	res, err := l.Load(context.Background(), []Request{
		{Header: "b.h", Include: "lib/b.h"},
		{Header: "a.h", Include: "lib/a.h"},
		{Header: "b.h", Include: "lib/b.h"},
	}, nil, rec)
	require.NoError(t, err)

	assert.Equal(t, []string{"Foo", "Baz", "Bar"}, names(res.Declarations))
	assert.Equal(t, []string{"lib/b.h", "lib/a.h"}, res.Includes)
	assert.Empty(t, res.Missing)
	assert.Equal(t, []string{filepath.Join(dir, "b.h"), filepath.Join(dir, "a.h")}, res.Paths)
	assert.Equal(t, 2, res.Parsed)

	foo, ok := res.Lookup("Foo")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "b.h"), foo.Pos.File)
	assert.Equal(t, "y", foo.Params[0].Name)

	assert.Equal(t, []string{"Foo"}, rec.Names(diag.EventDuplicate))
}

func TestLoaderFiltersNames(t *testing.T) {
	dir := t.TempDir()
	writeHeader(t, dir, "a.h", "int Foo(int x);\nint Bar(void);\nint Foo(long x);\n")

	rec := diag.NewRecorder()
	res, err := NewLoader([]string{dir}).Load(context.Background(),
		[]Request{{Header: "a.h", Include: "a.h"}}, []string{"Bar"}, rec)
	require.NoError(t, err)

	assert.Equal(t, []string{"Bar"}, names(res.Declarations))
	assert.Empty(t, rec.OfType(diag.EventDuplicate), "filtered names are never duplicates")

	_, ok := res.Lookup("Foo")
	assert.False(t, ok)
}

func TestLoaderReportsMissingHeaders(t *testing.T) {
	dir := t.TempDir()
	writeHeader(t, dir, "a.h", "int Foo(int x);")

	rec := diag.NewRecorder()
	res, err := NewLoader([]string{dir}).Load(context.Background(), []Request{
		{Header: "gone.h", Include: "gone.h"},
		{Header: "a.h", Include: "a.h"},
	}, nil, rec)
	require.NoError(t, err)

	assert.Equal(t, []string{"gone.h"}, res.Missing)
	assert.Equal(t, []string{"a.h"}, res.Includes)
	assert.Equal(t, []string{"Foo"}, names(res.Declarations))

	events := rec.OfType(diag.EventMissingHeader)
	require.Len(t, events, 1)
	assert.Equal(t, "gone.h", events[0].Data["header"])
}

func TestLoaderUsesCache(t *testing.T) {
	dir := t.TempDir()
	path := writeHeader(t, dir, "a.h", "int Foo(int x);")
	cache, err := NewCache(4)
	require.NoError(t, err)

	l := NewLoader([]string{dir}, WithCache(cache))
	reqs := []Request{{Header: "a.h", Include: "a.h"}}

	res, err := l.Load(context.Background(), reqs, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Parsed)

	res, err = l.Load(context.Background(), reqs, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Parsed)
	assert.Equal(t, []string{"Foo"}, names(res.Declarations))

	// A different size invalidates the entry even within the mtime granularity.
	writeHeader(t, dir, "a.h", "int Foo(int x);\nint Bar(int y);")
	require.NoError(t, os.Chtimes(path, time.Now(), time.Now().Add(time.Second)))

	res, err = l.Load(context.Background(), reqs, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Parsed)
	assert.Equal(t, []string{"Foo", "Bar"}, names(res.Declarations))
}

func TestLoaderHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	writeHeader(t, dir, "a.h", "int Foo(int x);")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLoader([]string{dir}).Load(ctx, []Request{{Header: "a.h", Include: "a.h"}}, nil, nil)
	assert.Error(t, err)
}
