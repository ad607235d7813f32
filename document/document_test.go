package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cfw/errors"
)

func TestBuiltinTemplates(t *testing.T) {
	a, err := New("")
	require.NoError(t, err)

	for _, kind := range Kinds {
		assert.Equal(t, "built-in", a.Source(kind))
	}

	out, err := a.Render(Interface, Data{
		Guard:        "BASE_ICWRAPPERS_H",
		Includes:     Includes([]string{"windows.h"}),
		Declarations: "class IFoo;\n",
		Classes:      "class IFoo\n{\n};\n\n",
	})
	require.NoError(t, err)
	assert.Equal(t, `// Generated by cfw (template 1.0.0). Do not edit.
#pragma once

#ifndef BASE_ICWRAPPERS_H
#define BASE_ICWRAPPERS_H

#include <windows.h>

class IFoo;

class IFoo
{
};

#endif
`, out)
}

func TestComponentAndMockTemplates(t *testing.T) {
	a, err := New("")
	require.NoError(t, err)

	out, err := a.Render(Component, Data{
		Guard:            "BASE_COMPONENT_CWRAPPERS_H",
		Includes:         Includes([]string{"windows.h"}),
		InterfaceInclude: "Base/ICWrappers.h",
		Declarations:     "class FooWrapper;\n",
		Classes:          "class FooWrapper {};\n\n",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "#include <Base/ICWrappers.h>\n\nclass FooWrapper;\n")
	assert.NotContains(t, out, "windows.h")
	assert.True(t, strings.HasSuffix(out, "#endif\n"))

	out, err = a.Render(Mock, Data{
		Guard:            "BASE_MOCK_CWRAPPERS_H",
		InterfaceInclude: "Base/ICWrappers.h",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "#include <Base/ICWrappers.h>\n#include <gmock/gmock.h>\n")
}

func TestTemplateOverride(t *testing.T) {
	dir := t.TempDir()
	src := "{{/* cfw-template 1.2.0 */ -}}\n// custom {{.Guard}}\n{{.Classes}}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mock.h.tmpl"), []byte(src), 0o644))

	a, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mock.h.tmpl"), a.Source(Mock))
	assert.Equal(t, "built-in", a.Source(Interface))

	out, err := a.Render(Mock, Data{Guard: "G", Classes: "X\n"})
	require.NoError(t, err)
	assert.Equal(t, "// custom G\nX\n", out)
}

func TestTemplateOverrideIncompatible(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "interface.h.tmpl"), []byte("{{/* cfw-template 2.0.0 */}}"), 0o644))

	_, err := New(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTemplateVersion))
}

func TestCheckVersion(t *testing.T) {
	assert.NoError(t, CheckVersion("{{/* cfw-template 1.0.0 */}}"))
	assert.NoError(t, CheckVersion("\n  {{/*cfw-template 1.9.3*/ -}}"))

	err := CheckVersion("no header")
	assert.True(t, errors.Is(err, errors.ErrTemplateVersion))
	assert.NotEmpty(t, errors.GetAllHints(err))

	assert.True(t, errors.Is(CheckVersion("{{/* cfw-template banana */}}"), errors.ErrTemplateVersion))
	assert.True(t, errors.Is(CheckVersion("{{/* cfw-template 0.9.0 */}}"), errors.ErrTemplateVersion))
}

func TestIncludes(t *testing.T) {
	assert.Equal(t, "#include <windows.h>\n#include <userenv.h>",
		Includes([]string{"windows.h", "userenv.h", "windows.h", " "}))
	assert.Equal(t, "", Includes(nil))
}

func TestIncludePathAndGuard(t *testing.T) {
	tests := []struct {
		base, dir, file string
		include, guard  string
	}{
		{"src/Base", "Component", "CWrappers.h", "Base/Component/CWrappers.h", "BASE_COMPONENT_CWRAPPERS_H"},
		{"src/Base", "", "ICWrappers.h", "Base/ICWrappers.h", "BASE_ICWRAPPERS_H"},
		{"Base", "Mock", "CWrappers.h", "Base/Mock/CWrappers.h", "BASE_MOCK_CWRAPPERS_H"},
		{"out/gen/Base/", "Mock/Sub2", "CWrappers.h", "Base/Mock/Sub2/CWrappers.h", "BASE_MOCK_SUB2_CWRAPPERS_H"},
	}
	for _, tt := range tests {
		include := IncludePath(tt.base, tt.dir, tt.file)
		assert.Equal(t, tt.include, include)
		assert.Equal(t, tt.guard, Guard(include))
	}
	assert.Equal(t, "CFW_3D_H", Guard("3d.h"))
}

func TestKindFileName(t *testing.T) {
	assert.Equal(t, "ICWrappers.h", Interface.FileName())
	assert.Equal(t, "CWrappers.h", Component.FileName())
	assert.Equal(t, "CWrappers.h", Mock.FileName())
}
