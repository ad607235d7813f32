package funclist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cfw/errors"
	"github.com/teranos/cfw/header"
)

const textList = `# functions wrapped for the example
CloseHandle winbase.h windows.h

ReadFile    winbase.h windows.h
strdup string.h
  CloseHandle winbase.h windows.h
`

func TestParseText(t *testing.T) {
	l, err := Parse("cfunctions.txt", []byte(textList))
	require.NoError(t, err)

	assert.Equal(t, []Entry{
		{Name: "CloseHandle", Header: "winbase.h", Include: "windows.h", Line: 2},
		{Name: "ReadFile", Header: "winbase.h", Include: "windows.h", Line: 4},
		{Name: "strdup", Header: "string.h", Include: "string.h", Line: 5},
		{Name: "CloseHandle", Header: "winbase.h", Include: "windows.h", Line: 6},
	}, l.Entries)

	assert.Equal(t, []string{"CloseHandle", "ReadFile", "strdup"}, l.Names())
	assert.Equal(t, []header.Request{
		{Header: "winbase.h", Include: "windows.h"},
		{Header: "string.h", Include: "string.h"},
	}, l.Headers())
}

func TestParseTextRejectsBadLines(t *testing.T) {
	for _, line := range []string{"Lonely", "a b c d"} {
		_, err := Parse("list.txt", []byte(line+"\n"))
		require.Error(t, err, line)
		assert.True(t, errors.IsInvalidConfig(err))
		assert.Contains(t, err.Error(), "list.txt:1")
		assert.NotEmpty(t, errors.GetAllHints(err))
	}
}

func TestParseEmpty(t *testing.T) {
	l, err := Parse("empty.txt", []byte("\n# nothing\n"))
	require.NoError(t, err)
	assert.Empty(t, l.Entries)
	assert.Empty(t, l.Names())
	assert.Empty(t, l.Headers())
}

const manifestList = `
[[function]]
name = "CloseHandle"
header = "winbase.h"
include = "windows.h"

[[function]]
name = "strdup"
header = "string.h"
`

func TestParseManifest(t *testing.T) {
	l, err := ParseManifest("functions.toml", []byte(manifestList))
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Name: "CloseHandle", Header: "winbase.h", Include: "windows.h"},
		{Name: "strdup", Header: "string.h", Include: "string.h"},
	}, l.Entries)
}

func TestParseManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing header", "[[function]]\nname = \"Foo\"\n"},
		{"unknown key", "[[function]]\nname = \"Foo\"\nheader = \"foo.h\"\nlibrary = \"foo\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest("functions.toml", []byte(tt.src))
			require.Error(t, err)
			assert.True(t, errors.IsInvalidConfig(err))
		})
	}

	_, err := ParseManifest("functions.toml", []byte("[[function]\n"))
	assert.Error(t, err)
}

func TestLoadChoosesFormat(t *testing.T) {
	dir := t.TempDir()
	text := filepath.Join(dir, "cfunctions.txt")
	manifest := filepath.Join(dir, "functions.TOML")
	require.NoError(t, os.WriteFile(text, []byte(textList), 0o644))
	require.NoError(t, os.WriteFile(manifest, []byte(manifestList), 0o644))

	l, err := Load(text)
	require.NoError(t, err)
	assert.Len(t, l.Entries, 4)
	assert.Equal(t, text, l.Path)

	l, err = Load(manifest)
	require.NoError(t, err)
	assert.Equal(t, []string{"CloseHandle", "strdup"}, l.Names())

	_, err = Load(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	l, err := Parse("cfunctions.txt", []byte("Foo foo.h lib/foo.h\nBar bar.h\n"))
	require.NoError(t, err)

	data, err := l.Encode()
	require.NoError(t, err)

	back, err := ParseManifest("functions.toml", data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Foo", "Bar"}, back.Names())
	assert.Equal(t, l.Headers(), back.Headers())
}

func TestWithout(t *testing.T) {
	l, err := Parse("cfunctions.txt", []byte("Foo foo.h\nBar bar.h\nFoo other.h\n"))
	require.NoError(t, err)

	kept := l.Without("Foo", "Gone")
	assert.Equal(t, []string{"Bar"}, kept.Names())
	assert.Len(t, l.Entries, 3)
	assert.Equal(t, l.Path, kept.Path)
}
