// Package funclist reads the list of C functions to wrap.
//
// Two formats are accepted. The text format has one entry per line:
//
//	CloseHandle    winbase.h    windows.h
//	strdup         string.h
//
// naming the function, the header declaring it (searched on the include
// path) and the include generated documents use for it. A two-field line
// includes the header itself. Blank lines and lines starting with '#' are
// ignored.
//
// Files ending in .toml are read as a manifest:
//
//	[[function]]
//	name = "CloseHandle"
//	header = "winbase.h"
//	include = "windows.h"
package funclist

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/teranos/cfw/errors"
	"github.com/teranos/cfw/header"
)

// Entry is one function to wrap.
type Entry struct {
	Name    string `toml:"name" json:"name"`
	Header  string `toml:"header" json:"header"`
	Include string `toml:"include,omitempty" json:"include,omitempty"`
	// Line in the source file, 0 for manifest entries
	Line int `toml:"-" json:"-"`
}

// List is an ordered function list.
type List struct {
	Path    string
	Entries []Entry
}

type manifest struct {
	Function []Entry `toml:"function"`
}

// Load reads a function list, choosing the format by extension.
func Load(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read function list %s", path)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseManifest(path, data)
	}
	return Parse(path, data)
}

// Parse reads the text format.
func Parse(path string, data []byte) (*List, error) {
	l := &List{Path: path}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch len(fields) {
		case 2:
			fields = append(fields, fields[1])
		case 3:
		default:
			return nil, errors.WithHint(
				errors.NewInvalidConfig("%s:%d: expected 'function header [include]', got %d fields", path, n, len(fields)),
				"each line names a function, the header declaring it and optionally the include to generate")
		}
		l.Entries = append(l.Entries, Entry{Name: fields[0], Header: fields[1], Include: fields[2], Line: n})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "read function list %s", path)
	}
	return l, nil
}

// ParseManifest reads the TOML format.
func ParseManifest(path string, data []byte) (*List, error) {
	var m manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, errors.Wrapf(err, "parse function manifest %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.NewInvalidConfig("%s: unknown key %s", path, undecoded[0])
	}

	l := &List{Path: path}
	for i, e := range m.Function {
		if e.Name == "" || e.Header == "" {
			return nil, errors.NewInvalidConfig("%s: function %d needs a name and a header", path, i+1)
		}
		if e.Include == "" {
			e.Include = e.Header
		}
		l.Entries = append(l.Entries, e)
	}
	return l, nil
}

// Names returns the distinct function names in list order.
func (l *List) Names() []string {
	seen := make(map[string]bool, len(l.Entries))
	var names []string
	for _, e := range l.Entries {
		if !seen[e.Name] {
			seen[e.Name] = true
			names = append(names, e.Name)
		}
	}
	return names
}

// Headers returns the distinct header/include pairs in first-seen order.
func (l *List) Headers() []header.Request {
	seen := make(map[header.Request]bool)
	var reqs []header.Request
	for _, e := range l.Entries {
		req := header.Request{Header: e.Header, Include: e.Include}
		if !seen[req] {
			seen[req] = true
			reqs = append(reqs, req)
		}
	}
	return reqs
}

// Without returns a copy of the list lacking the entries of names.
func (l *List) Without(names ...string) *List {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := &List{Path: l.Path}
	for _, e := range l.Entries {
		if !drop[e.Name] {
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}

// Encode renders the list as a TOML manifest.
func (l *List) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(manifest{Function: l.Entries}); err != nil {
		return nil, errors.Wrap(err, "encode function manifest")
	}
	return buf.Bytes(), nil
}
