// Package document assembles generated classes into the interface,
// component and mock header documents.
//
// Documents are rendered from text/template files following a versioned
// contract. Templates receive a Data value; its fields are the named slots:
//
//	Version           contract version the run was built with
//	Guard             include guard macro of the document
//	Includes          "#include <...>" lines of the wrapped C headers
//	InterfaceInclude  include path of the interface document
//	MockFramework     include path of the mock framework header
//	Declarations      forward-declaration namespace hierarchy
//	Classes           class definitions in generation order
//
// Every slot is filled for every document, although the built-in component
// and mock templates leave Includes unused.
//
// A template directory may override any built-in template. Override files
// must start with {{/* cfw-template <version> */}} and the version must be
// compatible with TemplateVersion.
package document

import (
	"bytes"
	"embed"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/cfw/errors"
	"github.com/teranos/cfw/logger"
)

// TemplateVersion is the version of the slot contract described above.
const TemplateVersion = "1.0.0"

// compatibleVersions is the range of template versions this build accepts.
const compatibleVersions = "^1"

// DefaultMockFramework is the header declaring MOCK_CONST_METHOD<N>.
const DefaultMockFramework = "gmock/gmock.h"

// Kind identifies one of the three generated documents.
type Kind string

const (
	Interface Kind = "interface"
	Component Kind = "component"
	Mock      Kind = "mock"
)

// Kinds lists the documents in the order they are written.
var Kinds = []Kind{Interface, Component, Mock}

// FileName returns the output file name of the document.
func (k Kind) FileName() string {
	if k == Interface {
		return "ICWrappers.h"
	}
	return "CWrappers.h"
}

func (k Kind) templateFile() string { return string(k) + ".h.tmpl" }

// Data fills the template slots of one document.
type Data struct {
	Version          string
	Guard            string
	Includes         string
	InterfaceInclude string
	MockFramework    string
	Declarations     string
	Classes          string
}

//go:embed templates/*.h.tmpl
var builtin embed.FS

var versionPattern = regexp.MustCompile(`^\{\{/\*\s*cfw-template\s+(\S+)\s*\*/`)

// Assembler renders documents from templates.
type Assembler struct {
	templates map[Kind]*template.Template
	sources   map[Kind]string
}

// New loads the built-in templates, then the overrides found in dir (if dir
// is non-empty). Missing override files fall back to the built-in ones.
func New(dir string) (*Assembler, error) {
	a := &Assembler{
		templates: make(map[Kind]*template.Template, len(Kinds)),
		sources:   make(map[Kind]string, len(Kinds)),
	}
	log := logger.ComponentLogger("document")

	for _, kind := range Kinds {
		name := kind.templateFile()
		src, err := builtin.ReadFile("templates/" + name)
		if err != nil {
			return nil, errors.Wrapf(err, "read built-in template %s", name)
		}
		origin := "built-in"

		if dir != "" {
			override := filepath.Join(dir, name)
			data, err := os.ReadFile(override)
			switch {
			case err == nil:
				src, origin = data, override
			case !os.IsNotExist(err):
				return nil, errors.Wrapf(err, "read template %s", override)
			}
		}

		if err := a.add(kind, origin, string(src)); err != nil {
			return nil, err
		}
		log.Debugw("Template loaded", logger.FieldComponent, string(kind), logger.FieldPath, origin)
	}
	return a, nil
}

func (a *Assembler) add(kind Kind, origin, src string) error {
	if err := CheckVersion(src); err != nil {
		return errors.Wrapf(err, "%s template %s", kind, origin)
	}
	tmpl, err := template.New(string(kind)).Option("missingkey=error").Parse(src)
	if err != nil {
		return errors.Wrapf(err, "parse %s template %s", kind, origin)
	}
	a.templates[kind] = tmpl
	a.sources[kind] = origin
	return nil
}

// Source reports where the template of kind was loaded from.
func (a *Assembler) Source(kind Kind) string { return a.sources[kind] }

// Render executes the template of kind.
func (a *Assembler) Render(kind Kind, data Data) (string, error) {
	tmpl, ok := a.templates[kind]
	if !ok {
		return "", errors.Newf("no template for document %q", kind)
	}
	if data.Version == "" {
		data.Version = TemplateVersion
	}
	if data.MockFramework == "" {
		data.MockFramework = DefaultMockFramework
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "render %s document", kind)
	}
	return buf.String(), nil
}

// CheckVersion reads the cfw-template header of a template source and checks
// it against the versions this build accepts.
func CheckVersion(src string) error {
	m := versionPattern.FindStringSubmatch(strings.TrimLeft(src, "\ufeff \t\r\n"))
	if m == nil {
		return errors.WithHintf(
			errors.Wrap(errors.ErrTemplateVersion, "missing cfw-template header"),
			"start the template with {{/* cfw-template %s */}}", TemplateVersion)
	}
	v, err := semver.NewVersion(m[1])
	if err != nil {
		return errors.Wrapf(errors.ErrTemplateVersion, "invalid version %q: %v", m[1], err)
	}
	c, err := semver.NewConstraint(compatibleVersions)
	if err != nil {
		return errors.AssertionFailedf("bad constraint %q: %v", compatibleVersions, err)
	}
	if !c.Check(v) {
		return errors.WithHintf(
			errors.Wrapf(errors.ErrTemplateVersion, "version %s does not satisfy %s", v, compatibleVersions),
			"this build renders template contract %s", TemplateVersion)
	}
	return nil
}

// Includes renders one #include line per header, skipping repeats.
func Includes(headers []string) string {
	seen := make(map[string]bool, len(headers))
	lines := make([]string, 0, len(headers))
	for _, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		lines = append(lines, "#include <"+h+">")
	}
	return strings.Join(lines, "\n")
}

// IncludePath returns the include path of a generated file, relative to the
// parent of baseInclude: ("src/Base", "Component", "CWrappers.h") gives
// "Base/Component/CWrappers.h".
func IncludePath(baseInclude, dir, file string) string {
	base := path.Clean(filepath.ToSlash(baseInclude))
	full := path.Join(base, filepath.ToSlash(dir), file)
	parent := path.Dir(base)
	if parent == "." || parent == "/" {
		return strings.TrimPrefix(full, "/")
	}
	return strings.TrimPrefix(full, parent+"/")
}

var guardInvalid = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Guard derives an include guard from an include path:
// "Base/Component/CWrappers.h" gives "BASE_COMPONENT_CWRAPPERS_H".
func Guard(includePath string) string {
	g := strings.Trim(guardInvalid.ReplaceAllString(includePath, "_"), "_")
	g = strings.ToUpper(g)
	if g == "" || (g[0] >= '0' && g[0] <= '9') {
		g = "CFW_" + g
	}
	return g
}
