package generate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/cfw/cdecl"
	"github.com/teranos/cfw/config"
	"github.com/teranos/cfw/diag"
	"github.com/teranos/cfw/document"
	"github.com/teranos/cfw/errors"
	"github.com/teranos/cfw/funclist"
	"github.com/teranos/cfw/header"
	"github.com/teranos/cfw/logger"
	"github.com/teranos/cfw/prototype"
)

// Stage names reported to diagnostic sinks.
const (
	StageList     = "list"
	StageDiscover = "discover"
	StageBuild    = "build"
	StageRender   = "render"
	StageWrite    = "write"
)

// Result is a rendered generation run.
type Result struct {
	*Output
	Prototypes []*prototype.Prototype
	// Includes of the wrapped C headers, in function list order
	Includes []string
	// Headers are the parsed header files, watched in watch mode
	Headers []string
	// Parsed counts headers parsed rather than served from the cache
	Parsed int
	// Cached is the size of the parse cache after the run
	Cached    int
	Documents map[document.Kind]string
	Paths     map[document.Kind]string
	// Templates record where each document's template came from
	Templates map[document.Kind]string
}

// Generator runs generations. It keeps a header parse cache so repeated
// runs (watch mode) only reparse headers that changed.
type Generator struct {
	cache *header.Cache
	// stripped is the strip_macros set the cached headers were parsed with
	stripped string
	log      *zap.SugaredLogger
}

// New creates a generator with a parse cache of cacheSize headers
// (0 for the default size).
func New(cacheSize int) (*Generator, error) {
	cache, err := header.NewCache(cacheSize)
	if err != nil {
		return nil, err
	}
	return &Generator{cache: cache, log: logger.ComponentLogger("generate")}, nil
}

// Run discovers, builds and renders the documents described by cfg without
// writing them.
func (g *Generator) Run(ctx context.Context, cfg *config.Config, sink diag.Sink) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	found, err := g.Discover(ctx, cfg, sink)
	if err != nil {
		return nil, err
	}
	return g.Generate(cfg, found, sink)
}

// Generate builds and renders the documents for prototypes already found.
// found must be complete; see Found.Err.
func (g *Generator) Generate(cfg *config.Config, found *Found, sink diag.Sink) (*Result, error) {
	sink = diag.OrNop(sink)
	start := time.Now()

	sink.Stage(StageBuild, "building classes")
	out, err := Build(cfg.WrapOptions(), found.Prototypes, cfg.Aggregates, cfg.Wrap.GenerateMocks, sink)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Output:     out,
		Prototypes: found.Prototypes,
		Includes:   found.Includes,
		Headers:    found.Headers,
		Parsed:     found.Parsed,
		Cached:     g.cache.Len(),
		Documents:  make(map[document.Kind]string),
		Paths:      make(map[document.Kind]string),
		Templates:  make(map[document.Kind]string),
	}
	if err := res.render(cfg, sink); err != nil {
		return nil, err
	}

	g.log.Infow("Generation complete",
		logger.FieldCount, len(out.Wrappers),
		"aggregates", len(out.Aggregates),
		"unmockable", len(out.Unmockable),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return res, nil
}

// Found is the outcome of looking functions up in the headers.
type Found struct {
	List       *funclist.List
	Prototypes []*prototype.Prototype
	// Includes of the headers that were found, in function list order
	Includes []string
	// Headers are the paths of the parsed headers
	Headers []string
	// Missing names listed functions that were not found or could not be wrapped
	Missing        []string
	MissingHeaders []string
	Dirs           []string
	// Parsed counts headers parsed rather than served from the cache
	Parsed int
}

// Find reads the function list and looks its functions up in the headers.
// With all set every wrappable function of the listed headers is returned in
// header order instead of only the listed ones.
func (g *Generator) Find(ctx context.Context, cfg *config.Config, all bool, sink diag.Sink) (*Found, error) {
	sink = diag.OrNop(sink)

	sink.Stage(StageList, cfg.Input.FunctionList)
	list, err := funclist.Load(cfg.Input.FunctionList)
	if err != nil {
		return nil, err
	}
	names := list.Names()
	if len(names) == 0 {
		return nil, errors.WithHint(
			errors.NewInvalidConfig("%s lists no functions", cfg.Input.FunctionList),
			"add lines of the form 'function header [include]'")
	}

	dirs, err := cfg.IncludeDirs()
	if err != nil {
		return nil, err
	}

	normalizer := prototype.NewNormalizer(cfg.Wrap.StripMacros...)
	// the macro set changes how headers scan, so earlier parses are stale
	if key := strings.Join(cfg.Wrap.StripMacros, " "); key != g.stripped {
		if n := g.cache.Len(); n > 0 {
			g.log.Debugw("Strip macros changed, purging parse cache", logger.FieldCount, n)
		}
		g.cache.Purge()
		g.stripped = key
	}
	loader := header.NewLoader(dirs,
		header.WithCache(g.cache),
		header.WithAnnotations(normalizer.IsAnnotation))

	filter := names
	if all {
		filter = nil
	}
	sink.Stage(StageDiscover, strings.Join(dirs, string(os.PathListSeparator)))
	loaded, err := loader.Load(ctx, list.Headers(), filter, sink)
	if err != nil {
		return nil, err
	}

	found := &Found{
		List:           list,
		Includes:       loaded.Includes,
		Headers:        loaded.Paths,
		MissingHeaders: loaded.Missing,
		Dirs:           dirs,
		Parsed:         loaded.Parsed,
	}

	wrap := func(decl cdecl.Declaration) bool {
		p, r := normalizer.Prototype(decl)
		if !r.OK() {
			sink.Dropped(decl.Pos, decl.Name, r.Err.Error())
			return false
		}
		found.Prototypes = append(found.Prototypes, p)
		return true
	}

	if all {
		listed := make(map[string]bool, len(names))
		for _, d := range loaded.Declarations {
			ok := wrap(d)
			listed[d.Name] = ok
		}
		for _, name := range names {
			if !listed[name] {
				found.Missing = append(found.Missing, name)
			}
		}
	} else {
		for _, name := range names {
			decl, ok := loaded.Lookup(name)
			if !ok || !wrap(decl) {
				found.Missing = append(found.Missing, name)
			}
		}
	}

	g.log.Debugw("Prototypes discovered",
		logger.FieldCount, len(found.Prototypes),
		"missing", len(found.Missing),
		"headers_parsed", loaded.Parsed)
	return found, nil
}

// Discover returns the prototype of every listed function, in list order,
// with the includes of the headers declaring them. A listed function that
// cannot be found or wrapped fails the run.
func (g *Generator) Discover(ctx context.Context, cfg *config.Config, sink diag.Sink) (*Found, error) {
	found, err := g.Find(ctx, cfg, false, sink)
	if err != nil {
		return nil, err
	}
	if err := found.Err(); err != nil {
		return nil, err
	}
	return found, nil
}

// Err explains why listed functions are missing, blaming an absent header
// when that is the cause. It is nil when every listed function was found.
func (f *Found) Err() error {
	if len(f.Missing) == 0 {
		return nil
	}
	absent := make(map[string]bool, len(f.MissingHeaders))
	for _, h := range f.MissingHeaders {
		absent[h] = true
	}
	for _, e := range f.List.Entries {
		if absent[e.Header] && contains(f.Missing, e.Name) {
			return errors.WithHintf(
				errors.Wrapf(errors.ErrHeaderNotFound, "%s (declares %s)", e.Header, e.Name),
				"searched %s", strings.Join(f.Dirs, ", "))
		}
	}
	return errors.WithHint(
		errors.NewFunctionNotFound(strings.Join(f.Missing, ", ")),
		"check the function list against the headers; run 'cfw prototypes' to see what was found")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// render applies the document templates.
func (r *Result) render(cfg *config.Config, sink diag.Sink) error {
	sink.Stage(StageRender, "rendering documents")
	asm, err := document.New(cfg.Templates.Dir)
	if err != nil {
		return err
	}

	for _, kind := range cfg.Kinds() {
		section := r.Sections[kind]
		data := document.Data{
			Guard:            document.Guard(cfg.IncludePath(kind)),
			InterfaceInclude: cfg.IncludePath(document.Interface),
			Includes:         document.Includes(r.Includes),
			Declarations:     section.Declarations,
			Classes:          section.Classes,
		}
		text, err := asm.Render(kind, data)
		if err != nil {
			return err
		}
		r.Documents[kind] = text
		r.Paths[kind] = cfg.OutputPath(kind)
		r.Templates[kind] = asm.Source(kind)
	}
	return nil
}

// Write writes the rendered documents, creating directories as needed.
func (r *Result) Write(sink diag.Sink) error {
	sink = diag.OrNop(sink)
	sink.Stage(StageWrite, "writing documents")
	for _, kind := range document.Kinds {
		text, ok := r.Documents[kind]
		if !ok {
			continue
		}
		path := r.Paths[kind]
		if err := os.MkdirAll(filepath.Dir(path), config.DefaultDirPermissions); err != nil {
			return errors.Wrapf(err, "create directory for %s", path)
		}
		if err := os.WriteFile(path, []byte(text), config.DefaultFilePermissions); err != nil {
			return errors.Wrapf(err, "write %s", path)
		}
		sink.Wrote(path)
	}
	return nil
}

// Run performs one complete generation and writes the documents.
func Run(ctx context.Context, cfg *config.Config, sink diag.Sink) (*Result, error) {
	g, err := New(0)
	if err != nil {
		return nil, err
	}
	res, err := g.Run(ctx, cfg, sink)
	if err != nil {
		return nil, err
	}
	if err := res.Write(sink); err != nil {
		return nil, err
	}
	return res, nil
}
