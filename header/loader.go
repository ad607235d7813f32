package header

import (
	"context"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/cfw/cdecl"
	"github.com/teranos/cfw/diag"
	"github.com/teranos/cfw/errors"
	"github.com/teranos/cfw/logger"
)

// Request names a header to search for and the include spelling generated
// documents use for it.
type Request struct {
	Header  string
	Include string
}

// Result is the merged outcome of loading a set of headers.
type Result struct {
	// Declarations in request order then source order, one per name
	Declarations []cdecl.Declaration
	// Includes of the headers that were found, in request order
	Includes []string
	// Missing headers, in request order
	Missing []string
	// Paths of the distinct headers that were found
	Paths []string
	// Parsed counts headers parsed (not served from the cache)
	Parsed int
}

// Lookup returns the declaration named name.
func (r *Result) Lookup(name string) (cdecl.Declaration, bool) {
	for _, d := range r.Declarations {
		if d.Name == name {
			return d, true
		}
	}
	return cdecl.Declaration{}, false
}

// Loader locates and parses headers on an include path.
type Loader struct {
	dirs         []string
	cache        *Cache
	concurrency  int
	isAnnotation func(string) bool
	logger       *zap.SugaredLogger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithCache shares a parse cache between loads.
func WithCache(c *Cache) LoaderOption {
	return func(l *Loader) { l.cache = c }
}

// WithConcurrency bounds the number of headers parsed at once.
func WithConcurrency(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithAnnotations sets the predicate the recovery scanner uses for
// decoration tokens.
func WithAnnotations(isAnnotation func(string) bool) LoaderOption {
	return func(l *Loader) { l.isAnnotation = isAnnotation }
}

// NewLoader creates a loader searching dirs in order.
func NewLoader(dirs []string, opts ...LoaderOption) *Loader {
	l := &Loader{
		dirs:        dirs,
		concurrency: runtime.GOMAXPROCS(0),
		logger:      logger.ComponentLogger("header.loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load locates every requested header, parses the distinct files in
// parallel and merges their declarations in request order. When names is
// non-empty only those functions are kept. A name declared more than once
// keeps its first declaration; later ones are reported to sink.
func (l *Loader) Load(ctx context.Context, reqs []Request, names []string, sink diag.Sink) (*Result, error) {
	sink = diag.OrNop(sink)
	res := &Result{}

	var paths []string
	seenReq := make(map[Request]bool, len(reqs))
	seenPath := make(map[string]bool, len(reqs))
	for _, req := range reqs {
		if seenReq[req] {
			continue
		}
		seenReq[req] = true

		path, found := Locate(l.dirs, req.Header)
		if !found {
			res.Missing = append(res.Missing, req.Header)
			sink.MissingHeader(req.Header, l.dirs)
			continue
		}
		l.logger.Debugw("Header located", logger.FieldHeader, req.Header, logger.FieldPath, path)
		res.Includes = append(res.Includes, req.Include)
		if !seenPath[path] {
			seenPath[path] = true
			paths = append(paths, path)
		}
	}

	res.Paths = paths
	files := make([]*File, len(paths))
	parsed := make([]bool, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			f, fresh, err := l.parse(gctx, path)
			if err != nil {
				return err
			}
			files[i], parsed[i] = f, fresh
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	kept := make(map[string]cdecl.Pos)
	for i, f := range files {
		if parsed[i] {
			res.Parsed++
		}
		for _, d := range f.Declarations {
			if len(wanted) > 0 && !wanted[d.Name] {
				continue
			}
			if pos, dup := kept[d.Name]; dup {
				sink.Duplicate(d.Name, pos, d.Pos)
				continue
			}
			kept[d.Name] = d.Pos
			res.Declarations = append(res.Declarations, d)
		}
	}
	return res, nil
}

// parse returns the parsed header at path, from the cache when unchanged.
func (l *Loader) parse(ctx context.Context, path string) (*File, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, errors.Wrapf(err, "parse %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, false, errors.Wrapf(err, "stat %s", path)
	}
	if f, hit := l.cache.Get(path, info); hit {
		l.logger.Debugw("Parse cache hit", logger.FieldPath, path)
		return f, false, nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, false, errors.Wrapf(err, "read %s", path)
	}

	start := time.Now()
	p := NewParser(l.isAnnotation)
	defer p.Close()
	f, err := p.Parse(ctx, path, src)
	if err != nil {
		return nil, false, err
	}
	l.logger.Debugw("Header parsed",
		logger.FieldPath, path,
		logger.FieldCount, len(f.Declarations),
		"recovered", f.Recovered,
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	l.cache.Add(path, info, f)
	return f, true, nil
}
