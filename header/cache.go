package header

import (
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/teranos/cfw/errors"
)

// DefaultCacheSize is the number of parsed headers kept by NewCache(0).
const DefaultCacheSize = 256

type cacheKey struct {
	path    string
	modTime int64
	size    int64
}

// Cache keeps parsed headers keyed by path, modification time and size, so
// an unchanged header is parsed once across regenerations. Safe for
// concurrent use.
type Cache struct {
	entries *lru.Cache[cacheKey, *File]
}

// NewCache creates a cache holding up to size headers.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[cacheKey, *File](size)
	if err != nil {
		return nil, errors.Wrap(err, "create parse cache")
	}
	return &Cache{entries: entries}, nil
}

func keyFor(info os.FileInfo, path string) cacheKey {
	return cacheKey{path: path, modTime: info.ModTime().UnixNano(), size: info.Size()}
}

// Get returns the parsed header if path has not changed since it was added.
func (c *Cache) Get(path string, info os.FileInfo) (*File, bool) {
	if c == nil {
		return nil, false
	}
	return c.entries.Get(keyFor(info, path))
}

// Add stores a parsed header.
func (c *Cache) Add(path string, info os.FileInfo, f *File) {
	if c == nil {
		return
	}
	c.entries.Add(keyFor(info, path), f)
}

// Len returns the number of cached headers.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

// Purge empties the cache.
func (c *Cache) Purge() {
	if c != nil {
		c.entries.Purge()
	}
}
