package wireschema

import (
	"path/filepath"
	"sync"

	"github.com/wirecell/wct-core/internal/wcerr"
)

// cacheKey is (resolved path, correction level).
type cacheKey struct {
	path  string
	level Level
}

// Cache memoizes loaded-and-corrected Stores keyed by (realpath, level), so
// repeated Load calls for the same file share one underlying Store per
// consumer rather than re-parsing and re-correcting. It replaces the
// process-wide singleton cache the design notes call out: callers
// construct their own Cache and pass it explicitly.
type Cache struct {
	mu      sync.Mutex
	stores  map[cacheKey]Store
	byPath  map[string]Level // highest level currently cached for a path
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{
		stores: make(map[cacheKey]Store),
		byPath: make(map[string]Level),
	}
}

// Load resolves path's canonical form, loads+corrects it to level (using
// any lower-level cached store for that path as a starting point), caches
// the result, and returns it. Safe for concurrent use.
func (c *Cache) Load(path string, level Level) (Store, error) {
	real, err := filepath.Abs(path)
	if err != nil {
		return Store{}, wcerr.Wrap(wcerr.IO, "wireschema", "resolve path "+path, err)
	}
	if resolved, err := filepath.EvalSymlinks(real); err == nil {
		real = resolved
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.stores[cacheKey{real, level}]; ok {
		return s, nil
	}

	// Find the highest cached level <= requested level for this path to
	// avoid re-running fixers already applied.
	base, haveBase := Store{}, false
	for l := level; l >= Loaded; l-- {
		if s, ok := c.stores[cacheKey{real, l}]; ok {
			base, haveBase = s, true
			break
		}
	}

	if !haveBase {
		s, err := Load(real)
		if err != nil {
			return Store{}, err
		}
		base = s
		c.stores[cacheKey{real, Loaded}] = base
		c.byPath[real] = Loaded
	}

	corrected, err := Correct(base, level)
	if err != nil {
		return Store{}, err
	}

	c.stores[cacheKey{real, level}] = corrected
	if level > c.byPath[real] {
		c.byPath[real] = level
	}
	return corrected, nil
}
