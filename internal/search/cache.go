package search

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// loadCache memoises values keyed by absolute resolved file path, per
// spec.md §4.6: "First access reads the file and memoises the index;
// subsequent accesses return the cached object." A new active version
// yields a different file_path and therefore a different cache key —
// the stale object is simply left to LRU eviction rather than evicted
// explicitly.
//
// Concurrent load-or-hit is made safe with a single mutex guarding the
// read-or-populate sequence, the same double-checked-locking shape
// internal/autocomplete.Suggester uses for its trie cache: a cache miss
// under the lock loads the file once, even if many goroutines race to
// resolve the same key.
type loadCache[T any] struct {
	mu    sync.Mutex
	cache *lru.Cache[string, T]
}

// newLoadCache returns an empty cache bounded to size entries.
func newLoadCache[T any](size int) *loadCache[T] {
	if size <= 0 {
		size = 64
	}
	c, _ := lru.New[string, T](size)
	return &loadCache[T]{cache: c}
}

// getOrLoad returns the cached value for key, loading it via load on a
// miss. load is called at most once per key per miss, even under
// concurrent access.
func (c *loadCache[T]) getOrLoad(key string, load func() (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	c.cache.Add(key, v)
	return v, nil
}
