// Package cache holds remote query results keyed by operation name and
// parameters. Entries change only through explicit invalidation: a write
// that succeeds marks every entry of the affected collection stale, and the
// next read refetches.
package cache

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/julianstephens/shopline/internal/logger"
)

// Key identifies one cached query: the collection it reads and its parameters
type Key struct {
	Op     string
	Params map[string]string
}

// NewKey builds a key from op and alternating name/value pairs
func NewKey(op string, kv ...string) Key {
	k := Key{Op: op, Params: make(map[string]string, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			k.Params[kv[i]] = kv[i+1]
		}
	}
	return k
}

// String renders the key canonically as op?a=1&b=2 with sorted, escaped names
func (k Key) String() string {
	if len(k.Params) == 0 {
		return k.Op
	}
	q := make(url.Values, len(k.Params))
	for n, v := range k.Params {
		q.Set(n, v)
	}
	return k.Op + "?" + q.Encode()
}

type entry struct {
	value any
	stale bool
}

// Cache is safe for concurrent use
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	// gens counts invalidations per op so a fetch that started before one
	// knows its result is outdated
	gens  map[string]uint64
	group singleflight.Group
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		gens:    make(map[string]uint64),
	}
}

// Get returns the cached value for key, or runs fetch when the entry is
// missing or stale. Concurrent Gets of the same key share one fetch. A
// result whose key was invalidated while fetch ran is returned to the caller
// but not stored, and a Get issued after an invalidation never joins a fetch
// that started before it.
func Get[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	ks := key.String()

	c.mu.Lock()
	if e, ok := c.entries[ks]; ok && !e.stale {
		c.mu.Unlock()
		logger.Debug("Cache hit", "key", ks)
		out, _ := e.value.(T)
		return out, nil
	}
	gen := c.gens[key.Op]
	c.mu.Unlock()

	v, err, _ := c.group.Do(fmt.Sprintf("%s#%d", ks, gen), func() (any, error) {
		val, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gens[key.Op] != gen {
			logger.Debug("Dropping result invalidated in flight", "key", ks)
			return val, nil
		}
		c.entries[ks] = &entry{value: val}
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	out, _ := v.(T)
	return out, nil
}

// Peek returns the stored value for key without fetching. ok is false when
// the entry is missing; stale reports whether it awaits a refetch.
func Peek[T any](c *Cache, key Key) (value T, stale, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, found := c.entries[key.String()]
	if !found {
		return value, false, false
	}
	value, _ = e.value.(T)
	return value, e.stale, true
}

// Invalidate marks every entry of collection op stale
func (c *Cache) Invalidate(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gens[op]++
	n := 0
	for ks, e := range c.entries {
		if ks == op || strings.HasPrefix(ks, op+"?") {
			e.stale = true
			n++
		}
	}
	logger.Debug("Cache invalidated", "op", op, "entries", n)
}

// Invalidations returns how many times op has been invalidated
func (c *Cache) Invalidations(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(c.gens[op])
}

// Len returns the number of stored entries, stale or not
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
