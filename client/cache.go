package client

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultStaleTime = 30 * time.Second
	DefaultGCTime    = 5 * time.Minute
)

type cacheEntry[T any] struct {
	value     T
	fetchedAt time.Time
	lastUsed  time.Time
	stale     bool
}

// keyGen counts invalidations of one key. A fetch only lands in the cache if
// the generation it started under is still current.
type keyGen struct {
	n        uint64
	inflight int
}

// QueryCache memoizes fetch results by key. An entry younger than staleTime
// is served without calling fetch; entries unused for gcTime are evicted.
// Concurrent fetches of the same key and generation share one call.
type QueryCache[T any] struct {
	mu        sync.Mutex
	entries   map[string]*cacheEntry[T]
	gens      map[string]*keyGen
	group     singleflight.Group
	staleTime time.Duration
	gcTime    time.Duration
	now       func() time.Time
}

// NewQueryCache builds a cache. Non-positive durations use the defaults.
func NewQueryCache[T any](staleTime, gcTime time.Duration) *QueryCache[T] {
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	if gcTime <= 0 {
		gcTime = DefaultGCTime
	}
	return &QueryCache[T]{
		entries:   map[string]*cacheEntry[T]{},
		gens:      map[string]*keyGen{},
		staleTime: staleTime,
		gcTime:    gcTime,
		now:       time.Now,
	}
}

// Get returns the cached value for key, calling fetch when the entry is
// missing, stale, or invalidated. A failed fetch leaves the old entry alone,
// and a fetch overtaken by Invalidate is returned to its callers but not cached.
func (c *QueryCache[T]) Get(ctx context.Context, key string, fetch func(context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	now := c.now()
	c.sweepLocked(now)
	if e, ok := c.entries[key]; ok {
		e.lastUsed = now
		if !e.stale && now.Sub(e.fetchedAt) < c.staleTime {
			v := e.value
			c.mu.Unlock()
			return v, nil
		}
	}
	g, ok := c.gens[key]
	if !ok {
		g = &keyGen{}
		c.gens[key] = g
	}
	gen := g.n
	g.inflight++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		g.inflight--
		c.mu.Unlock()
	}()

	v, err, _ := c.group.Do(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		val, err := fetch(ctx)
		if err != nil {
			return val, err
		}
		c.mu.Lock()
		if g.n == gen {
			t := c.now()
			c.entries[key] = &cacheEntry[T]{value: val, fetchedAt: t, lastUsed: t}
		}
		c.mu.Unlock()
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate marks every entry whose key starts with prefix as stale. An
// empty prefix invalidates everything.
func (c *QueryCache[T]) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if strings.HasPrefix(key, prefix) {
			e.stale = true
		}
	}
	for key, g := range c.gens {
		if strings.HasPrefix(key, prefix) {
			g.n++
		}
	}
}

// Len reports the number of retained entries.
func (c *QueryCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked(c.now())
	return len(c.entries)
}

func (c *QueryCache[T]) sweepLocked(now time.Time) {
	for key, e := range c.entries {
		if now.Sub(e.lastUsed) >= c.gcTime {
			delete(c.entries, key)
		}
	}
	for key, g := range c.gens {
		if _, cached := c.entries[key]; !cached && g.inflight == 0 {
			delete(c.gens, key)
		}
	}
}
