package cache

import (
	"container/list"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a string-keyed in-memory cache with LRU eviction and TTL expiry.
// Concurrent loads of the same key are collapsed into one call.
type Cache[V any] struct {
	mu         sync.Mutex
	items      map[string]*list.Element
	evictList  *list.List
	maxEntries int
	defaultTTL time.Duration
	stats      Stats

	group singleflight.Group
}

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// New creates a cache with the given max entries and default TTL.
func New[V any](maxEntries int, defaultTTL time.Duration) *Cache[V] {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &Cache[V]{
		items:      make(map[string]*list.Element),
		evictList:  list.New(),
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
	}
}

// Get returns the value for key if present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}

	e := el.Value.(*entry[V])
	if time.Now().After(e.expiresAt) {
		c.removeLocked(el)
		c.stats.Misses++
		var zero V
		return zero, false
	}

	c.evictList.MoveToFront(el)
	c.stats.Hits++
	return e.value, true
}

// Set stores a value with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value with a custom TTL. A non-positive ttl is a no-op.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := time.Now().Add(ttl)
	if el, ok := c.items[key]; ok {
		c.evictList.MoveToFront(el)
		e := el.Value.(*entry[V])
		e.value = value
		e.expiresAt = expires
		return
	}

	el := c.evictList.PushFront(&entry[V]{key: key, value: value, expiresAt: expires})
	c.items[key] = el

	for c.evictList.Len() > c.maxEntries {
		c.evictOldestLocked()
	}
}

// GetOrLoad returns the cached value for key, or calls load to populate it.
// load returns the value and how long to keep it; zero means the default
// TTL. Errors are not cached.
func (c *Cache[V]) GetOrLoad(key string, load func() (V, time.Duration, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		v, ttl, err := load()
		if err != nil {
			return v, err
		}
		if ttl == 0 {
			ttl = c.defaultTTL
		}
		c.SetWithTTL(key, v, ttl)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Invalidate removes a single key.
func (c *Cache[V]) Invalidate(key string) {
	c.group.Forget(key)

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.removeLocked(el)
	}
}

// Flush removes all entries.
func (c *Cache[V]) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.evictList.Init()
}

// Len returns the number of entries, expired ones included until touched.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns a snapshot of cache statistics.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.items)
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

func (c *Cache[V]) removeLocked(el *list.Element) {
	e := el.Value.(*entry[V])
	delete(c.items, e.key)
	c.evictList.Remove(el)
}

func (c *Cache[V]) evictOldestLocked() {
	el := c.evictList.Back()
	if el == nil {
		return
	}
	c.removeLocked(el)
	c.stats.Evictions++
}
