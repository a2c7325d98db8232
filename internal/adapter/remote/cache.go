package remote

import (
	"context"
	"errors"
	"sync"

	"github.com/couchcryptid/icoads-msg1-etl/internal/domain"
	"github.com/couchcryptid/icoads-msg1-etl/internal/observability"
)

// CachedLoader wraps a CollectionLoader with an in-memory LRU cache.
type CachedLoader struct {
	inner   domain.CollectionLoader
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedLoader creates a cache decorator around a loader.
func NewCachedLoader(inner domain.CollectionLoader, maxEntries int, metrics *observability.Metrics) *CachedLoader {
	return &CachedLoader{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

// Load returns the cached collection for key, loading it on a miss.
// Failed loads are not cached so they can be retried.
func (c *CachedLoader) Load(ctx context.Context, key string) ([]domain.Row, error) {
	if rows, ok := c.cache.get(key); ok {
		c.metrics.RemoteCache.WithLabelValues("hit").Inc()
		return rows, nil
	}
	c.metrics.RemoteCache.WithLabelValues("miss").Inc()

	rows, err := c.inner.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	c.cache.put(key, rows)
	return rows, nil
}

// Warm loads every group collection that is not cached yet. It keeps going
// past failures and returns them joined.
func (c *CachedLoader) Warm(ctx context.Context) error {
	var errs []error
	for _, cat := range domain.Categories() {
		key := domain.GroupKey(cat)
		if c.cache.contains(key) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := c.Load(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// lruCache is a simple thread-safe LRU cache of collections.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []domain.Row
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]domain.Row, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

func (c *lruCache) put(key string, value []domain.Row) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
