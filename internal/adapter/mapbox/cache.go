package mapbox

import (
	"context"
	"sync"

	"github.com/couchcryptid/beach-safety-search/internal/domain"
	"github.com/couchcryptid/beach-safety-search/internal/observability"
)

// CachedSearcher wraps a PlaceSearcher with an in-memory LRU cache keyed by
// the normalized query.
type CachedSearcher struct {
	inner   domain.PlaceSearcher
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedSearcher creates a cache decorator around a place searcher.
func NewCachedSearcher(inner domain.PlaceSearcher, maxEntries int, metrics *observability.Metrics) *CachedSearcher {
	return &CachedSearcher{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSearcher) SearchPlaces(ctx context.Context, query string) ([]domain.ExternalPlace, error) {
	key := "search:" + domain.Normalize(query)
	if places, ok := c.cache.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return clonePlaces(places), nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	places, err := c.inner.SearchPlaces(ctx, query)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if len(places) > 0 {
		c.cache.put(key, clonePlaces(places))
	}
	return places, nil
}

func clonePlaces(places []domain.ExternalPlace) []domain.ExternalPlace {
	out := make([]domain.ExternalPlace, len(places))
	copy(out, places)
	return out
}

// lruCache is a simple thread-safe LRU cache for geocoding results.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []domain.ExternalPlace
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]domain.ExternalPlace, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []domain.ExternalPlace) {
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

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
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
