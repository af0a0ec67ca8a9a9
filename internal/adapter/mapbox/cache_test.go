package mapbox

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/beach-safety-search/internal/domain"
)

// --- mock for cache tests ---

type countingSearcher struct {
	mu     sync.Mutex
	calls  int
	places []domain.ExternalPlace
	err    error
}

func (m *countingSearcher) SearchPlaces(_ context.Context, _ string) ([]domain.ExternalPlace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.places, m.err
}

func pinaPlace() domain.ExternalPlace {
	return domain.ExternalPlace{ID: "poi.2", Name: "Praia do Pina", Coordinates: domain.Coordinates{Lat: -8.0928, Lng: -34.8756}}
}

// --- CachedSearcher tests ---

func TestCachedSearcher_CacheHit(t *testing.T) {
	inner := &countingSearcher{places: []domain.ExternalPlace{pinaPlace()}}
	metrics := testMetrics()
	cached := NewCachedSearcher(inner, 10, metrics)

	r1, err := cached.SearchPlaces(context.Background(), "pina")
	require.NoError(t, err)
	require.Len(t, r1, 1)

	r2, err := cached.SearchPlaces(context.Background(), "pina")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("miss")))
}

func TestCachedSearcher_NormalizedKey(t *testing.T) {
	inner := &countingSearcher{places: []domain.ExternalPlace{pinaPlace()}}
	cached := NewCachedSearcher(inner, 10, testMetrics())

	_, _ = cached.SearchPlaces(context.Background(), "Praia do Pina")
	_, _ = cached.SearchPlaces(context.Background(), "  PINA ")

	assert.Equal(t, 1, inner.calls)
}

func TestCachedSearcher_DifferentKeysMiss(t *testing.T) {
	inner := &countingSearcher{places: []domain.ExternalPlace{pinaPlace()}}
	cached := NewCachedSearcher(inner, 10, testMetrics())

	_, _ = cached.SearchPlaces(context.Background(), "pina")
	_, _ = cached.SearchPlaces(context.Background(), "candeias")

	assert.Equal(t, 2, inner.calls)
}

func TestCachedSearcher_EmptyNotCached(t *testing.T) {
	inner := &countingSearcher{}
	cached := NewCachedSearcher(inner, 10, testMetrics())

	_, _ = cached.SearchPlaces(context.Background(), "pina")
	_, _ = cached.SearchPlaces(context.Background(), "pina")

	assert.Equal(t, 2, inner.calls)
}

func TestCachedSearcher_ErrorNotCached(t *testing.T) {
	inner := &countingSearcher{err: domain.ErrNetworkFailure}
	cached := NewCachedSearcher(inner, 10, testMetrics())

	_, err := cached.SearchPlaces(context.Background(), "pina")
	require.True(t, errors.Is(err, domain.ErrNetworkFailure))
	_, _ = cached.SearchPlaces(context.Background(), "pina")

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 0, cached.cache.len())
}

func TestCachedSearcher_ResultsAreCopies(t *testing.T) {
	inner := &countingSearcher{places: []domain.ExternalPlace{pinaPlace()}}
	cached := NewCachedSearcher(inner, 10, testMetrics())

	r1, _ := cached.SearchPlaces(context.Background(), "pina")
	r1[0].Name = "mutated"

	r2, _ := cached.SearchPlaces(context.Background(), "pina")
	assert.Equal(t, "Praia do Pina", r2[0].Name)
}

// --- LRU cache unit tests ---

func places(name string) []domain.ExternalPlace {
	return []domain.ExternalPlace{{Name: name}}
}

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", places("A"))
	c.put("b", places("B"))

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", result[0].Name)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", places("A"))
	c.put("b", places("B"))
	c.put("c", places("C")) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	result, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, "B", result[0].Name)

	result, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, "C", result[0].Name)
	assert.Equal(t, 2, c.len())
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", places("A"))
	c.put("b", places("B"))

	c.get("a")

	// "b" is now least recently used.
	c.put("c", places("C"))

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", places("A1"))
	c.put("a", places("A2"))

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A2", result[0].Name)
	assert.Equal(t, 1, c.len())
}
