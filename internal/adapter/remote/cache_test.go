package remote

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/icoads-msg1-etl/internal/domain"
	"github.com/couchcryptid/icoads-msg1-etl/internal/observability"
)

// --- mock for cache tests ---

type countingLoader struct {
	calls map[string]int
	rows  []domain.Row
	fail  map[string]error
}

func newCountingLoader(rows []domain.Row) *countingLoader {
	return &countingLoader{calls: map[string]int{}, rows: rows, fail: map[string]error{}}
}

func (m *countingLoader) Load(_ context.Context, key string) ([]domain.Row, error) {
	m.calls[key]++
	if err := m.fail[key]; err != nil {
		return nil, err
	}
	return m.rows, nil
}

// --- CachedLoader tests ---

func TestCachedLoader_CacheHit(t *testing.T) {
	inner := newCountingLoader(testRows(t, domain.Group3, 2))
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedLoader(inner, 6, metrics)

	r1, err := cached.Load(context.Background(), "3")
	require.NoError(t, err)
	r2, err := cached.Load(context.Background(), "3")
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls["3"], "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RemoteCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RemoteCache.WithLabelValues("miss")), 0)
}

func TestCachedLoader_ErrorsNotCached(t *testing.T) {
	inner := newCountingLoader(testRows(t, domain.Group5, 1))
	inner.fail["5"] = errors.New("connection reset")
	cached := NewCachedLoader(inner, 6, observability.NewMetricsForTesting())

	_, err := cached.Load(context.Background(), "5")
	require.Error(t, err)

	delete(inner.fail, "5")
	rows, err := cached.Load(context.Background(), "5")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 2, inner.calls["5"])
}

func TestCachedLoader_Warm(t *testing.T) {
	inner := newCountingLoader(testRows(t, domain.Group7, 1))
	cached := NewCachedLoader(inner, 6, observability.NewMetricsForTesting())

	_, err := cached.Load(context.Background(), "7")
	require.NoError(t, err)

	require.NoError(t, cached.Warm(context.Background()))
	for _, key := range []string{"3", "4", "5", "6", "7", "9"} {
		assert.Equal(t, 1, inner.calls[key], "key %s", key)
	}

	// Everything is cached now.
	require.NoError(t, cached.Warm(context.Background()))
	for _, key := range []string{"3", "4", "5", "6", "7", "9"} {
		_, err := cached.Load(context.Background(), key)
		require.NoError(t, err)
		assert.Equal(t, 1, inner.calls[key], "key %s", key)
	}
}

func TestCachedLoader_WarmJoinsErrors(t *testing.T) {
	inner := newCountingLoader(nil)
	inner.fail["4"] = domain.ErrCollectionNotFound
	inner.fail["9"] = errors.New("status 500")
	cached := NewCachedLoader(inner, 6, observability.NewMetricsForTesting())

	err := cached.Warm(context.Background())
	require.ErrorIs(t, err, domain.ErrCollectionNotFound)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, 1, inner.calls["3"], "warm continues past failures")
	assert.Equal(t, 1, inner.calls["9"])
}

func TestCachedLoader_WarmCancelled(t *testing.T) {
	inner := newCountingLoader(nil)
	cached := NewCachedLoader(inner, 6, observability.NewMetricsForTesting())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, cached.Warm(ctx), context.Canceled)
	assert.Empty(t, inner.calls)
}

// --- LRU cache unit tests ---

func rowsFor(year int) []domain.Row {
	return []domain.Row{{Header: domain.Header{Year: &year}}}
}

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", rowsFor(1))
	c.put("b", rowsFor(2))

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, rowsFor(1), result)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", rowsFor(1))
	c.put("b", rowsFor(2))
	c.put("c", rowsFor(3)) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	result, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, rowsFor(2), result)

	result, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, rowsFor(3), result)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", rowsFor(1))
	c.put("b", rowsFor(2))

	c.get("a")
	c.put("c", rowsFor(3)) // evicts "b", not "a"

	_, ok := c.get("b")
	assert.False(t, ok)
	assert.True(t, c.contains("a"))
	assert.True(t, c.contains("c"))
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", rowsFor(1))
	c.put("a", rowsFor(9))

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, rowsFor(9), result)
	assert.Len(t, c.entries, 1)
}
