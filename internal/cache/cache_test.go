package cache

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kushalsai01/distcache/internal/metrics"
)

func TestLRUEviction(t *testing.T) {
	c := New(Config{Capacity: 2})
	defer c.Close()

	c.Put("a", "A", 60)
	c.Put("b", "B", 60)

	// Touch a so b becomes LRU.
	_, ok := c.Get("a")
	require.True(t, ok)

	// Insert c => capacity overflow evicts exactly one entry, the LRU (b).
	c.Put("c", "C", 60)

	_, ok = c.Get("b")
	assert.False(t, ok, "expected b to be evicted")

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "A", v)

	v, ok = c.Get("c")
	require.True(t, ok)
	assert.Equal(t, "C", v)

	assert.Equal(t, 2, c.Size())
}

func TestCapacityOne(t *testing.T) {
	c := New(Config{Capacity: 1})
	defer c.Close()

	c.Put("a", "A", 60)
	c.Put("b", "B", 60)

	_, ok := c.Get("a")
	assert.False(t, ok, "expected a to be evicted under capacity 1")

	v, ok := c.Get("b")
	require.True(t, ok)
	assert.Equal(t, "B", v)
	assert.Equal(t, 1, c.Size())
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	c := New(Config{Capacity: 2})
	defer c.Close()

	c.Put("a", "A", 60)
	c.Put("b", "B", 60)
	c.Put("a", "A2", 60) // overwrite, not an insert

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "A2", v)

	_, ok = c.Get("b")
	assert.True(t, ok, "overwriting a must not evict b")
}

func TestGetDoesNotCheckExpiry(t *testing.T) {
	c := New(Config{Capacity: 10})
	defer c.Close()

	c.Put("k", "v", 0) // expires immediately
	time.Sleep(5 * time.Millisecond)

	// Get never checks expiry on its own — the entry stays visible until
	// a sweep or an eviction removes it.
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestBackgroundSweepRemovesExpired(t *testing.T) {
	c := New(Config{Capacity: 10, SweepInterval: 10 * time.Millisecond})
	defer c.Close()

	c.Put("ttl", "v", 0)

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		found := false
		for _, k := range c.Keys() {
			if k == "ttl" {
				found = true
				break
			}
		}
		if !found {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatalf("expected background sweep to remove expired entry")
}

func TestRemoveIsNoOpIfAbsent(t *testing.T) {
	c := New(Config{Capacity: 10})
	defer c.Close()

	require.NotPanics(t, func() {
		c.Remove("missing")
	})
	assert.Equal(t, 0, c.Size())
}

func TestRemoveDoesNotAffectRecency(t *testing.T) {
	c := New(Config{Capacity: 2})
	defer c.Close()

	c.Put("a", "A", 60)
	c.Put("b", "B", 60)
	c.Remove("a")
	c.Put("a", "A2", 60)
	c.Put("c", "C", 60)

	// Capacity 2, three live keys after the remove: a(A2), b, c. The
	// least-recently-used of {a, b} at the time c is inserted is b,
	// since re-inserting a after Remove makes it MRU again.
	_, ok := c.Get("b")
	assert.False(t, ok, "expected b to be evicted as LRU")

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "A2", v)
}

func TestCloseStopsSweepIdempotently(t *testing.T) {
	c := New(Config{Capacity: 1, SweepInterval: 10 * time.Millisecond})

	require.NotPanics(t, func() {
		c.Close()
		c.Close()
	})
}

func TestEmpty(t *testing.T) {
	c := New(Config{Capacity: 2})
	defer c.Close()

	assert.True(t, c.Empty())
	c.Put("a", "A", 60)
	assert.False(t, c.Empty())
}

func TestMetricsObserved(t *testing.T) {
	reg := metrics.NewUnregistered()
	c := New(Config{Capacity: 1, Metrics: reg})
	defer c.Close()

	c.Put("a", "A", 60)
	c.Put("b", "B", 60) // evicts a

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)

	assert.Equal(t, float64(1), testutil.ToFloat64(reg.CacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.CacheMisses))
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.CacheEvictions))
}
