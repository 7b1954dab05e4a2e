package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_HitAndMiss(t *testing.T) {
	c := New[string, int](10, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Add("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 0.5, stats.HitRatio)
	assert.Equal(t, 1, stats.Entries)
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New[string, string](10, 30*time.Millisecond)

	c.Add("k", "v")
	_, ok := c.Get("k")
	assert.True(t, ok)

	time.Sleep(60 * time.Millisecond)

	_, ok = c.Get("k")
	assert.False(t, ok, "entry should have expired")
}

func TestCache_CapacityEviction(t *testing.T) {
	c := New[int, int](3, time.Minute)

	for i := 0; i < 4; i++ {
		c.Add(i, i)
	}

	assert.Equal(t, 3, c.Len())
	_, ok := c.Get(0)
	assert.False(t, ok, "oldest entry should have been evicted")
	_, ok = c.Get(3)
	assert.True(t, ok)
}

func TestCache_Defaults(t *testing.T) {
	c := New[string, int](0, 0)
	c.Add("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New[string, int](100, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("key-%d", j%10)
				c.Add(key, n)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	stats := c.Stats()
	assert.Equal(t, uint64(1000), stats.Hits+stats.Misses)
}

func TestCache_PurgeKeepsCounters(t *testing.T) {
	c := New[string, int](10, time.Minute)
	c.Add("a", 1)
	c.Get("a")
	c.Purge()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, uint64(1), c.Stats().Hits)
}
