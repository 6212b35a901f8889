package cache_test

import (
	"mvnsrc-cli/internal/cache"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_Eviction(t *testing.T) {
	t.Parallel()

	c, err := cache.NewLRU[string, int](2)
	require.NoError(t, err)

	c.Put("a", 1)
	c.Put("b", 2)
	_, ok := c.Get("a") // a becomes most recent
	require.True(t, ok)
	c.Put("c", 3)

	_, ok = c.Get("b")
	assert.False(t, ok, "b should be evicted")
	assert.Equal(t, []string{"a", "c"}, c.Keys())
	assert.Equal(t, 2, c.Len())
}

func TestLRU_InvalidateAndClear(t *testing.T) {
	t.Parallel()

	c, err := cache.NewLRU[string, string](0)
	require.NoError(t, err)

	c.Put("org.example:lib:1.0", "x")
	c.Put("org.example:lib:2.0", "y")
	c.Invalidate("org.example:lib:1.0")

	_, ok := c.Get("org.example:lib:1.0")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestOrdered_KeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	c := cache.NewOrdered[string, int]()
	c.Put("z", 1)
	c.Put("a", 2)
	c.Put("m", 3)
	c.Put("z", 4)

	assert.Equal(t, []string{"z", "a", "m"}, c.Keys())
	assert.Equal(t, []int{4, 2, 3}, c.Values())

	c.Invalidate("a")
	assert.Equal(t, []string{"z", "m"}, c.Keys())
	c.Invalidate("missing")
	assert.Equal(t, 2, c.Len())

	c.Clear()
	assert.Empty(t, c.Keys())
}

func TestOrdered_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := cache.NewOrdered[int, int]()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Put(n, n*n)
			c.Get(n)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, c.Len())
}

func TestCacheInterface(t *testing.T) {
	t.Parallel()

	lruCache, err := cache.NewLRU[string, int](4)
	require.NoError(t, err)

	for name, c := range map[string]cache.Cache[string, int]{
		"lru":     lruCache,
		"ordered": cache.NewOrdered[string, int](),
	} {
		t.Run(name, func(t *testing.T) {
			c.Put("k", 7)
			v, ok := c.Get("k")
			assert.True(t, ok)
			assert.Equal(t, 7, v)
		})
	}
}
