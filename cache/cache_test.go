package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	c := NewCache[string, string]()

	c.Set("kafka", "docker.io/bitnami/kafka:3.6")
	v, ok := c.Get("kafka")
	require.True(t, ok)
	assert.Equal(t, "docker.io/bitnami/kafka:3.6", v)

	c.Set("kafka", "docker.io/bitnami/kafka:3.7")
	v, _ = c.Get("kafka")
	assert.Equal(t, "docker.io/bitnami/kafka:3.7", v, "set overwrites")

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCache_TTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCache[string, int](
		WithDefaultTTL[string, int](time.Minute),
		WithClock[string, int](clock),
	)

	c.Set("a", 1)
	clock.Advance(30 * time.Second)
	c.Set("b", 2)

	clock.Advance(30 * time.Second)
	_, ok := c.Get("a")
	assert.False(t, ok, "expires exactly at its deadline")
	v, ok := c.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	clock.Advance(time.Hour)
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Empty(t, c.items, "expired entries are dropped on access")
}

func TestCache_NoTTLNeverExpires(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCache[string, int](WithClock[string, int](clock))
	c.Set("forever", 3)

	clock.Advance(24 * 365 * time.Hour)
	v, ok := c.Get("forever")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestCache_Delete(t *testing.T) {
	c := NewCache[string, int]()
	c.Set("a", 1)
	c.Delete("a")
	c.Delete("never-set")
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCache_Concurrent(t *testing.T) {
	c := NewCache[string, int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%10)
			c.Set(key, i)
			c.Get(key)
		}(i)
	}
	wg.Wait()
	assert.Len(t, c.items, 10)
}
