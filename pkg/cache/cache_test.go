package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheExpiry(t *testing.T) {
	c := New(Options{TTL: time.Minute})
	defer c.Close()

	now := time.Date(2025, 11, 18, 14, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("list:all", 3)
	v, ok := c.Get("list:all")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("list:all")
	assert.False(t, ok)

	c.deleteExpired()
	assert.Equal(t, 0, c.Count())
}

func TestCacheEvictsWhenFull(t *testing.T) {
	c := New(Options{TTL: time.Minute, MaxItems: 2})
	defer c.Close()

	base := time.Date(2025, 11, 18, 14, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	c.Set("a", 1)
	c.now = func() time.Time { return base.Add(time.Second) }
	c.Set("b", 2)

	c.Set("c", 3)

	assert.Equal(t, 2, c.Count())
	_, ok := c.Get("a")
	assert.False(t, ok, "entry closest to expiry is evicted")
	_, ok = c.Get("b")
	assert.True(t, ok)

	// overwriting an existing key never evicts
	c.Set("c", 4)
	_, ok = c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Count())
}

func TestCacheFlush(t *testing.T) {
	c := New(Options{})
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Flush()
	assert.Equal(t, 0, c.Count())
}
