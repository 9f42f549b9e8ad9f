// Package ristretto implements the cache port using dgraph-io/ristretto as an
// in-process cache for anti-forgery tokens.
package ristretto

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache wraps a ristretto cache keyed and valued by strings.
type Cache struct {
	c *ristretto.Cache[string, string]
}

// New creates a ristretto-backed cache. maxCostBytes bounds the total length
// of cached values.
func New(maxCostBytes int64) (*Cache, error) {
	counters := maxCostBytes / 64 * 10 // tokens are ~64 bytes; ~10x expected items
	if counters < 100 {
		counters = 100
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters: counters,
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c}, nil
}

// Get retrieves a value from the cache.
func (c *Cache) Get(_ context.Context, key string) (value string, ok bool, err error) {
	val, found := c.c.Get(key)
	if !found {
		return "", false, nil
	}
	return val, true, nil
}

// Set stores a value with the given TTL. Writes are flushed before returning
// so the value is visible to the next Get.
func (c *Cache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.c.SetWithTTL(key, value, int64(len(value)), ttl)
	c.c.Wait()
	return nil
}

// Delete removes a value from the cache.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	return nil
}

// Close shuts down the cache and releases resources.
func (c *Cache) Close() {
	c.c.Close()
}
