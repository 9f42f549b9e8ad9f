// Package cache defines the port interface for short-lived string caching.
package cache

import (
	"context"
	"time"
)

// Cache is the port interface for key-value caching of small string values
// such as anti-forgery tokens.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
