// Package cache holds the key-value cache port, its Redis implementation,
// and the Gate that makes caching optional and failure-tolerant.
package cache

import (
	"context"
	"time"
)

// Backend is a shared, TTL-aware key-value store.
type Backend interface {
	// Get returns the stored bytes; found is false on a miss.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set stores value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the given keys.
	Delete(ctx context.Context, keys ...string) error
	// DeleteByPattern removes every key matching a glob pattern and returns how many were removed.
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
	// Ping checks backend liveness.
	Ping(ctx context.Context) error
}
