// Package cache provides the cache abstraction used by the settings resolver.
// The cache is always an optimization, never a correctness dependency: every
// call site treats an error as a cache miss and recomputes from the source of
// truth.
package cache

import (
	"context"
	"time"
)

// Cache is the narrow key-value interface consumed by the application.
type Cache interface {
	// Get returns the value for key. The bool reports whether the key existed.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// ScanKeys returns all keys matching a glob pattern.
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
	// Delete removes the given keys.
	Delete(ctx context.Context, keys ...string) error
	// Incr atomically increments the integer stored at key and returns the
	// new value. A missing key counts as zero.
	Incr(ctx context.Context, key string) (int64, error)
}

// Noop is a Cache that stores nothing and never fails. It is the fail-open
// default when no Redis is configured, and the zero-dependency option for
// tests.
type Noop struct{}

// NewNoop creates a no-op cache.
func NewNoop() *Noop { return &Noop{} }

func (*Noop) Get(context.Context, string) (string, bool, error)        { return "", false, nil }
func (*Noop) Set(context.Context, string, string, time.Duration) error { return nil }
func (*Noop) ScanKeys(context.Context, string) ([]string, error)       { return nil, nil }
func (*Noop) Delete(context.Context, ...string) error                  { return nil }

// Incr always returns 1 so version-derived cache keys stay stable.
func (*Noop) Incr(context.Context, string) (int64, error) { return 1, nil }

// Compile-time check.
var _ Cache = (*Noop)(nil)
