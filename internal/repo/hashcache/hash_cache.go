package hashcache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCacheUnavailable is returned when the cache could not be reached or answered with an error.
	ErrCacheUnavailable = errors.New("hash cache unavailable")

	// ErrUnknownBackend is returned when the configured backend is not supported.
	ErrUnknownBackend = errors.New("unknown hash cache backend")
)

// Cache is a key-value store with per-key expiry.
// Implementations are shared by all requests and possibly by several
// processes. Writes are last-write-wins; no compare-and-swap is offered.
type Cache interface {
	// Get returns the value stored under key.
	// Returns false and no error if the key is absent or expired.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key. The entry expires after ttl.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// IconHashKey returns the cache key holding the icon hash of a user.
func IconHashKey(userID int64) string {
	return fmt.Sprintf("user:%d:icon_hash", userID)
}

// HashCacheConfig selects and configures the cache backend.
type HashCacheConfig struct {
	// Backend is either "memory" (in-process, single instance) or "redis"
	Backend string `env:"BACKEND" envDefault:"memory"`

	Redis  RedisHashCacheConfig  `envPrefix:"REDIS_"`
	Memory MemoryHashCacheConfig `envPrefix:"MEMORY_"`
}

// NewHashCache creates the configured cache backend.
// The returned close function releases its resources.
func NewHashCache(ctx context.Context, cfg HashCacheConfig) (Cache, func() error, error) {
	switch cfg.Backend {
	case "memory":
		cache := NewMemoryHashCache(cfg.Memory)

		return cache, func() error { return nil }, nil
	case "redis":
		cache := NewRedisHashCache(cfg.Redis)

		if err := cache.Ping(ctx); err != nil {
			// The resolver treats an unavailable cache as a miss, so start anyway.
			cache.log.WarnContext(ctx, "redis not reachable at start-up", "error", err)
		}

		return cache, cache.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
