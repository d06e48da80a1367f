package hashcache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryHashCacheConfig configures the in-process backend.
type MemoryHashCacheConfig struct {
	// CleanupInterval is how often expired entries are purged from memory
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1m"`
}

// MemoryHashCache implements Cache in process memory. It is only consistent
// within a single instance and suits development and single-node setups.
type MemoryHashCache struct {
	cache *gocache.Cache
}

var _ Cache = (*MemoryHashCache)(nil)

// NewMemoryHashCache creates an empty MemoryHashCache.
func NewMemoryHashCache(cfg MemoryHashCacheConfig) *MemoryHashCache {
	return &MemoryHashCache{
		cache: gocache.New(gocache.NoExpiration, cfg.CleanupInterval),
	}
}

func (c *MemoryHashCache) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := c.cache.Get(key)
	if !ok {
		return "", false, nil
	}

	hash, ok := value.(string)

	return hash, ok, nil
}

func (c *MemoryHashCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	c.cache.Set(key, value, ttl)

	return nil
}
