package hashcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkrupp/isupipe-usersvc/internal/infra/logging"
)

// RedisHashCacheConfig holds the connection settings of the Redis backend.
type RedisHashCacheConfig struct {
	Addr        string        `env:"ADDR" envDefault:"localhost:6379"`
	Password    string        `env:"PASSWORD" envDefault:""`
	DB          int           `env:"DB" envDefault:"0"`
	DialTimeout time.Duration `env:"DIAL_TIMEOUT" envDefault:"1s"`
	PoolSize    int           `env:"POOL_SIZE" envDefault:"0"`
}

// RedisHashCache implements Cache on top of Redis. Expiry is enforced by the
// server; entries are written with millisecond precision (SET ... PX).
type RedisHashCache struct {
	client *redis.Client
	log    logging.Logger
}

var _ Cache = (*RedisHashCache)(nil)

// NewRedisHashCache creates a RedisHashCache. No connection is made until first use.
func NewRedisHashCache(cfg RedisHashCacheConfig) *RedisHashCache {
	//nolint:exhaustruct
	return NewRedisHashCacheFromClient(redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
		PoolSize:    cfg.PoolSize,
	}))
}

// NewRedisHashCacheFromClient wraps an existing client.
func NewRedisHashCacheFromClient(client *redis.Client) *RedisHashCache {
	return &RedisHashCache{
		client: client,
		log: logging.GetLogger("repo.hashcache.redis_hash_cache").With(
			logging.Group("redis", "addr", client.Options().Addr, "db", client.Options().DB),
		),
	}
}

func (c *RedisHashCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, key).Result()

	switch {
	case err == nil:
		return value, true, nil
	case errors.Is(err, redis.Nil):
		return "", false, nil
	default:
		return "", false, errors.Join(ErrCacheUnavailable, fmt.Errorf("get %s: %w", key, err))
	}
}

func (c *RedisHashCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errors.Join(ErrCacheUnavailable, fmt.Errorf("set %s: %w", key, err))
	}

	return nil
}

// Ping checks that the server is reachable.
func (c *RedisHashCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return errors.Join(ErrCacheUnavailable, fmt.Errorf("ping: %w", err))
	}

	return nil
}

// Close closes the underlying connection pool.
func (c *RedisHashCache) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}

	return nil
}
