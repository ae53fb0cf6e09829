// Package cache stores derived read models. Entries are namespaced by a
// version counter so a single Invalidate drops every entry at once.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cinema-ledger/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache callers read Version once and pass it to both Get and Set, so a
// value computed before an Invalidate lands under the retired version.
type Cache interface {
	Version(ctx context.Context) (int64, error)
	// Get decodes the entry for key into dst and reports whether it was present.
	Get(ctx context.Context, version int64, key string, dst any) (bool, error)
	Set(ctx context.Context, version int64, key string, value any) error
	Invalidate(ctx context.Context) error
}

// Noop never stores anything.
type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) Version(context.Context) (int64, error)                { return 0, nil }
func (Noop) Get(context.Context, int64, string, any) (bool, error) { return false, nil }
func (Noop) Set(context.Context, int64, string, any) error         { return nil }
func (Noop) Invalidate(context.Context) error                      { return nil }

type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisClient connects and pings the configured server.
func NewRedisClient(config utils.CacheConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.RedisAddr,
		Password:     config.RedisPassword,
		DB:           config.RedisDB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", config.RedisAddr, err)
	}
	return client, nil
}

func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration, log *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		log:    log.With(zap.String("component", "cache")),
	}
}

func (c *RedisCache) versionKey() string {
	return c.prefix + ":version"
}

func (c *RedisCache) entryKey(version int64, key string) string {
	return fmt.Sprintf("%s:v%d:%s", c.prefix, version, key)
}

func (c *RedisCache) Version(ctx context.Context) (int64, error) {
	version, err := c.client.Get(ctx, c.versionKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cache version: %w", err)
	}
	return version, nil
}

func (c *RedisCache) Get(ctx context.Context, version int64, key string, dst any) (bool, error) {
	entry := c.entryKey(version, key)

	raw, err := c.client.Get(ctx, entry).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get cache entry %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.Warn("Dropping undecodable cache entry", zap.String("key", entry), zap.Error(err))
		c.client.Del(ctx, entry)
		return false, nil
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, version int64, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}

	if err := c.client.Set(ctx, c.entryKey(version, key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cache entry %s: %w", key, err)
	}
	return nil
}

// Invalidate bumps the version; stale entries expire on their TTL.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.versionKey()).Err(); err != nil {
		return fmt.Errorf("bump cache version: %w", err)
	}
	return nil
}
