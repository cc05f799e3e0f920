package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/koinonia-app/koinonia/pkg/composables"
)

// RedisCache stores one key per entry with its own TTL. Keys embed a per-tenant generation;
// invalidating a tenant bumps the generation and orphaned entries expire on their own.
type RedisCache struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{redis: client, prefix: "attendance:results:v2", ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := c.entryKey(ctx, key)
	if err != nil {
		return nil, false, err
	}
	raw, err := c.redis.Get(ctx, entry).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return raw, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	entry, err := c.entryKey(ctx, key)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, entry, value, c.ttl).Err()
}

func (c *RedisCache) InvalidateTenant(ctx context.Context) error {
	tenantKey, err := c.tenantKey(ctx)
	if err != nil {
		return err
	}
	return c.redis.Incr(ctx, tenantKey+":gen").Err()
}

func (c *RedisCache) entryKey(ctx context.Context, key string) (string, error) {
	tenantKey, err := c.tenantKey(ctx)
	if err != nil {
		return "", err
	}
	gen, err := c.redis.Get(ctx, tenantKey+":gen").Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return tenantKey + ":g" + strconv.FormatInt(gen, 10) + ":" + key, nil
}

// tenantKey carries the tenant as a hash tag so all of a tenant's keys share a cluster slot.
func (c *RedisCache) tenantKey(ctx context.Context) (string, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:{%s}", c.prefix, tenantID.String()), nil
}
