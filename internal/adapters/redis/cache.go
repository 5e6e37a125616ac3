package redisad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"spot_explorer/internal/adapters/observability"
)

const cacheName = "redis"

// Cache stores JSON values under a key prefix. It implements domain.Cache.
type Cache struct {
	c      *redis.Client
	prefix string
}

func New(addr, pass string, db int) *Cache {
	return &Cache{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}), prefix: "spotgo:"}
}

func (r *Cache) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

func (r *Cache) Close() error { return r.c.Close() }

func (r *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveCache(cacheName, "miss")
		return false, nil
	}
	if err != nil {
		observability.ObserveCache(cacheName, "error")
		return false, err
	}
	if err := json.Unmarshal(v, dst); err != nil {
		// stale shape; drop it
		observability.ObserveCache(cacheName, "error")
		_ = r.c.Del(ctx, r.prefix+key).Err()
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	observability.ObserveCache(cacheName, "hit")
	return true, nil
}

func (r *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	observability.ObserveCache(cacheName, "set")
	return r.c.Set(ctx, r.prefix+key, b, time.Duration(ttlSec)*time.Second).Err()
}

func (r *Cache) Del(ctx context.Context, key string) error {
	observability.ObserveCache(cacheName, "del")
	return r.c.Del(ctx, r.prefix+key).Err()
}
