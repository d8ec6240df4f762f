package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// RedisClient is the subset of go-redis used as the shared cache tier.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

type entry struct {
	value   any
	expires time.Time
}

// LoadOnce memoizes expensive loads (file reads, remote feeds) per key.
// Concurrent callers for the same key share a single load. Only successful
// loads are stored, so a failed load is retried on the next call.
type LoadOnce struct {
	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
	redis   RedisClient
	ttl     time.Duration
	now     func() time.Time
}

// New returns a cache whose entries live for ttl (zero keeps them for the
// life of the process). redisClient may be nil.
func New(redisClient RedisClient, ttl time.Duration) *LoadOnce {
	return &LoadOnce{
		entries: make(map[string]entry),
		redis:   redisClient,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached value for key, loading it with load on a miss.
// A nil cache always calls load.
func Get[T any](ctx context.Context, c *LoadOnce, key string, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	if v, ok := c.lookup(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		if typed, ok := fromRedis[T](ctx, c, key); ok {
			c.store(key, typed)
			return typed, nil
		}

		loaded, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, loaded)
		toRedis(ctx, c, key, loaded)
		return loaded, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache entry %q has type %T", key, v)
	}
	return typed, nil
}

// Invalidate drops key from the in-process tier.
func (c *LoadOnce) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *LoadOnce) lookup(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		c.Invalidate(key)
		return nil, false
	}
	return e.value, true
}

func (c *LoadOnce) store(key string, v any) {
	e := entry{value: v}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

func fromRedis[T any](ctx context.Context, c *LoadOnce, key string) (T, bool) {
	var out T
	if c.redis == nil {
		return out, false
	}
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("redis cache read failed")
		}
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis cache entry undecodable")
		return out, false
	}
	return out, true
}

func toRedis(ctx context.Context, c *LoadOnce, key string, v any) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis cache encode failed")
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis cache write failed")
	}
}
