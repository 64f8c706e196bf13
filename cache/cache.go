// Package cache implements the artifact cache for materialized data models.
// Cache keys are stringified QNames of the form project:kind; values are
// opaque encoded artifacts. Two backends exist: a mutex-guarded in-process
// map and a Redis-compatible store selected via OLDAP_REDIS_URL.
package cache

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"oldap.evalgo.org/config"
	"oldap.evalgo.org/oldaperror"
)

// Cache is the key-addressed artifact store.
type Cache interface {
	// Get returns the artifact under key; the bool reports presence.
	Get(key string) ([]byte, bool, error)
	// Set stores an artifact under key.
	Set(key string, value []byte) error
	// Delete removes the artifact under key. Missing keys are no-ops.
	Delete(key string) error
	// Clear drops every artifact.
	Clear() error
}

// MemCache is the in-process backend. Both Set and Get copy the payload so
// callers can never mutate a cached artifact in place.
type MemCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemCache creates an empty in-process cache.
func NewMemCache() *MemCache {
	return &MemCache{data: map[string][]byte{}}
}

// Get returns a copy of the artifact under key.
func (c *MemCache) Get(key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Set stores a copy of the artifact under key.
func (c *MemCache) Set(key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = stored
	return nil
}

// Delete removes the artifact under key.
func (c *MemCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Clear drops every artifact.
func (c *MemCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = map[string][]byte{}
	return nil
}

// RedisCache is the out-of-process backend on a Redis-compatible server
// (Redis, DragonflyDB).
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the server behind a redis:// URL.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, oldaperror.Wrap(oldaperror.Generic, err, "invalid redis URL %q", redisURL)
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

// Get returns the artifact under key.
func (c *RedisCache) Get(key string) ([]byte, bool, error) {
	value, err := c.client.Get(context.Background(), key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, oldaperror.Wrap(oldaperror.Generic, err, "cache get %q failed", key)
	}
	return value, true, nil
}

// Set stores an artifact under key with no expiration.
func (c *RedisCache) Set(key string, value []byte) error {
	if err := c.client.Set(context.Background(), key, value, 0).Err(); err != nil {
		return oldaperror.Wrap(oldaperror.Generic, err, "cache set %q failed", key)
	}
	return nil
}

// Delete removes the artifact under key.
func (c *RedisCache) Delete(key string) error {
	if err := c.client.Del(context.Background(), key).Err(); err != nil {
		return oldaperror.Wrap(oldaperror.Generic, err, "cache delete %q failed", key)
	}
	return nil
}

// Clear flushes the database.
func (c *RedisCache) Clear() error {
	if err := c.client.FlushDB(context.Background()).Err(); err != nil {
		return oldaperror.Wrap(oldaperror.Generic, err, "cache clear failed")
	}
	return nil
}

// Close releases the client connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var (
	defaultOnce  sync.Once
	defaultCache Cache
)

// Default returns the process-wide artifact cache: the redis backend when
// OLDAP_REDIS_URL is set, else the in-process map. A redis URL that cannot
// be parsed falls back to the in-process cache.
func Default() Cache {
	defaultOnce.Do(func() {
		if url := config.FromEnv().RedisURL; url != "" {
			if rc, err := NewRedisCache(url); err == nil {
				defaultCache = rc
				return
			}
		}
		defaultCache = NewMemCache()
	})
	return defaultCache
}

// SetDefault overrides the process-wide cache. Intended for tests.
func SetDefault(c Cache) {
	defaultOnce.Do(func() {})
	defaultCache = c
}
