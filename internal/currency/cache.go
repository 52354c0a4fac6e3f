package currency

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	platformredis "compass/internal/platform/redis"
)

// RateCache is the TTL cache in front of the exchange-rate API. Expiry is the
// cache's concern; callers only see hits and misses.
type RateCache interface {
	Get(ctx context.Context, key string) (Rate, bool)
	Set(ctx context.Context, key string, rate Rate)
	Clear(ctx context.Context)
}

// memoryCache is the default in-process cache.
type memoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	rate    Rate
	expires time.Time
}

// NewMemoryCache builds a mutex-guarded TTL cache.
func NewMemoryCache(ttl time.Duration) RateCache {
	return &memoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *memoryCache) Get(_ context.Context, key string) (Rate, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expires) {
		return Rate{}, false
	}
	return entry.rate, true
}

func (c *memoryCache) Set(_ context.Context, key string, rate Rate) {
	c.mu.Lock()
	c.entries[key] = memoryEntry{rate: rate, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *memoryCache) Clear(_ context.Context) {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
}

const redisKeyPrefix = "compass:rates:"

// redisCache shares rates across processes. Failures degrade to cache misses;
// the rate service has its own fallback path.
type redisCache struct {
	client *platformredis.Client
	ttl    time.Duration
}

// NewRedisCache builds a Redis-backed TTL cache.
func NewRedisCache(client *platformredis.Client, ttl time.Duration) RateCache {
	return &redisCache{client: client, ttl: ttl}
}

func (c *redisCache) Get(ctx context.Context, key string) (Rate, bool) {
	payload, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		return Rate{}, false
	}
	var rate Rate
	if err := json.Unmarshal(payload, &rate); err != nil {
		return Rate{}, false
	}
	return rate, true
}

func (c *redisCache) Set(ctx context.Context, key string, rate Rate) {
	payload, err := json.Marshal(rate)
	if err != nil {
		return
	}
	c.client.SetEx(ctx, redisKeyPrefix+key, payload, c.ttl)
}

func (c *redisCache) Clear(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
}
