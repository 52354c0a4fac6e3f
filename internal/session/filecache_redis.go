package session

import (
	"context"
	"encoding/json"
	"time"

	"compass/internal/ingest"
	platformredis "compass/internal/platform/redis"
)

const fileCachePrefix = "compass:files:"

// RedisFileCache shares parsed files across processes keyed by content hash.
// Redis failures degrade to cache misses; the caller just re-parses.
type RedisFileCache struct {
	client *platformredis.Client
	ttl    time.Duration
}

func NewRedisFileCache(client *platformredis.Client, ttl time.Duration) *RedisFileCache {
	return &RedisFileCache{client: client, ttl: ttl}
}

func (c *RedisFileCache) Get(ctx context.Context, contentHash string) (*ingest.FileResult, bool) {
	payload, err := c.client.Get(ctx, fileCachePrefix+contentHash).Bytes()
	if err != nil {
		return nil, false
	}
	var result ingest.FileResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (c *RedisFileCache) Set(ctx context.Context, contentHash string, result *ingest.FileResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	c.client.SetEx(ctx, fileCachePrefix+contentHash, payload, c.ttl)
}

func (c *RedisFileCache) Clear(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, fileCachePrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
}
