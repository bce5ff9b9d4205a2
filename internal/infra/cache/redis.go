// Package cache provides the catalog cache implementations: a Redis
// backend for deployments and an in-memory backend for single-node
// runs and tests.
//
// Entries carry their own write timestamp and freshness is computed by
// the caller, so an entry that outlived its TTL stays readable as a
// stale fallback. The storage-level expiry is a retention window, not
// the freshness TTL.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"unified-catalog-service/internal/domain"
)

// RedisCache implements domain.Cache on Redis with prefix-based
// namespacing.
type RedisCache struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	retention time.Duration
}

// NewRedisCache creates a Redis-backed cache. retention bounds how
// long stale entries stay available for fallback reads; it should be
// well above the freshness TTLs used by the service.
func NewRedisCache(client *redis.Client, logger *zap.Logger, keyPrefix string, retention time.Duration) *RedisCache {
	return &RedisCache{
		client:    client,
		logger:    logger,
		keyPrefix: keyPrefix,
		retention: retention,
	}
}

// Get retrieves an entry by key. A missing key and a storage failure
// both degrade to a miss; cache trouble never fails the lookup.
func (c *RedisCache) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	fullKey := c.buildKey(key)

	data, err := c.client.Get(ctx, fullKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		c.logger.Error("cache get failed",
			zap.String("key", key),
			zap.Error(err),
		)

		return nil, nil
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// An undecodable entry is useless; drop it and report a miss.
		c.logger.Warn("cache entry corrupted, deleting",
			zap.String("key", key),
			zap.Error(err),
		)
		_ = c.client.Del(ctx, fullKey).Err()

		return nil, nil
	}

	c.logger.Debug("cache hit",
		zap.String("key", key),
		zap.Int("bytes", len(entry.Value)),
		zap.Time("written_at", entry.WrittenAt),
	)

	return &entry, nil
}

// Set stores an entry under the retention window.
func (c *RedisCache) Set(ctx context.Context, key string, entry *domain.CacheEntry) error {
	fullKey := c.buildKey(key)

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, fullKey, data, c.retention).Err(); err != nil {
		c.logger.Error("cache set failed",
			zap.String("key", key),
			zap.Int("bytes", len(data)),
			zap.Error(err),
		)

		return err
	}

	c.logger.Debug("cache set",
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)

	return nil
}

// Delete removes an entry by key. Idempotent.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.buildKey(key)).Err(); err != nil {
		c.logger.Error("cache delete failed",
			zap.String("key", key),
			zap.Error(err),
		)

		return err
	}

	return nil
}

// Clear removes all entries under this cache's prefix. Uses SCAN so it
// stays non-blocking against a shared Redis.
func (c *RedisCache) Clear(ctx context.Context) error {
	pattern := c.keyPrefix + ":*"

	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Error("cache clear scan failed",
			zap.String("pattern", pattern),
			zap.Error(err),
		)

		return err
	}

	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			c.logger.Error("cache clear delete failed",
				zap.Int("key_count", len(keys)),
				zap.Error(err),
			)

			return err
		}

		c.logger.Info("cache cleared", zap.Int("key_count", len(keys)))
	}

	return nil
}

func (c *RedisCache) buildKey(key string) string {
	return c.keyPrefix + ":" + key
}
