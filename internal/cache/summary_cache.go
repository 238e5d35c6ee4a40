package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/oolongworks/teausage/internal/config"
)

const summaryKeyPrefix = "teausage:summary:"

// SummaryCache fronts the summary read endpoints with short-lived JSON
// blobs in Redis. A nil *SummaryCache is a valid no-op cache, so callers
// never branch on whether caching is enabled.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryCache connects to Redis per the cache config. Returns (nil,
// nil) when caching is disabled.
func NewSummaryCache(cfg config.CacheConfig) (*SummaryCache, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return &SummaryCache{client: client, ttl: ttl}, nil
}

// Get unmarshals the cached value for key into dest. The boolean reports
// a hit; cache errors degrade to a miss.
func (c *SummaryCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil {
		return false
	}
	data, err := c.client.Get(ctx, summaryKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("summary cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("summary cache payload corrupt")
		return false
	}
	return true
}

// Set stores value under key for the configured TTL. Failures are logged
// and swallowed; the cache is never load-bearing.
func (c *SummaryCache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("summary cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, summaryKeyPrefix+key, data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("summary cache write failed")
	}
}

// Invalidate drops every cached summary. The pipeline calls this after
// persisting a fresh run.
func (c *SummaryCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := deleteKeysWithPrefix(ctx, c.client, summaryKeyPrefix, 100); err != nil {
		return fmt.Errorf("invalidate summary cache: %w", err)
	}
	return nil
}
