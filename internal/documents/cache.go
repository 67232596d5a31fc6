package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docdash-backend/internal/shared/metrics"
	"docdash-backend/internal/shared/telemetry"
	"docdash-backend/internal/shared/util"
)

// ListCache stores listing pages per workspace. Implementations must never
// fail a request: errors are logged and treated as a miss.
//
// Get resolves the slot a page lives in at lookup time; Set writes to that
// slot, so a page read before an upload can never land under the
// post-upload generation.
type ListCache interface {
	Get(ctx context.Context, workspaceID string, q ListQuery) (ListResult, CacheSlot, bool)
	Set(ctx context.Context, slot CacheSlot, res ListResult)
	Invalidate(ctx context.Context, workspaceID string)
}

// CacheSlot identifies where a page is stored. The zero value is not cacheable.
type CacheSlot struct {
	WorkspaceID string
	Key         string
}

// NopCache disables listing caching.
type NopCache struct{}

func (NopCache) Get(context.Context, string, ListQuery) (ListResult, CacheSlot, bool) {
	return ListResult{}, CacheSlot{}, false
}
func (NopCache) Set(context.Context, CacheSlot, ListResult) {}
func (NopCache) Invalidate(context.Context, string)         {}

const redisKeyPrefix = "docdash:files:"

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// RedisCache keeps pages under a per-workspace generation number. Bumping the
// generation orphans every cached page for that workspace; TTL reclaims them.
type RedisCache struct {
	client redisClient
	ttl    time.Duration
}

// NewRedisCache builds a RedisCache. A non-positive ttl uses 30s.
func NewRedisCache(client redisClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, workspaceID string, q ListQuery) (ListResult, CacheSlot, bool) {
	key, err := c.pageKey(ctx, workspaceID, q)
	if err != nil {
		c.logError("documents.cache_get_failed", workspaceID, err)
		return ListResult{}, CacheSlot{}, false
	}
	slot := CacheSlot{WorkspaceID: workspaceID, Key: key}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logError("documents.cache_get_failed", workspaceID, err)
		}
		metrics.IncListCacheMiss()
		return ListResult{}, slot, false
	}
	var res ListResult
	if err := json.Unmarshal(raw, &res); err != nil {
		c.logError("documents.cache_decode_failed", workspaceID, err)
		metrics.IncListCacheMiss()
		return ListResult{}, slot, false
	}
	metrics.IncListCacheHit()
	return res, slot, true
}

func (c *RedisCache) Set(ctx context.Context, slot CacheSlot, res ListResult) {
	if slot.Key == "" {
		return
	}
	payload, err := json.Marshal(res)
	if err != nil {
		c.logError("documents.cache_set_failed", slot.WorkspaceID, err)
		return
	}
	if err := c.client.Set(ctx, slot.Key, payload, c.ttl).Err(); err != nil {
		c.logError("documents.cache_set_failed", slot.WorkspaceID, err)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, workspaceID string) {
	if err := c.client.Incr(ctx, generationKey(workspaceID)).Err(); err != nil {
		c.logError("documents.cache_invalidate_failed", workspaceID, err)
	}
}

func (c *RedisCache) pageKey(ctx context.Context, workspaceID string, q ListQuery) (string, error) {
	gen, err := c.client.Get(ctx, generationKey(workspaceID)).Result()
	if errors.Is(err, redis.Nil) {
		gen = "0"
	} else if err != nil {
		return "", fmt.Errorf("read generation: %w", err)
	}
	return redisKeyPrefix + workspaceID + ":" + gen + ":" + util.HashKey(q.CacheKey()), nil
}

func (c *RedisCache) logError(msg, workspaceID string, err error) {
	telemetry.Warn(msg, map[string]any{
		"workspace_id": workspaceID,
		"error":        err.Error(),
	})
}

func generationKey(workspaceID string) string {
	return redisKeyPrefix + "gen:" + workspaceID
}

var (
	_ ListCache = NopCache{}
	_ ListCache = (*RedisCache)(nil)
)
