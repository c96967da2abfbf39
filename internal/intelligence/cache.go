package intelligence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/inbox-agent/internal/pkg/logger"
)

// snapshotCacheTTL bounds how long a published snapshot can serve reads
// after a process restart before a fresh FullRecompute is required; it is
// deliberately longer than the scheduler's analyze-phase cadence so a
// restart between refresh cycles still finds a warm cache.
const snapshotCacheTTL = 2 * time.Hour

// RedisCache publishes Snapshots to Redis as a secondary, versioned read
// path (SPEC_FULL §3 "expansion: caching"). Postgres, via Store, remains
// the source of truth; a cache miss or Redis outage only costs a
// FullRecompute, never correctness.
type RedisCache struct {
	client *redis.Client
	key    string
}

func NewRedisCache(client *redis.Client, key string) *RedisCache {
	return &RedisCache{client: client, key: key}
}

// Publish writes snap to Redis under c.key with snapshotCacheTTL. Errors are
// logged, not returned: the cache is best-effort and a write failure must
// never block a Refresh from completing.
func (c *RedisCache) Publish(ctx context.Context, snap *Snapshot) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		logger.Warn("intelligence: failed to marshal snapshot for cache", "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key, payload, snapshotCacheTTL).Err(); err != nil {
		logger.Warn("intelligence: failed to publish snapshot to redis", "error", err)
	}
}

// Load reads a previously published Snapshot from Redis. Returns
// (nil, false) on a cache miss or any error, so callers fall back to
// FullRecompute.
func (c *RedisCache) Load(ctx context.Context) (*Snapshot, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		return nil, false
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		logger.Warn("intelligence: failed to unmarshal cached snapshot", "error", err)
		return nil, false
	}
	return &snap, true
}
