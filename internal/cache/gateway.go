// Package cache implements the read-through cache gateway in front of Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/showcase-api/showcase/internal/observability"
)

// Gateway wraps a Redis client with a fixed TTL and fail-open semantics: an
// unreachable backend degrades to always-miss/no-op and never fails the
// caller's request.
type Gateway struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
	group   singleflight.Group
}

// New constructs a Gateway. metrics may be nil.
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{client: client, ttl: ttl, logger: logger, metrics: metrics}
}

// TTL returns the fixed expiry applied to every entry.
func (g *Gateway) TTL() time.Duration {
	return g.ttl
}

// Get returns the raw entry for key, or ok=false on a miss. Backend errors
// are logged and reported as misses.
func (g *Gateway) Get(ctx context.Context, key string) ([]byte, bool) {
	if g == nil || g.client == nil {
		return nil, false
	}
	payload, err := g.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			g.logger.Warn("cache get failed", slog.String("key", key), slog.Any("error", err))
		}
		g.metrics.ObserveCacheMiss(key)
		return nil, false
	}
	g.metrics.ObserveCacheHit(key)
	return payload, true
}

// GetJSON unmarshals the entry for key into dest. An undecodable entry is
// treated as a miss.
func (g *Gateway) GetJSON(ctx context.Context, key string, dest any) bool {
	payload, ok := g.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		g.logger.Warn("cache entry corrupt", slog.String("key", key), slog.Any("error", err))
		return false
	}
	return true
}

// SetJSON stores value under key with the gateway TTL. Failures are logged
// and swallowed.
func (g *Gateway) SetJSON(ctx context.Context, key string, value any) {
	if g == nil || g.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		g.logger.Warn("cache marshal failed", slog.String("key", key), slog.Any("error", err))
		return
	}
	if err := g.client.Set(ctx, key, raw, g.ttl).Err(); err != nil {
		g.logger.Warn("cache set failed", slog.String("key", key), slog.Any("error", err))
	}
}

// Delete removes the given keys. Deleting absent keys is a no-op, and backend
// failures are logged and swallowed.
func (g *Gateway) Delete(ctx context.Context, keys ...string) {
	if g == nil || g.client == nil || len(keys) == 0 {
		return
	}
	if err := g.client.Del(ctx, keys...).Err(); err != nil {
		g.logger.Warn("cache delete failed", slog.Any("keys", keys), slog.Any("error", err))
	}
}

// FetchJSON reads key into dest, running loader on a miss and populating the
// entry with its result. Concurrent misses for the same key within this
// process share a single loader call. Loader errors propagate unchanged and
// never populate the cache.
func (g *Gateway) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if g.GetJSON(ctx, key, dest) {
		return nil
	}
	raw, err, _ := g.group.Do(key, func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if g != nil && g.client != nil {
			if err := g.client.Set(ctx, key, data, g.ttl).Err(); err != nil {
				g.logger.Warn("cache set failed", slog.String("key", key), slog.Any("error", err))
			}
		}
		return data, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dest)
}
