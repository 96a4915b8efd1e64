package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/observability"
)

// GateOptions are fixed at construction.
type GateOptions struct {
	Enabled    bool
	DefaultTTL time.Duration
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// Gate applies caching policy on top of a Backend. When disabled every call
// is a no-op that never reaches the backend. When enabled, backend failures
// are logged and downgraded: reads become misses and writes are dropped.
type Gate struct {
	backend    Backend
	enabled    bool
	defaultTTL time.Duration
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewGate wraps backend. A nil backend forces the gate into disabled mode.
func NewGate(backend Backend, opts GateOptions) *Gate {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := opts.DefaultTTL
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	enabled := opts.Enabled && backend != nil

	if enabled {
		logger.Info("cache enabled", zap.Duration("default_ttl", ttl))
	} else {
		logger.Warn("cache disabled via configuration")
	}

	return &Gate{
		backend:    backend,
		enabled:    enabled,
		defaultTTL: ttl,
		logger:     logger,
		metrics:    opts.Metrics,
	}
}

// Enabled reports whether the gate forwards calls to the backend.
func (g *Gate) Enabled() bool {
	return g.enabled
}

// Get decodes the cached JSON value for key into dst and reports whether it
// did. Misses, backend errors and undecodable values all report false.
func (g *Gate) Get(ctx context.Context, key string, dst any) bool {
	if !g.enabled {
		return false
	}

	raw, found, err := g.backend.Get(ctx, key)
	if err != nil {
		g.logger.Error("cache get failed", zap.String("key", key), zap.Error(err))
		g.metrics.CacheOp("get", "error")
		return false
	}
	if !found {
		g.logger.Debug("cache miss", zap.String("key", key))
		g.metrics.CacheOp("get", "miss")
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		g.logger.Error("cache value undecodable", zap.String("key", key), zap.Error(err))
		g.metrics.CacheOp("get", "error")
		return false
	}

	g.logger.Debug("cache hit", zap.String("key", key))
	g.metrics.CacheOp("get", "hit")
	return true
}

// Set stores value as JSON. A non-positive ttl selects the default TTL;
// TTLs are applied in whole seconds.
func (g *Gate) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if !g.enabled {
		return
	}
	ttl = ttl.Truncate(time.Second)
	if ttl <= 0 {
		ttl = g.defaultTTL
	}

	payload, err := json.Marshal(value)
	if err != nil {
		g.logger.Error("cache value unencodable", zap.String("key", key), zap.Error(err))
		g.metrics.CacheOp("set", "error")
		return
	}
	if err := g.backend.Set(ctx, key, payload, ttl); err != nil {
		g.logger.Error("cache set failed", zap.String("key", key), zap.Error(err))
		g.metrics.CacheOp("set", "error")
		return
	}

	g.logger.Debug("cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	g.metrics.CacheOp("set", "ok")
}

// Delete removes keys.
func (g *Gate) Delete(ctx context.Context, keys ...string) {
	if !g.enabled || len(keys) == 0 {
		return
	}
	if err := g.backend.Delete(ctx, keys...); err != nil {
		g.logger.Error("cache delete failed", zap.Strings("keys", keys), zap.Error(err))
		g.metrics.CacheOp("delete", "error")
		return
	}
	g.logger.Debug("cache delete", zap.Strings("keys", keys))
	g.metrics.CacheOp("delete", "ok")
}

// DeleteByPrefix removes every key starting with prefix.
func (g *Gate) DeleteByPrefix(ctx context.Context, prefix string) {
	if !g.enabled {
		return
	}
	pattern := prefix + "*"
	n, err := g.backend.DeleteByPattern(ctx, pattern)
	if err != nil {
		g.logger.Error("cache pattern delete failed", zap.String("pattern", pattern), zap.Error(err))
		g.metrics.CacheOp("delete_pattern", "error")
		return
	}
	g.logger.Debug("cache invalidated", zap.String("pattern", pattern), zap.Int64("deleted", n))
	g.metrics.CacheOp("delete_pattern", "ok")
}

// IsHealthy pings the backend. A disabled gate is trivially healthy.
func (g *Gate) IsHealthy(ctx context.Context) bool {
	if !g.enabled {
		return true
	}
	if err := g.backend.Ping(ctx); err != nil {
		g.logger.Debug("cache health check failed", zap.Error(err))
		return false
	}
	return true
}
