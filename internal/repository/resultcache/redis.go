package resultcache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankfuse/internal/db"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
)

const defaultInvalidatePattern = "rankfuse:search:*"

// Redis caches assembled results in a shared key-value store. Backend
// failures are swallowed: a failed read is a miss, a failed write is
// dropped.
type Redis struct {
	kv      db.KVStore
	pattern string
	logger  *zap.Logger
}

// NewRedis creates a Redis-backed result cache. invalidatePattern is the
// key glob removed by InvalidateAll; empty selects the default search
// key namespace.
func NewRedis(kv db.KVStore, invalidatePattern string, logger *zap.Logger) *Redis {
	if invalidatePattern == "" {
		invalidatePattern = defaultInvalidatePattern
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{kv: kv, pattern: invalidatePattern, logger: logger}
}

// Get returns a cached result, or ok=false on miss or backend error.
func (c *Redis) Get(ctx context.Context, key string) (res result.Result, ok bool) {
	data, err := c.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("result cache read failed", zap.Error(err))
		}
		return res, false
	}

	res, err = decode(data)
	if err != nil {
		c.logger.Warn("result cache entry corrupt, dropping", zap.Error(err))
		return res, false
	}
	return res, true
}

// Set stores a result with a TTL. Errors are logged and dropped.
func (c *Redis) Set(ctx context.Context, key string, res result.Result, ttl time.Duration) {
	data, err := encode(res)
	if err != nil {
		c.logger.Warn("result cache encode failed", zap.Error(err))
		return
	}
	if err := c.kv.SetWithTTL(ctx, key, data, ttl); err != nil {
		c.logger.Warn("result cache write failed", zap.Error(err))
	}
}

// InvalidateAll removes every cached search result.
func (c *Redis) InvalidateAll(ctx context.Context) {
	if err := c.kv.DeleteByPattern(ctx, c.pattern); err != nil {
		c.logger.Warn("result cache invalidation failed", zap.Error(err))
	}
}
