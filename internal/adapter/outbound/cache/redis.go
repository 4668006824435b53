package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/textguard/textguard/internal/domain/guard"
	"github.com/textguard/textguard/internal/port/outbound"
)

// keyPrefix namespaces cache entries within a shared Redis instance.
const keyPrefix = "textguard:check:"

// Redis is a Redis-backed outbound.ResultCache. Expiry is delegated to
// Redis's own key TTL rather than tracked client-side.
type Redis struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedis creates a Redis cache backed by client.
func NewRedis(client *redis.Client, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, logger: logger}
}

// Get returns the cached result for fingerprint if present.
func (r *Redis) Get(ctx context.Context, fingerprint string) (guard.CheckResult, bool) {
	raw, err := r.client.Get(ctx, keyPrefix+fingerprint).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("result cache read failed", "error", err)
		}
		return guard.CheckResult{}, false
	}

	var result guard.CheckResult
	if err := json.Unmarshal(raw, &result); err != nil {
		r.logger.Warn("result cache entry corrupt, treating as miss", "error", err)
		return guard.CheckResult{}, false
	}
	return result, true
}

// Put stores result under fingerprint with the given time-to-live.
func (r *Redis) Put(ctx context.Context, fingerprint string, result guard.CheckResult, ttl time.Duration) {
	raw, err := json.Marshal(result)
	if err != nil {
		r.logger.Warn("result cache encode failed, not caching", "error", err)
		return
	}
	if err := r.client.Set(ctx, keyPrefix+fingerprint, raw, ttl).Err(); err != nil {
		r.logger.Warn("result cache write failed", "error", err)
	}
}

var _ outbound.ResultCache = (*Redis)(nil)
