package narrative

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gyaneshwarpardhi/kycguard/internal/record"
)

const cachePrefix = "kyc:narrative:"

// CachingExtractor keeps extracted facts in Redis so that re-evaluating a
// record does not pay for a second model call. Redis errors never fail an
// extraction; they are logged and the wrapped extractor is used.
type CachingExtractor struct {
	next   Extractor
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachingExtractor(next Extractor, rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) *CachingExtractor {
	return &CachingExtractor{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// CacheKey is the Redis key for a description's facts.
func CacheKey(d record.ClientDescription) string {
	doc, _ := json.Marshal(d)
	sum := sha256.Sum256(doc)
	return cachePrefix + hex.EncodeToString(sum[:])
}

func (c *CachingExtractor) Extract(ctx context.Context, d record.ClientDescription) (Facts, error) {
	key := CacheKey(d)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var f Facts
		if err := json.Unmarshal(raw, &f); err == nil {
			return f, nil
		}
		c.logger.Warn("discarding unreadable cached facts", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("narrative cache read failed", "key", key, "error", err)
	}

	f, err := c.next.Extract(ctx, d)
	if err != nil {
		return Facts{}, err
	}
	if doc, err := json.Marshal(f); err == nil {
		if err := c.rdb.Set(ctx, key, doc, c.ttl).Err(); err != nil {
			c.logger.Warn("narrative cache write failed", "key", key, "error", err)
		}
	}
	return f, nil
}
