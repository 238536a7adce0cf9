package narrative

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gyaneshwarpardhi/kycguard/internal/circuit"
	"github.com/gyaneshwarpardhi/kycguard/internal/config"
)

// FromConfig wires the model client, the circuit breaker and the optional Redis
// cache. It returns a nil extractor when the cross-check is disabled or its API
// key is missing. release closes the Redis client.
func FromConfig(ctx context.Context, nc config.NarrativeConf, logger *slog.Logger) (ex Extractor, release func()) {
	if logger == nil {
		logger = slog.Default()
	}
	release = func() {}
	if !nc.Enabled {
		logger.Info("narrative cross-check disabled")
		return nil, release
	}
	key := os.Getenv(nc.APIKeyEnv)
	if key == "" {
		logger.Warn("narrative cross-check disabled: API key not set", "env", nc.APIKeyEnv)
		return nil, release
	}

	ex = NewOpenAIExtractor(OpenAIConfig{
		Provider:    nc.Provider,
		APIKey:      key,
		BaseURL:     nc.BaseURL,
		APIVersion:  nc.APIVersion,
		Model:       nc.Model,
		Temperature: nc.Temperature,
	})
	breaker := circuit.New("narrative",
		circuit.WithFailureThreshold(nc.Breaker.FailureThreshold),
		circuit.WithSuccessThreshold(nc.Breaker.SuccessThreshold),
		circuit.WithCooldown(time.Duration(nc.Breaker.CooldownMs)*time.Millisecond),
	)
	ex = NewGuardedExtractor(ex, breaker, logger)

	if !nc.Cache.Enabled {
		return ex, release
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     nc.Cache.Addr,
		Password: os.Getenv(nc.Cache.PasswordEnv),
		DB:       nc.Cache.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		// Lookups fall through to the model while Redis is down.
		logger.Warn("narrative cache unreachable", "addr", nc.Cache.Addr, "err", err)
	}
	ttl := time.Duration(nc.Cache.TTLSeconds) * time.Second
	return NewCachingExtractor(ex, rdb, ttl, logger), func() { _ = rdb.Close() }
}
