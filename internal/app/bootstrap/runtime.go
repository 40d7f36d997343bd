// Package bootstrap builds the API server's optional collaborators from
// configuration. Each builder returns nil when its dependency is disabled.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/leadbridge/internal/config"
	"github.com/wolfman30/leadbridge/internal/ratelimit"
	"github.com/wolfman30/leadbridge/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when the rate
// limiter is not Redis-backed. When verify is true, a ping is issued and
// failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || cfg.RateLimitStore != "redis" || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, using in-memory rate limits", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildChatLimiter returns the chat limiter. With a Redis client the window
// is shared across processes; otherwise entries live in memory and a sweeper
// evicts expired ones until ctx is cancelled.
func BuildChatLimiter(ctx context.Context, cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) *ratelimit.Limiter {
	limits := ratelimit.Config{Max: cfg.ChatRateLimit, Window: cfg.ChatRateWindow}
	if redisClient != nil {
		logger.Info("chat rate limits stored in redis", "addr", cfg.RedisAddr)
		return ratelimit.NewLimiter(ratelimit.NewRedisStore(redisClient, "leadbridge:rl:chat"), limits, logger)
	}

	store := ratelimit.NewMemoryStore()
	go store.RunSweeper(ctx, cfg.RateLimitSweepInterval)
	return ratelimit.NewLimiter(store, limits, logger)
}
