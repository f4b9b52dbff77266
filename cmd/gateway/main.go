// The gateway binary wires everything together: configuration, logging,
// the Redis-backed response cache, the upstream directory client, and the
// HTTP API. Caching wraps only the versioned API routes; health and metrics
// endpoints always answer live.
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/autoaudit/compliance-gateway/internal/api"
	"github.com/autoaudit/compliance-gateway/pkg/auth"
	"github.com/autoaudit/compliance-gateway/pkg/cache"
	"github.com/autoaudit/compliance-gateway/pkg/compliance"
	"github.com/autoaudit/compliance-gateway/pkg/config"
	"github.com/autoaudit/compliance-gateway/pkg/graph"
	"github.com/autoaudit/compliance-gateway/pkg/logging"
	"github.com/autoaudit/compliance-gateway/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logging is not configured yet; use the global logger as-is.
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})
	logger := logging.NewLogger("gateway")

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})

	// An unreachable Redis is not fatal: the middleware degrades every
	// request to a cache miss until the backend comes back.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("redis_url", cfg.RedisURL).
			Msg("Redis unreachable at startup, serving without cache hits")
	} else {
		logger.Info().Str("redis_url", cfg.RedisURL).Msg("Connected to Redis")
	}
	cancel()

	store := cache.NewRedisStore(redisClient, cfg.CacheKeyPrefix, cfg.CacheTTLDefault)
	stats := cache.NewStats()
	cacheMiddleware := cache.NewMiddleware(store, stats, cache.MiddlewareConfig{
		Enabled:    cfg.CacheEnabled,
		DefaultTTL: cfg.CacheTTLDefault,
		Logger:     logging.NewLogger("cache"),
	})

	graphClient, err := graph.New(graph.DefaultConfig(cfg.GraphBaseURL))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create upstream client")
	}

	server := api.New(api.Options{
		APIPrefix:    cfg.APIPrefix,
		Version:      cfg.Version,
		CacheEnabled: cfg.CacheEnabled,
		Store:        store,
		Stats:        stats,
		Graph:        graphClient,
		Auth:         auth.NewValidator(graphClient),
		Compliance:   compliance.NewService(graphClient),
	})

	apiHandler := server.Handler()
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", apiHandler)
	mux.Handle(cfg.APIPrefix+"/", cacheMiddleware.Wrap(apiHandler))
	mux.Handle("/", apiHandler)

	addr := ":" + cfg.Port
	logger.Info().
		Str("addr", addr).
		Str("api_prefix", cfg.APIPrefix).
		Bool("cache_enabled", cfg.CacheEnabled).
		Dur("cache_ttl", cfg.CacheTTLDefault).
		Msg("Starting compliance gateway")

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}
