// Package config loads gateway configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the gateway configuration.
type Config struct {
	// Port the HTTP server listens on.
	Port string

	// APIPrefix is the mount point for versioned API routes.
	APIPrefix string

	// Version reported by the health endpoints.
	Version string

	// RedisURL is the cache backend address (host:port).
	RedisURL string

	// CacheEnabled is the global cache switch.
	CacheEnabled bool

	// CacheTTLDefault is the expiration applied to cached responses.
	CacheTTLDefault time.Duration

	// CacheKeyPrefix namespaces all cache keys in Redis.
	CacheKeyPrefix string

	// GraphBaseURL is the upstream directory API base URL.
	GraphBaseURL string

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string

	// LogPretty enables human-readable console logging.
	LogPretty bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	// Missing .env is not an error: production supplies real env vars.
	_ = godotenv.Load()

	ttlSeconds, err := intEnv("CACHE_TTL_DEFAULT", 300)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		APIPrefix:       getEnv("API_PREFIX", "/api/v1"),
		Version:         getEnv("VERSION", "0.1.0"),
		RedisURL:        getEnv("REDIS_URL", "localhost:6379"),
		CacheEnabled:    boolEnv("CACHE_ENABLED", true),
		CacheTTLDefault: time.Duration(ttlSeconds) * time.Second,
		CacheKeyPrefix:  getEnv("CACHE_KEY_PREFIX", "autoaudit"),
		GraphBaseURL:    getEnv("GRAPH_API_BASE_URL", "https://graph.microsoft.com/v1.0"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogPretty:       boolEnv("LOG_PRETTY", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.CacheTTLDefault <= 0 {
		return fmt.Errorf("cache_ttl_default must be positive (got %v)", c.CacheTTLDefault)
	}
	if c.CacheKeyPrefix == "" {
		return fmt.Errorf("cache_key_prefix is required")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("redis_url is required")
	}
	if c.GraphBaseURL == "" {
		return fmt.Errorf("graph_api_base_url is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func boolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func intEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}
