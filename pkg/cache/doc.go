// Package cache provides response caching for the compliance gateway with
// a Redis backend.
//
// The cache intercepts GET responses at the HTTP layer: eligible requests are
// looked up by a key derived from path and query string, and a hit is served
// from a stored snapshot without invoking the downstream pipeline. Misses run
// downstream through a tee writer that captures the response as it streams to
// the client and persists it when the status is 200.
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create store and stats
//	store := cache.NewRedisStore(redisClient, "autoaudit", 5*time.Minute)
//	stats := cache.NewStats()
//
//	// Wrap the request pipeline
//	mw := cache.NewMiddleware(store, stats, cache.MiddlewareConfig{
//		Enabled:    true,
//		DefaultTTL: 5 * time.Minute,
//	})
//	handler := mw.Wrap(apiHandler)
//
// # Failure Tolerance
//
// The cache is strictly an optimization. A Redis failure on lookup degrades
// to a miss and the request is served downstream; a failed write after the
// response has been delivered is logged and dropped. No cache error ever
// changes the functional outcome of a request.
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - gateway_cache_hits_total - Cache hits
//   - gateway_cache_misses_total - Cache misses
//   - gateway_cache_errors_total{operation} - Cache operation errors
//
// Exact hit/miss counts for the introspection endpoint are tracked separately
// by Stats, which is constructed once at startup and injected.
package cache
