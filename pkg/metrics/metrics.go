// Package metrics exposes the gateway's Prometheus metrics. The metrics
// themselves are defined in the packages that produce them (cache, graph)
// to avoid circular dependencies; this package documents them and serves
// the scrape endpoint.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the Prometheus registry used by the gateway. All metrics are
// automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler for the /metrics scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - gateway_cache_hits_total (Counter): Responses served from cache
//   - gateway_cache_misses_total (Counter): Lookups that fell through to the upstream pipeline
//   - gateway_cache_errors_total{operation} (Counter): Cache backend errors by operation
//     (get, set, delete, clear, decode)
//
// Upstream Metrics (pkg/graph):
//   - gateway_upstream_requests_total{endpoint, status} (Counter): Upstream requests by endpoint and HTTP status
//   - gateway_upstream_request_duration_seconds{endpoint} (Histogram): Upstream request duration
//   - gateway_upstream_retries_total{error_class} (Counter): Retry attempts by error class
//   - gateway_upstream_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(gateway_cache_hits_total[5m])) /
//   (sum(rate(gateway_cache_hits_total[5m])) + sum(rate(gateway_cache_misses_total[5m])))
//
//   # Cache Backend Error Rate
//   rate(gateway_cache_errors_total[5m])
//
//   # P95 Upstream Latency
//   histogram_quantile(0.95, rate(gateway_upstream_request_duration_seconds_bucket[5m]))
