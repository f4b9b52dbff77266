// Package graph provides the HTTP client for the upstream directory API
// (Microsoft-Graph-shaped), with retry, error classification and metrics.
// Response caching is not this client's concern: the gateway caches at the
// HTTP layer, in front of the handlers that call this client.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for upstream calls.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_upstream_requests_total",
		Help: "Total upstream requests by endpoint and status",
	}, []string{"endpoint", "status"})

	upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_upstream_request_duration_seconds",
		Help:    "Upstream request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})
)

// User is the subset of the upstream user resource the gateway consumes.
type User struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the upstream API base, e.g. "https://graph.microsoft.com/v1.0".
	BaseURL string

	// Timeout applies per attempt.
	Timeout time.Duration

	// Retry controls backoff behavior for server/throttling/network errors.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
		Retry:   DefaultRetryConfig(),
	}
}

// Client is the upstream directory API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
	logger     zerolog.Logger
}

// New creates a new upstream client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retry:      cfg.Retry,
		logger:     log.With().Str("component", "graph-client").Logger(),
	}, nil
}

// Get performs an authenticated GET against an upstream endpoint and returns
// the raw response body. Server, throttling and network errors are retried
// with backoff; client errors (including 401 for a bad token) return an
// *UpstreamError immediately.
func (c *Client) Get(ctx context.Context, token, endpoint string, query url.Values) ([]byte, error) {
	requestURL := c.baseURL + endpoint
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	start := time.Now()
	defer func() {
		upstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	var body []byte
	err := retryWithBackoff(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			upstreamRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Upstream request failed")
			return &UpstreamError{Class: ErrorClassNetwork, Message: "transport failure", Err: err}
		}
		defer resp.Body.Close()

		upstreamRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			class := classify(resp, nil)
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(class)).
				Msg("Upstream request error")
			return &UpstreamError{
				StatusCode: resp.StatusCode,
				Class:      class,
				Message:    resp.Status,
				RetryAfter: parseRetryAfter(resp.Header),
			}
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return &UpstreamError{Class: ErrorClassNetwork, Message: "read response body", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("bytes", len(body)).
		Msg("Upstream request succeeded")
	return body, nil
}

// GetJSON performs an authenticated GET and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, token, endpoint string, query url.Values, out any) error {
	body, err := c.Get(ctx, token, endpoint, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// Me fetches the profile of the user the token belongs to.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.GetJSON(ctx, token, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers fetches the directory user collection. A positive top limits the
// page size via $top. The payload passes through unmodified.
func (c *Client) ListUsers(ctx context.Context, token string, top int) (json.RawMessage, error) {
	var query url.Values
	if top > 0 {
		query = url.Values{"$top": []string{strconv.Itoa(top)}}
	}
	return c.Get(ctx, token, "/users", query)
}

// Ping reports upstream reachability. Any HTTP response counts as reachable,
// including 401 for the unauthenticated probe.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/organization", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// parseRetryAfter reads the Retry-After header as delay seconds.
func parseRetryAfter(headers http.Header) time.Duration {
	value := headers.Get("Retry-After")
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
