// Package testutil provides testing utilities for the compliance gateway.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
)

// MockResponse defines the behavior for a mock upstream endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// MockGraph is a configurable mock directory API server for testing.
type MockGraph struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount int
	LastToken    string
	LastQuery    map[string][]string
}

// NewMockGraph creates a new mock upstream server.
func NewMockGraph() *MockGraph {
	mock := &MockGraph{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastToken = bearerToken(r)
		mock.LastQuery = r.URL.Query()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"ResourceNotFound"}}`))
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockGraph) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockGraph) Close() {
	m.server.Close()
}

// Reset clears all tracking state.
func (m *MockGraph) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastToken = ""
	m.LastQuery = nil
}

// Requests returns the number of requests observed so far.
func (m *MockGraph) Requests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// SetHandler sets a custom handler for a specific path.
func (m *MockGraph) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a static response for a path.
func (m *MockGraph) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		for name, value := range resp.Headers {
			w.Header().Set(name, value)
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		status := resp.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		w.Write([]byte(resp.Body))
	})
}

// RequireToken makes a path return 401 unless the given bearer token is
// presented, then delegates to resp.
func (m *MockGraph) RequireToken(path, token string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if bearerToken(r) != token {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":"InvalidAuthenticationToken"}}`))
			return
		}
		for name, value := range resp.Headers {
			w.Header().Set(name, value)
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		status := resp.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		w.Write([]byte(resp.Body))
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return ""
}
