package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/autoaudit/compliance-gateway/internal/testutil"
	"github.com/autoaudit/compliance-gateway/pkg/auth"
	"github.com/autoaudit/compliance-gateway/pkg/cache"
	"github.com/autoaudit/compliance-gateway/pkg/compliance"
	"github.com/autoaudit/compliance-gateway/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory cache.Store with a failure switch.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string]string
	down    bool
	cleared bool
}

var errStoreDown = errors.New("store down")

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]string)}
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return "", errStoreDown
	}
	v, ok := f.entries[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (f *fakeStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errStoreDown
	}
	f.entries[key] = value
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	return nil
}

func (f *fakeStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errStoreDown
	}
	f.entries = make(map[string]string)
	f.cleared = true
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errStoreDown
	}
	return nil
}

type testServer struct {
	server  *Server
	store   *fakeStore
	stats   *cache.Stats
	mock    *testutil.MockGraph
	handler http.Handler
}

func newTestServer(t *testing.T, cacheEnabled bool) *testServer {
	t.Helper()

	mock := testutil.NewMockGraph()
	t.Cleanup(mock.Close)

	client, err := graph.New(graph.Config{
		BaseURL: mock.URL(),
		Timeout: 5 * time.Second,
		Retry: graph.RetryConfig{
			MaxAttempts:       1,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        time.Millisecond,
			BackoffMultiplier: 1,
		},
	})
	require.NoError(t, err)

	store := newFakeStore()
	stats := cache.NewStats()
	server := New(Options{
		APIPrefix:    "/api/v1",
		Version:      "test",
		CacheEnabled: cacheEnabled,
		Store:        store,
		Stats:        stats,
		Graph:        client,
		Auth:         auth.NewValidator(client),
		Compliance:   compliance.NewService(client),
	})

	return &testServer{
		server:  server,
		store:   store,
		stats:   stats,
		mock:    mock,
		handler: server.Handler(),
	}
}

func (ts *testServer) do(method, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func withToken(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestCacheStatus(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do(http.MethodGet, "/api/v1/cache/status", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"enabled": true, "healthy": true}`, rec.Body.String())

	ts.store.down = true
	rec = ts.do(http.MethodGet, "/api/v1/cache/status", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"enabled": true, "healthy": false}`, rec.Body.String())
}

func TestCacheClear(t *testing.T) {
	ts := newTestServer(t, true)
	ts.store.entries["k"] = "v"

	rec := ts.do(http.MethodPost, "/api/v1/cache/clear", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ts.store.cleared)
	assert.Empty(t, ts.store.entries)
}

func TestCacheClear_DisabledRejected(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(http.MethodPost, "/api/v1/cache/clear", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "caching is disabled")
	assert.False(t, ts.store.cleared)
}

func TestCacheClear_StoreFailure(t *testing.T) {
	ts := newTestServer(t, true)
	ts.store.down = true

	rec := ts.do(http.MethodPost, "/api/v1/cache/clear", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCacheStats(t *testing.T) {
	ts := newTestServer(t, true)
	ts.stats.RecordHit()
	ts.stats.RecordMiss()

	rec := ts.do(http.MethodGet, "/api/v1/cache/stats", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"hits": 1, "misses": 1, "hit_rate": "50.00%"}`, rec.Body.String())
}

func TestValidateToken(t *testing.T) {
	ts := newTestServer(t, true)
	ts.mock.RequireToken("/me", "good-token", testutil.MockResponse{
		Body: `{"id": "u-1", "displayName": "Ada Lovelace", "mail": "ada@contoso.com"}`,
	})

	rec := ts.do(http.MethodPost, "/api/v1/auth/validate-token", `{"token": "good-token"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"valid":true`)
	assert.Contains(t, rec.Body.String(), "ada@contoso.com")

	rec = ts.do(http.MethodPost, "/api/v1/auth/validate-token", `{"token": "bad-token"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"valid":false`)
}

func TestValidateToken_BadBody(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do(http.MethodPost, "/api/v1/auth/validate-token", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComplianceEndpoint_RequiresToken(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do(http.MethodGet, "/api/v1/compliance/security/mfa-settings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing bearer token")
}

func TestComplianceEndpoint_Success(t *testing.T) {
	ts := newTestServer(t, true)
	ts.mock.SetResponse("/policies/authenticationMethodsPolicy", testutil.MockResponse{
		Body: `{"authenticationMethodConfigurations": [{"id": "Fido2", "state": "enabled"}]}`,
	})

	rec := ts.do(http.MethodGet, "/api/v1/compliance/security/mfa-settings", "", withToken("tok"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"enabled":true`)
	assert.Contains(t, rec.Body.String(), "Fido2")
}

func TestComplianceEndpoint_ForwardsClientError(t *testing.T) {
	ts := newTestServer(t, true)
	ts.mock.SetResponse("/admin/sharepoint/settings", testutil.MockResponse{
		StatusCode: 403,
		Body:       `{"error": {"code": "Authorization_RequestDenied"}}`,
	})

	rec := ts.do(http.MethodGet, "/api/v1/compliance/security/external-sharing", "", withToken("tok"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestComplianceEndpoint_UpstreamDown(t *testing.T) {
	ts := newTestServer(t, true)
	ts.mock.SetResponse("/directoryRoles", testutil.MockResponse{
		StatusCode: 502,
		Body:       `{"error": "bad gateway"}`,
	})

	rec := ts.do(http.MethodGet, "/api/v1/compliance/security/admin-roles", "", withToken("tok"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestComplianceReport(t *testing.T) {
	ts := newTestServer(t, true)
	ts.mock.SetResponse("/policies/authenticationMethodsPolicy", testutil.MockResponse{Body: `{}`})
	ts.mock.SetResponse("/identity/conditionalAccess/policies", testutil.MockResponse{Body: `{"value": []}`})
	ts.mock.SetResponse("/admin/sharepoint/settings", testutil.MockResponse{Body: `{"sharingCapability": "disabled"}`})
	ts.mock.SetResponse("/directoryRoles", testutil.MockResponse{
		StatusCode: 500,
		Body:       `{"error": "boom"}`,
	})

	rec := ts.do(http.MethodGet, "/api/v1/compliance/security/report", "", withToken("tok"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin_roles")
	assert.Contains(t, rec.Body.String(), "errors")
}

func TestGraphUsers(t *testing.T) {
	ts := newTestServer(t, true)
	ts.mock.SetResponse("/users", testutil.MockResponse{
		Body: `{"value": [{"id": "u-1", "displayName": "Ada Lovelace"}]}`,
	})

	rec := ts.do(http.MethodGet, "/api/v1/graph/users?top=10", "", withToken("tok"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ada Lovelace")
	assert.Equal(t, []string{"10"}, ts.mock.LastQuery["$top"])
}

func TestGraphUsers_InvalidTop(t *testing.T) {
	ts := newTestServer(t, true)

	for _, top := range []string{"abc", "0", "-5"} {
		rec := ts.do(http.MethodGet, "/api/v1/graph/users?top="+top, "", withToken("tok"))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "top=%s", top)
	}
}

func TestGraphMe(t *testing.T) {
	ts := newTestServer(t, true)
	ts.mock.SetResponse("/me", testutil.MockResponse{
		Body: `{"id": "u-1", "displayName": "Ada Lovelace", "mail": "ada@contoso.com"}`,
	})

	rec := ts.do(http.MethodGet, "/api/v1/graph/me", "", withToken("tok"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"u-1"`)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "healthy", "version": "test"}`, rec.Body.String())
}

func TestHealthCache_Unhealthy(t *testing.T) {
	ts := newTestServer(t, true)
	ts.store.down = true

	rec := ts.do(http.MethodGet, "/api/v1/health/cache", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unhealthy")
}

func TestHealthOverall_DegradedOnCacheFailure(t *testing.T) {
	ts := newTestServer(t, true)
	ts.mock.SetResponse("/organization", testutil.MockResponse{Body: `{"value": []}`})
	ts.store.down = true

	rec := ts.do(http.MethodGet, "/api/v1/health/overall", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}

func TestHealthOverall_UnhealthyOnUpstreamFailure(t *testing.T) {
	ts := newTestServer(t, true)
	ts.mock.Close()

	rec := ts.do(http.MethodGet, "/api/v1/health/overall", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unhealthy"`)
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do(http.MethodGet, "/health", "", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = ts.do(http.MethodGet, "/health", "", map[string]string{"X-Request-ID": "fixed-id"})
	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-ID"))
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found")
}
