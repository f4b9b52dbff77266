package cache

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// MiddlewareConfig holds the middleware configuration.
type MiddlewareConfig struct {
	// Enabled is the global cache switch. When false every request bypasses
	// the cache entirely.
	Enabled bool

	// DefaultTTL is the expiration applied to stored snapshots.
	DefaultTTL time.Duration

	// Logger receives cache events (hits, misses, backend failures).
	Logger zerolog.Logger
}

// Middleware intercepts GET responses and serves repeated requests from the
// store. It is the only component allowed to convert a store failure into a
// safe miss: the request path is never blocked by cache-backend failure.
type Middleware struct {
	store   Store
	stats   *Stats
	enabled bool
	ttl     time.Duration
	logger  zerolog.Logger
}

// NewMiddleware creates a cache middleware over the given store and stats
// tracker.
func NewMiddleware(store Store, stats *Stats, cfg MiddlewareConfig) *Middleware {
	if store == nil {
		panic("cache store cannot be nil")
	}
	if stats == nil {
		panic("cache stats cannot be nil")
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 5 * time.Minute
	}
	return &Middleware{
		store:   store,
		stats:   stats,
		enabled: cfg.Enabled,
		ttl:     cfg.DefaultTTL,
		logger:  cfg.Logger,
	}
}

// Wrap decorates the downstream pipeline with lookup-or-capture behavior.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only successful GET responses are ever cached; everything else
		// flows straight through.
		if !m.enabled || r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		key := RequestKey(r.URL.Path, r.URL.RawQuery)

		value, err := m.store.Get(r.Context(), key)
		switch {
		case err == nil:
			snapshot, decodeErr := DecodeSnapshot(value)
			if decodeErr == nil {
				m.serveHit(w, key, snapshot)
				return
			}
			// Malformed stored value: discard and refresh from downstream.
			// The fresh response overwrites the bad entry under the same key.
			CacheErrors.WithLabelValues("decode").Inc()
			m.logger.Warn().
				Err(decodeErr).
				Str("key", key).
				Msg("Discarding undecodable cache entry")
		case err != ErrCacheMiss:
			// Backend failure degrades to a miss; the request must still be
			// served downstream.
			m.logger.Warn().
				Err(err).
				Str("key", key).
				Msg("Cache lookup failed, serving from downstream")
		}

		m.stats.RecordMiss()
		CacheMisses.Inc()
		m.logger.Debug().Str("key", key).Msg("Cache miss")

		tee := newTeeWriter(w)
		next.ServeHTTP(tee, r)
		m.persist(r.Context(), key, tee)
	})
}

// serveHit replays a decoded snapshot to the caller. The downstream pipeline
// is never invoked for a hit.
func (m *Middleware) serveHit(w http.ResponseWriter, key string, snapshot *Snapshot) {
	m.stats.RecordHit()
	CacheHits.Inc()
	m.logger.Debug().
		Str("key", key).
		Int("status", snapshot.StatusCode).
		Msg("Cache hit")

	if err := snapshot.WriteTo(w); err != nil {
		m.logger.Warn().Err(err).Str("key", key).Msg("Failed to replay cached response")
	}
}

// persist stores the captured response when it is eligible. A failed write
// never surfaces as a request failure: the response has already been
// delivered.
func (m *Middleware) persist(ctx context.Context, key string, tee *teeWriter) {
	if tee.Status() != http.StatusOK {
		return
	}

	snapshot := NewSnapshot(tee.Status(), tee.Header(), tee.Body())
	value, err := snapshot.Encode()
	if err != nil {
		m.logger.Warn().Err(err).Str("key", key).Msg("Failed to encode snapshot")
		return
	}

	// The write is a side effect, not part of the response contract. It may
	// complete even if the client has gone away.
	if err := m.store.Set(context.WithoutCancel(ctx), key, value, m.ttl); err != nil {
		m.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache response")
		return
	}

	m.logger.Debug().
		Str("key", key).
		Dur("ttl", m.ttl).
		Msg("Cached response")
}

// teeWriter forwards every signal to the original ResponseWriter unmodified
// and in order, while accumulating a private copy of status and body. It
// never buffers ahead of the client: each chunk is forwarded as it is
// produced.
type teeWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func newTeeWriter(w http.ResponseWriter) *teeWriter {
	return &teeWriter{ResponseWriter: w, status: http.StatusOK}
}

func (t *teeWriter) WriteHeader(statusCode int) {
	if !t.wroteHeader {
		t.status = statusCode
		t.wroteHeader = true
	}
	t.ResponseWriter.WriteHeader(statusCode)
}

func (t *teeWriter) Write(p []byte) (int, error) {
	if !t.wroteHeader {
		t.wroteHeader = true
	}
	t.body.Write(p)
	return t.ResponseWriter.Write(p)
}

// Flush preserves streaming behavior when the underlying writer supports it.
func (t *teeWriter) Flush() {
	if f, ok := t.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Status returns the captured status code, defaulting to 200 when the
// downstream handler never called WriteHeader.
func (t *teeWriter) Status() int {
	return t.status
}

// Body returns the accumulated response body.
func (t *teeWriter) Body() []byte {
	return t.body.Bytes()
}
