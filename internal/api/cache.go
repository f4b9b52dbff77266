package api

import "net/http"

// handleCacheStatus reports whether caching is enabled and whether the
// backing store answers a ping. A dead store still yields 200; the gateway
// serves misses either way.
func (s *Server) handleCacheStatus(w http.ResponseWriter, r *http.Request) {
	healthy := false
	if err := s.opts.Store.Ping(r.Context()); err == nil {
		healthy = true
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled": s.opts.CacheEnabled,
		"healthy": healthy,
	})
}

// handleCacheClear drops every cached response. Clearing a disabled cache is
// rejected so operators notice the misconfiguration instead of getting a
// silent no-op.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if !s.opts.CacheEnabled {
		writeError(w, http.StatusBadRequest, "caching is disabled")
		return
	}
	if err := s.opts.Store.Clear(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear cache")
		writeError(w, http.StatusInternalServerError, "failed to clear cache")
		return
	}
	s.logger.Info().Msg("Cache cleared")
	writeJSON(w, http.StatusOK, map[string]any{"status": "cleared"})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Stats.Snapshot())
}
