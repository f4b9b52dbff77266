package api

import (
	"net/http"
	"strconv"
)

const defaultUserPageSize = 50

// handleGraphUsers forwards the upstream user listing verbatim.
func (s *Server) handleGraphUsers(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	top := defaultUserPageSize
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "top must be a positive integer")
			return
		}
		top = n
	}

	body, err := s.opts.Graph.ListUsers(r.Context(), token, top)
	if err != nil {
		s.writeUpstreamError(w, "users", err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

// handleGraphMe resolves the caller's own profile.
func (s *Server) handleGraphMe(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	user, err := s.opts.Graph.Me(r.Context(), token)
	if err != nil {
		s.writeUpstreamError(w, "profile", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
