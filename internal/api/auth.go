package api

import (
	"encoding/json"
	"net/http"
)

type validateTokenRequest struct {
	Token string `json:"token"`
}

// handleValidateToken checks a caller-supplied token against the upstream.
// A rejected token is a 200 with valid=false; only gateway/upstream failures
// produce error statuses.
func (s *Server) handleValidateToken(w http.ResponseWriter, r *http.Request) {
	var req validateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.opts.Auth.ValidateToken(r.Context(), req.Token)
	if err != nil {
		s.logger.Error().Err(err).Msg("Token validation failed upstream")
		writeError(w, http.StatusBadGateway, "upstream unavailable")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
