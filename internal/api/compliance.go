package api

import (
	"errors"
	"net/http"

	"github.com/autoaudit/compliance-gateway/pkg/graph"
)

// complianceCall adapts one compliance service method into a handler. All
// compliance endpoints share the same shape: bearer token in, JSON out,
// upstream failures mapped to the caller.
func (s *Server) complianceCall(w http.ResponseWriter, r *http.Request, name string, fn func(token string) (any, error)) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	result, err := fn(token)
	if err != nil {
		s.writeUpstreamError(w, name, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeUpstreamError maps upstream failures onto gateway responses. Client
// errors (bad token, missing permissions) are forwarded with their original
// status; everything else is a 502.
func (s *Server) writeUpstreamError(w http.ResponseWriter, name string, err error) {
	var upstreamErr *graph.UpstreamError
	if errors.As(err, &upstreamErr) && upstreamErr.Class == graph.ErrorClassClient {
		writeError(w, upstreamErr.StatusCode, "upstream rejected request: "+name)
		return
	}
	s.logger.Error().Err(err).Str("check", name).Msg("Upstream request failed")
	writeError(w, http.StatusBadGateway, "failed to retrieve "+name)
}

func (s *Server) handleMFASettings(w http.ResponseWriter, r *http.Request) {
	s.complianceCall(w, r, "mfa settings", func(token string) (any, error) {
		return s.opts.Compliance.MFASettings(r.Context(), token)
	})
}

func (s *Server) handleConditionalAccess(w http.ResponseWriter, r *http.Request) {
	s.complianceCall(w, r, "conditional access policies", func(token string) (any, error) {
		return s.opts.Compliance.ConditionalAccessPolicies(r.Context(), token)
	})
}

func (s *Server) handleExternalSharing(w http.ResponseWriter, r *http.Request) {
	s.complianceCall(w, r, "external sharing settings", func(token string) (any, error) {
		return s.opts.Compliance.ExternalSharingSettings(r.Context(), token)
	})
}

func (s *Server) handleAdminRoles(w http.ResponseWriter, r *http.Request) {
	s.complianceCall(w, r, "admin role assignments", func(token string) (any, error) {
		return s.opts.Compliance.AdminRoleAssignments(r.Context(), token)
	})
}

// handleComplianceReport runs all checks and always answers 200; individual
// check failures are reported inside the body.
func (s *Server) handleComplianceReport(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	writeJSON(w, http.StatusOK, s.opts.Compliance.Report(r.Context(), token))
}
