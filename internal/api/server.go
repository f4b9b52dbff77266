// Package api wires the gateway's HTTP surface: cache introspection, health
// checks, token validation, and the compliance/directory pass-through
// endpoints. Response caching itself is applied outside this package, by
// wrapping the handler returned from Handler.
package api

import (
	"net/http"

	"github.com/autoaudit/compliance-gateway/pkg/auth"
	"github.com/autoaudit/compliance-gateway/pkg/cache"
	"github.com/autoaudit/compliance-gateway/pkg/compliance"
	"github.com/autoaudit/compliance-gateway/pkg/graph"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options holds the collaborators the server routes to. Everything is
// constructed once at startup by the composition root and injected.
type Options struct {
	APIPrefix    string
	Version      string
	CacheEnabled bool

	Store      cache.Store
	Stats      *cache.Stats
	Graph      *graph.Client
	Auth       *auth.Validator
	Compliance *compliance.Service
}

// Server is the gateway's HTTP handler.
type Server struct {
	opts   Options
	mux    *http.ServeMux
	logger zerolog.Logger
}

// New creates the server and registers all routes.
func New(opts Options) *Server {
	s := &Server{
		opts:   opts,
		mux:    http.NewServeMux(),
		logger: log.With().Str("component", "api").Logger(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	prefix := s.opts.APIPrefix

	// Cache introspection
	s.mux.HandleFunc("GET "+prefix+"/cache/status", s.handleCacheStatus)
	s.mux.HandleFunc("POST "+prefix+"/cache/clear", s.handleCacheClear)
	s.mux.HandleFunc("GET "+prefix+"/cache/stats", s.handleCacheStats)

	// Authentication
	s.mux.HandleFunc("POST "+prefix+"/auth/validate-token", s.handleValidateToken)

	// Security compliance
	s.mux.HandleFunc("GET "+prefix+"/compliance/security/mfa-settings", s.handleMFASettings)
	s.mux.HandleFunc("GET "+prefix+"/compliance/security/conditional-access", s.handleConditionalAccess)
	s.mux.HandleFunc("GET "+prefix+"/compliance/security/external-sharing", s.handleExternalSharing)
	s.mux.HandleFunc("GET "+prefix+"/compliance/security/admin-roles", s.handleAdminRoles)
	s.mux.HandleFunc("GET "+prefix+"/compliance/security/report", s.handleComplianceReport)

	// Directory pass-through
	s.mux.HandleFunc("GET "+prefix+"/graph/users", s.handleGraphUsers)
	s.mux.HandleFunc("GET "+prefix+"/graph/me", s.handleGraphMe)

	// Health
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET "+prefix+"/health/cache", s.handleHealthCache)
	s.mux.HandleFunc("GET "+prefix+"/health/upstream", s.handleHealthUpstream)
	s.mux.HandleFunc("GET "+prefix+"/health/overall", s.handleHealthOverall)

	s.mux.HandleFunc("/", s.handleNotFound)
}

// Handler returns the routing handler with request-ID assignment and access
// logging applied.
func (s *Server) Handler() http.Handler {
	return requestID(accessLog(s.logger, s.mux))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}
