package api

import "net/http"

type componentHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// handleHealth is the liveness probe. It never touches dependencies.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  statusHealthy,
		"version": s.opts.Version,
	})
}

func (s *Server) checkCache(r *http.Request) componentHealth {
	c := componentHealth{Name: "cache", Status: statusHealthy}
	if err := s.opts.Store.Ping(r.Context()); err != nil {
		c.Status = statusUnhealthy
		c.Detail = err.Error()
	}
	return c
}

func (s *Server) checkUpstream(r *http.Request) componentHealth {
	c := componentHealth{Name: "upstream", Status: statusHealthy}
	if err := s.opts.Graph.Ping(r.Context()); err != nil {
		c.Status = statusUnhealthy
		c.Detail = err.Error()
	}
	return c
}

func (s *Server) handleHealthCache(w http.ResponseWriter, r *http.Request) {
	c := s.checkCache(r)
	status := http.StatusOK
	if c.Status != statusHealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, c)
}

func (s *Server) handleHealthUpstream(w http.ResponseWriter, r *http.Request) {
	c := s.checkUpstream(r)
	status := http.StatusOK
	if c.Status != statusHealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, c)
}

// handleHealthOverall aggregates component checks. An unhealthy cache does
// not fail the gateway overall because requests degrade to cache misses; an
// unreachable upstream does.
func (s *Server) handleHealthOverall(w http.ResponseWriter, r *http.Request) {
	components := []componentHealth{
		s.checkCache(r),
		s.checkUpstream(r),
	}

	overall := statusHealthy
	httpStatus := http.StatusOK
	for _, c := range components {
		if c.Name == "upstream" && c.Status == statusUnhealthy {
			overall = statusUnhealthy
			httpStatus = http.StatusServiceUnavailable
		}
	}
	if overall == statusHealthy {
		for _, c := range components {
			if c.Status == statusUnhealthy {
				overall = "degraded"
			}
		}
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":     overall,
		"version":    s.opts.Version,
		"components": components,
	})
}
