package cache

import (
	"fmt"
	"sync/atomic"
)

// Stats tracks process-lifetime hit/miss counters for the introspection
// endpoint. Counters are atomic: a read may briefly lag concurrent writers,
// but no increment is ever lost. Construct one Stats at startup and inject
// it wherever cache outcomes are recorded.
type Stats struct {
	hits   atomic.Int64
	misses atomic.Int64
}

// StatsSnapshot is a point-in-time view of the counters. HitRate is
// hits/(hits+misses) formatted as a percentage, "0%" before any request has
// been observed.
type StatsSnapshot struct {
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
	HitRate string `json:"hit_rate"`
}

// NewStats creates a zeroed statistics tracker.
func NewStats() *Stats {
	return &Stats{}
}

// RecordHit counts a response served from cache.
func (s *Stats) RecordHit() {
	s.hits.Add(1)
}

// RecordMiss counts a lookup that fell through to the downstream pipeline.
func (s *Stats) RecordMiss() {
	s.misses.Add(1)
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	hits := s.hits.Load()
	misses := s.misses.Load()

	rate := "0%"
	if total := hits + misses; total > 0 {
		rate = fmt.Sprintf("%.2f%%", float64(hits)/float64(total)*100)
	}

	return StatsSnapshot{
		Hits:    hits,
		Misses:  misses,
		HitRate: rate,
	}
}
