package cache

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Snapshot is the cached unit: the (status, headers, body) triple captured
// from a response, serialized to a single JSON string for storage.
//
// Headers are a flat name->value mapping with the name case preserved as
// received. Repeated header names collapse to last-value-wins; this is an
// accepted simplification of the codec, not something callers should work
// around.
type Snapshot struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// NewSnapshot builds a Snapshot from a captured response.
func NewSnapshot(statusCode int, headers http.Header, body []byte) *Snapshot {
	h := make(map[string]string, len(headers))
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}
		// Last value wins for repeated header names.
		h[name] = values[len(values)-1]
	}
	return &Snapshot{
		StatusCode: statusCode,
		Headers:    h,
		Body:       string(body),
	}
}

// Encode serializes the snapshot to its storable string representation.
func (s *Snapshot) Encode() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(data), nil
}

// DecodeSnapshot parses a stored value back into a Snapshot. A decode failure
// is a recoverable condition: the middleware treats it as a miss, it is never
// surfaced to the request caller.
func DecodeSnapshot(value string) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal([]byte(value), &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if s.StatusCode == 0 {
		return nil, fmt.Errorf("%w: missing status code", ErrInvalidSnapshot)
	}
	return &s, nil
}

// WriteTo replays the snapshot onto a response writer: headers first, then
// status, then body.
func (s *Snapshot) WriteTo(w http.ResponseWriter) error {
	for name, value := range s.Headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(s.StatusCode)
	if _, err := w.Write([]byte(s.Body)); err != nil {
		return fmt.Errorf("write cached response: %w", err)
	}
	return nil
}
