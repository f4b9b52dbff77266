package graph

import (
	"errors"
	"net/http"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		status int
		err    error
		want   ErrorClass
	}{
		{name: "network error", err: errors.New("dial tcp: refused"), want: ErrorClassNetwork},
		{name: "throttled", status: 429, want: ErrorClassRateLimit},
		{name: "unauthorized", status: 401, want: ErrorClassClient},
		{name: "not found", status: 404, want: ErrorClassClient},
		{name: "server error", status: 500, want: ErrorClassServer},
		{name: "bad gateway", status: 502, want: ErrorClassServer},
		{name: "success", status: 200, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp *http.Response
			if tt.err == nil {
				resp = &http.Response{StatusCode: tt.status}
			}
			if got := classify(resp, tt.err); got != tt.want {
				t.Errorf("classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	if shouldRetry(ErrorClassClient) {
		t.Error("client errors must not be retried")
	}
	for _, class := range []ErrorClass{ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork} {
		if !shouldRetry(class) {
			t.Errorf("%s errors should be retried", class)
		}
	}
}

func TestUpstreamError_Error(t *testing.T) {
	err := &UpstreamError{StatusCode: 502, Class: ErrorClassServer, Message: "502 Bad Gateway"}
	want := "upstream server error (status 502): 502 Bad Gateway"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := &UpstreamError{Class: ErrorClassNetwork, Message: "transport failure", Err: errors.New("timeout")}
	if !errors.Is(wrapped, wrapped.Err) {
		t.Error("Unwrap should expose the underlying error")
	}
}
