package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cargo-pipeline/internal/core/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoggingRoundTripper verifies headers are stamped on outgoing requests.
func TestLoggingRoundTripper(t *testing.T) {
	var gotAgent, gotID string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		gotID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	require.NoError(t, logger.Init("development", "debug"))

	client := NewClient(1 * time.Second)
	req, err := http.NewRequestWithContext(WithRequestID(context.Background(), "ray-1"), http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, userAgent, gotAgent)
	assert.Equal(t, "ray-1", gotID)
	assert.Empty(t, req.Header.Get("X-Request-ID"), "caller request must not be mutated")
}

// TestLoggingRoundTripper_Error verifies that failed requests are surfaced.
func TestLoggingRoundTripper_Error(t *testing.T) {
	require.NoError(t, logger.Init("development", "debug"))

	client := NewClient(1 * time.Second)
	_, err := client.Get("http://invalid-url-that-does-not-exist.local")
	require.Error(t, err)
}
