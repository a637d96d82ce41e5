package httpclient

import (
	"context"
	"net/http"
	"time"

	"cargo-pipeline/internal/core/logger"

	"go.uber.org/zap"
)

const userAgent = "cargo-pipeline"

type requestIDKey struct{}

// WithRequestID returns a context whose outgoing requests carry id in X-Request-ID,
// so collaborator logs can be joined with ours.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// LoggingRoundTripper logs every outgoing call to a collaborator.
type LoggingRoundTripper struct {
	// Proxied is the underlying RoundTripper to execute the request.
	Proxied http.RoundTripper
	logger  *zap.Logger
}

// RoundTrip executes the request and logs details.
func (lrt *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	// RoundTrippers must not modify the caller's request.
	req = req.Clone(req.Context())
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}
	if id, ok := req.Context().Value(requestIDKey{}).(string); ok && id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("host", req.URL.Host),
		zap.String("path", req.URL.Path),
	}

	resp, err := lrt.Proxied.RoundTrip(req)
	fields = append(fields, zap.Duration("duration", time.Since(start)))

	if err != nil {
		lrt.logger.Error("Collaborator request failed", append(fields, zap.Error(err))...)
		return nil, err
	}

	lrt.logger.Debug("Collaborator request completed",
		append(fields, zap.Int("status_code", resp.StatusCode))...,
	)

	return resp, nil
}

// NewClient returns an http.Client with logging middleware.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &LoggingRoundTripper{
			Proxied: http.DefaultTransport,
			logger:  logger.Named("httpclient"),
		},
		Timeout: timeout,
	}
}
