package llm

import (
	"context"
	"net/http"
)

type contextKey string

const (
	purposeKey   contextKey = "llm_purpose"
	requestIDKey contextKey = "llm_request_id"

	requestIDHeader = "X-Request-Id"
)

// Purposes label model calls in logs, spans and metrics.
const (
	PurposeSQL     = "sql"
	PurposeChat    = "chat"
	PurposePlot    = "plot"
	PurposeChart   = "chart"
	PurposeNarrate = "narrate"
)

// WithPurpose tags the calls made with ctx.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFromContext returns the purpose tag, or "unknown".
func PurposeFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(purposeKey).(string); ok && p != "" {
		return p
	}
	return "unknown"
}

// WithRequestID attaches an id forwarded to the provider as X-Request-Id,
// so provider-side logs can be correlated with ours.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}

// contextAwareTransport copies the request id from the request context
// into the X-Request-Id header.
type contextAwareTransport struct {
	base http.RoundTripper
}

func (t *contextAwareTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if id, ok := RequestIDFromContext(req.Context()); ok {
		req = req.Clone(req.Context())
		req.Header.Set(requestIDHeader, id)
	}
	return t.base.RoundTrip(req)
}

// newHTTPClient returns the HTTP client shared by provider SDKs.
func newHTTPClient(cfg *Config) *http.Client {
	return &http.Client{
		Transport: &contextAwareTransport{base: http.DefaultTransport},
		Timeout:   cfg.Timeout,
	}
}
