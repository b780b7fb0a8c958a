package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Tracing wraps h so every request starts a server span. Spans go to the
// global tracer provider, which is a no-op unless telemetry was initialised.
// Health and metrics probes are not traced.
func Tracing(h http.Handler, service string) http.Handler {
	return otelhttp.NewHandler(h, service,
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
		otelhttp.WithFilter(func(r *http.Request) bool {
			switch r.URL.Path {
			case "/health", "/ping", "/metrics":
				return false
			}
			return true
		}),
	)
}
