// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdb_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	llmRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_llm_requests_total",
			Help: "Model calls by provider, purpose and outcome.",
		},
		[]string{"provider", "purpose", "outcome"},
	)

	llmRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdb_llm_request_duration_seconds",
			Help:    "Model call latency.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80, 120},
		},
		[]string{"provider", "purpose"},
	)

	llmTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_llm_tokens_total",
			Help: "Tokens consumed by model calls.",
		},
		[]string{"provider", "kind"},
	)

	asksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_asks_total",
			Help: "Questions handled by mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)

	validationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_validation_failures_total",
			Help: "Generated queries rejected before execution, by reason.",
		},
		[]string{"reason"},
	)

	queryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdb_query_duration_seconds",
			Help:    "Query execution latency by datasource and outcome.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"datasource", "outcome"},
	)

	queryRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_query_rows",
			Help:    "Rows materialized per query.",
			Buckets: []float64{0, 1, 10, 100, 1000, 10000, 100000},
		},
	)

	injectionFlagsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdb_injection_flags_total",
			Help: "Questions flagged by the SQL injection screen.",
		},
	)

	plotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_plots_total",
			Help: "Plot generations by format and outcome.",
		},
		[]string{"format", "outcome"},
	)

	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "askdb_sessions_active",
			Help: "Chat sessions currently held in memory.",
		},
	)

	mcpToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_mcp_tool_calls_total",
			Help: "MCP tool calls by tool and outcome.",
		},
		[]string{"tool", "outcome"},
	)

	mcpToolDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdb_mcp_tool_duration_seconds",
			Help:    "MCP tool call latency.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"tool"},
	)

	datasourceConnectionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "askdb_datasource_connections_open",
			Help: "Open datasource connections.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		llmRequestsTotal,
		llmRequestDurationSeconds,
		llmTokensTotal,
		asksTotal,
		validationFailuresTotal,
		queryDurationSeconds,
		queryRows,
		injectionFlagsTotal,
		plotsTotal,
		sessionsActive,
		mcpToolCallsTotal,
		mcpToolDurationSeconds,
		datasourceConnectionsOpen,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Outcome maps an error to the "ok"/"error" label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func ObserveHTTPRequest(method, path, status string, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, path, status).Observe(elapsed.Seconds())
}

func ObserveLLMRequest(provider, purpose string, elapsed time.Duration, promptTokens, completionTokens int, err error) {
	llmRequestsTotal.WithLabelValues(provider, purpose, Outcome(err)).Inc()
	llmRequestDurationSeconds.WithLabelValues(provider, purpose).Observe(elapsed.Seconds())
	if promptTokens > 0 {
		llmTokensTotal.WithLabelValues(provider, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		llmTokensTotal.WithLabelValues(provider, "completion").Add(float64(completionTokens))
	}
}

func ObserveAsk(mode, outcome string) {
	asksTotal.WithLabelValues(mode, outcome).Inc()
}

func IncrementValidationFailure(reason string) {
	validationFailuresTotal.WithLabelValues(reason).Inc()
}

func ObserveQuery(datasource string, elapsed time.Duration, rows int, err error) {
	queryDurationSeconds.WithLabelValues(datasource, Outcome(err)).Observe(elapsed.Seconds())
	if err == nil {
		queryRows.Observe(float64(rows))
	}
}

func IncrementInjectionFlag() {
	injectionFlagsTotal.Inc()
}

func ObservePlot(format string, err error) {
	plotsTotal.WithLabelValues(format, Outcome(err)).Inc()
}

// ObserveMCPToolCall records one tool call. outcome is "ok", "tool_error"
// (reported to the caller in the result) or "error".
func ObserveMCPToolCall(tool, outcome string, elapsed time.Duration) {
	mcpToolCallsTotal.WithLabelValues(tool, outcome).Inc()
	mcpToolDurationSeconds.WithLabelValues(tool).Observe(elapsed.Seconds())
}

func SetSessionsActive(n int) {
	if n < 0 {
		n = 0
	}
	sessionsActive.Set(float64(n))
}

func SetDatasourceConnectionsOpen(n int) {
	if n < 0 {
		n = 0
	}
	datasourceConnectionsOpen.Set(float64(n))
}
