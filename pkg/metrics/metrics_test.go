package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveLLMRequest(t *testing.T) {
	before := testutil.ToFloat64(llmRequestsTotal.WithLabelValues("test-provider", "sql", "ok"))
	tokensBefore := testutil.ToFloat64(llmTokensTotal.WithLabelValues("test-provider", "prompt"))

	ObserveLLMRequest("test-provider", "sql", 20*time.Millisecond, 12, 3, nil)
	ObserveLLMRequest("test-provider", "sql", 20*time.Millisecond, 0, 0, errors.New("boom"))

	if got := testutil.ToFloat64(llmRequestsTotal.WithLabelValues("test-provider", "sql", "ok")); got != before+1 {
		t.Fatalf("ok counter = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(llmRequestsTotal.WithLabelValues("test-provider", "sql", "error")); got < 1 {
		t.Fatalf("error counter = %v", got)
	}
	if got := testutil.ToFloat64(llmTokensTotal.WithLabelValues("test-provider", "prompt")); got != tokensBefore+12 {
		t.Fatalf("prompt tokens = %v, want %v", got, tokensBefore+12)
	}
}

func TestGaugesClampNegative(t *testing.T) {
	SetSessionsActive(-3)
	if got := testutil.ToFloat64(sessionsActive); got != 0 {
		t.Fatalf("sessions gauge = %v", got)
	}
	SetDatasourceConnectionsOpen(2)
	if got := testutil.ToFloat64(datasourceConnectionsOpen); got != 2 {
		t.Fatalf("connections gauge = %v", got)
	}
}

func TestOutcome(t *testing.T) {
	if Outcome(nil) != "ok" || Outcome(errors.New("x")) != "error" {
		t.Fatal("unexpected outcome labels")
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	IncrementInjectionFlag()
	ObserveAsk("database", "ok")

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	for _, name := range []string{"askdb_injection_flags_total", "askdb_asks_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

func TestObserveMCPToolCall(t *testing.T) {
	before := testutil.ToFloat64(mcpToolCallsTotal.WithLabelValues("run_query", "tool_error"))

	ObserveMCPToolCall("run_query", "tool_error", 5*time.Millisecond)

	if got := testutil.ToFloat64(mcpToolCallsTotal.WithLabelValues("run_query", "tool_error")); got != before+1 {
		t.Fatalf("tool call counter = %v, want %v", got, before+1)
	}
}
