package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-askdb/pkg/llm"
	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
	"github.com/ekaya-inc/ekaya-askdb/pkg/services"
	"github.com/ekaya-inc/ekaya-askdb/pkg/testhelpers"
)

func TestAskHandler_EmployeesEndToEnd(t *testing.T) {
	f := newAPIFixture(t, llm.NewMockLLMClient("```sql\nSELECT * FROM employees WHERE hire_date > '2020-01-01'\n```"))

	rec := f.do(t, http.MethodPost, "/api/ask", AskRequest{Question: "Which employees were hired after 2020?"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result services.AskResult
	resp := decodeResponse(t, rec, &result)
	assert.True(t, resp.Success)
	assert.Equal(t, models.AskModeDatabase, result.Mode)
	assert.Equal(t, "test", result.Datasource)
	require.NotNil(t, result.Result)

	var names []string
	for _, row := range result.Result.RowMaps() {
		names = append(names, row["name"].(string))
	}
	assert.ElementsMatch(t, testhelpers.EmployeesHiredAfter2020, names)

	cookie := sessionCookie(t, rec)
	sess, ok := f.sessions.Get(result.SessionID)
	require.True(t, ok)
	require.Len(t, sess.History(), 1)

	// The session page shows the turn.
	rec = f.do(t, http.MethodGet, "/api/session", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var info services.SessionInfo
	decodeResponse(t, rec, &info)
	assert.Equal(t, result.SessionID, info.ID)
	assert.Equal(t, result.SQL, info.LastSQL)
	require.Len(t, info.History, 1)
	assert.Equal(t, "Which employees were hired after 2020?", info.History[0].Question)
}

func TestAskHandler_CookieContinuesSession(t *testing.T) {
	f := newAPIFixture(t, llm.NewMockLLMClient("Hello!", "Still here."))

	rec := f.do(t, http.MethodPost, "/api/ask", AskRequest{Question: "hi", Mode: "chat"})
	require.Equal(t, http.StatusOK, rec.Code)
	var first services.AskResult
	decodeResponse(t, rec, &first)
	assert.Equal(t, "Hello!", first.Reply)

	rec = f.do(t, http.MethodPost, "/api/ask", AskRequest{Question: "are you there?", Mode: "chat"}, sessionCookie(t, rec))
	require.Equal(t, http.StatusOK, rec.Code)
	var second services.AskResult
	decodeResponse(t, rec, &second)

	assert.Equal(t, first.SessionID, second.SessionID)
	sess, ok := f.sessions.Get(first.SessionID)
	require.True(t, ok)
	assert.Len(t, sess.History(), 2)
	assert.Equal(t, 1, f.sessions.Count())
}

func TestAskHandler_ValidationFailure(t *testing.T) {
	f := newAPIFixture(t, llm.NewMockLLMClient("SELECT order_id, customer, amount FROM orders"))

	rec := f.do(t, http.MethodPost, "/api/ask", AskRequest{Question: "list orders"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var partial services.AskResult
	resp := decodeResponse(t, rec, &partial)
	assert.False(t, resp.Success)
	assert.Equal(t, "validation_failed", resp.Error)
	assert.Contains(t, resp.Message, "order_date")
	assert.Equal(t, "SELECT order_id, customer, amount FROM orders", partial.SQL)
	assert.Nil(t, partial.Result)

	// The failed turn is still recorded in the caller's session.
	cookie := sessionCookie(t, rec)
	rec = f.do(t, http.MethodGet, "/api/session", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var info services.SessionInfo
	decodeResponse(t, rec, &info)
	require.Len(t, info.History, 1)
	assert.NotEmpty(t, info.History[0].Error)
}

// Substring validation wants every column of a mentioned table in the text,
// so an explicit projection of two employees columns is refused.
func TestAskHandler_ExplicitColumnsRejectedBySubstringCheck(t *testing.T) {
	f := newAPIFixture(t, llm.NewMockLLMClient("SELECT name, hire_date FROM employees WHERE hire_date > '2020-01-01'"))

	rec := f.do(t, http.MethodPost, "/api/ask", AskRequest{Question: "Which employees were hired after 2020?"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	var partial services.AskResult
	resp := decodeResponse(t, rec, &partial)
	assert.Equal(t, "validation_failed", resp.Error)
	assert.Nil(t, partial.Result)
	require.NotNil(t, partial.Validation)
	assert.False(t, partial.Validation.Valid)

	var missing []string
	for _, m := range partial.Validation.Missing {
		assert.Equal(t, "employees", m.Table)
		missing = append(missing, m.Column)
	}
	assert.ElementsMatch(t, []string{"id", "department", "salary"}, missing)
}

func TestAskHandler_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"empty body", ""},
		{"malformed json", "{"},
		{"missing question", AskRequest{}},
		{"unknown mode", AskRequest{Question: "hi", Mode: "poem"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t, llm.NewMockLLMClient())

			rec := f.do(t, http.MethodPost, "/api/ask", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			resp := decodeResponse(t, rec, nil)
			assert.Equal(t, "invalid_request", resp.Error)
			assert.Equal(t, 0, f.mock.Calls())
		})
	}
}

func TestAskHandler_ModelDisabled(t *testing.T) {
	f := newAPIFixture(t, &llm.DisabledClient{Reason: "no api key"})

	rec := f.do(t, http.MethodPost, "/api/ask", AskRequest{Question: "how many employees?"})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	resp := decodeResponse(t, rec, nil)
	assert.Equal(t, "service_unavailable", resp.Error)
}

func TestAskHandler_ModelError(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temperature float64) (*llm.GenerateResponseResult, error) {
		return nil, llm.NewError(llm.ErrorTypeEndpoint, "connection refused", true, nil)
	}
	f := newAPIFixture(t, mock)

	rec := f.do(t, http.MethodPost, "/api/ask", AskRequest{Question: "hi", Mode: "chat"})
	require.Equal(t, http.StatusBadGateway, rec.Code)

	resp := decodeResponse(t, rec, nil)
	assert.Equal(t, "llm_endpoint", resp.Error)
}
