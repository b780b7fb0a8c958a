package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *Error
		want    []string
		notWant []string
	}{
		{
			name: "minimal",
			err:  &Error{Type: ErrorTypeAuth, Message: "authentication failed"},
			want: []string{"auth authentication failed"},
		},
		{
			name: "status and model",
			err:  &Error{Type: ErrorTypeEndpoint, Message: "server error", StatusCode: 503, Model: "gpt-4o"},
			want: []string{"endpoint", "HTTP 503", "model=gpt-4o", "server error"},
		},
		{
			name:    "endpoint keeps only the host",
			err:     &Error{Type: ErrorTypeEndpoint, Message: "connection failed", Endpoint: "https://gateway.example.com/deployments/sk-live-123"},
			want:    []string{"endpoint=gateway.example.com"},
			notWant: []string{"deployments", "sk-live-123"},
		},
		{
			name:    "unparseable endpoint is redacted",
			err:     &Error{Type: ErrorTypeEndpoint, Message: "connection failed", Endpoint: "not a url"},
			want:    []string{"endpoint=redacted"},
			notWant: []string{"not a url"},
		},
		{
			name: "cause is appended",
			err:  &Error{Type: ErrorTypeEndpoint, Message: "connection failed", Cause: errors.New("dial tcp 10.0.0.5:443")},
			want: []string{"connection failed: dial tcp 10.0.0.5:443"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			for _, s := range tt.want {
				if !strings.Contains(got, s) {
					t.Errorf("expected %q in %q", s, got)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(got, s) {
					t.Errorf("did not expect %q in %q", s, got)
				}
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		input      error
		wantType   ErrorType
		wantMsg    string
		retryable  bool
		wantStatus int
	}{
		{"unauthorized status", errors.New("HTTP 401 Unauthorized"), ErrorTypeAuth, "authentication failed", false, 401},
		{"forbidden status", errors.New("status: 403"), ErrorTypeAuth, "authentication failed", false, 403},
		{"bad key", errors.New("invalid api key provided"), ErrorTypeAuth, "authentication failed", false, 0},
		{"unknown model", errors.New("model gpt-9 does not exist"), ErrorTypeModel, "model not found", false, 0},
		{"missing path", errors.New("HTTP 404 page not found"), ErrorTypeEndpoint, "endpoint not found", false, 404},
		{"rate limited status", errors.New("HTTP 429 Too Many Requests"), ErrorTypeRateLimited, "rate limited", true, 429},
		{"rate limited text", errors.New("rate limit exceeded for org"), ErrorTypeRateLimited, "rate limited", true, 0},
		{"refused", errors.New("dial tcp 127.0.0.1:11434: connection refused"), ErrorTypeEndpoint, "connection failed", true, 0},
		{"dns", errors.New("dial tcp: lookup llm.internal: no such host"), ErrorTypeEndpoint, "connection failed", true, 0},
		{"cancelled", context.Canceled, ErrorTypeCancelled, "request cancelled", false, 0},
		{"deadline", context.DeadlineExceeded, ErrorTypeEndpoint, "request timeout", true, 0},
		{"gpu", errors.New("CUDA error: out of memory"), ErrorTypeEndpoint, "GPU error", true, 0},
		{"bad gateway", errors.New("HTTP 502 Bad Gateway"), ErrorTypeEndpoint, "server error", true, 502},
		{"anything else", errors.New("unexpected token in reply"), ErrorTypeUnknown, "llm error", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.input)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantMsg, got.Message)
			assert.Equal(t, tt.retryable, got.Retryable)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
			assert.ErrorIs(t, got, tt.input)
		})
	}
}

func TestClassifyError_Nil(t *testing.T) {
	assert.Nil(t, ClassifyError(nil))
}

func TestClassifyError_KeepsExistingError(t *testing.T) {
	original := NewErrorWithContext(ErrorTypeModel, "model not found", false, nil, "llama3", "http://localhost:11434/v1", 404)

	assert.Same(t, original, ClassifyError(original))
	assert.Same(t, original, ClassifyError(fmt.Errorf("generate sql: %w", original)))
}

func TestExtractStatusCode(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"HTTP 503 Service Unavailable", 503},
		{"http 503 error", 503},
		{"status 429 rate limited", 429},
		{"Status: 404 Not Found", 404},
		{"code: 504 timeout", 504},
		{"processed 503 rows", 0},
		{"port 5432 connection failed", 0},
		{"retry after 429 seconds", 0},
		{"status 999", 0},
	}

	for _, tt := range tests {
		if got := extractStatusCode(tt.input); got != tt.want {
			t.Errorf("extractStatusCode(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestIsRetryableAndGetErrorType(t *testing.T) {
	retryable := NewError(ErrorTypeRateLimited, "rate limited", true, nil)
	wrapped := fmt.Errorf("ask: %w", retryable)

	assert.True(t, IsRetryable(wrapped))
	assert.True(t, retryable.IsRetryable())
	assert.Equal(t, ErrorTypeRateLimited, GetErrorType(wrapped))

	plain := errors.New("plain")
	assert.False(t, IsRetryable(plain))
	assert.Equal(t, ErrorTypeUnknown, GetErrorType(plain))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := NewError(ErrorTypeEndpoint, "connection failed", true, cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}
