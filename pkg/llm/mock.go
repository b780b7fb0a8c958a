package llm

import (
	"context"
	"sync"
)

// MockLLMClient is a configurable mock for testing LLM functionality.
// GenerateResponseFunc wins when set; otherwise queued Responses are
// returned in order, and an empty result once the queue is drained.
type MockLLMClient struct {
	GenerateResponseFunc func(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error)

	// Responses are returned one per call.
	Responses []string

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Endpoint is returned by GetEndpoint. Defaults to "http://mock-endpoint".
	Endpoint string

	mu                    sync.Mutex
	generateResponseCalls int
	prompts               []string
	systemMessages        []string
}

// NewMockLLMClient creates a mock that replies with responses in order.
func NewMockLLMClient(responses ...string) *MockLLMClient {
	return &MockLLMClient{
		Responses: responses,
		Model:     "mock-model",
		Endpoint:  "http://mock-endpoint",
	}
}

func (m *MockLLMClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
	m.mu.Lock()
	m.generateResponseCalls++
	m.prompts = append(m.prompts, prompt)
	m.systemMessages = append(m.systemMessages, systemMessage)
	fn := m.GenerateResponseFunc
	var next string
	queued := false
	if fn == nil && len(m.Responses) > 0 {
		next, m.Responses = m.Responses[0], m.Responses[1:]
		queued = true
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt, systemMessage, temperature)
	}
	if queued {
		return &GenerateResponseResult{Content: next, PromptTokens: len(prompt) / 4, CompletionTokens: len(next) / 4}, nil
	}
	return &GenerateResponseResult{}, nil
}

func (m *MockLLMClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

func (m *MockLLMClient) GetEndpoint() string {
	if m.Endpoint == "" {
		return "http://mock-endpoint"
	}
	return m.Endpoint
}

// Calls returns how many times GenerateResponse ran.
func (m *MockLLMClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generateResponseCalls
}

// Prompts returns the prompts received, in order.
func (m *MockLLMClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// SystemMessages returns the system messages received, in order.
func (m *MockLLMClient) SystemMessages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.systemMessages...)
}

// Reset clears call tracking.
func (m *MockLLMClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateResponseCalls = 0
	m.prompts = nil
	m.systemMessages = nil
}

var _ LLMClient = (*MockLLMClient)(nil)
