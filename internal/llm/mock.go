package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockClient is a deterministic Client for tests and for running the
// pipeline without a configured backend. By default it answers every prompt
// with the same well-formed transaction JSON; tests may pin a specific
// reply or error.
type MockClient struct {
	err     error
	model   string
	content string
	calls   int
	mu      sync.Mutex
}

// NewMockClient creates a mock client. An empty model defaults to
// "mock-model".
func NewMockClient(model string) *MockClient {
	if model == "" {
		model = "mock-model"
	}

	canned, _ := json.Marshal(map[string]any{
		"is_transaction":   true,
		"transaction_type": "debit",
		"amount":           "25.00",
		"currency":         "USD",
		"merchant":         "Test Merchant",
		"description":      "Test transaction",
		"confidence_score": 0.85,
	})

	return &MockClient{
		model:   model,
		content: string(canned),
	}
}

// SetResponse pins the content returned by subsequent Generate calls.
func (m *MockClient) SetResponse(content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content = content
}

// SetError makes subsequent Generate calls fail with err.
func (m *MockClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Generate has been invoked.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Generate returns the canned response without any network dependency.
func (m *MockClient) Generate(ctx context.Context, _ string) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if m.err != nil {
		return Response{}, m.err
	}

	return Response{
		Content:    m.content,
		Provider:   "mock",
		Model:      m.model,
		TokensUsed: 100,
		Metadata:   map[string]any{"mock": true},
	}, nil
}
