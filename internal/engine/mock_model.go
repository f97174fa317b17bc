package engine

import (
	"context"
	"sync"

	"github.com/finemail/finemail/internal/model"
)

// MockModelExtractor is a test implementation of the ModelExtractor
// interface with scriptable per-document results.
type MockModelExtractor struct {
	results map[string]model.CandidateResult
	errs    map[string]error
	def     model.CandidateResult
	defErr  error
	calls   []string
	mu      sync.Mutex
}

// NewMockModelExtractor creates a mock whose default answer is a confident
// debit transaction.
func NewMockModelExtractor() *MockModelExtractor {
	return &MockModelExtractor{
		results: make(map[string]model.CandidateResult),
		errs:    make(map[string]error),
		def: model.CandidateResult{
			IsTransaction:   true,
			TransactionType: model.TypeDebit,
			Amount:          "25.00",
			Currency:        "USD",
			Merchant:        "Test Merchant",
			Description:     "Test transaction",
			ConfidenceScore: 0.85,
			Provider:        "mock",
			Model:           "mock-model",
			TokensUsed:      100,
		},
	}
}

// SetDefault sets the answer for documents without a scripted result.
func (m *MockModelExtractor) SetDefault(result model.CandidateResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.def = result
}

// SetDefaultError makes every unscripted extraction fail with err.
func (m *MockModelExtractor) SetDefaultError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defErr = err
}

// SetResult scripts the answer for one document ID.
func (m *MockModelExtractor) SetResult(docID string, result model.CandidateResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[docID] = result
}

// SetError scripts a failure for one document ID.
func (m *MockModelExtractor) SetError(docID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[docID] = err
}

// Calls returns the IDs of extracted documents, in order.
func (m *MockModelExtractor) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Extract returns the scripted result for the document.
func (m *MockModelExtractor) Extract(_ context.Context, doc model.Document) (model.CandidateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, doc.ID)

	if err, ok := m.errs[doc.ID]; ok {
		return model.CandidateResult{}, err
	}
	if result, ok := m.results[doc.ID]; ok {
		return result, nil
	}
	if m.defErr != nil {
		return model.CandidateResult{}, m.defErr
	}
	return m.def, nil
}
