package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/finemail/finemail/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument() model.Document {
	return model.Document{
		ID:      "doc-1",
		UserID:  "user-1",
		Subject: "Transaction Alert",
		Sender:  "alerts@chase.com",
		Body:    "Your card was charged $25.00 at Test Merchant.",
	}
}

func fastRetryConfig() ExtractorConfig {
	return ExtractorConfig{
		Client: Config{
			MaxRetries: 2,
			RetryDelay: time.Millisecond,
		},
	}
}

func TestExtractorExtract(t *testing.T) {
	client := NewMockClient("")
	extractor := NewExtractorWithClient(client, fastRetryConfig(), nil)
	defer extractor.Close()

	result, err := extractor.Extract(context.Background(), testDocument())
	require.NoError(t, err)

	assert.True(t, result.IsTransaction)
	assert.Equal(t, "25.00", result.Amount)
	assert.Equal(t, "Test Merchant", result.Merchant)
	assert.InDelta(t, 0.85, result.ConfidenceScore, 1e-9)

	// Provenance is stamped from the backend reply.
	assert.Equal(t, "mock", result.Provider)
	assert.Equal(t, "mock-model", result.Model)
	assert.Equal(t, 100, result.TokensUsed)
}

func TestExtractorBackendError(t *testing.T) {
	client := NewMockClient("")
	client.SetError(errors.New("backend down"))
	extractor := NewExtractorWithClient(client, fastRetryConfig(), nil)
	defer extractor.Close()

	_, err := extractor.Extract(context.Background(), testDocument())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model generation failed")
	// Retries were attempted before giving up.
	assert.Equal(t, 2, client.Calls())
}

func TestExtractorMalformedReply(t *testing.T) {
	client := NewMockClient("")
	client.SetResponse("I could not parse this email, sorry.")
	extractor := NewExtractorWithClient(client, fastRetryConfig(), nil)
	defer extractor.Close()

	_, err := extractor.Extract(context.Background(), testDocument())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedOutput)
	// Malformed output is not retried; only the generation call is.
	assert.Equal(t, 1, client.Calls())
}

func TestExtractorContextCancelled(t *testing.T) {
	client := NewMockClient("")
	extractor := NewExtractorWithClient(client, fastRetryConfig(), nil)
	defer extractor.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := extractor.Extract(ctx, testDocument())
	require.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	doc := testDocument()

	prompt := BuildPrompt(doc, false)
	assert.Contains(t, prompt, doc.Subject)
	assert.Contains(t, prompt, doc.Sender)
	assert.Contains(t, prompt, doc.Body)
	assert.Contains(t, prompt, `"is_transaction"`)
	assert.NotContains(t, prompt, "EXAMPLES")

	withExamples := BuildPrompt(doc, true)
	assert.Contains(t, withExamples, doc.Body)
	assert.Greater(t, len(withExamples), len(prompt))

	// Deterministic for the same inputs.
	assert.Equal(t, prompt, BuildPrompt(doc, false))
	assert.Equal(t, withExamples, BuildPrompt(doc, true))
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		apiKey   string
		wantErr  bool
	}{
		{name: "mock", provider: "mock"},
		{name: "empty defaults to mock", provider: ""},
		{name: "openai", provider: "openai", apiKey: "test-key"},
		{name: "anthropic", provider: "anthropic", apiKey: "test-key"},
		{name: "openai without key", provider: "openai", wantErr: true},
		{name: "anthropic without key", provider: "anthropic", wantErr: true},
		{name: "unknown provider", provider: "skynet", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(Config{Provider: tt.provider, APIKey: tt.apiKey})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestNewClientProviderCaseInsensitive(t *testing.T) {
	client, err := NewClient(Config{Provider: strings.ToUpper("mock")})
	require.NoError(t, err)
	assert.NotNil(t, client)
}
