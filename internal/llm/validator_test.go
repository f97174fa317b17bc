package llm

import (
	"testing"

	"github.com/finemail/finemail/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutput(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
		check   func(t *testing.T, result model.CandidateResult)
	}{
		{
			name: "complete transaction",
			content: `{
				"is_transaction": true,
				"transaction_type": "debit",
				"amount": "125.50",
				"currency": "USD",
				"merchant": "Starbucks",
				"description": "Coffee",
				"transaction_date": "2024-01-15",
				"confidence_score": 0.92,
				"extracted_fields": {"card_last_4": "1234"}
			}`,
			check: func(t *testing.T, result model.CandidateResult) {
				assert.True(t, result.IsTransaction)
				assert.Equal(t, model.TypeDebit, result.TransactionType)
				assert.Equal(t, "125.50", result.Amount)
				assert.Equal(t, "Starbucks", result.Merchant)
				assert.Equal(t, "1234", result.Extracted.CardLast4)
				assert.InDelta(t, 0.92, result.ConfidenceScore, 1e-9)
			},
		},
		{
			name: "non-transaction",
			content: `{
				"is_transaction": false,
				"confidence_score": 0.95
			}`,
			check: func(t *testing.T, result model.CandidateResult) {
				assert.False(t, result.IsTransaction)
				assert.InDelta(t, 0.95, result.ConfidenceScore, 1e-9)
			},
		},
		{
			name:    "not JSON at all",
			content: "Sure! Here is my analysis of the email.",
			wantErr: ErrMalformedOutput,
		},
		{
			name:    "missing is_transaction",
			content: `{"confidence_score": 0.9}`,
			wantErr: ErrMissingField,
		},
		{
			name:    "missing confidence_score",
			content: `{"is_transaction": true}`,
			wantErr: ErrMissingField,
		},
		{
			name:    "non-numeric confidence",
			content: `{"is_transaction": true, "confidence_score": "high"}`,
			wantErr: ErrMalformedOutput,
		},
		{
			name: "fenced json block unwrapped",
			content: "Here you go:\n```json\n{\"is_transaction\": true, \"transaction_type\": \"debit\", " +
				"\"amount\": \"10.00\", \"currency\": \"USD\", \"merchant\": \"Acme\", \"confidence_score\": 0.8}\n```\nHope that helps!",
			check: func(t *testing.T, result model.CandidateResult) {
				assert.True(t, result.IsTransaction)
				assert.Equal(t, "10.00", result.Amount)
				assert.InDelta(t, 0.8, result.ConfidenceScore, 1e-9)
			},
		},
		{
			name: "uppercase transaction type normalized",
			content: `{
				"is_transaction": true,
				"transaction_type": "CREDIT",
				"amount": "5.00",
				"currency": "USD",
				"merchant": "Acme",
				"confidence_score": 0.7
			}`,
			check: func(t *testing.T, result model.CandidateResult) {
				assert.Equal(t, model.TypeCredit, result.TransactionType)
			},
		},
		{
			name: "numeric amount coerced to string",
			content: `{
				"is_transaction": true,
				"transaction_type": "debit",
				"amount": 42.50,
				"currency": "USD",
				"merchant": "Acme",
				"confidence_score": 0.7
			}`,
			check: func(t *testing.T, result model.CandidateResult) {
				assert.Equal(t, "42.50", result.Amount)
			},
		},
		{
			name: "confidence clamped to one",
			content: `{
				"is_transaction": true,
				"transaction_type": "debit",
				"amount": "1.00",
				"currency": "USD",
				"merchant": "Acme",
				"confidence_score": 1.7
			}`,
			check: func(t *testing.T, result model.CandidateResult) {
				assert.InDelta(t, 1.0, result.ConfidenceScore, 1e-9)
			},
		},
		{
			name: "negative confidence clamped to zero",
			content: `{
				"is_transaction": false,
				"confidence_score": -0.3
			}`,
			check: func(t *testing.T, result model.CandidateResult) {
				assert.Zero(t, result.ConfidenceScore)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateOutput(tt.content)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, result)
		})
	}
}

func TestValidateOutputPenalizesInconsistentTransaction(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing amount",
			content: `{"is_transaction": true, "transaction_type": "debit", "currency": "USD", "merchant": "Acme", "confidence_score": 0.9}`,
		},
		{
			name:    "missing type",
			content: `{"is_transaction": true, "amount": "5.00", "currency": "USD", "merchant": "Acme", "confidence_score": 0.9}`,
		},
		{
			name:    "missing merchant",
			content: `{"is_transaction": true, "transaction_type": "debit", "amount": "5.00", "currency": "USD", "confidence_score": 0.9}`,
		},
		{
			name:    "missing currency",
			content: `{"is_transaction": true, "transaction_type": "debit", "amount": "5.00", "merchant": "Acme", "confidence_score": 0.9}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateOutput(tt.content)
			require.NoError(t, err)
			assert.True(t, result.IsTransaction)
			assert.InDelta(t, 0.5, result.ConfidenceScore, 1e-9)
		})
	}
}

func TestValidateOutputDefaultsCurrency(t *testing.T) {
	result, err := ValidateOutput(`{
		"is_transaction": true,
		"transaction_type": "debit",
		"amount": "5.00",
		"merchant": "Acme",
		"confidence_score": 0.9
	}`)
	require.NoError(t, err)
	assert.Equal(t, "USD", result.Currency)
	// The currency was absent on the wire, so the consistency penalty
	// still applies even though a default was filled in.
	assert.InDelta(t, 0.5, result.ConfidenceScore, 1e-9)
}

func TestValidateOutputLowConfidenceNotRaised(t *testing.T) {
	// The penalty is a cap, not a floor.
	result, err := ValidateOutput(`{
		"is_transaction": true,
		"transaction_type": "debit",
		"confidence_score": 0.2
	}`)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, result.ConfidenceScore, 1e-9)
}
