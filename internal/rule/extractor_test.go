package rule

import (
	"strings"
	"testing"

	"github.com/finemail/finemail/internal/model"
	"github.com/finemail/finemail/internal/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor(t *testing.T, opts ...Option) *Extractor {
	t.Helper()
	return NewExtractor(pattern.NewLibrary(), opts...)
}

func TestExtractBankAlert(t *testing.T) {
	extractor := newTestExtractor(t)

	doc := model.Document{
		ID:      "doc-1",
		Subject: "Transaction Alert",
		Sender:  "alerts@chase.com",
		Body:    "Your card ending in 1234 was charged $125.50 at STARBUCKS STORE 123 on 01/15/2024.",
	}

	result := extractor.Extract(doc)

	require.True(t, result.IsTransaction)
	assert.Equal(t, "125.50", result.Amount)
	assert.Equal(t, "USD", result.Currency)
	assert.Equal(t, model.TypeDebit, result.TransactionType)
	assert.Equal(t, "01/15/2024", result.TransactionDate)
	assert.Equal(t, "1234", result.Extracted.CardLast4)
	assert.NotEmpty(t, result.Merchant)
	assert.InDelta(t, 0.7, result.ConfidenceScore, 1e-9)
}

func TestExtractNewsletter(t *testing.T) {
	extractor := newTestExtractor(t)

	doc := model.Document{
		ID:      "doc-2",
		Subject: "Our weekly newsletter",
		Sender:  "news@example.com",
		Body:    "Deals up to $500 off! Click here to unsubscribe.",
	}

	result := extractor.Extract(doc)

	assert.False(t, result.IsTransaction)
	assert.Zero(t, result.ConfidenceScore)
	assert.Equal(t, "USD", result.Currency)
	assert.Empty(t, result.Amount)
}

func TestExtractGate(t *testing.T) {
	extractor := newTestExtractor(t)

	tests := []struct {
		name    string
		subject string
		sender  string
		body    string
		want    bool
	}{
		{
			name:   "amount plus debit keyword",
			sender: "billing@acme.example",
			body:   "You paid $10.00 for your order.",
			want:   true,
		},
		{
			name:   "amount plus financial sender only",
			sender: "service@paypal.com",
			body:   "You sent $20.00 to a friend.",
			want:   true,
		},
		{
			name:   "amount without keyword or financial sender",
			sender: "bob@example.com",
			body:   "The repair estimate is $300.00, let me know.",
			want:   false,
		},
		{
			name:   "keyword without amount",
			sender: "billing@acme.example",
			body:   "Your payment method needs updating.",
			want:   false,
		},
		{
			name:   "veto keyword wins over everything",
			sender: "service@paypal.com",
			body:   "You were charged $15.00. Reply to this survey for a reward.",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := model.Document{Subject: tt.subject, Sender: tt.sender, Body: tt.body}
			result := extractor.Extract(doc)
			assert.Equal(t, tt.want, result.IsTransaction)
		})
	}
}

func TestExtractAmountNormalization(t *testing.T) {
	extractor := newTestExtractor(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "two decimals kept",
			body: "charged $12.34",
			want: "12.34",
		},
		{
			name: "whole dollars padded",
			body: "charged $45",
			want: "45.00",
		},
		{
			name: "thousands separator stripped",
			body: "charged $1,234.56",
			want: "1234.56",
		},
		{
			name: "amount at the sanity ceiling rejected",
			body: "charged $1,000,000.00",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := model.Document{Sender: "alerts@chase.com", Body: tt.body}
			result := extractor.Extract(doc)
			assert.Equal(t, tt.want, result.Amount)
		})
	}
}

func TestExtractType(t *testing.T) {
	extractor := newTestExtractor(t)

	tests := []struct {
		name string
		body string
		want model.TransactionType
	}{
		{
			name: "debit keyword",
			body: "You were charged $10.00",
			want: model.TypeDebit,
		},
		{
			name: "credit keyword",
			body: "A refund of $10.00 was issued",
			want: model.TypeCredit,
		},
		{
			name: "credit wins when both appear",
			body: "Your purchase of $10.00 was refunded as a credit",
			want: model.TypeCredit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := model.Document{Sender: "alerts@chase.com", Body: tt.body}
			result := extractor.Extract(doc)
			require.True(t, result.IsTransaction)
			assert.Equal(t, tt.want, result.TransactionType)
		})
	}
}

func TestExtractMerchantFallsBackToSenderDomain(t *testing.T) {
	extractor := newTestExtractor(t)

	doc := model.Document{
		Sender: "receipts@stripe.com",
		Body:   "charged $9.99",
	}

	result := extractor.Extract(doc)
	require.True(t, result.IsTransaction)
	assert.Equal(t, "Stripe", result.Merchant)
	assert.Equal(t, "Transaction at Stripe", result.Description)
}

func TestExtractConfidenceNeverExceedsCap(t *testing.T) {
	extractor := newTestExtractor(t)

	// Every field present: amount, merchant, type, date.
	doc := model.Document{
		Sender: "alerts@chase.com",
		Body:   "Purchase at Starbucks Coffee for $5.75 on 01/15/2024 with card ending in 1234.",
	}

	result := extractor.Extract(doc)
	require.True(t, result.IsTransaction)
	assert.LessOrEqual(t, result.ConfidenceScore, 0.7)
	assert.InDelta(t, 0.7, result.ConfidenceScore, 1e-9)
}

func TestExtractPartialFieldsLowerConfidence(t *testing.T) {
	extractor := newTestExtractor(t)

	// Amount and type only, no merchant patterns and a short sender domain
	// that cannot back the fallback.
	doc := model.Document{
		Sender: "a@io.io",
		Body:   "payment of $10.00 received... just kidding, charged $10.00",
	}

	result := extractor.Extract(doc)
	if result.IsTransaction {
		assert.Less(t, result.ConfidenceScore, 0.7)
	}
}

func TestExtractTruncatesOversizedText(t *testing.T) {
	extractor := newTestExtractor(t, WithMaxTextLen(64))

	// The amount sits past the cap, so it must not be seen.
	doc := model.Document{
		Sender: "alerts@chase.com",
		Body:   strings.Repeat("x", 100) + " charged $55.00",
	}

	result := extractor.Extract(doc)
	assert.False(t, result.IsTransaction)
}

func TestExtractIsTotal(t *testing.T) {
	extractor := newTestExtractor(t)

	// Adversarial inputs must never panic and never exceed the cap.
	docs := []model.Document{
		{},
		{Body: strings.Repeat("$1.00 charged ", 10_000), Sender: "alerts@chase.com"},
		{Subject: "💸💸💸", Body: "\x00\xff charged $1.00", Sender: "alerts@chase.com"},
	}

	for _, doc := range docs {
		result := extractor.Extract(doc)
		assert.LessOrEqual(t, result.ConfidenceScore, 0.7)
		assert.GreaterOrEqual(t, result.ConfidenceScore, 0.0)
	}
}
