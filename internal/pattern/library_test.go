package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLibrary(t *testing.T) {
	lib := NewLibrary()
	require.NotNil(t, lib)

	assert.Len(t, lib.Amount, len(amountPatterns))
	assert.Len(t, lib.Merchant, len(merchantPatterns))
	assert.Len(t, lib.Date, len(datePatterns))
	assert.Len(t, lib.Card, len(cardPatterns))
}

func TestAmountPatterns(t *testing.T) {
	lib := NewLibrary()

	tests := []struct {
		name  string
		text  string
		want  string
		match bool
	}{
		{
			name:  "dollar sign",
			text:  "You were charged $125.50 today",
			want:  "125.50",
			match: true,
		},
		{
			name:  "dollar sign with thousands separator",
			text:  "Payment of $1,234.56 processed",
			want:  "1,234.56",
			match: true,
		},
		{
			name:  "trailing USD",
			text:  "Amount 49.99 USD was debited",
			want:  "49.99",
			match: true,
		},
		{
			name:  "leading USD",
			text:  "USD 300.00 transferred",
			want:  "300.00",
			match: true,
		},
		{
			name:  "labeled amount without dollar sign",
			text:  "Total: 12.34",
			want:  "12.34",
			match: true,
		},
		{
			name:  "no amount",
			text:  "Thanks for signing up",
			match: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstMatch(lib.Amount, tt.text)
			assert.Equal(t, tt.match, ok)
			if tt.match {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestMerchantPatterns(t *testing.T) {
	lib := NewLibrary()

	tests := []struct {
		name  string
		text  string
		want  string
		match bool
	}{
		{
			name:  "at merchant before amount",
			text:  "Purchase at Starbucks Coffee for $5.75",
			want:  "Starbucks Coffee",
			match: true,
		},
		{
			name:  "from merchant before date",
			text:  "Payment from Amazon on 01/15/2024",
			want:  "Amazon",
			match: true,
		},
		{
			name:  "uppercase merchant before charged",
			text:  "STARBUCKS STORE 123 charged your card",
			want:  "STARBUCKS STORE 123",
			match: true,
		},
		{
			name:  "no merchant",
			text:  "your balance is low",
			match: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstMatch(lib.Merchant, tt.text)
			assert.Equal(t, tt.match, ok)
			if tt.match {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDatePatterns(t *testing.T) {
	lib := NewLibrary()

	tests := []struct {
		text string
		want string
	}{
		{"on 01/15/2024 your card", "01/15/2024"},
		{"processed 2024-01-15 at noon", "2024-01-15"},
		{"posted Jan 15, 2024 to your account", "Jan 15, 2024"},
		{"posted January 15 2024 to your account", "January 15 2024"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, ok := FirstMatch(lib.Date, tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCardPatterns(t *testing.T) {
	lib := NewLibrary()

	tests := []struct {
		text string
		want string
	}{
		{"card ending in 1234", "1234"},
		{"card ending 5678", "5678"},
		{"card #9876", "9876"},
		{"account xxxx4321", "4321"},
		{"account ****8765", "8765"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := FirstMatch(lib.Card, tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPatternsAreCaseInsensitive(t *testing.T) {
	lib := NewLibrary()

	got, ok := FirstMatch(lib.Card, "CARD ENDING IN 1234")
	require.True(t, ok)
	assert.Equal(t, "1234", got)

	got, ok = FirstMatch(lib.Amount, "total: 99.00")
	require.True(t, ok)
	assert.Equal(t, "99.00", got)
}

func TestContainsAny(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		want     bool
	}{
		{
			name:     "debit keyword mid-sentence",
			text:     "Your payment was processed",
			keywords: DebitKeywords,
			want:     true,
		},
		{
			name:     "case insensitive",
			text:     "REFUND ISSUED",
			keywords: CreditKeywords,
			want:     true,
		},
		{
			name:     "veto keyword",
			text:     "Click here to unsubscribe",
			keywords: NonTransactionKeywords,
			want:     true,
		},
		{
			name:     "financial sender domain",
			text:     "alerts@chase.com",
			keywords: FinancialDomains,
			want:     true,
		},
		{
			name:     "no match",
			text:     "see you at lunch",
			keywords: DebitKeywords,
			want:     false,
		},
		{
			name:     "empty text",
			text:     "",
			keywords: DebitKeywords,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsAny(tt.text, tt.keywords))
		})
	}
}
