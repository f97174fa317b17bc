package model

import "time"

// TransactionType distinguishes money going out from money coming in.
type TransactionType string

// Transaction type constants.
const (
	TypeDebit  TransactionType = "debit"
	TypeCredit TransactionType = "credit"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TypeDebit || t == TypeCredit
}

// TransactionMetadata carries provenance for an accepted transaction.
type TransactionMetadata struct {
	ConfidenceScore float64         `json:"confidence_score"`
	Source          ResultSource    `json:"source"`
	Extracted       ExtractedFields `json:"extracted_fields"`
	Provider        string          `json:"llm_provider,omitempty"`
	Model           string          `json:"llm_model,omitempty"`
	TokensUsed      int             `json:"tokens_used,omitempty"`
}

// Transaction is the persisted record created when a candidate with
// is_transaction=true is accepted. At most one exists per document.
type Transaction struct {
	TransactionDate time.Time
	CreatedAt       time.Time
	ID              string
	UserID          string
	DocumentID      string
	Type            TransactionType
	// Amount is stored as a decimal string to avoid float rounding drift.
	Amount   string
	Currency string
	Merchant string
	// Description is free text, e.g. "Card transaction at Starbucks".
	Description string
	Metadata    TransactionMetadata
}
