package model

// ResultSource identifies which extractor produced the winning candidate.
type ResultSource string

// Result source constants. Set by the arbitration engine, never by the
// extractors themselves.
const (
	SourceModel              ResultSource = "model"
	SourceRule               ResultSource = "rule"
	SourceModelLowConfidence ResultSource = "model_low_confidence"
)

// ExtractedFields holds secondary transaction attributes. All optional.
type ExtractedFields struct {
	CardLast4       string `json:"card_last_4,omitempty"`
	Category        string `json:"category,omitempty"`
	Location        string `json:"location,omitempty"`
	ReferenceNumber string `json:"reference_number,omitempty"`
}

// CandidateResult is a normalized, possibly-empty transaction extraction
// with a confidence score. Both extractors produce this shape.
type CandidateResult struct {
	IsTransaction   bool            `json:"is_transaction"`
	TransactionType TransactionType `json:"transaction_type,omitempty"`
	// Amount is a decimal string; floats would drift on money values.
	Amount          string          `json:"amount,omitempty"`
	Currency        string          `json:"currency,omitempty"`
	Merchant        string          `json:"merchant,omitempty"`
	Description     string          `json:"description,omitempty"`
	TransactionDate string          `json:"transaction_date,omitempty"`
	ConfidenceScore float64         `json:"confidence_score"`
	Extracted       ExtractedFields `json:"extracted_fields"`
	Source          ResultSource    `json:"source,omitempty"`

	// Provenance of model-derived candidates.
	Provider   string `json:"llm_provider,omitempty"`
	Model      string `json:"llm_model,omitempty"`
	TokensUsed int    `json:"tokens_used,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ClampConfidence forces the confidence score into [0, 1].
func (c *CandidateResult) ClampConfidence() {
	if c.ConfidenceScore < 0 {
		c.ConfidenceScore = 0
	} else if c.ConfidenceScore > 1 {
		c.ConfidenceScore = 1
	}
}

// MissingTransactionFields returns the names of required transaction fields
// that are absent. Only meaningful when IsTransaction is true.
func (c *CandidateResult) MissingTransactionFields() []string {
	var missing []string
	if c.TransactionType == "" {
		missing = append(missing, "transaction_type")
	}
	if c.Amount == "" {
		missing = append(missing, "amount")
	}
	if c.Currency == "" {
		missing = append(missing, "currency")
	}
	return missing
}
