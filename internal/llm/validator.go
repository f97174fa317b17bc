package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/finemail/finemail/internal/model"
)

// Validation errors. Both are hard failures: the engine treats them the
// same way as a backend error and falls through to the rule extractor.
var (
	ErrMalformedOutput = errors.New("malformed model output")
	ErrMissingField    = errors.New("missing required field")
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// rawCandidate mirrors the JSON shape the prompt asks for, with loose
// typing so that models returning numbers where strings were requested
// still validate.
type rawCandidate struct {
	IsTransaction   *bool        `json:"is_transaction"`
	TransactionType string       `json:"transaction_type"`
	Amount          any          `json:"amount"`
	Currency        string       `json:"currency"`
	Merchant        string       `json:"merchant"`
	Description     string       `json:"description"`
	TransactionDate string       `json:"transaction_date"`
	ConfidenceScore *json.Number `json:"confidence_score"`
	Extracted       struct {
		CardLast4       string `json:"card_last_4"`
		Category        string `json:"category"`
		Location        string `json:"location"`
		ReferenceNumber string `json:"reference_number"`
	} `json:"extracted_fields"`
}

// ValidateOutput parses a model reply into a candidate result.
//
// The reply must decode as JSON (a fenced ```json block is unwrapped
// first) and must carry is_transaction and confidence_score. A claimed
// transaction with missing required fields is not rejected; its confidence
// is capped at 0.5 instead. The confidence score is always clamped to
// [0, 1].
func ValidateOutput(content string) (model.CandidateResult, error) {
	var raw rawCandidate

	decoder := json.NewDecoder(strings.NewReader(content))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		// The model may have wrapped the payload in a fenced block
		// despite instructions.
		if m := fencedJSON.FindStringSubmatch(content); m != nil {
			return ValidateOutput(m[1])
		}
		return model.CandidateResult{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	if raw.IsTransaction == nil {
		return model.CandidateResult{}, fmt.Errorf("%w: is_transaction", ErrMissingField)
	}
	if raw.ConfidenceScore == nil {
		return model.CandidateResult{}, fmt.Errorf("%w: confidence_score", ErrMissingField)
	}

	confidence, err := raw.ConfidenceScore.Float64()
	if err != nil {
		return model.CandidateResult{}, fmt.Errorf("%w: confidence_score is not numeric", ErrMalformedOutput)
	}

	result := model.CandidateResult{
		IsTransaction:   *raw.IsTransaction,
		TransactionType: model.TransactionType(strings.ToLower(raw.TransactionType)),
		Amount:          coerceAmount(raw.Amount),
		Currency:        raw.Currency,
		Merchant:        raw.Merchant,
		Description:     raw.Description,
		TransactionDate: raw.TransactionDate,
		ConfidenceScore: confidence,
		Extracted: model.ExtractedFields{
			CardLast4:       raw.Extracted.CardLast4,
			Category:        raw.Extracted.Category,
			Location:        raw.Extracted.Location,
			ReferenceNumber: raw.Extracted.ReferenceNumber,
		},
	}

	if result.IsTransaction {
		// Internal inconsistency: claims a transaction but lacks the
		// fields to materialize one. Penalize rather than reject.
		if result.TransactionType == "" || result.Amount == "" || result.Currency == "" || result.Merchant == "" {
			if result.ConfidenceScore > 0.5 {
				result.ConfidenceScore = 0.5
			}
		}
		if result.Currency == "" {
			result.Currency = "USD"
		}
	}

	result.ClampConfidence()
	return result, nil
}

// coerceAmount accepts the amount as a JSON string or number and returns
// its decimal string form.
func coerceAmount(v any) string {
	switch amount := v.(type) {
	case string:
		return strings.TrimSpace(amount)
	case json.Number:
		return amount.String()
	case float64:
		return strconv.FormatFloat(amount, 'f', 2, 64)
	default:
		return ""
	}
}
