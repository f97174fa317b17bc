// Package rule implements the deterministic, regex-driven transaction
// extractor. It is the safety net behind the model-based extractor: it never
// fails, never calls out, and always returns within a single pass over the
// document text.
package rule

import (
	"strconv"
	"strings"

	"github.com/finemail/finemail/internal/model"
	"github.com/finemail/finemail/internal/pattern"
)

// maxAmount is the sanity ceiling for extracted amounts. Anything at or
// above this is treated as a pattern misfire, not a transaction.
const maxAmount = 1_000_000

// defaultMaxTextLen bounds how much document text is scanned. HTML bodies
// can be enormous; transaction details show up early.
const defaultMaxTextLen = 100_000

// Extractor extracts transaction candidates using the pattern library.
type Extractor struct {
	lib        *pattern.Library
	maxTextLen int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxTextLen overrides the scanned-text cap.
func WithMaxTextLen(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxTextLen = n
		}
	}
}

// NewExtractor creates a rule-based extractor over the given library.
func NewExtractor(lib *pattern.Library, opts ...Option) *Extractor {
	e := &Extractor{lib: lib, maxTextLen: defaultMaxTextLen}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract is a total function: it never returns an error and its confidence
// never exceeds 0.7. Documents that fail the transaction gate come back as
// is_transaction=false with confidence 0.
func (e *Extractor) Extract(doc model.Document) model.CandidateResult {
	text := doc.Subject + "\n" + doc.Body
	if len(text) > e.maxTextLen {
		text = text[:e.maxTextLen]
	}

	if !e.isTransactionText(text, doc.Sender) {
		return model.CandidateResult{
			IsTransaction:   false,
			Currency:        "USD",
			ConfidenceScore: 0.0,
		}
	}

	amount := e.extractAmount(text)
	merchant := e.extractMerchant(text, doc.Sender)
	txnType := e.extractType(text)
	txnDate, _ := pattern.FirstMatch(e.lib.Date, text)
	cardLast4, _ := pattern.FirstMatch(e.lib.Card, text)

	description := "Transaction"
	if merchant != "" {
		description = "Transaction at " + merchant
	}

	return model.CandidateResult{
		IsTransaction:   true,
		TransactionType: txnType,
		Amount:          amount,
		Currency:        "USD", // single-currency by design
		Merchant:        merchant,
		Description:     description,
		TransactionDate: txnDate,
		ConfidenceScore: e.confidence(amount, merchant, txnType, txnDate),
		Extracted: model.ExtractedFields{
			CardLast4: cardLast4,
		},
	}
}

// isTransactionText applies the classification gate: an amount match AND
// (a debit/credit keyword OR a financial sender) AND no veto keyword.
func (e *Extractor) isTransactionText(text, sender string) bool {
	if pattern.ContainsAny(text, pattern.NonTransactionKeywords) {
		return false
	}

	hasAmount := false
	for _, re := range e.lib.Amount {
		if re.MatchString(text) {
			hasAmount = true
			break
		}
	}
	if !hasAmount {
		return false
	}

	hasKeyword := pattern.ContainsAny(text, pattern.DebitKeywords) ||
		pattern.ContainsAny(text, pattern.CreditKeywords)
	hasFinancialSender := pattern.ContainsAny(sender, pattern.FinancialDomains)

	return hasKeyword || hasFinancialSender
}

// extractAmount returns the first amount match that parses as a positive
// decimal under the sanity ceiling, normalized to two decimal places.
func (e *Extractor) extractAmount(text string) string {
	for _, re := range e.lib.Amount {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		raw := strings.ReplaceAll(m[1], ",", "")
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value <= 0 || value >= maxAmount {
			continue
		}
		return normalizeAmount(raw)
	}
	return ""
}

// normalizeAmount pads a decimal string to exactly two fractional digits.
// The digits come from the matched text, not from float formatting.
func normalizeAmount(raw string) string {
	whole, frac, ok := strings.Cut(raw, ".")
	if !ok {
		return raw + ".00"
	}
	switch {
	case len(frac) == 0:
		return whole + ".00"
	case len(frac) == 1:
		return whole + "." + frac + "0"
	case len(frac) > 2:
		return whole + "." + frac[:2]
	default:
		return whole + "." + frac
	}
}

// extractMerchant tries the merchant patterns first, then derives a name
// from the sender's domain.
func (e *Extractor) extractMerchant(text, sender string) string {
	for _, re := range e.lib.Merchant {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		merchant := strings.TrimSpace(m[1])
		if len(merchant) > 2 && len(merchant) < 50 {
			return merchant
		}
	}

	if _, domain, ok := strings.Cut(sender, "@"); ok {
		name, _, _ := strings.Cut(domain, ".")
		if len(name) > 2 {
			return titleCase(name)
		}
	}

	return ""
}

// extractType returns credit when a credit keyword is present, else debit.
// Credit keywords win because they are the more specific signal.
func (e *Extractor) extractType(text string) model.TransactionType {
	if pattern.ContainsAny(text, pattern.CreditKeywords) {
		return model.TypeCredit
	}
	return model.TypeDebit
}

// confidence scores the extraction: 0.3 base for passing the gate, plus a
// share per extracted field, hard-capped at 0.7. The cap keeps rule-based
// results below the model's ceiling.
func (e *Extractor) confidence(amount, merchant string, txnType model.TransactionType, date string) float64 {
	score := 0.3
	if amount != "" {
		score += 0.25
	}
	if merchant != "" {
		score += 0.25
	}
	if txnType != "" {
		score += 0.1
	}
	if date != "" {
		score += 0.1
	}
	if score > 0.7 {
		score = 0.7
	}
	return score
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
