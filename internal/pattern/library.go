// Package pattern holds the ordered extraction patterns and keyword sets
// used by the rule-based extractor. Pure data, compiled once, no state.
package pattern

import (
	"regexp"
	"strings"
)

// Pattern source strings. Order matters: the extractor takes the first
// matching pattern in list order, so reordering changes extraction results.
var (
	amountPatterns = []string{
		`\$\s*(\d{1,10}(?:,\d{3})*(?:\.\d{2})?)`,                          // $1,234.56
		`(\d{1,10}(?:,\d{3})*(?:\.\d{2})?)\s*USD`,                         // 1234.56 USD
		`USD\s*(\d{1,10}(?:,\d{3})*(?:\.\d{2})?)`,                         // USD 1234.56
		`(?:total|amount|charged|paid)[\s:]+\$?\s*(\d{1,10}(?:,\d{3})*(?:\.\d{2})?)`, // total: 12.34
	}

	merchantPatterns = []string{
		`(?:at|from|to)\s+([A-Z][A-Za-z0-9\s&'-]+?)(?:\s+on|\s+for|\s*\$|\s*USD|\.)`,
		`(?:purchase|payment|transaction)(?:\s+at)?\s+([A-Z][A-Za-z0-9\s&'-]+?)(?:\s+on|\s+for)`,
		`([A-Z][A-Z0-9\s&'-]{2,30})(?:\s+charged|\s+transaction)`,
	}

	datePatterns = []string{
		`(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`, // MM/DD/YYYY or DD-MM-YYYY
		`(\d{4}[-/]\d{1,2}[-/]\d{1,2})`,   // YYYY-MM-DD
		`((?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},?\s+\d{4})`, // Jan 15, 2024
	}

	cardPatterns = []string{
		`card\s+(?:ending\s+(?:in\s+)?|#)?(\d{4})`,
		`x+(\d{4})`,
		`\*+(\d{4})`,
	}
)

// DebitKeywords indicate money going out.
var DebitKeywords = []string{
	"purchase", "charged", "payment", "paid", "spent", "bought",
	"transaction", "withdrawal", "debit", "order", "invoice",
}

// CreditKeywords indicate money coming in. Checked before debit keywords
// because they are the more specific signal.
var CreditKeywords = []string{
	"refund", "credit", "deposit", "received", "reimbursement",
	"cashback", "return", "reversal",
}

// NonTransactionKeywords veto classification outright. Newsletter,
// marketing and auth-flow language shows up in mail that quotes amounts
// without describing a real transaction.
var NonTransactionKeywords = []string{
	"newsletter", "subscription", "welcome", "verify", "confirm your email",
	"reset password", "unsubscribe", "privacy policy", "terms of service",
	"marketing", "promotional", "survey",
}

// FinancialDomains are sender domains that strongly suggest transaction
// notifications.
var FinancialDomains = []string{
	"paypal", "venmo", "chase", "bankofamerica", "wellsfargo",
	"citi", "amex", "discover", "capitalone", "amazon", "stripe",
	"square", "shopify", "ebay",
}

// Library holds the compiled extraction patterns. Compile it once at
// startup and share freely; it is immutable after construction.
type Library struct {
	Amount   []*regexp.Regexp
	Merchant []*regexp.Regexp
	Date     []*regexp.Regexp
	Card     []*regexp.Regexp
}

// NewLibrary compiles the pattern lists. All matching is case-insensitive.
func NewLibrary() *Library {
	return &Library{
		Amount:   compileAll(amountPatterns),
		Merchant: compileAll(merchantPatterns),
		Date:     compileAll(datePatterns),
		Card:     compileAll(cardPatterns),
	}
}

func compileAll(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(`(?i)`+p))
	}
	return compiled
}

// FirstMatch returns the first capture group of the first pattern in the
// list that matches text, in list order.
func FirstMatch(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			return m[1], true
		}
	}
	return "", false
}

// ContainsAny reports whether the lowercased text contains any keyword.
func ContainsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
