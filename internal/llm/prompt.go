package llm

import (
	"fmt"
	"strings"

	"github.com/finemail/finemail/internal/model"
)

// BuildPrompt renders the extraction prompt for a document. The output is
// deterministic given the same document and withExamples flag.
func BuildPrompt(doc model.Document, withExamples bool) string {
	base := basePrompt(doc)
	if !withExamples {
		return base
	}

	var sb strings.Builder
	sb.WriteString(fewShotExamples)
	sb.WriteString("\n\n")
	sb.WriteString(confidenceGuidelines)
	sb.WriteString("\n\n")
	sb.WriteString(base)
	return sb.String()
}

func basePrompt(doc model.Document) string {
	return fmt.Sprintf(`You are a financial transaction parser. Extract transaction information from the following email.

EMAIL DETAILS:
Subject: %s
From: %s

EMAIL BODY:
%s

INSTRUCTIONS:
1. Identify if this email contains a financial transaction (purchase, payment, refund, etc.)
2. Extract ALL relevant transaction details
3. Return ONLY a valid JSON object with the following structure (no additional text):

{
  "is_transaction": true/false,
  "transaction_type": "debit" or "credit",
  "amount": "XX.XX",
  "currency": "USD" or other currency code,
  "merchant": "merchant name",
  "description": "brief description of the transaction",
  "transaction_date": "YYYY-MM-DD" or null if not found,
  "confidence_score": 0.0 to 1.0,
  "extracted_fields": {
    "card_last_4": "XXXX" or null,
    "category": "category if mentioned" or null,
    "location": "location if mentioned" or null,
    "reference_number": "reference if mentioned" or null
  }
}

IMPORTANT:
- If this is NOT a transaction email, set "is_transaction" to false and confidence_score to 0.0
- For transaction_type: use "debit" for purchases/payments, "credit" for refunds/deposits
- Amount should be numeric string without currency symbols
- Confidence score should reflect how certain you are about the extraction
- Return ONLY the JSON object, no explanations or additional text
`, doc.Subject, doc.Sender, doc.Body)
}

const confidenceGuidelines = `CONFIDENCE SCORING GUIDELINES:

1.0 - Perfect extraction:
  - All key fields explicitly stated (amount, merchant, date, type)
  - Clear transaction notification from known financial institution
  - No ambiguity in any field

0.8-0.9 - High confidence:
  - All key fields found
  - Minor ambiguity in non-critical fields (e.g., exact category)
  - Transaction clearly identifiable

0.6-0.7 - Medium confidence:
  - Most key fields found
  - Some fields inferred from context
  - Transaction type clear but details may be incomplete

0.4-0.5 - Low confidence:
  - Only some transaction indicators present
  - Significant ambiguity in amount or merchant
  - May require manual review

0.0-0.3 - Very low/no confidence:
  - Not a transaction email
  - Missing critical information
  - Too ambiguous to parse reliably`

const fewShotExamples = `FEW-SHOT EXAMPLES:

Example 1:
Email:
  Subject: Your Amazon purchase
  From: auto-confirm@amazon.com
  Body: Thank you for your order. Total: $49.99. Shipped to: 123 Main St.
Output: {"is_transaction": true, "transaction_type": "debit", "amount": "49.99", "currency": "USD", "merchant": "Amazon", "description": "Amazon purchase", "transaction_date": null, "confidence_score": 0.9, "extracted_fields": {"card_last_4": null, "category": "shopping", "location": null, "reference_number": null}}

Example 2:
Email:
  Subject: Card transaction alert
  From: alerts@chase.com
  Body: Card ending in 1234 was charged $125.50 at STARBUCKS on 01/15/2024
Output: {"is_transaction": true, "transaction_type": "debit", "amount": "125.50", "currency": "USD", "merchant": "Starbucks", "description": "Card transaction at Starbucks", "transaction_date": "2024-01-15", "confidence_score": 1.0, "extracted_fields": {"card_last_4": "1234", "category": "dining", "location": null, "reference_number": null}}

Example 3:
Email:
  Subject: Newsletter: Weekly Tips
  From: newsletter@example.com
  Body: Check out these great tips for saving money...
Output: {"is_transaction": false, "transaction_type": null, "amount": null, "currency": null, "merchant": null, "description": null, "transaction_date": null, "confidence_score": 0.0, "extracted_fields": {}}`
