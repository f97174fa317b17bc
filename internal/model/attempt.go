package model

import "time"

// AttemptStatus records the outcome of one arbitration run.
type AttemptStatus string

// Attempt status constants. A run that correctly determines "not a
// transaction" is a success, not a failure.
const (
	AttemptSuccess AttemptStatus = "success"
	AttemptFailed  AttemptStatus = "failed"
	AttemptPartial AttemptStatus = "partial"
)

// ParsingAttempt is the append-only audit record of one arbitration run.
// Exactly one is written per Parse call, regardless of outcome, and it is
// never mutated afterwards.
type ParsingAttempt struct {
	CreatedAt    time.Time
	ID           string
	DocumentID   string
	Status       AttemptStatus
	ParsedData   CandidateResult
	ErrorMessage string
}
