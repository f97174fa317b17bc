package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/finemail/finemail/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidDocument    = errors.New("invalid document")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidAttempt     = errors.New("invalid parsing attempt")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateDocument validates a document before persistence.
func validateDocument(doc *model.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document", ErrNilParameter)
	}
	if doc.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidDocument)
	}
	if doc.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidDocument)
	}
	if doc.Sender == "" {
		return fmt.Errorf("%w: missing sender", ErrInvalidDocument)
	}
	if doc.Body == "" {
		return fmt.Errorf("%w: missing body", ErrInvalidDocument)
	}
	if !doc.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, doc.Status)
	}
	return nil
}

// validateTransaction validates a transaction before persistence.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.DocumentID == "" {
		return fmt.Errorf("%w: missing document ID", ErrInvalidTransaction)
	}
	if !txn.Type.Valid() {
		return fmt.Errorf("%w: bad type %q", ErrInvalidTransaction, txn.Type)
	}
	if txn.Amount == "" {
		return fmt.Errorf("%w: missing amount", ErrInvalidTransaction)
	}
	if txn.Currency == "" {
		return fmt.Errorf("%w: missing currency", ErrInvalidTransaction)
	}
	return nil
}

// validateAttempt validates a parsing attempt before persistence.
func validateAttempt(attempt *model.ParsingAttempt) error {
	if attempt == nil {
		return fmt.Errorf("%w: attempt", ErrNilParameter)
	}
	if attempt.DocumentID == "" {
		return fmt.Errorf("%w: missing document ID", ErrInvalidAttempt)
	}
	switch attempt.Status {
	case model.AttemptSuccess, model.AttemptFailed, model.AttemptPartial:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, attempt.Status)
	}
	return nil
}
