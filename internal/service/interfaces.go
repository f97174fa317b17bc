// Package service defines the interfaces between the parsing engine and
// its collaborators.
package service

import (
	"context"
	"time"

	"github.com/finemail/finemail/internal/model"
)

// DocumentFilter defines filtering options for document queries.
type DocumentFilter struct {
	Status *model.DocumentStatus
	Limit  int
	Offset int
}

// Storage defines the contract for the persistence layer. All operations
// are atomic: concurrent arbitration runs must never race a document into
// two different terminal states, and at most one transaction may ever be
// created per document.
type Storage interface {
	// Document operations
	SaveDocument(ctx context.Context, doc *model.Document) error
	GetDocumentByID(ctx context.Context, id string) (*model.Document, error)
	GetDocumentByMessageID(ctx context.Context, userID, messageID string) (*model.Document, error)
	GetDocuments(ctx context.Context, userID string, filter DocumentFilter) ([]model.Document, error)
	// UpdateDocumentStatus performs a compare-and-set transition and
	// fails when the document is no longer in the expected state.
	UpdateDocumentStatus(ctx context.Context, id string, from, to model.DocumentStatus) error
	CountDocumentsByStatus(ctx context.Context, userID string) (map[model.DocumentStatus]int, error)

	// Transaction operations
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransactionByDocument(ctx context.Context, documentID string) (*model.Transaction, error)
	GetTransactions(ctx context.Context, userID string, from, to *time.Time) ([]model.Transaction, error)
	CountTransactions(ctx context.Context, userID string) (int, error)

	// Attempt log (append-only)
	AppendParsingAttempt(ctx context.Context, attempt *model.ParsingAttempt) error
	GetParsingAttempts(ctx context.Context, documentID string) ([]model.ParsingAttempt, error)
	CountAttemptsByStatus(ctx context.Context, userID string) (map[model.AttemptStatus]int, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
