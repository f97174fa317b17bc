package engine

import (
	"context"
	"fmt"

	"github.com/finemail/finemail/internal/model"
)

// Statistics aggregates a user's parsing history. Read-only.
type Statistics struct {
	DocumentStatusCounts map[model.DocumentStatus]int
	AttemptStatusCounts  map[model.AttemptStatus]int
	TransactionCount     int
}

// GetStatistics returns document, transaction and attempt counts for one
// user.
func (e *Engine) GetStatistics(ctx context.Context, userID string) (*Statistics, error) {
	docCounts, err := e.storage.CountDocumentsByStatus(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	txnCount, err := e.storage.CountTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	attemptCounts, err := e.storage.CountAttemptsByStatus(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}

	return &Statistics{
		DocumentStatusCounts: docCounts,
		TransactionCount:     txnCount,
		AttemptStatusCounts:  attemptCounts,
	}, nil
}
