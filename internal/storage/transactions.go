package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/finemail/finemail/internal/common"
	"github.com/finemail/finemail/internal/model"
)

// CreateTransaction persists an accepted transaction. The UNIQUE
// constraint on document_id enforces at-most-one-transaction-per-document;
// a second create for the same document fails with
// common.ErrDuplicateEntry.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	metadata, err := json.Marshal(txn.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transactions (
			id, user_id, document_id, transaction_type, amount,
			currency, merchant, description, transaction_date, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, txn.ID, txn.UserID, txn.DocumentID, string(txn.Type), txn.Amount,
		txn.Currency, txn.Merchant, txn.Description, txn.TransactionDate, string(metadata))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("transaction for document %s: %w", txn.DocumentID, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetTransactionByDocument returns the transaction created for a document,
// or common.ErrNotFound if none was.
func (s *SQLiteStorage) GetTransactionByDocument(ctx context.Context, documentID string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(documentID, "documentID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, document_id, transaction_type, amount,
		       currency, merchant, description, transaction_date, metadata, created_at
		FROM transactions WHERE document_id = ?
	`, documentID)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return txn, err
}

// GetTransactions returns a user's transactions, newest first, optionally
// bounded by transaction date.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, userID string, from, to *time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, fmt.Errorf("%w: from %s is after to %s", ErrInvalidTransaction, from, to)
	}

	query := `
		SELECT id, user_id, document_id, transaction_type, amount,
		       currency, merchant, description, transaction_date, metadata, created_at
		FROM transactions WHERE user_id = ?`
	args := []any{userID}

	if from != nil {
		query += " AND transaction_date >= ?"
		args = append(args, *from)
	}
	if to != nil {
		query += " AND transaction_date <= ?"
		args = append(args, *to)
	}
	query += " ORDER BY transaction_date DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		txn, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		txns = append(txns, *txn)
	}
	return txns, rows.Err()
}

// CountTransactions returns the number of transactions for a user.
func (s *SQLiteStorage) CountTransactions(ctx context.Context, userID string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions WHERE user_id = ?
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var txnType string
	var merchant, description, metadata sql.NullString

	err := row.Scan(&txn.ID, &txn.UserID, &txn.DocumentID, &txnType, &txn.Amount,
		&txn.Currency, &merchant, &description, &txn.TransactionDate, &metadata, &txn.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	txn.Type = model.TransactionType(txnType)
	txn.Merchant = merchant.String
	txn.Description = description.String
	if metadata.Valid && metadata.String != "" {
		if umErr := json.Unmarshal([]byte(metadata.String), &txn.Metadata); umErr != nil {
			return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", umErr)
		}
	}
	return &txn, nil
}
