package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/finemail/finemail/internal/common"
	"github.com/finemail/finemail/internal/model"
	"github.com/finemail/finemail/internal/service"
)

// SaveDocument inserts a document. Duplicate (user, message) pairs map to
// common.ErrDuplicateEntry so ingestion can skip already-seen mail.
func (s *SQLiteStorage) SaveDocument(ctx context.Context, doc *model.Document) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDocument(doc); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, user_id, message_id, subject, sender, body, received_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.UserID, doc.MessageID, doc.Subject, doc.Sender, doc.Body, doc.ReceivedAt, string(doc.Status))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("document %s for user %s: %w", doc.MessageID, doc.UserID, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// GetDocumentByID returns the document with the given ID.
func (s *SQLiteStorage) GetDocumentByID(ctx context.Context, id string) (*model.Document, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, message_id, subject, sender, body, received_at, status
		FROM documents WHERE id = ?
	`, id)
	return scanDocument(row)
}

// GetDocumentByMessageID returns the document for a mailbox message ID.
func (s *SQLiteStorage) GetDocumentByMessageID(ctx context.Context, userID, messageID string) (*model.Document, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(messageID, "messageID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, message_id, subject, sender, body, received_at, status
		FROM documents WHERE user_id = ? AND message_id = ?
	`, userID, messageID)
	return scanDocument(row)
}

// GetDocuments returns documents for a user, optionally filtered by status.
func (s *SQLiteStorage) GetDocuments(ctx context.Context, userID string, filter service.DocumentFilter) ([]model.Document, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, message_id, subject, sender, body, received_at, status
		FROM documents WHERE user_id = ?`
	args := []any{userID}

	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*filter.Status))
	}
	query += " ORDER BY received_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []model.Document
	for rows.Next() {
		doc, scanErr := scanDocumentRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// UpdateDocumentStatus transitions a document from one status to another.
// The transition is compare-and-set: if the document is not in the expected
// state the update fails with common.ErrStatusConflict, so two concurrent
// arbitration runs can never both claim the same document.
func (s *SQLiteStorage) UpdateDocumentStatus(ctx context.Context, id string, from, to model.DocumentStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("%w: %q -> %q", ErrInvalidStatus, from, to)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE documents SET status = ? WHERE id = ? AND status = ?
	`, string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("document %s is not in state %q: %w", id, from, common.ErrStatusConflict)
	}
	return nil
}

// CountDocumentsByStatus aggregates a user's documents by status.
func (s *SQLiteStorage) CountDocumentsByStatus(ctx context.Context, userID string) (map[model.DocumentStatus]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM documents WHERE user_id = ? GROUP BY status
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[model.DocumentStatus]int)
	for rows.Next() {
		var status string
		var count int
		if scanErr := rows.Scan(&status, &count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", scanErr)
		}
		counts[model.DocumentStatus(status)] = count
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row *sql.Row) (*model.Document, error) {
	doc, err := scanDocumentRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return doc, err
}

func scanDocumentRow(row rowScanner) (*model.Document, error) {
	var doc model.Document
	var subject sql.NullString
	var receivedAt time.Time
	var status string

	err := row.Scan(&doc.ID, &doc.UserID, &doc.MessageID, &subject, &doc.Sender, &doc.Body, &receivedAt, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	doc.Subject = subject.String
	doc.ReceivedAt = receivedAt
	doc.Status = model.DocumentStatus(status)
	return &doc, nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint
// failure. The driver does not expose a typed error for this.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
