package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finemail/finemail/internal/model"
)

// AppendParsingAttempt writes one audit record. Attempts are append-only:
// there is no update or delete path for this table.
func (s *SQLiteStorage) AppendParsingAttempt(ctx context.Context, attempt *model.ParsingAttempt) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAttempt(attempt); err != nil {
		return err
	}

	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}

	parsedData, err := json.Marshal(attempt.ParsedData)
	if err != nil {
		return fmt.Errorf("failed to marshal parsed data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO parsing_attempts (id, document_id, status, parsed_data, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, attempt.ID, attempt.DocumentID, string(attempt.Status), string(parsedData), attempt.ErrorMessage, attempt.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append parsing attempt: %w", err)
	}
	return nil
}

// GetParsingAttempts returns a document's attempts, oldest first.
func (s *SQLiteStorage) GetParsingAttempts(ctx context.Context, documentID string) ([]model.ParsingAttempt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(documentID, "documentID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, status, parsed_data, error_message, created_at
		FROM parsing_attempts WHERE document_id = ? ORDER BY created_at ASC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query parsing attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var attempts []model.ParsingAttempt
	for rows.Next() {
		var attempt model.ParsingAttempt
		var status string
		var parsedData, errorMessage sql.NullString

		if scanErr := rows.Scan(&attempt.ID, &attempt.DocumentID, &status, &parsedData, &errorMessage, &attempt.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan parsing attempt: %w", scanErr)
		}

		attempt.Status = model.AttemptStatus(status)
		attempt.ErrorMessage = errorMessage.String
		if parsedData.Valid && parsedData.String != "" {
			if umErr := json.Unmarshal([]byte(parsedData.String), &attempt.ParsedData); umErr != nil {
				return nil, fmt.Errorf("failed to unmarshal parsed data: %w", umErr)
			}
		}
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}

// CountAttemptsByStatus aggregates a user's parsing attempts by status.
func (s *SQLiteStorage) CountAttemptsByStatus(ctx context.Context, userID string) (map[model.AttemptStatus]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT pa.status, COUNT(*)
		FROM parsing_attempts pa
		JOIN documents d ON pa.document_id = d.id
		WHERE d.user_id = ?
		GROUP BY pa.status
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count parsing attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[model.AttemptStatus]int)
	for rows.Next() {
		var status string
		var count int
		if scanErr := rows.Scan(&status, &count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan attempt count: %w", scanErr)
		}
		counts[model.AttemptStatus(status)] = count
	}
	return counts, rows.Err()
}
