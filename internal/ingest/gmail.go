// Package ingest fetches mail from a Gmail mailbox and stores it as
// pending documents for the parsing engine.
package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/finemail/finemail/internal/common"
	"github.com/finemail/finemail/internal/model"
	"github.com/finemail/finemail/internal/service"
)

// GmailFetcher pulls messages from a Gmail mailbox.
type GmailFetcher struct {
	svc     *gmail.Service
	storage service.Storage
	logger  *slog.Logger
}

// NewGmailFetcher creates a fetcher over an authenticated token source.
func NewGmailFetcher(ctx context.Context, ts oauth2.TokenSource, storage service.Storage, logger *slog.Logger) (*GmailFetcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &GmailFetcher{
		svc:     svc,
		storage: storage,
		logger:  logger,
	}, nil
}

// FetchOptions controls which messages are pulled.
type FetchOptions struct {
	// Query is a Gmail search query. Defaults to unread mail.
	Query string
	// MaxResults caps the number of messages listed.
	MaxResults int64
	// LabelIDs optionally restricts the listing to labels.
	LabelIDs []string
}

// FetchStats reports the outcome of one fetch run.
type FetchStats struct {
	Listed  int
	Stored  int
	Skipped int
	Failed  int
}

// Fetch lists matching messages, downloads each in raw form and stores it
// as a pending document. Messages already ingested (same mailbox message
// ID) are skipped, so repeated runs are idempotent.
func (f *GmailFetcher) Fetch(ctx context.Context, userID string, opts FetchOptions) (FetchStats, error) {
	var stats FetchStats

	query := opts.Query
	if query == "" {
		query = "is:unread"
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 100
	}

	call := f.svc.Users.Messages.List("me").Q(query).MaxResults(maxResults).Context(ctx)
	if len(opts.LabelIDs) > 0 {
		call = call.LabelIds(opts.LabelIDs...)
	}

	listing, err := call.Do()
	if err != nil {
		return stats, fmt.Errorf("failed to list messages: %w", err)
	}
	stats.Listed = len(listing.Messages)

	for _, ref := range listing.Messages {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		if err := f.ingestMessage(ctx, userID, ref.Id); err != nil {
			if errors.Is(err, common.ErrDuplicateEntry) {
				stats.Skipped++
				continue
			}
			f.logger.Warn("Failed to ingest message",
				"message_id", ref.Id,
				"error", err)
			stats.Failed++
			continue
		}
		stats.Stored++
	}

	f.logger.Info("Mailbox fetch complete",
		"listed", stats.Listed,
		"stored", stats.Stored,
		"skipped", stats.Skipped,
		"failed", stats.Failed)

	return stats, nil
}

func (f *GmailFetcher) ingestMessage(ctx context.Context, userID, messageID string) error {
	msg, err := f.svc.Users.Messages.Get("me", messageID).Format("raw").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get message %s: %w", messageID, err)
	}

	raw, err := base64.URLEncoding.DecodeString(msg.Raw)
	if err != nil {
		return fmt.Errorf("failed to decode message %s: %w", messageID, err)
	}

	parsed, err := parseRawMessage(raw)
	if err != nil {
		return fmt.Errorf("failed to parse message %s: %w", messageID, err)
	}

	// Prefer the provider's ID: the RFC 822 Message-ID header is
	// optional and occasionally missing from notification mail.
	mailboxID := parsed.MessageID
	if mailboxID == "" {
		mailboxID = messageID
	}

	doc := &model.Document{
		ID:         uuid.NewString(),
		UserID:     userID,
		MessageID:  mailboxID,
		Subject:    parsed.Subject,
		Sender:     parsed.Sender,
		Body:       parsed.Body,
		ReceivedAt: parsed.ReceivedAt,
		Status:     model.DocStatusPending,
	}

	return f.storage.SaveDocument(ctx, doc)
}
