// Package engine implements the arbitration engine that combines model and
// rule-based extraction into one auditable decision per document.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finemail/finemail/internal/common"
	"github.com/finemail/finemail/internal/model"
	"github.com/finemail/finemail/internal/service"
)

// Engine orchestrates transaction extraction for documents: it fans a
// document out to the model and rule extractors, selects a winner, persists
// the outcome and records one audit attempt per run.
type Engine struct {
	storage service.Storage
	model   ModelExtractor
	rule    RuleExtractor
	logger  *slog.Logger
	cfg     Config
}

// Config holds configuration options for the engine.
type Config struct {
	// ConfidenceThreshold is the minimum model confidence at which the
	// model candidate wins outright.
	ConfidenceThreshold float64
	// MaxConcurrent bounds in-flight model calls during batch parsing.
	MaxConcurrent int
	// ModelTimeout bounds each document's model call.
	ModelTimeout time.Duration
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.6,
		MaxConcurrent:       5,
		ModelTimeout:        60 * time.Second,
	}
}

// New creates an engine with the default configuration.
func New(storage service.Storage, modelExtractor ModelExtractor, ruleExtractor RuleExtractor, logger *slog.Logger) *Engine {
	return NewWithConfig(storage, modelExtractor, ruleExtractor, logger, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(storage service.Storage, modelExtractor ModelExtractor, ruleExtractor RuleExtractor, logger *slog.Logger, cfg Config) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = 0.6
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.ModelTimeout <= 0 {
		cfg.ModelTimeout = 60 * time.Second
	}
	return &Engine{
		storage: storage,
		model:   modelExtractor,
		rule:    ruleExtractor,
		logger:  logger,
		cfg:     cfg,
	}
}

// ParseOptions modifies a single Parse call.
type ParseOptions struct {
	// Force re-runs extraction even for documents already parsed.
	Force bool
}

// ParseResult reports the outcome of one arbitration run. Materialization
// failures are carried here, not returned as errors: only contract errors
// (nil document, persistence down) make Parse itself fail.
type ParseResult struct {
	// Candidate is the selected extraction, with Source set.
	Candidate model.CandidateResult
	// Transaction is non-nil when a transaction was created or, for an
	// idempotent re-parse, already existed.
	Transaction *model.Transaction
	// DocumentStatus is the document's terminal state after the run.
	DocumentStatus model.DocumentStatus
	// AttemptStatus mirrors the recorded audit entry.
	AttemptStatus model.AttemptStatus
	// ErrorMessage is set when the attempt failed.
	ErrorMessage string
	// Reused is true when the run short-circuited to an existing
	// transaction instead of re-running extraction.
	Reused bool
}

// Parse runs the full arbitration pipeline for one document.
//
// A document already in the parsed state short-circuits to its existing
// transaction unless opts.Force is set. Model failures of any kind degrade
// to the rule extractor; they never surface as errors. Exactly one parsing
// attempt is recorded per non-short-circuited call.
func (e *Engine) Parse(ctx context.Context, doc *model.Document, opts ParseOptions) (*ParseResult, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document", common.ErrMissingConfig)
	}
	if doc.ID == "" || doc.Sender == "" {
		return nil, fmt.Errorf("malformed document %q: %w", doc.ID, common.ErrParsingFailed)
	}

	if doc.Status == model.DocStatusParsed && !opts.Force {
		existing, err := e.storage.GetTransactionByDocument(ctx, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load existing transaction: %w", err)
		}
		return &ParseResult{
			Transaction:    existing,
			DocumentStatus: model.DocStatusParsed,
			AttemptStatus:  model.AttemptSuccess,
			Reused:         true,
		}, nil
	}

	selected := e.arbitrate(ctx, *doc)

	result := &ParseResult{Candidate: selected}

	if selected.IsTransaction {
		txn, err := e.materialize(ctx, doc, selected)
		if err != nil {
			result.DocumentStatus = model.DocStatusFailed
			result.AttemptStatus = model.AttemptFailed
			result.ErrorMessage = fmt.Sprintf("failed to create transaction: %v", err)
		} else {
			result.Transaction = txn
			result.DocumentStatus = model.DocStatusParsed
			result.AttemptStatus = model.AttemptSuccess
		}
	} else {
		result.DocumentStatus = model.DocStatusIgnored
		result.AttemptStatus = model.AttemptSuccess
	}

	if err := e.transition(ctx, doc, result.DocumentStatus); err != nil {
		return nil, err
	}

	attempt := &model.ParsingAttempt{
		DocumentID:   doc.ID,
		Status:       result.AttemptStatus,
		ParsedData:   selected,
		ErrorMessage: result.ErrorMessage,
	}
	if err := e.storage.AppendParsingAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to record parsing attempt: %w", err)
	}

	e.logger.Info("Parsed document",
		"document_id", doc.ID,
		"status", result.DocumentStatus,
		"source", selected.Source,
		"confidence", selected.ConfidenceScore,
		"is_transaction", selected.IsTransaction)

	return result, nil
}

// arbitrate runs both extractors and applies the selection policy.
func (e *Engine) arbitrate(ctx context.Context, doc model.Document) model.CandidateResult {
	modelCand := e.tryModel(ctx, doc)

	// The rule extractor always runs: it is cheap and it is the safety
	// net when the model path degrades.
	ruleCand := e.rule.Extract(doc)

	switch {
	case modelCand.ConfidenceScore >= e.cfg.ConfidenceThreshold:
		modelCand.Source = model.SourceModel
		return modelCand
	case ruleCand.ConfidenceScore > modelCand.ConfidenceScore:
		ruleCand.Source = model.SourceRule
		return ruleCand
	default:
		// Ties favor the model candidate.
		modelCand.Source = model.SourceModelLowConfidence
		return modelCand
	}
}

// tryModel invokes the model extractor under the configured timeout. Any
// failure becomes a zero-confidence non-transaction candidate tagged with
// the reason; this path never propagates an error.
func (e *Engine) tryModel(ctx context.Context, doc model.Document) model.CandidateResult {
	mctx, cancel := context.WithTimeout(ctx, e.cfg.ModelTimeout)
	defer cancel()

	candidate, err := e.model.Extract(mctx, doc)
	if err != nil {
		e.logger.Warn("Model extraction failed, degrading to rules",
			"document_id", doc.ID,
			"error", err)
		return model.CandidateResult{
			IsTransaction:   false,
			ConfidenceScore: 0.0,
			Error:           err.Error(),
		}
	}
	return candidate
}

// materialize turns an accepted candidate into a persisted transaction.
// Missing required fields here are a hard failure, unlike the validator's
// soft confidence cap.
func (e *Engine) materialize(ctx context.Context, doc *model.Document, candidate model.CandidateResult) (*model.Transaction, error) {
	if missing := candidate.MissingTransactionFields(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", common.ErrMissingRequired, missing)
	}

	txn := &model.Transaction{
		ID:              uuid.NewString(),
		UserID:          doc.UserID,
		DocumentID:      doc.ID,
		Type:            candidate.TransactionType,
		Amount:          candidate.Amount,
		Currency:        candidate.Currency,
		Merchant:        candidate.Merchant,
		Description:     candidate.Description,
		TransactionDate: resolveDate(candidate.TransactionDate, doc.ReceivedAt),
		Metadata: model.TransactionMetadata{
			ConfidenceScore: candidate.ConfidenceScore,
			Source:          candidate.Source,
			Extracted:       candidate.Extracted,
			Provider:        candidate.Provider,
			Model:           candidate.Model,
			TokensUsed:      candidate.TokensUsed,
		},
	}

	if err := e.storage.CreateTransaction(ctx, txn); err != nil {
		// A forced re-parse of a parsed document keeps the original
		// transaction; at most one may ever exist per document.
		if errors.Is(err, common.ErrDuplicateEntry) {
			return e.storage.GetTransactionByDocument(ctx, doc.ID)
		}
		return nil, err
	}
	return txn, nil
}

// transition moves the document to its terminal state with a
// compare-and-set on the state it was loaded in, so concurrent runs on the
// same document cannot both win.
func (e *Engine) transition(ctx context.Context, doc *model.Document, to model.DocumentStatus) error {
	if doc.Status == to {
		return nil
	}
	if err := e.storage.UpdateDocumentStatus(ctx, doc.ID, doc.Status, to); err != nil {
		return fmt.Errorf("failed to transition document %s to %s: %w", doc.ID, to, err)
	}
	doc.Status = to
	return nil
}

// dateLayouts are tried in order when resolving an extracted date string.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
}

// resolveDate parses the extracted date string, falling back to the
// document's received time when the string is absent or unparseable.
func resolveDate(raw string, receivedAt time.Time) time.Time {
	if raw != "" {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
	}
	if receivedAt.IsZero() {
		return time.Now().UTC()
	}
	return receivedAt
}
