package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finemail/finemail/internal/common"
	"github.com/finemail/finemail/internal/model"
	"github.com/finemail/finemail/internal/service"
)

// Extractor runs the full model-based extraction path: build the prompt,
// call the backend with retry and rate limiting, validate the reply into a
// candidate result. It implements the engine's ModelExtractor contract.
type Extractor struct {
	client      Client
	logger      *slog.Logger
	rateLimiter *rateLimiter
	retryOpts   service.RetryOptions
	fewShot     bool
}

// ExtractorConfig holds configuration for the model extractor.
type ExtractorConfig struct {
	Client  Config
	FewShot bool
}

// NewExtractor creates a model extractor from backend configuration.
func NewExtractor(cfg ExtractorConfig, logger *slog.Logger) (*Extractor, error) {
	client, err := NewClient(cfg.Client)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return NewExtractorWithClient(client, cfg, logger), nil
}

// NewExtractorWithClient creates a model extractor around an existing
// client. Used by tests to inject the mock.
func NewExtractorWithClient(client Client, cfg ExtractorConfig, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.Client.MaxRetries,
		InitialDelay: cfg.Client.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Extractor{
		client:      client,
		logger:      logger,
		rateLimiter: newRateLimiter(cfg.Client.RateLimit),
		retryOpts:   retryOpts,
		fewShot:     cfg.FewShot,
	}
}

// Extract sends the document to the backend and validates the reply.
// Backend and validation errors are returned to the caller; the engine
// degrades to the rule extractor on any error here.
func (e *Extractor) Extract(ctx context.Context, doc model.Document) (model.CandidateResult, error) {
	prompt := BuildPrompt(doc, e.fewShot)

	var resp Response
	err := common.WithRetry(ctx, func() error {
		if err := e.rateLimiter.wait(ctx); err != nil {
			return err
		}

		r, genErr := e.client.Generate(ctx, prompt)
		if genErr != nil {
			return genErr
		}
		resp = r
		return nil
	}, e.retryOpts)
	if err != nil {
		return model.CandidateResult{}, fmt.Errorf("model generation failed: %w", err)
	}

	e.logger.Debug("Model reply received",
		"provider", resp.Provider,
		"model", resp.Model,
		"tokens_used", resp.TokensUsed)

	result, err := ValidateOutput(resp.Content)
	if err != nil {
		return model.CandidateResult{}, fmt.Errorf("model output validation failed: %w", err)
	}

	result.Provider = resp.Provider
	result.Model = resp.Model
	result.TokensUsed = resp.TokensUsed
	return result, nil
}

// Close releases the extractor's rate limiter.
func (e *Extractor) Close() {
	e.rateLimiter.Close()
}
