package llm

import (
	"context"
	"time"
)

// Client is the single capability every backend implements: render text
// from a prompt. Network, auth and quota errors surface as errors; the
// caller decides how to degrade.
type Client interface {
	Generate(ctx context.Context, prompt string) (Response, error)
}

// Response is the normalized reply from any backend.
type Response struct {
	Content    string
	Provider   string
	Model      string
	TokensUsed int
	Metadata   map[string]any
}

// Config holds configuration for backend construction.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	MaxRetries  int
	RetryDelay  time.Duration
	RateLimit   int // requests per minute
	Temperature float64
	MaxTokens   int
}
