package engine

import (
	"context"

	"github.com/finemail/finemail/internal/model"
)

// ModelExtractor is the model-based extraction path. Errors from it are
// recoverable: the engine converts them into zero-confidence candidates
// and falls through to the rule extractor.
type ModelExtractor interface {
	Extract(ctx context.Context, doc model.Document) (model.CandidateResult, error)
}

// RuleExtractor is the deterministic extraction path. It is total: no
// error return, no context, bounded runtime.
type RuleExtractor interface {
	Extract(doc model.Document) model.CandidateResult
}
