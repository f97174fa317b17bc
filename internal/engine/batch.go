package engine

import (
	"context"
	"sync"

	"github.com/finemail/finemail/internal/model"
)

// BatchStats accumulates the outcome of one batch run.
type BatchStats struct {
	Total               int
	Succeeded           int
	Failed              int
	Ignored             int
	TransactionsCreated int
	Skipped             int
}

// BatchOptions modifies a batch run.
type BatchOptions struct {
	// OnResult, if set, is called after each document completes. Calls
	// are serialized.
	OnResult func(doc model.Document, result *ParseResult, err error)
}

// ParseBatch arbitrates a set of documents. Documents not in the pending
// state are skipped. Model calls fan out up to the configured concurrency
// bound; each document's state transition and attempt write stay atomic,
// and a single document's failure never aborts the batch.
func (e *Engine) ParseBatch(ctx context.Context, docs []model.Document, opts BatchOptions) (BatchStats, error) {
	stats := BatchStats{Total: len(docs)}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, e.cfg.MaxConcurrent)
	)

	for i := range docs {
		doc := docs[i]

		if doc.Status != model.DocStatusPending {
			mu.Lock()
			stats.Skipped++
			mu.Unlock()
			continue
		}

		select {
		case <-ctx.Done():
			wg.Wait()
			return stats, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := e.Parse(ctx, &doc, ParseOptions{})

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil:
				e.logger.Error("Batch document failed",
					"document_id", doc.ID,
					"error", err)
				stats.Failed++
			case result.Transaction != nil:
				stats.Succeeded++
				stats.TransactionsCreated++
			case result.DocumentStatus == model.DocStatusIgnored:
				stats.Ignored++
			default:
				stats.Failed++
			}

			if opts.OnResult != nil {
				opts.OnResult(doc, result, err)
			}
		}()
	}

	wg.Wait()
	return stats, nil
}
