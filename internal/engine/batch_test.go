package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/finemail/finemail/internal/model"
	"github.com/finemail/finemail/internal/pattern"
	"github.com/finemail/finemail/internal/rule"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBatch(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	eng, mock := newTestEngine(t, store)

	txnDoc := newPendingDocument(t, store)

	ignoredDoc := &model.Document{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		MessageID: uuid.NewString(),
		Subject:   "Team offsite",
		Sender:    "boss@example.com",
		Body:      "Agenda attached",
		Status:    model.DocStatusPending,
	}
	require.NoError(t, store.SaveDocument(ctx, ignoredDoc))
	mock.SetResult(ignoredDoc.ID, model.CandidateResult{IsTransaction: false, ConfidenceScore: 0.9})

	// Malformed document: rejected by Parse, must not abort the batch.
	badDoc := model.Document{
		ID:     uuid.NewString(),
		UserID: "user-1",
		Status: model.DocStatusPending,
	}

	docs := []model.Document{*txnDoc, *ignoredDoc, badDoc}

	var (
		mu       sync.Mutex
		callback int
	)
	stats, err := eng.ParseBatch(ctx, docs, BatchOptions{
		OnResult: func(_ model.Document, _ *ParseResult, _ error) {
			mu.Lock()
			callback++
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 1, stats.Ignored)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.TransactionsCreated)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 3, callback)

	// The healthy documents reached their terminal states.
	stored, err := store.GetDocumentByID(ctx, txnDoc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DocStatusParsed, stored.Status)

	stored, err = store.GetDocumentByID(ctx, ignoredDoc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DocStatusIgnored, stored.Status)
}

func TestParseBatchSkipsNonPending(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	eng, mock := newTestEngine(t, store)

	doc := newPendingDocument(t, store)
	_, err := eng.Parse(ctx, doc, ParseOptions{})
	require.NoError(t, err)

	stats, err := eng.ParseBatch(ctx, []model.Document{*doc}, BatchOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Succeeded)

	// Skipped documents never reach the model.
	assert.Len(t, mock.Calls(), 1)
}

func TestParseBatchEmpty(t *testing.T) {
	store := newTestStorage(t)
	eng, _ := newTestEngine(t, store)

	stats, err := eng.ParseBatch(context.Background(), nil, BatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, BatchStats{}, stats)
}

func TestParseBatchHonorsConcurrencyBound(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	var (
		mu       sync.Mutex
		inFlight int
		peak     int
	)
	tracker := &trackingExtractor{
		inner: NewMockModelExtractor(),
		onExtract: func() {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()
		},
		onDone: func() {
			mu.Lock()
			inFlight--
			mu.Unlock()
		},
	}

	cfg := DefaultConfig()
	cfg.MaxConcurrent = 2
	eng := NewWithConfig(store, tracker, rule.NewExtractor(pattern.NewLibrary()), nil, cfg)

	docs := make([]model.Document, 0, 8)
	for range 8 {
		docs = append(docs, *newPendingDocument(t, store))
	}

	stats, err := eng.ParseBatch(ctx, docs, BatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 8, stats.Succeeded)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, 2)
}

// trackingExtractor wraps a ModelExtractor with entry/exit hooks.
type trackingExtractor struct {
	inner     ModelExtractor
	onExtract func()
	onDone    func()
}

func (x *trackingExtractor) Extract(ctx context.Context, doc model.Document) (model.CandidateResult, error) {
	x.onExtract()
	defer x.onDone()
	return x.inner.Extract(ctx, doc)
}
