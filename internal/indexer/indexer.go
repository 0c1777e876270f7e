// Package indexer turns bill text into ordered, embedded chunks and persists them.
package indexer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nysgpt/billembed/internal/embedding"
	"github.com/nysgpt/billembed/internal/models"
	"github.com/nysgpt/billembed/internal/storage"
	"go.uber.org/zap"
)

// Default chunking budget in estimated tokens.
const (
	DefaultMaxTokens     = 500
	DefaultOverlapTokens = 50
)

// BillFetcher retrieves a bill with its resolved full text.
type BillFetcher interface {
	FetchBill(ctx context.Context, billNumber string, sessionYear int) (*models.Bill, error)
}

// Indexer runs the single-bill flow: fetch, normalize, chunk, embed, replace.
type Indexer struct {
	fetcher   BillFetcher
	embedder  embedding.Embedder
	storage   storage.Storage
	assembler *Assembler
	logger    *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for per-bill debug output.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithChunking overrides the body chunk budget and overlap (in estimated tokens).
func WithChunking(maxTokens, overlapTokens int) IndexerOption {
	return func(idx *Indexer) { idx.assembler = NewAssembler(NewChunker(maxTokens, overlapTokens)) }
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(fetcher BillFetcher, embedder embedding.Embedder, store storage.Storage, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		fetcher:   fetcher,
		embedder:  embedder,
		storage:   store,
		assembler: NewAssembler(NewChunker(DefaultMaxTokens, DefaultOverlapTokens)),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// EmbedBill fetches one bill, rebuilds its chunks and replaces whatever was stored for it.
// A bill with no text still has its old chunks removed. Errors carry the sentinel of the
// failing stage (ErrFetch, ErrEmbedding or ErrPersistence).
func (idx *Indexer) EmbedBill(ctx context.Context, billNumber string, sessionYear int) (*models.EmbedResult, error) {
	bill, err := idx.fetcher.FetchBill(ctx, billNumber, sessionYear)
	if err != nil {
		return nil, err
	}

	body := bill.FullTextHTML
	if body == "" {
		body = bill.FullText
	}
	chunks := idx.assembler.Assemble(BillContent{
		Title:   bill.Title,
		Summary: bill.Summary,
		Memo:    bill.Memo,
		Body:    StripHTML(body),
	})

	totalTokens := 0
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		c.ID = uuid.New().String()
		c.BillID = bill.BillID
		c.BillNumber = bill.BillNumber
		c.SessionID = bill.SessionYear
		c.Metadata = map[string]interface{}{
			models.MetaKeyVersion: bill.TextVersion,
			models.MetaKeyTitle:   bill.Title,
		}
		texts[i] = c.Content
		totalTokens += c.TokenCount
	}

	if len(chunks) > 0 {
		embeddings, err := idx.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed %s: %w", bill.BillNumber, err)
		}
		if len(embeddings) != len(chunks) {
			return nil, fmt.Errorf("%w: embed %s: got %d vectors for %d chunks",
				models.ErrEmbedding, bill.BillNumber, len(embeddings), len(chunks))
		}
		for i := range chunks {
			chunks[i].Embedding = embeddings[i]
		}
	}

	if err := idx.storage.ReplaceChunks(ctx, bill.BillID, chunks); err != nil {
		return nil, fmt.Errorf("store %s: %w", bill.BillNumber, err)
	}

	idx.logger.Debug("bill embedded",
		zap.String("bill_number", bill.BillNumber),
		zap.Int64("bill_id", bill.BillID),
		zap.Int("chunks", len(chunks)),
		zap.Int("total_tokens", totalTokens),
	)
	return &models.EmbedResult{
		BillNumber:  bill.BillNumber,
		BillID:      bill.BillID,
		SessionYear: bill.SessionYear,
		Chunks:      len(chunks),
		TotalTokens: totalTokens,
	}, nil
}
