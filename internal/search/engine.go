// Package search answers free-text questions with the most similar stored bill chunks.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/nysgpt/billembed/internal/embedding"
	"github.com/nysgpt/billembed/internal/models"
	"github.com/nysgpt/billembed/internal/storage"
	"go.uber.org/zap"
)

// Engine runs semantic chunk search: embed the query, then rank stored chunks by cosine similarity.
type Engine struct {
	storage       storage.Storage
	embedder      embedding.Embedder
	minSimilarity float64
	logger        *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMinSimilarity drops results scoring below min.
func WithMinSimilarity(min float64) EngineOption {
	return func(e *Engine) { e.minSimilarity = min }
}

// WithLogger sets a logger for query debug output.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(store storage.Storage, embedder embedding.Embedder, opts ...EngineOption) *Engine {
	e := &Engine{
		storage:  store,
		embedder: embedder,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search returns up to req.Limit chunks of the request's session, best first.
func (e *Engine) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := ProcessQuery(req); err != nil {
		return nil, err
	}

	queryEmbedding, err := e.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := e.storage.SearchChunks(ctx, req.SessionYear, queryEmbedding, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("%w: search chunks: %w", models.ErrPersistence, err)
	}

	if e.minSimilarity > 0 {
		filtered := results[:0]
		for _, r := range results {
			if r.Similarity >= e.minSimilarity {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}
	if results == nil {
		results = []*models.SearchResult{}
	}

	resp := &models.SearchResponse{
		Query:     req.Query,
		Results:   results,
		QueryTime: time.Since(startTime).Milliseconds(),
	}
	e.logger.Debug("search completed",
		zap.String("query", req.Query),
		zap.Int("session_year", req.SessionYear),
		zap.Int("results", len(results)),
		zap.Int64("query_time_ms", resp.QueryTime),
	)
	return resp, nil
}
