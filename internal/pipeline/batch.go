// Package pipeline drives the time-boxed batch embedding loop, session status and bill sync.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/nysgpt/billembed/internal/legislature"
	"github.com/nysgpt/billembed/internal/models"
	"github.com/nysgpt/billembed/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Defaults for one batch invocation.
const (
	DefaultTimeBudget = 45 * time.Second
	DefaultBillDelay  = 500 * time.Millisecond
)

// BillEmbedder embeds a single bill. Implemented by indexer.Indexer.
type BillEmbedder interface {
	EmbedBill(ctx context.Context, billNumber string, sessionYear int) (*models.EmbedResult, error)
}

// Batch processes one page of a session's bill collection per Run.
type Batch struct {
	storage    storage.Storage
	embedder   BillEmbedder
	timeBudget time.Duration
	billDelay  time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithTimeBudget sets the wall-clock budget checked before each bill.
func WithTimeBudget(d time.Duration) BatchOption {
	return func(b *Batch) { b.timeBudget = d }
}

// WithBillDelay sets the minimum spacing between bill starts. Zero disables it.
func WithBillDelay(d time.Duration) BatchOption {
	return func(b *Batch) { b.billDelay = d }
}

// WithClock replaces time.Now for deadline checks.
func WithClock(now func() time.Time) BatchOption {
	return func(b *Batch) { b.now = now }
}

// WithLogger sets a logger for per-bill progress.
func WithLogger(l *zap.Logger) BatchOption {
	return func(b *Batch) { b.logger = l }
}

// NewBatch creates a batch runner over store's bill collection.
func NewBatch(store storage.Storage, embedder BillEmbedder, opts ...BatchOption) *Batch {
	b := &Batch{
		storage:    store,
		embedder:   embedder,
		timeBudget: DefaultTimeBudget,
		billDelay:  DefaultBillDelay,
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run embeds bills [Offset, Offset+BatchSize) of the session ordered by bill_id. The time budget
// is checked before each bill; once spent, no new bill is started and the result is marked
// TimedOut. Per-bill failures are counted and never abort the page. Calling Run again with the
// returned NextOffset resumes where this call stopped.
func (b *Batch) Run(ctx context.Context, req models.EmbedBatchRequest) (*models.BatchResult, error) {
	start := b.now()
	deadline := start.Add(b.timeBudget)
	session := legislature.SessionYear(req.SessionYear)

	total, err := b.storage.CountBills(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("%w: count bills: %w", models.ErrPersistence, err)
	}
	bills, err := b.storage.ListBills(ctx, session, req.Offset, req.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("%w: list bills: %w", models.ErrPersistence, err)
	}

	var limiter *rate.Limiter
	if b.billDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(b.billDelay), 1)
	}

	res := &models.BatchResult{
		SessionYear: session,
		Offset:      req.Offset,
		BatchSize:   req.BatchSize,
	}
	for _, bill := range bills {
		if !b.now().Before(deadline) {
			res.TimedOut = true
			b.logger.Warn("batch time budget spent",
				zap.Int("processed", res.Processed),
				zap.Int("page_size", len(bills)),
			)
			break
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				// Context cancelled: stop like a timeout so the offset stays resumable.
				res.TimedOut = true
				break
			}
		}

		res.Processed++
		out, err := b.embedder.EmbedBill(ctx, bill.BillNumber, bill.SessionYear)
		if err != nil {
			res.Failed++
			if len(res.ErrorDetails) < models.MaxErrorDetails {
				res.ErrorDetails = append(res.ErrorDetails, fmt.Sprintf("%s: %v", bill.BillNumber, err))
			}
			b.logger.Warn("bill embed failed", zap.String("bill_number", bill.BillNumber), zap.Error(err))
			continue
		}
		res.Succeeded++
		res.TotalChunks += out.Chunks
		b.logger.Debug("bill embedded", zap.String("bill_number", bill.BillNumber), zap.Int("chunks", out.Chunks))
	}

	next := req.Offset + res.Processed
	if int64(next) < total {
		res.HasMore = true
		res.NextOffset = &next
	}
	res.DurationMs = b.now().Sub(start).Milliseconds()

	b.logger.Info("batch finished",
		zap.Int("session_year", session),
		zap.Int("offset", req.Offset),
		zap.Int("processed", res.Processed),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed),
		zap.Int("total_chunks", res.TotalChunks),
		zap.Bool("timed_out", res.TimedOut),
		zap.Bool("has_more", res.HasMore),
	)
	return res, nil
}
