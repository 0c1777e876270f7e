package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/nysgpt/billembed/internal/legislature"
	"github.com/nysgpt/billembed/internal/models"
	"github.com/nysgpt/billembed/internal/storage"
)

// StatusReporter reports how much of a session's bill collection has been embedded.
type StatusReporter struct {
	storage storage.Storage
}

// NewStatusReporter creates a status reporter over store.
func NewStatusReporter(store storage.Storage) *StatusReporter {
	return &StatusReporter{storage: store}
}

// Report counts a session's chunks, distinct embedded bills and total bills.
// PercentComplete is 0 when the session has no bills.
func (s *StatusReporter) Report(ctx context.Context, sessionYear int) (*models.StatusResult, error) {
	session := legislature.SessionYear(sessionYear)
	chunks, err := s.storage.CountChunks(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("%w: count chunks: %w", models.ErrPersistence, err)
	}
	withChunks, err := s.storage.CountBillsWithChunks(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("%w: count embedded bills: %w", models.ErrPersistence, err)
	}
	total, err := s.storage.CountBills(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("%w: count bills: %w", models.ErrPersistence, err)
	}
	return &models.StatusResult{
		SessionYear:     session,
		TotalChunks:     chunks,
		BillsWithChunks: withChunks,
		TotalBills:      total,
		PercentComplete: PercentComplete(withChunks, total),
	}, nil
}

// PercentComplete returns round(100*done/total), or 0 when total is 0.
func PercentComplete(done, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}
