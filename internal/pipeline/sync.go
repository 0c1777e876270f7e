package pipeline

import (
	"context"
	"fmt"

	"github.com/nysgpt/billembed/internal/legislature"
	"github.com/nysgpt/billembed/internal/models"
	"github.com/nysgpt/billembed/internal/storage"
	"go.uber.org/zap"
)

// DefaultSyncPageSize is the page size requested from the bill listing API.
const DefaultSyncPageSize = 100

// BillLister pages through a session's bills. Implemented by legislature.Client.
type BillLister interface {
	ListBills(ctx context.Context, sessionYear, offset, limit int) ([]models.BillRecord, int, error)
}

// SyncResult summarizes a bill sync.
type SyncResult struct {
	SessionYear int `json:"sessionYear"`
	Synced      int `json:"synced"`
	Total       int `json:"total"`
}

// SyncBills copies a session's bill list from lister into store's bill collection,
// one page at a time. Existing bills are updated in place.
func SyncBills(ctx context.Context, lister BillLister, store storage.Storage, sessionYear, pageSize int, logger *zap.Logger) (*SyncResult, error) {
	if pageSize <= 0 {
		pageSize = DefaultSyncPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	res := &SyncResult{SessionYear: legislature.SessionYear(sessionYear)}
	for offset := 0; ; offset += pageSize {
		bills, total, err := lister.ListBills(ctx, res.SessionYear, offset, pageSize)
		if err != nil {
			return res, err
		}
		res.Total = total
		if len(bills) == 0 {
			break
		}
		if err := store.UpsertBills(ctx, bills); err != nil {
			return res, fmt.Errorf("%w: upsert bills: %w", models.ErrPersistence, err)
		}
		res.Synced += len(bills)
		logger.Debug("bill page synced", zap.Int("offset", offset), zap.Int("bills", len(bills)), zap.Int("total", total))
		if offset+pageSize >= total {
			break
		}
	}
	logger.Info("bill sync finished", zap.Int("session_year", res.SessionYear), zap.Int("synced", res.Synced), zap.Int("total", res.Total))
	return res, nil
}
