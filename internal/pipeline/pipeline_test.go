package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/nysgpt/billembed/internal/models"
	"github.com/nysgpt/billembed/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "bills.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedBills(t *testing.T, store storage.Storage, session, n int) []models.BillRecord {
	t.Helper()
	bills := make([]models.BillRecord, n)
	for i := range bills {
		bills[i] = models.BillRecord{
			BillID:      int64(session)*1_000_000 + int64(i+1),
			BillNumber:  fmt.Sprintf("S%d", i+1),
			SessionYear: session,
			Title:       fmt.Sprintf("Bill %d", i+1),
		}
	}
	require.NoError(t, store.UpsertBills(context.Background(), bills))
	return bills
}

// recordingEmbedder fakes the single-bill flow: 2 chunks per bill, failures on demand.
type recordingEmbedder struct {
	seen  []string
	fail  map[string]bool
	onRun func()
}

func (r *recordingEmbedder) EmbedBill(_ context.Context, billNumber string, sessionYear int) (*models.EmbedResult, error) {
	r.seen = append(r.seen, billNumber)
	if r.onRun != nil {
		r.onRun()
	}
	if r.fail[billNumber] {
		return nil, errors.Join(models.ErrFetch, fmt.Errorf("bill %s not found", billNumber))
	}
	return &models.EmbedResult{BillNumber: billNumber, SessionYear: sessionYear, Chunks: 2}, nil
}

func TestBatch_FirstPageOfMany(t *testing.T) {
	store := newStore(t)
	seedBills(t, store, 2025, 25)
	emb := &recordingEmbedder{}

	res, err := NewBatch(store, emb, WithBillDelay(0)).Run(context.Background(), models.EmbedBatchRequest{
		SessionYear: 2025, BatchSize: 10, Offset: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Processed)
	assert.Equal(t, 10, res.Succeeded)
	assert.Equal(t, 20, res.TotalChunks)
	assert.True(t, res.HasMore)
	require.NotNil(t, res.NextOffset)
	assert.Equal(t, 10, *res.NextOffset)
	assert.False(t, res.TimedOut)
	assert.Equal(t, "S1", emb.seen[0], "bills are processed in bill_id order")
}

func TestBatch_ResumesToCompletion(t *testing.T) {
	store := newStore(t)
	seedBills(t, store, 2025, 25)
	emb := &recordingEmbedder{}
	batch := NewBatch(store, emb, WithBillDelay(0))

	offset, calls := 0, 0
	for {
		calls++
		res, err := batch.Run(context.Background(), models.EmbedBatchRequest{SessionYear: 2025, BatchSize: 10, Offset: offset})
		require.NoError(t, err)
		if !res.HasMore {
			assert.Nil(t, res.NextOffset)
			break
		}
		offset = *res.NextOffset
	}
	assert.Equal(t, 3, calls)
	require.Len(t, emb.seen, 25)
	seen := make(map[string]bool)
	for _, b := range emb.seen {
		assert.False(t, seen[b], "bill %s processed twice", b)
		seen[b] = true
	}
}

func TestBatch_FailuresDoNotAbort(t *testing.T) {
	store := newStore(t)
	seedBills(t, store, 2025, 15)
	fail := make(map[string]bool)
	for i := 1; i <= 12; i++ {
		fail[fmt.Sprintf("S%d", i)] = true
	}
	emb := &recordingEmbedder{fail: fail}

	res, err := NewBatch(store, emb, WithBillDelay(0)).Run(context.Background(), models.EmbedBatchRequest{
		SessionYear: 2025, BatchSize: 15,
	})
	require.NoError(t, err)
	assert.Equal(t, 15, res.Processed)
	assert.Equal(t, 12, res.Failed)
	assert.Equal(t, 3, res.Succeeded)
	assert.Len(t, res.ErrorDetails, models.MaxErrorDetails)
	assert.Contains(t, res.ErrorDetails[0], "S1: ")
	assert.False(t, res.HasMore)
	assert.Nil(t, res.NextOffset)
}

func TestBatch_TimeBudget(t *testing.T) {
	store := newStore(t)
	seedBills(t, store, 2025, 10)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	// Each bill takes 20s of fake time; the third check lands at 40s, the fourth at 60s.
	emb := &recordingEmbedder{onRun: func() { now = now.Add(20 * time.Second) }}

	res, err := NewBatch(store, emb, WithBillDelay(0), WithClock(clock)).Run(context.Background(), models.EmbedBatchRequest{
		SessionYear: 2025, BatchSize: 10, Offset: 0,
	})
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.Equal(t, 3, res.Processed)
	require.NotNil(t, res.NextOffset)
	assert.Equal(t, 3, *res.NextOffset)
	assert.True(t, res.HasMore)
	assert.Equal(t, int64(60_000), res.DurationMs)
}

func TestBatch_EmptyCollection(t *testing.T) {
	store := newStore(t)
	res, err := NewBatch(store, &recordingEmbedder{}).Run(context.Background(), models.EmbedBatchRequest{
		SessionYear: 2026, BatchSize: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 2025, res.SessionYear)
	assert.Zero(t, res.Processed)
	assert.False(t, res.HasMore)
	assert.Nil(t, res.NextOffset)
}

func TestBatch_BillDelaySpacesBills(t *testing.T) {
	store := newStore(t)
	seedBills(t, store, 2025, 3)
	emb := &recordingEmbedder{}

	start := time.Now()
	_, err := NewBatch(store, emb, WithBillDelay(30*time.Millisecond)).Run(context.Background(), models.EmbedBatchRequest{
		SessionYear: 2025, BatchSize: 3,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond, "first bill is immediate, the next two wait")
	assert.Len(t, emb.seen, 3)
}

func TestStatusReporter(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	reporter := NewStatusReporter(store)

	res, err := reporter.Report(ctx, 2025)
	require.NoError(t, err)
	assert.Zero(t, res.TotalBills)
	assert.Zero(t, res.PercentComplete, "no division by zero on an empty session")

	seedBills(t, store, 2025, 3)
	for _, billID := range []int64{2025000001, 2025000002} {
		require.NoError(t, store.ReplaceChunks(ctx, billID, []*models.Chunk{
			{ID: fmt.Sprintf("%d-0", billID), BillID: billID, BillNumber: "S", SessionID: 2025, ChunkType: models.ChunkTypeTitle, Content: "Title: x", TokenCount: 2},
			{ID: fmt.Sprintf("%d-1", billID), BillID: billID, BillNumber: "S", SessionID: 2025, ChunkIndex: 1, ChunkType: models.ChunkTypeBody, Content: "body", TokenCount: 1},
		}))
	}

	res, err = reporter.Report(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 2025, res.SessionYear)
	assert.Equal(t, int64(4), res.TotalChunks)
	assert.Equal(t, int64(2), res.BillsWithChunks)
	assert.Equal(t, int64(3), res.TotalBills)
	assert.Equal(t, 67, res.PercentComplete)
}

func TestPercentComplete(t *testing.T) {
	tests := []struct {
		done, total int64
		want        int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{0, 10, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 200, 1},
		{10, 10, 100},
	}
	for _, tt := range tests {
		if got := PercentComplete(tt.done, tt.total); got != tt.want {
			t.Errorf("PercentComplete(%d, %d) = %d, want %d", tt.done, tt.total, got, tt.want)
		}
	}
}

type pagedLister struct {
	bills []models.BillRecord
	calls int
	err   error
}

func (p *pagedLister) ListBills(_ context.Context, _ int, offset, limit int) ([]models.BillRecord, int, error) {
	p.calls++
	if p.err != nil {
		return nil, 0, p.err
	}
	if offset >= len(p.bills) {
		return nil, len(p.bills), nil
	}
	end := offset + limit
	if end > len(p.bills) {
		end = len(p.bills)
	}
	return p.bills[offset:end], len(p.bills), nil
}

func TestSyncBills(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	src := newStore(t)
	lister := &pagedLister{bills: seedBills(t, src, 2025, 7)}

	res, err := SyncBills(ctx, lister, store, 2026, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Synced)
	assert.Equal(t, 7, res.Total)
	assert.Equal(t, 3, lister.calls)

	n, err := store.CountBills(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	// Re-sync updates in place.
	_, err = SyncBills(ctx, lister, store, 2025, 100, nil)
	require.NoError(t, err)
	n, err = store.CountBills(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestSyncBills_ChamberPairsShareBillID(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	lister := &pagedLister{bills: []models.BillRecord{
		{BillID: 2025000100, BillNumber: "S100", SessionYear: 2025},
		{BillID: 2025000100, BillNumber: "A100", SessionYear: 2025},
		{BillID: 2025000101, BillNumber: "S101", SessionYear: 2025},
	}}

	res, err := SyncBills(ctx, lister, store, 2025, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Synced)

	list, err := store.ListBills(ctx, 2025, 0, 10)
	require.NoError(t, err)
	var numbers []string
	for _, b := range list {
		numbers = append(numbers, b.BillNumber)
	}
	assert.Equal(t, []string{"A100", "S100", "S101"}, numbers)

	emb := &recordingEmbedder{}
	out, err := NewBatch(store, emb, WithBillDelay(0)).Run(ctx, models.EmbedBatchRequest{SessionYear: 2025, BatchSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Processed)
	assert.False(t, out.HasMore)
	assert.Equal(t, []string{"A100", "S100", "S101"}, emb.seen)
}

func TestSyncBills_ListError(t *testing.T) {
	store := newStore(t)
	lister := &pagedLister{err: errors.Join(models.ErrFetch, errors.New("503"))}
	_, err := SyncBills(context.Background(), lister, store, 2025, 10, nil)
	assert.ErrorIs(t, err, models.ErrFetch)
}
