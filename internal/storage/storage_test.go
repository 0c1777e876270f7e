package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nysgpt/billembed/internal/models"
)

const testDims = 4

func testChunks(billID int64, session int, n int) []*models.Chunk {
	chunks := make([]*models.Chunk, n)
	for i := range chunks {
		typ := models.ChunkTypeBody
		if i == 0 {
			typ = models.ChunkTypeTitle
		}
		emb := make([]float32, testDims)
		emb[i%testDims] = 1
		chunks[i] = &models.Chunk{
			ID:         uuid.New().String(),
			BillID:     billID,
			BillNumber: fmt.Sprintf("S%d", billID%1_000_000),
			SessionID:  session,
			ChunkIndex: i,
			ChunkType:  typ,
			Content:    fmt.Sprintf("chunk %d of bill %d", i, billID),
			TokenCount: 5,
			Embedding:  emb,
			Metadata:   map[string]interface{}{models.MetaKeyVersion: "A", models.MetaKeyTitle: "Test Act"},
		}
	}
	return chunks
}

// runStorageSuite exercises the behavior every Storage backend must share.
func runStorageSuite(t *testing.T, store Storage) {
	ctx := context.Background()
	const session = 2025

	t.Run("bills", func(t *testing.T) {
		bills := []models.BillRecord{
			{BillID: 2025000002, BillNumber: "S2", SessionYear: session, Title: "Two"},
			{BillID: 2025000001, BillNumber: "S1", SessionYear: session, Title: "One"},
			{BillID: 2023000001, BillNumber: "S1", SessionYear: 2023, Title: "Old"},
		}
		require.NoError(t, store.UpsertBills(ctx, bills))

		bills[0].Title = "Two amended"
		require.NoError(t, store.UpsertBills(ctx, bills[:1]))

		n, err := store.CountBills(ctx, session)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		list, err := store.ListBills(ctx, session, 0, 10)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, int64(2025000001), list[0].BillID, "ordered by bill_id")
		assert.Equal(t, "Two amended", list[1].Title)

		page, err := store.ListBills(ctx, session, 1, 10)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "S2", page[0].BillNumber)
	})

	t.Run("bills sharing a bill_id across chambers are kept apart", func(t *testing.T) {
		const s = 2027
		bills := []models.BillRecord{
			{BillID: 2027000100, BillNumber: "S100", SessionYear: s, Title: "Senate"},
			{BillID: 2027000100, BillNumber: "A100", SessionYear: s, Title: "Assembly"},
			{BillID: 2027000101, BillNumber: "S101", SessionYear: s},
		}
		require.NoError(t, store.UpsertBills(ctx, bills))
		require.NoError(t, store.UpsertBills(ctx, bills[:1]))

		n, err := store.CountBills(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		var numbers []string
		for offset := 0; offset < 3; offset++ {
			page, err := store.ListBills(ctx, s, offset, 1)
			require.NoError(t, err)
			require.Len(t, page, 1)
			numbers = append(numbers, page[0].BillNumber)
		}
		assert.Equal(t, []string{"A100", "S100", "S101"}, numbers, "ordered by bill_id, then bill_number")
	})

	t.Run("failed insert leaves the bill without chunks", func(t *testing.T) {
		const billID = 2025000104
		require.NoError(t, store.ReplaceChunks(ctx, billID, testChunks(billID, session, 2)))

		bad := testChunks(billID, session, 2)
		bad[1].Content = "  "
		err := store.ReplaceChunks(ctx, billID, bad)
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrPersistence)

		got, err := store.GetChunksByBillID(ctx, billID)
		require.NoError(t, err)
		assert.Empty(t, got, "the delete is not rolled back")
	})

	t.Run("replace chunks is idempotent", func(t *testing.T) {
		const billID = 2025000101
		require.NoError(t, store.ReplaceChunks(ctx, billID, testChunks(billID, session, 3)))
		require.NoError(t, store.ReplaceChunks(ctx, billID, testChunks(billID, session, 3)))

		got, err := store.GetChunksByBillID(ctx, billID)
		require.NoError(t, err)
		require.Len(t, got, 3)
		for i, c := range got {
			assert.Equal(t, i, c.ChunkIndex)
			assert.Len(t, c.Embedding, testDims)
			assert.Equal(t, "Test Act", c.Metadata[models.MetaKeyTitle])
		}
		assert.Equal(t, models.ChunkTypeTitle, got[0].ChunkType)
	})

	t.Run("replace with fewer chunks drops stale rows", func(t *testing.T) {
		const billID = 2025000102
		require.NoError(t, store.ReplaceChunks(ctx, billID, testChunks(billID, session, 4)))
		require.NoError(t, store.ReplaceChunks(ctx, billID, testChunks(billID, session, 2)))
		got, err := store.GetChunksByBillID(ctx, billID)
		require.NoError(t, err)
		assert.Len(t, got, 2)

		require.NoError(t, store.ReplaceChunks(ctx, billID, nil))
		got, err = store.GetChunksByBillID(ctx, billID)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("counts", func(t *testing.T) {
		const billID = 2025000103
		require.NoError(t, store.ReplaceChunks(ctx, billID, testChunks(billID, session, 2)))
		require.NoError(t, store.ReplaceChunks(ctx, 2023000103, testChunks(2023000103, 2023, 2)))

		chunks, err := store.CountChunks(ctx, session)
		require.NoError(t, err)
		assert.Equal(t, int64(5), chunks, "3 from bill 101 plus 2 from bill 103")

		withChunks, err := store.CountBillsWithChunks(ctx, session)
		require.NoError(t, err)
		assert.Equal(t, int64(2), withChunks)
	})

	t.Run("search", func(t *testing.T) {
		query := []float32{0, 1, 0, 0}
		results, err := store.SearchChunks(ctx, session, query, 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, 1, results[0].Rank)
		assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
		assert.Equal(t, 1, results[0].Chunk.ChunkIndex)
		assert.Equal(t, session, results[0].Chunk.SessionID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.DeleteChunksByBillID(ctx, 2025000101))
		got, err := store.GetChunksByBillID(ctx, 2025000101)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
