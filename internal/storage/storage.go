// Package storage defines the persistence interface for bills and their embedded chunks.
package storage

import (
	"context"

	"github.com/nysgpt/billembed/internal/models"
)

// Storage persists the bill collection and bill chunks. Session arguments are session keys
// (odd starting years).
type Storage interface {
	// Bill collection
	UpsertBills(ctx context.Context, bills []models.BillRecord) error
	ListBills(ctx context.Context, sessionYear, offset, limit int) ([]models.BillRecord, error)
	CountBills(ctx context.Context, sessionYear int) (int64, error)

	// ReplaceChunks deletes every stored chunk of billID, then inserts chunks in one bulk
	// operation (skipped when chunks is empty). The delete is not undone if the insert fails.
	ReplaceChunks(ctx context.Context, billID int64, chunks []*models.Chunk) error
	GetChunksByBillID(ctx context.Context, billID int64) ([]*models.Chunk, error)
	DeleteChunksByBillID(ctx context.Context, billID int64) error

	// Stats. CountBillsWithChunks is a server-side distinct count, never a capped fetch.
	CountChunks(ctx context.Context, sessionYear int) (int64, error)
	CountBillsWithChunks(ctx context.Context, sessionYear int) (int64, error)

	// SearchChunks returns the chunks of a session most similar to query, best first.
	SearchChunks(ctx context.Context, sessionYear int, query []float32, limit int) ([]*models.SearchResult, error)

	Close() error
}
