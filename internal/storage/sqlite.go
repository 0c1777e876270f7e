package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nysgpt/billembed/internal/models"
	"github.com/nysgpt/billembed/internal/vector"
)

// SQLiteStorage implements Storage using SQLite. Embeddings are stored as little-endian
// float32 blobs and searched by brute force.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS bills (
		session_id INTEGER NOT NULL,
		bill_number TEXT NOT NULL,
		bill_id INTEGER NOT NULL,
		title TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (session_id, bill_number)
	);

	CREATE INDEX IF NOT EXISTS idx_bills_session ON bills(session_id, bill_id, bill_number);

	CREATE TABLE IF NOT EXISTS bill_chunks (
		id TEXT PRIMARY KEY,
		bill_id INTEGER NOT NULL,
		bill_number TEXT NOT NULL,
		session_id INTEGER NOT NULL,
		chunk_index INTEGER NOT NULL,
		chunk_type TEXT NOT NULL CHECK (chunk_type IN ('title', 'memo', 'body')),
		content TEXT NOT NULL CHECK (length(trim(content)) > 0),
		token_count INTEGER NOT NULL,
		embedding BLOB,
		metadata TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (bill_id, chunk_index)
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_bill_id ON bill_chunks(bill_id);
	CREATE INDEX IF NOT EXISTS idx_chunks_session ON bill_chunks(session_id);
	`
	_, err := db.Exec(schema)
	return err
}

// UpsertBills inserts or updates bill records in a transaction, keyed by session and bill number.
func (s *SQLiteStorage) UpsertBills(ctx context.Context, bills []models.BillRecord) error {
	if len(bills) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO bills (bill_id, bill_number, session_id, title, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(session_id, bill_number) DO UPDATE SET
		   bill_id = excluded.bill_id,
		   title = excluded.title,
		   updated_at = excluded.updated_at`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for i := range bills {
		bills[i].UpdatedAt = now
		b := bills[i]
		if _, err := stmt.ExecContext(ctx, b.BillID, b.BillNumber, b.SessionYear, b.Title, b.UpdatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListBills returns a session's bills ordered by bill_id, then bill_number, with offset and limit.
func (s *SQLiteStorage) ListBills(ctx context.Context, sessionYear, offset, limit int) ([]models.BillRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT bill_id, bill_number, session_id, title, updated_at
		 FROM bills WHERE session_id = ? ORDER BY bill_id, bill_number LIMIT ? OFFSET ?`,
		sessionYear, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []models.BillRecord
	for rows.Next() {
		var b models.BillRecord
		var title sql.NullString
		if err := rows.Scan(&b.BillID, &b.BillNumber, &b.SessionYear, &title, &b.UpdatedAt); err != nil {
			return nil, err
		}
		b.Title = title.String
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

// CountBills returns the number of bills in a session.
func (s *SQLiteStorage) CountBills(ctx context.Context, sessionYear int) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bills WHERE session_id = ?`, sessionYear).Scan(&count)
	return count, err
}

// ReplaceChunks deletes a bill's chunks, then bulk-inserts the new set. The delete is its own
// statement: when the insert fails the bill is left with no chunks.
func (s *SQLiteStorage) ReplaceChunks(ctx context.Context, billID int64, chunks []*models.Chunk) error {
	if err := s.DeleteChunksByBillID(ctx, billID); err != nil {
		return fmt.Errorf("%w: delete chunks of bill %d: %w", models.ErrPersistence, billID, err)
	}
	if len(chunks) == 0 {
		return nil
	}
	if err := s.batchCreateChunks(ctx, chunks); err != nil {
		return fmt.Errorf("%w: insert %d chunks of bill %d: %w", models.ErrPersistence, len(chunks), billID, err)
	}
	return nil
}

func (s *SQLiteStorage) batchCreateChunks(ctx context.Context, chunks []*models.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO bill_chunks (id, bill_id, bill_number, session_id, chunk_index, chunk_type,
		   content, token_count, embedding, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, c := range chunks {
		metadataJSON, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		c.CreatedAt = now
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.BillID, c.BillNumber, c.SessionID, c.ChunkIndex, string(c.ChunkType),
			c.Content, c.TokenCount, vector.EncodeFloat32s(c.Embedding), string(metadataJSON), c.CreatedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const chunkColumns = `id, bill_id, bill_number, session_id, chunk_index, chunk_type,
	content, token_count, embedding, metadata, created_at`

func scanChunk(rows *sql.Rows) (*models.Chunk, error) {
	var c models.Chunk
	var chunkType string
	var embedding []byte
	var metadataJSON sql.NullString
	if err := rows.Scan(&c.ID, &c.BillID, &c.BillNumber, &c.SessionID, &c.ChunkIndex, &chunkType,
		&c.Content, &c.TokenCount, &embedding, &metadataJSON, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.ChunkType = models.ChunkType(chunkType)
	c.Embedding = vector.DecodeFloat32s(embedding)
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &c.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &c, nil
}

// GetChunksByBillID returns all chunks of a bill ordered by chunk_index.
func (s *SQLiteStorage) GetChunksByBillID(ctx context.Context, billID int64) ([]*models.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chunkColumns+` FROM bill_chunks WHERE bill_id = ? ORDER BY chunk_index`,
		billID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*models.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// DeleteChunksByBillID removes all chunks of a bill.
func (s *SQLiteStorage) DeleteChunksByBillID(ctx context.Context, billID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM bill_chunks WHERE bill_id = ?`, billID)
	return err
}

// CountChunks returns the number of chunks in a session.
func (s *SQLiteStorage) CountChunks(ctx context.Context, sessionYear int) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bill_chunks WHERE session_id = ?`, sessionYear).Scan(&count)
	return count, err
}

// CountBillsWithChunks returns the number of distinct bills with at least one chunk in a session.
func (s *SQLiteStorage) CountBillsWithChunks(ctx context.Context, sessionYear int) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT bill_id) FROM bill_chunks WHERE session_id = ?`, sessionYear,
	).Scan(&count)
	return count, err
}

// SearchChunks loads the session's embeddings into a memory index and returns the top matches.
func (s *SQLiteStorage) SearchChunks(ctx context.Context, sessionYear int, query []float32, limit int) ([]*models.SearchResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chunkColumns+` FROM bill_chunks WHERE session_id = ? ORDER BY bill_id, chunk_index`,
		sessionYear,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	idx, err := vector.NewMemoryIndex(len(query))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Chunk)
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		if len(c.Embedding) != len(query) {
			continue
		}
		if err := idx.Add([]string{c.ID}, [][]float32{c.Embedding}); err != nil {
			return nil, err
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hits, err := idx.Search(query, limit)
	if err != nil {
		return nil, err
	}
	results := make([]*models.SearchResult, len(hits))
	for i, h := range hits {
		results[i] = &models.SearchResult{Chunk: byID[h.ID], Similarity: h.Score, Rank: i + 1}
	}
	return results, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
