package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/nysgpt/billembed/internal/models"
)

// PostgresStorage implements Storage on PostgreSQL with the pgvector extension.
// Similarity search runs in the database using the cosine distance operator.
type PostgresStorage struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewPostgresStorage connects to dsn, ensures the schema exists with a vector column of the
// given dimension, and returns a pooled store.
func NewPostgresStorage(ctx context.Context, dsn string, dimensions int) (*PostgresStorage, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: embedding dimensions must be positive", models.ErrConfig)
	}

	// The extension must exist before pgvector types can be registered on pool connections.
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	err = initPostgresSchema(ctx, conn, dimensions)
	_ = conn.Close(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", describePgError(err))
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}
	return &PostgresStorage{pool: pool, dimensions: dimensions}, nil
}

func initPostgresSchema(ctx context.Context, conn *pgx.Conn, dimensions int) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS bills (
			session_id INTEGER NOT NULL,
			bill_number TEXT NOT NULL,
			bill_id BIGINT NOT NULL,
			title TEXT,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (session_id, bill_number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bills_session ON bills(session_id, bill_id, bill_number)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS bill_chunks (
			id TEXT PRIMARY KEY,
			bill_id BIGINT NOT NULL,
			bill_number TEXT NOT NULL,
			session_id INTEGER NOT NULL,
			chunk_index INTEGER NOT NULL,
			chunk_type TEXT NOT NULL CHECK (chunk_type IN ('title', 'memo', 'body')),
			content TEXT NOT NULL CHECK (length(btrim(content)) > 0),
			token_count INTEGER NOT NULL,
			embedding vector(%d),
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (bill_id, chunk_index)
		)`, dimensions),
		`CREATE INDEX IF NOT EXISTS idx_bill_chunks_bill_id ON bill_chunks(bill_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bill_chunks_session ON bill_chunks(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bill_chunks_embedding ON bill_chunks USING hnsw (embedding vector_cosine_ops)`,
	}
	for _, stmt := range statements {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// describePgError adds the SQLSTATE class to server errors.
func describePgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		return fmt.Errorf("unique violation (%s): %w", pgErr.ConstraintName, err)
	case "23514":
		return fmt.Errorf("check violation (%s): %w", pgErr.ConstraintName, err)
	case "22000", "22P02":
		return fmt.Errorf("invalid data: %w", err)
	case "40001", "40P01", "55P03":
		return fmt.Errorf("retryable: %w", err)
	}
	return err
}

// UpsertBills inserts or updates bill records in one batch, keyed by session and bill number.
func (s *PostgresStorage) UpsertBills(ctx context.Context, bills []models.BillRecord) error {
	if len(bills) == 0 {
		return nil
	}
	now := time.Now()
	batch := &pgx.Batch{}
	for i := range bills {
		bills[i].UpdatedAt = now
		b := bills[i]
		batch.Queue(
			`INSERT INTO bills (bill_id, bill_number, session_id, title, updated_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (session_id, bill_number) DO UPDATE SET
			   bill_id = EXCLUDED.bill_id,
			   title = EXCLUDED.title,
			   updated_at = EXCLUDED.updated_at`,
			b.BillID, b.BillNumber, b.SessionYear, b.Title, b.UpdatedAt,
		)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return describePgError(err)
	}
	return nil
}

// ListBills returns a session's bills ordered by bill_id, then bill_number, with offset and limit.
func (s *PostgresStorage) ListBills(ctx context.Context, sessionYear, offset, limit int) ([]models.BillRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT bill_id, bill_number, session_id, COALESCE(title, ''), updated_at
		 FROM bills WHERE session_id = $1 ORDER BY bill_id, bill_number LIMIT $2 OFFSET $3`,
		sessionYear, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []models.BillRecord
	for rows.Next() {
		var b models.BillRecord
		if err := rows.Scan(&b.BillID, &b.BillNumber, &b.SessionYear, &b.Title, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

// CountBills returns the number of bills in a session.
func (s *PostgresStorage) CountBills(ctx context.Context, sessionYear int) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bills WHERE session_id = $1`, sessionYear).Scan(&count)
	return count, err
}

// ReplaceChunks deletes a bill's chunks, then bulk-copies the new set.
func (s *PostgresStorage) ReplaceChunks(ctx context.Context, billID int64, chunks []*models.Chunk) error {
	if err := s.DeleteChunksByBillID(ctx, billID); err != nil {
		return fmt.Errorf("%w: delete chunks of bill %d: %w", models.ErrPersistence, billID, err)
	}
	if len(chunks) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([][]any, 0, len(chunks))
	for _, c := range chunks {
		metadataJSON, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("%w: marshal metadata: %w", models.ErrPersistence, err)
		}
		var embedding any
		if len(c.Embedding) > 0 {
			embedding = pgvector.NewVector(c.Embedding)
		}
		c.CreatedAt = now
		rows = append(rows, []any{
			c.ID, c.BillID, c.BillNumber, c.SessionID, c.ChunkIndex, string(c.ChunkType),
			c.Content, c.TokenCount, embedding, metadataJSON, c.CreatedAt,
		})
	}

	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"bill_chunks"},
		[]string{"id", "bill_id", "bill_number", "session_id", "chunk_index", "chunk_type",
			"content", "token_count", "embedding", "metadata", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("%w: insert %d chunks of bill %d: %w", models.ErrPersistence, len(chunks), billID, describePgError(err))
	}
	return nil
}

const pgChunkColumns = `id, bill_id, bill_number, session_id, chunk_index, chunk_type,
	content, token_count, embedding, metadata, created_at`

func scanPgChunk(row pgx.Row, extra ...any) (*models.Chunk, error) {
	var c models.Chunk
	var chunkType string
	var embedding *pgvector.Vector
	var metadataJSON []byte
	dest := []any{&c.ID, &c.BillID, &c.BillNumber, &c.SessionID, &c.ChunkIndex, &chunkType,
		&c.Content, &c.TokenCount, &embedding, &metadataJSON, &c.CreatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	c.ChunkType = models.ChunkType(chunkType)
	if embedding != nil {
		c.Embedding = embedding.Slice()
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &c.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &c, nil
}

// GetChunksByBillID returns all chunks of a bill ordered by chunk_index.
func (s *PostgresStorage) GetChunksByBillID(ctx context.Context, billID int64) ([]*models.Chunk, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgChunkColumns+` FROM bill_chunks WHERE bill_id = $1 ORDER BY chunk_index`,
		billID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*models.Chunk
	for rows.Next() {
		c, err := scanPgChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// DeleteChunksByBillID removes all chunks of a bill.
func (s *PostgresStorage) DeleteChunksByBillID(ctx context.Context, billID int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM bill_chunks WHERE bill_id = $1`, billID)
	return err
}

// CountChunks returns the number of chunks in a session.
func (s *PostgresStorage) CountChunks(ctx context.Context, sessionYear int) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bill_chunks WHERE session_id = $1`, sessionYear).Scan(&count)
	return count, err
}

// CountBillsWithChunks returns the number of distinct bills with at least one chunk in a session.
func (s *PostgresStorage) CountBillsWithChunks(ctx context.Context, sessionYear int) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT bill_id) FROM bill_chunks WHERE session_id = $1`, sessionYear,
	).Scan(&count)
	return count, err
}

// SearchChunks orders a session's chunks by cosine distance to query.
func (s *PostgresStorage) SearchChunks(ctx context.Context, sessionYear int, query []float32, limit int) ([]*models.SearchResult, error) {
	if len(query) != s.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), s.dimensions)
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgChunkColumns+`, 1 - (embedding <=> $1) AS similarity
		 FROM bill_chunks
		 WHERE session_id = $2 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		pgvector.NewVector(query), sessionYear, limit,
	)
	if err != nil {
		return nil, describePgError(err)
	}
	defer rows.Close()

	var results []*models.SearchResult
	for rows.Next() {
		var similarity float64
		c, err := scanPgChunk(rows, &similarity)
		if err != nil {
			return nil, err
		}
		results = append(results, &models.SearchResult{Chunk: c, Similarity: similarity, Rank: len(results) + 1})
	}
	return results, rows.Err()
}

// Close closes the connection pool.
func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}
