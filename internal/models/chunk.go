package models

import "time"

// ChunkType classifies where a chunk's text came from.
type ChunkType string

const (
	ChunkTypeTitle ChunkType = "title"
	ChunkTypeMemo  ChunkType = "memo"
	ChunkTypeBody  ChunkType = "body"
)

// Chunk is a bounded unit of bill text prepared for embedding and retrieval.
// Chunks are never updated in place: a re-embed replaces every chunk of the bill.
type Chunk struct {
	ID         string                 `json:"id" db:"id"`
	BillID     int64                  `json:"billId" db:"bill_id"`
	BillNumber string                 `json:"billNumber" db:"bill_number"`
	SessionID  int                    `json:"sessionId" db:"session_id"`
	ChunkIndex int                    `json:"chunkIndex" db:"chunk_index"`
	ChunkType  ChunkType              `json:"chunkType" db:"chunk_type"`
	Content    string                 `json:"content" db:"content"`
	TokenCount int                    `json:"tokenCount" db:"token_count"`
	Embedding  []float32              `json:"-" db:"embedding"`
	Metadata   map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt  time.Time              `json:"createdAt" db:"created_at"`
}

// Metadata keys stored on every chunk.
const (
	MetaKeyVersion = "version"
	MetaKeyTitle   = "title"
)
