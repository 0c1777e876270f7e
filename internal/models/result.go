package models

// EmbedResult summarizes a single-bill embed.
type EmbedResult struct {
	BillNumber  string `json:"billNumber"`
	BillID      int64  `json:"billId"`
	SessionYear int    `json:"sessionYear"`
	Chunks      int    `json:"chunks"`
	TotalTokens int    `json:"totalTokens"`
}

// MaxErrorDetails caps the per-bill error messages returned with a batch result.
const MaxErrorDetails = 10

// BatchResult summarizes one time-boxed page of the batch pipeline.
// NextOffset is nil when the page was the last one.
type BatchResult struct {
	SessionYear  int      `json:"sessionYear"`
	Offset       int      `json:"offset"`
	BatchSize    int      `json:"batchSize"`
	Processed    int      `json:"processed"`
	Succeeded    int      `json:"succeeded"`
	Failed       int      `json:"failed"`
	TotalChunks  int      `json:"totalChunks"`
	DurationMs   int64    `json:"durationMs"`
	TimedOut     bool     `json:"timedOut"`
	HasMore      bool     `json:"hasMore"`
	NextOffset   *int     `json:"nextOffset"`
	ErrorDetails []string `json:"errorDetails,omitempty"`
}

// StatusResult reports embedding progress for a session.
type StatusResult struct {
	SessionYear     int   `json:"sessionYear"`
	TotalChunks     int64 `json:"totalChunks"`
	BillsWithChunks int64 `json:"billsWithChunks"`
	TotalBills      int64 `json:"totalBills"`
	PercentComplete int   `json:"percentComplete"`
}

// SearchResult is a single chunk hit with its cosine similarity to the query.
type SearchResult struct {
	Chunk      *Chunk  `json:"chunk"`
	Similarity float64 `json:"similarity"`
	Rank       int     `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Query     string          `json:"query"`
	Results   []*SearchResult `json:"results"`
	QueryTime int64           `json:"queryTimeMs"`
}
