package indexer

import (
	"strings"
)

// Word windows assume four words per five tokens, independent of EstimateTokens.
const (
	wordsPerTokenNum = 4
	wordsPerTokenDen = 5
)

// Chunker splits text into overlapping word windows bounded by a token budget.
type Chunker struct {
	maxTokens     int
	overlapTokens int
}

// NewChunker creates a chunker with the given token budget and overlap (in tokens).
func NewChunker(maxTokens, overlapTokens int) *Chunker {
	return &Chunker{
		maxTokens:     maxTokens,
		overlapTokens: overlapTokens,
	}
}

// Split returns text unchanged (trimmed) when it fits within the token budget. Otherwise it
// slides a window of words across the text; consecutive windows share about overlapTokens
// worth of words. Words are never broken.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if EstimateTokens(text) <= c.maxTokens {
		return []string{text}
	}
	words := strings.Fields(text)
	wordsPerChunk := c.maxTokens * wordsPerTokenNum / wordsPerTokenDen
	if wordsPerChunk < 1 {
		wordsPerChunk = 1
	}
	overlapWords := c.overlapTokens * wordsPerTokenNum / wordsPerTokenDen
	step := wordsPerChunk - overlapWords
	if step <= 0 {
		step = 1
	}
	chunks := make([]string, 0, len(words)/step+1)
	for i := 0; i < len(words); i += step {
		end := i + wordsPerChunk
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end >= len(words) {
			break
		}
	}
	return chunks
}
