package indexer

import (
	"strings"
	"unicode/utf8"

	"github.com/nysgpt/billembed/internal/models"
)

// minMemoChars is the stripped length a sponsor memo must exceed to get its own chunk.
const minMemoChars = 20

// BillContent is the text of one bill that the assembler turns into chunks.
// Memo may be HTML or plain text; Body must already be normalized plain text.
type BillContent struct {
	Title   string
	Summary string
	Memo    string
	Body    string
}

// Assembler orders a bill's title, memo and body text into typed chunks.
type Assembler struct {
	chunker *Chunker
}

// NewAssembler creates an assembler that bounds body chunks with the given chunker.
func NewAssembler(chunker *Chunker) *Assembler {
	return &Assembler{chunker: chunker}
}

// Assemble emits, in order: one title chunk (title and/or summary), one memo chunk when the
// stripped memo is long enough, then body chunks per section piece. Indices are contiguous
// from 0. The result has no bill references or embeddings set. It is empty, not an error,
// when the bill has no text at all.
func (a *Assembler) Assemble(in BillContent) []*models.Chunk {
	var chunks []*models.Chunk
	emit := func(t models.ChunkType, content string) {
		content = strings.TrimSpace(content)
		if content == "" {
			return
		}
		chunks = append(chunks, &models.Chunk{
			ChunkIndex: len(chunks),
			ChunkType:  t,
			Content:    content,
			TokenCount: EstimateTokens(content),
		})
	}

	var header []string
	if title := strings.TrimSpace(in.Title); title != "" {
		header = append(header, "Title: "+title)
	}
	if summary := strings.TrimSpace(in.Summary); summary != "" {
		header = append(header, "Summary: "+summary)
	}
	if len(header) > 0 {
		emit(models.ChunkTypeTitle, strings.Join(header, "\n\n"))
	}

	if in.Memo != "" {
		memo := StripHTML(in.Memo)
		if utf8.RuneCountInString(memo) > minMemoChars {
			emit(models.ChunkTypeMemo, memo)
		}
	}

	if body := strings.TrimSpace(in.Body); body != "" {
		for _, section := range SplitSections(body) {
			for _, piece := range a.chunker.Split(section) {
				emit(models.ChunkTypeBody, piece)
			}
		}
	}
	return chunks
}
