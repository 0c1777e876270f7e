// Package cli formats pipeline results for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/nysgpt/billembed/internal/models"
	"github.com/nysgpt/billembed/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text or json)", s)
	}
}

// snippetLen bounds chunk content in text output.
const snippetLen = 200

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteEmbedResult writes a single-bill embed summary.
func WriteEmbedResult(w io.Writer, res *models.EmbedResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	_, err := fmt.Fprintf(w, "Embedded %s (bill_id %d, session %d): %d chunks, ~%d tokens\n",
		res.BillNumber, res.BillID, res.SessionYear, res.Chunks, res.TotalTokens)
	return err
}

// WriteBatchResult writes one batch page summary, including how to resume.
func WriteBatchResult(w io.Writer, res *models.BatchResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	fmt.Fprintf(w, "Session %d, offset %d, batch size %d\n", res.SessionYear, res.Offset, res.BatchSize)
	fmt.Fprintf(w, "Processed: %d (succeeded %d, failed %d)\n", res.Processed, res.Succeeded, res.Failed)
	fmt.Fprintf(w, "Chunks:    %d\n", res.TotalChunks)
	fmt.Fprintf(w, "Duration:  %dms\n", res.DurationMs)
	if res.TimedOut {
		fmt.Fprintln(w, "Stopped early: time budget spent")
	}
	for _, detail := range res.ErrorDetails {
		fmt.Fprintf(w, "  error: %s\n", detail)
	}
	if res.HasMore && res.NextOffset != nil {
		fmt.Fprintf(w, "More bills remain. Resume with --offset %d\n", *res.NextOffset)
	} else {
		fmt.Fprintln(w, "Done: no more bills in this session.")
	}
	return nil
}

// WriteStatus writes session progress. dbBytes is the local database size; negative omits it.
func WriteStatus(w io.Writer, res *models.StatusResult, dbBytes int64, format OutputFormat) error {
	if format == OutputJSON {
		out := struct {
			*models.StatusResult
			DatabaseBytes *int64 `json:"databaseBytes,omitempty"`
		}{StatusResult: res}
		if dbBytes >= 0 {
			out.DatabaseBytes = &dbBytes
		}
		return writeJSON(w, out)
	}
	fmt.Fprintf(w, "Session:           %d\n", res.SessionYear)
	fmt.Fprintf(w, "Bills:             %d\n", res.TotalBills)
	fmt.Fprintf(w, "Bills with chunks: %d (%d%%)\n", res.BillsWithChunks, res.PercentComplete)
	fmt.Fprintf(w, "Chunks:            %d\n", res.TotalChunks)
	if dbBytes >= 0 {
		fmt.Fprintf(w, "Database size:     %s\n", FormatBytes(dbBytes))
	}
	return nil
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d results in %dms\n\n", len(response.Results), response.QueryTime)
	for _, result := range response.Results {
		c := result.Chunk
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Similarity: %.4f\n", result.Rank, result.Similarity)
		if c == nil {
			continue
		}
		fmt.Fprintf(w, "Bill: %s (session %d) | chunk %d [%s]\n", c.BillNumber, c.SessionID, c.ChunkIndex, c.ChunkType)
		if title, ok := c.Metadata[models.MetaKeyTitle].(string); ok && title != "" {
			fmt.Fprintf(w, "Title: %s\n", title)
		}
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(c.Content, snippetLen))
	}
	return nil
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
