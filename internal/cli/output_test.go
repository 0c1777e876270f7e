package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/nysgpt/billembed/internal/models"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{" JSON ", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v; want %q, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestWriteSearchResults(t *testing.T) {
	response := &models.SearchResponse{
		Query:     "school meals",
		QueryTime: 42,
		Results: []*models.SearchResult{{
			Rank:       1,
			Similarity: 0.91,
			Chunk: &models.Chunk{
				BillNumber: "S256", SessionID: 2025, ChunkIndex: 2, ChunkType: models.ChunkTypeBody,
				Content:  strings.Repeat("meal ", 100),
				Metadata: map[string]interface{}{models.MetaKeyTitle: "School Meals Act"},
			},
		}},
	}

	var text bytes.Buffer
	if err := WriteSearchResults(&text, response, OutputText); err != nil {
		t.Fatal(err)
	}
	out := text.String()
	for _, want := range []string{"Found 1 results in 42ms", "Similarity: 0.9100", "Bill: S256 (session 2025) | chunk 2 [body]", "Title: School Meals Act", "..."} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}

	var js bytes.Buffer
	if err := WriteSearchResults(&js, response, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.SearchResponse
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, js.String())
	}
	if decoded.Query != "school meals" || len(decoded.Results) != 1 || decoded.Results[0].Chunk.BillNumber != "S256" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteBatchResult(t *testing.T) {
	next := 10
	res := &models.BatchResult{
		SessionYear: 2025, BatchSize: 10, Processed: 10, Succeeded: 9, Failed: 1,
		HasMore: true, NextOffset: &next, ErrorDetails: []string{"S7: bill fetch failed"},
	}
	var buf bytes.Buffer
	if err := WriteBatchResult(&buf, res, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Resume with --offset 10") || !strings.Contains(out, "error: S7") {
		t.Errorf("unexpected output:\n%s", out)
	}

	buf.Reset()
	res.HasMore, res.NextOffset = false, nil
	if err := WriteBatchResult(&buf, res, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Done") {
		t.Errorf("last page should say done:\n%s", buf.String())
	}
}

func TestWriteStatus(t *testing.T) {
	res := &models.StatusResult{SessionYear: 2025, TotalBills: 3, BillsWithChunks: 2, TotalChunks: 9, PercentComplete: 67}

	var buf bytes.Buffer
	if err := WriteStatus(&buf, res, 2048, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "2 (67%)") || !strings.Contains(buf.String(), "2.0 KiB") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}

	buf.Reset()
	if err := WriteStatus(&buf, res, -1, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["percentComplete"] != float64(67) {
		t.Errorf("percentComplete = %v", decoded["percentComplete"])
	}
	if _, ok := decoded["databaseBytes"]; ok {
		t.Error("databaseBytes should be omitted when unknown")
	}
}

func TestWriteEmbedResult(t *testing.T) {
	var buf bytes.Buffer
	res := &models.EmbedResult{BillNumber: "S1", BillID: 2025000001, SessionYear: 2025, Chunks: 3, TotalTokens: 17}
	if err := WriteEmbedResult(&buf, res, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Embedded S1 (bill_id 2025000001, session 2025): 3 chunks") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
