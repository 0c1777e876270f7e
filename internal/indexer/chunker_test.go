package indexer

import (
	"fmt"
	"strings"
	"testing"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("word%02d", i)
	}
	return strings.Join(w, " ")
}

func TestChunker_SplitFits(t *testing.T) {
	c := NewChunker(500, 50)
	text := "  Section 1. A short section.  "
	got := c.Split(text)
	if len(got) != 1 || got[0] != strings.TrimSpace(text) {
		t.Errorf("text under the budget should come back whole, got %q", got)
	}
}

func TestChunker_SplitEmpty(t *testing.T) {
	c := NewChunker(5, 1)
	if got := c.Split("   \n\t  "); got != nil {
		t.Errorf("empty text should return nil, got %v", got)
	}
}

func TestChunker_SplitWindows(t *testing.T) {
	// 10 tokens → 8 words per window; 5 tokens overlap → 4 words; step 4.
	c := NewChunker(10, 5)
	got := c.Split(words(20))
	want := []string{
		"word00 word01 word02 word03 word04 word05 word06 word07",
		"word04 word05 word06 word07 word08 word09 word10 word11",
		"word08 word09 word10 word11 word12 word13 word14 word15",
		"word12 word13 word14 word15 word16 word17 word18 word19",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d windows, want %d: %q", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("window %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestChunker_SplitOverlap(t *testing.T) {
	c := NewChunker(20, 5)
	got := c.Split(words(60))
	if len(got) < 2 {
		t.Fatalf("expected several windows, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		prev := strings.Fields(got[i-1])
		cur := strings.Fields(got[i])
		if prev[len(prev)-1] < cur[0] {
			t.Errorf("windows %d and %d do not overlap: ...%s | %s...", i-1, i, prev[len(prev)-1], cur[0])
		}
	}
	last := strings.Fields(got[len(got)-1])
	if last[len(last)-1] != "word59" {
		t.Errorf("last window should end at the last word, got %q", last[len(last)-1])
	}
}

func TestChunker_SplitOverlapExceedsWindow(t *testing.T) {
	// Overlap larger than the window still advances one word at a time.
	c := NewChunker(5, 10)
	got := c.Split(words(8))
	if len(got) != 5 {
		t.Fatalf("got %d windows, want 5: %q", len(got), got)
	}
	if got[1] != "word01 word02 word03 word04" {
		t.Errorf("second window = %q", got[1])
	}
}
