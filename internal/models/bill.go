// Package models defines core data structures for bills, chunks, pipeline requests and results.
package models

import "time"

// Amendment is one version of a bill's text.
type Amendment struct {
	Version      string `json:"version"`
	FullTextHTML string `json:"fullTextHtml"`
	FullText     string `json:"fullText"`
	Memo         string `json:"memo"`
}

// Bill is a bill as returned by the legislative API, with its amendments keyed by version letter
// ("" is the original print).
type Bill struct {
	BillID        int64                `json:"billId"`
	BillNumber    string               `json:"billNumber"`
	SessionYear   int                  `json:"sessionYear"`
	Title         string               `json:"title"`
	Summary       string               `json:"summary"`
	Memo          string               `json:"memo"`
	ActiveVersion string               `json:"activeVersion"`
	Amendments    map[string]Amendment `json:"amendments"`

	// Resolved text: the active amendment's, or another amendment's when the active one has none.
	TextVersion  string `json:"textVersion"`
	FullTextHTML string `json:"-"`
	FullText     string `json:"-"`
}

// HasText reports whether any full text was resolved for the bill.
func (b *Bill) HasText() bool {
	return b.FullTextHTML != "" || b.FullText != ""
}

// BillRecord is a row of the bills collection that the batch pipeline pages over.
type BillRecord struct {
	BillID      int64     `json:"billId" db:"bill_id"`
	BillNumber  string    `json:"billNumber" db:"bill_number"`
	SessionYear int       `json:"sessionYear" db:"session_id"`
	Title       string    `json:"title" db:"title"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}
