package extraction

import (
	"time"

	"github.com/nmarkham/citetype/internal/citations"
	"github.com/nmarkham/citetype/internal/ingest"
)

// Status marks the outcome of a document's extraction.
type Status string

const (
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// CitationContexts groups one tracked identifier's evidence windows within a
// document, in chunk-traversal order.
type CitationContexts struct {
	Identifier string   `json:"identifier"`
	Flavor     string   `json:"flavor,omitempty"`
	Windows    []Window `json:"contexts"`
}

// Record is the per-document extraction artifact. It is recreated wholesale
// on re-extraction, never merged field-by-field. A failed record carries zero
// citations and StatusFailed.
type Record struct {
	DocumentID  string             `json:"document_id"`
	Metadata    citations.Metadata `json:"metadata"`
	Method      ingest.Medium      `json:"method"`
	Status      Status             `json:"status"`
	PageCount   int                `json:"page_count,omitempty"`
	ExtractedAt time.Time          `json:"extracted_at"`
	Citations   []CitationContexts `json:"citations"`
}

// Contexts returns the windows recorded for an identifier key, or nil when
// the identifier has none.
func (r *Record) Contexts(identifier string) []Window {
	for _, c := range r.Citations {
		if c.Identifier == identifier {
			return c.Windows
		}
	}
	return nil
}

// append adds a window for an identifier unless a near-duplicate already
// exists, creating the identifier's group on first use.
func (r *Record) append(id, flavor string, w Window) {
	for i := range r.Citations {
		if r.Citations[i].Identifier != id {
			continue
		}
		for _, existing := range r.Citations[i].Windows {
			if Similar(existing.Text, w.Text) {
				return
			}
		}
		r.Citations[i].Windows = append(r.Citations[i].Windows, w)
		return
	}

	r.Citations = append(r.Citations, CitationContexts{
		Identifier: id,
		Flavor:     flavor,
		Windows:    []Window{w},
	})
}
