// Package ingest streams source documents into located text chunks.
// It provides a PDF reader (one chunk per page) and an HTML reader (one chunk
// per paragraph element) behind a single output contract.
package ingest

import (
	"fmt"
)

// Medium identifies a source document's declared format.
type Medium string

const (
	MediumPDF  Medium = "pdf"
	MediumHTML Medium = "html"
)

// ParseMedium converts a string to a Medium.
func ParseMedium(s string) (Medium, error) {
	switch Medium(s) {
	case MediumPDF:
		return MediumPDF, nil
	case MediumHTML:
		return MediumHTML, nil
	default:
		return "", fmt.Errorf("unknown medium %q", s)
	}
}

// Chunk is one located unit of document text. Page is 1-indexed and set for
// PDF chunks; Section holds the nearest preceding heading for HTML chunks and
// is empty when none precedes the element.
type Chunk struct {
	Text    string
	Page    int
	Section string
}

// Ingest converts raw document bytes into located text chunks according to
// the declared medium. Corrupt or unreadable input returns a wrapped
// ErrUnreadable; callers convert that into an ingestion-failed record status
// rather than aborting the run.
func Ingest(data []byte, medium Medium) ([]Chunk, error) {
	switch medium {
	case MediumPDF:
		return ingestPDF(data)
	case MediumHTML:
		return ingestHTML(data)
	default:
		return nil, fmt.Errorf("unknown medium %q", medium)
	}
}
