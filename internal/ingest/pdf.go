package ingest

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ingestPDF produces one chunk per page with extractable text. pdfcpu
// validates the document structure up front; pages whose text extraction
// fails are skipped rather than failing the document.
func ingestPDF(data []byte) ([]Chunk, error) {
	if _, err := api.PageCount(bytes.NewReader(data), nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	chunks := make([]Chunk, 0, reader.NumPage())

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil || text == "" {
			continue
		}

		chunks = append(chunks, Chunk{
			Text: text,
			Page: i,
		})
	}

	return chunks, nil
}

// PageCount returns the page count of a PDF document, or an error wrapping
// ErrUnreadable for corrupt input.
func PageCount(data []byte) (int, error) {
	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return count, nil
}
