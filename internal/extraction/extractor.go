package extraction

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nmarkham/citetype/internal/citations"
	"github.com/nmarkham/citetype/internal/identifiers"
	"github.com/nmarkham/citetype/internal/ingest"
)

// Extractor turns a source document into an extraction record: ingest the
// document, locate tracked identifiers in each chunk, and carve deduplicated
// evidence windows in chunk-traversal order.
type Extractor struct {
	registry *identifiers.Registry
	logger   *slog.Logger
}

// NewExtractor creates an Extractor with the given surface form registry.
func NewExtractor(registry *identifiers.Registry, logger *slog.Logger) *Extractor {
	return &Extractor{
		registry: registry,
		logger:   logger.With("system", "extraction"),
	}
}

// Extract builds the extraction record for one document. An unreadable
// document yields a StatusFailed record and a nil error so the run can
// continue with other documents; only locator configuration problems return
// an error.
func (e *Extractor) Extract(
	documentID string,
	data []byte,
	medium ingest.Medium,
	meta citations.Metadata,
	ids []identifiers.Identifier,
) (*Record, error) {
	record := &Record{
		DocumentID:  documentID,
		Metadata:    meta,
		Method:      medium,
		Status:      StatusComplete,
		ExtractedAt: time.Now().UTC(),
		Citations:   []CitationContexts{},
	}

	chunks, err := ingest.Ingest(data, medium)
	if err != nil {
		if errors.Is(err, ingest.ErrUnreadable) {
			e.logger.Warn("document unreadable",
				"document_id", documentID,
				"medium", medium,
				"error", err,
			)
			record.Status = StatusFailed
			return record, nil
		}
		return nil, fmt.Errorf("ingest document %s: %w", documentID, err)
	}

	if medium == ingest.MediumPDF {
		record.PageCount = len(chunks)
		if count, err := ingest.PageCount(data); err == nil {
			record.PageCount = count
		}
	}

	for _, chunk := range chunks {
		for _, id := range ids {
			matches, err := e.registry.Locate(chunk.Text, id)
			if err != nil {
				return nil, fmt.Errorf("locate %s in document %s: %w", id, documentID, err)
			}

			for _, m := range matches {
				window := Window{
					Identifier:  id.String(),
					Text:        Carve(chunk.Text, m.Offset, len(m.Span)),
					Page:        chunk.Page,
					Section:     chunk.Section,
					Source:      medium,
					ExtractedAt: record.ExtractedAt,
				}
				record.append(id.String(), id.Flavor, window)
			}
		}
	}

	return record, nil
}
