// Package tabular implements the external tabular citation store adapter.
// It reads and writes the per-pair summary fields in the PostgreSQL citations
// table; everything beyond those fields is opaque bibliographic payload.
package tabular

import (
	"time"

	"github.com/google/uuid"

	"github.com/nmarkham/citetype/internal/citations"
)

// Citation is one (document, identifier, flavor) row in the citations table:
// bibliographic fields, the source document's storage reference, and the
// four-field classification summary.
type Citation struct {
	ID         uuid.UUID `json:"id"`
	DocumentID string    `json:"document_id"`
	Identifier string    `json:"item_id"`
	Flavor     string    `json:"item_flavor,omitempty"`

	Title   string `json:"title"`
	Journal string `json:"journal,omitempty"`
	Year    int    `json:"year,omitempty"`

	StorageKey string `json:"storage_key"`
	Medium     string `json:"medium"`

	Status       citations.Status       `json:"status"`
	Method       citations.Method       `json:"classification_method,omitempty"`
	Model        string                 `json:"classification_model,omitempty"`
	Confidence   *float64               `json:"classification_confidence,omitempty"`
	Reviewed     bool                   `json:"classification_reviewed"`
	Relationship citations.Relationship `json:"relationship_type,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Metadata returns the row's bibliographic fields as a snapshot for the
// extraction record.
func (c *Citation) Metadata() citations.Metadata {
	return citations.Metadata{
		Title:   c.Title,
		Journal: c.Journal,
		Year:    c.Year,
	}
}
