// Package classifications implements the append-only per-document store of
// classification attempts and the strategies that select a representative
// verdict from them.
package classifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/nmarkham/citetype/internal/backends"
	"github.com/nmarkham/citetype/internal/citations"
)

// Attempt is one backend+model verdict for one (document, identifier) pair.
// Attempts are immutable once written; re-running classification strictly
// appends new attempts.
type Attempt struct {
	ID           uuid.UUID              `json:"id"`
	DocumentID   string                 `json:"document_id"`
	Identifier   string                 `json:"item_id"`
	Flavor       string                 `json:"item_flavor,omitempty"`
	Backend      string                 `json:"backend"`
	Model        string                 `json:"model"`
	Relationship citations.Relationship `json:"relationship_type"`
	Confidence   float64                `json:"confidence"`
	Reasoning    string                 `json:"reasoning"`
	Mode         backends.Mode          `json:"mode"`
	Timestamp    time.Time              `json:"timestamp"`
}

// NewAttempt builds an attempt from a backend verdict.
func NewAttempt(
	documentID, identifier, flavor string,
	b backends.Backend,
	mode backends.Mode,
	v backends.Verdict,
) Attempt {
	return Attempt{
		ID:           uuid.New(),
		DocumentID:   documentID,
		Identifier:   identifier,
		Flavor:       flavor,
		Backend:      b.Name(),
		Model:        b.Model(),
		Relationship: v.Relationship,
		Confidence:   v.Confidence,
		Reasoning:    v.Reasoning,
		Mode:         mode,
		Timestamp:    time.Now().UTC(),
	}
}
