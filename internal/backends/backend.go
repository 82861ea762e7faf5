// Package backends implements the language model classification contract.
// Every concrete transport accepts the same evidence/metadata shape, returns
// the same closed relationship vocabulary, and signals transport failure with
// ErrUnavailable so callers can retry without inspecting transport details.
package backends

import (
	"context"

	"github.com/nmarkham/citetype/internal/citations"
)

// Mode selects how much document text a classification request carries.
type Mode string

const (
	// ModeShortContext sends only the carved evidence windows.
	ModeShortContext Mode = "short_context"
	// ModeFullText sends the full concatenated document text.
	ModeFullText Mode = "full_text"
)

// Request carries one (document, identifier) pair's evidence to a backend.
type Request struct {
	Contexts   []string
	Metadata   citations.Metadata
	Identifier string
	Mode       Mode
}

// Verdict is a validated classification result. The response parser is total,
// so a Verdict always carries a vocabulary label and a confidence in [0,1].
type Verdict struct {
	Relationship citations.Relationship `json:"relationship_type"`
	Confidence   float64                `json:"confidence"`
	Reasoning    string                 `json:"reasoning"`
}

// Backend is the uniform classification contract implemented by each
// transport. Classify returns ErrUnavailable (possibly wrapped) for
// connection, auth, and server failures; malformed model output is never an
// error, the parser converts it into a low-confidence verdict.
type Backend interface {
	Name() string
	Model() string
	Classify(ctx context.Context, req Request) (*Verdict, error)
}
