package citations

// Method identifies how a citation pair's representative verdict was produced.
type Method string

const (
	MethodLLM    Method = "llm"
	MethodManual Method = "manual"
)

// Summary is the four-field projection of a pair's representative verdict,
// written row-by-row into the tabular citation store. Model and Confidence
// are empty when Method is manual.
type Summary struct {
	Method       Method       `json:"classification_method"`
	Model        string       `json:"classification_model,omitempty"`
	Confidence   *float64     `json:"classification_confidence,omitempty"`
	Reviewed     bool         `json:"classification_reviewed"`
	Relationship Relationship `json:"relationship_type,omitempty"`
}

// Status tracks a (document, identifier) pair through the pipeline.
type Status string

const (
	StatusUnclassified  Status = "unclassified"
	StatusNoContext     Status = "no-context"
	StatusClassified    Status = "classified"
	StatusAutoAccepted  Status = "auto-accepted"
	StatusPendingReview Status = "pending-review"
	StatusReviewed      Status = "reviewed"
)

// Terminal reports whether the status admits no further automatic transitions
// within a run. Reviewed and auto-accepted pairs can still be re-entered under
// an explicit overwrite.
func (s Status) Terminal() bool {
	return s == StatusNoContext || s == StatusReviewed
}
