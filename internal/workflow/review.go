package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nmarkham/citetype/internal/citations"
	"github.com/nmarkham/citetype/internal/tabular"
)

// ReviewQueue is a pull-based queue of pairs awaiting human review: rows
// whose representative verdict sits below the confidence threshold and is
// not yet reviewed, or every unreviewed classified row when all is set.
// The interactive shell is one consumer; batch reviewers pull the same way.
type ReviewQueue struct {
	tabular tabular.System
	pending []tabular.Citation
	pos     int
}

// NewReviewQueue loads the pending rows for one review session. The snapshot
// is taken once; accept/override actions do not reshuffle the queue.
func NewReviewQueue(ctx context.Context, sys tabular.System, threshold float64, all bool) (*ReviewQueue, error) {
	reviewed := false
	filters := tabular.Filters{Reviewed: &reviewed}
	if !all {
		filters.BelowConfidence = &threshold
	}

	rows, err := sys.All(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("load review queue: %w", err)
	}

	pending := make([]tabular.Citation, 0, len(rows))
	for _, row := range rows {
		if row.Method == "" || row.Status == citations.StatusNoContext {
			continue
		}
		pending = append(pending, row)
	}

	return &ReviewQueue{
		tabular: sys,
		pending: pending,
	}, nil
}

// Remaining returns the number of items not yet pulled.
func (q *ReviewQueue) Remaining() int {
	return len(q.pending) - q.pos
}

// Next yields the next pending pair, or nil when the queue is exhausted.
func (q *ReviewQueue) Next() *tabular.Citation {
	if q.pos >= len(q.pending) {
		return nil
	}
	row := q.pending[q.pos]
	q.pos++
	return &row
}

// Accept confirms the current verdict: reviewed flips to true, method and
// confidence stay as the model produced them.
func (q *ReviewQueue) Accept(ctx context.Context, id uuid.UUID) error {
	_, err := q.tabular.MarkReviewed(ctx, id)
	return err
}

// Override replaces the summary with a manual relationship: method flips to
// manual, model and confidence clear, reviewed flips to true. The underlying
// classification attempts keep the full audit trail.
func (q *ReviewQueue) Override(ctx context.Context, id uuid.UUID, rel citations.Relationship) error {
	_, err := q.tabular.Override(ctx, id, rel)
	return err
}
