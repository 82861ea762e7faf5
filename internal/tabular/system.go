package tabular

import (
	"context"

	"github.com/google/uuid"

	"github.com/nmarkham/citetype/internal/citations"
	"github.com/nmarkham/citetype/pkg/pagination"
)

// System defines the public contract for citation row operations.
// Writes are per-row, last-writer-wins; no cross-row transactions.
type System interface {
	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Citation], error)

	All(ctx context.Context, filters Filters) ([]Citation, error)
	Find(ctx context.Context, id uuid.UUID) (*Citation, error)
	FindPair(ctx context.Context, documentID, identifier, flavor string) (*Citation, error)

	ProjectSummary(ctx context.Context, id uuid.UUID, summary citations.Summary, status citations.Status) (*Citation, error)
	SetStatus(ctx context.Context, id uuid.UUID, status citations.Status) error
	MarkReviewed(ctx context.Context, id uuid.UUID) (*Citation, error)
	Override(ctx context.Context, id uuid.UUID, relationship citations.Relationship) (*Citation, error)

	StatusCounts(ctx context.Context) (map[citations.Status]int, error)
}
