package tabular

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nmarkham/citetype/internal/citations"
	"github.com/nmarkham/citetype/pkg/pagination"
	"github.com/nmarkham/citetype/pkg/query"
	"github.com/nmarkham/citetype/pkg/repository"
)

const citationColumns = `id, document_id, item_id, item_flavor, title, journal, year,
		  storage_key, medium, status, classification_method, classification_model,
		  classification_confidence, classification_reviewed, relationship_type, updated_at`

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a citation repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "tabular"),
		pagination: pagination,
	}
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Citation], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Title", "DocumentID", "Identifier")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count citations: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanCitation)
	if err != nil {
		return nil, fmt.Errorf("query citations: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) All(ctx context.Context, filters Filters) ([]Citation, error) {
	qb := query.NewBuilder(projection, query.SortField{Field: "DocumentID"})
	filters.Apply(qb)

	q, args := qb.Build()
	items, err := repository.QueryMany(ctx, r.db, q, args, scanCitation)
	if err != nil {
		return nil, fmt.Errorf("query citations: %w", err)
	}
	return items, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Citation, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanCitation)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) FindPair(ctx context.Context, documentID, identifier, flavor string) (*Citation, error) {
	// Flavorless rows store item_flavor as NULL, not empty string.
	var fl any
	if flavor != "" {
		fl = flavor
	}
	qb := query.NewBuilder(projection).
		WhereEquals("DocumentID", documentID).
		WhereEquals("Identifier", identifier).
		WhereNullable("Flavor", fl)

	q, args := qb.BuildSingleOrNull()

	c, err := repository.QueryOne(ctx, r.db, q, args, scanCitation)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

// ProjectSummary overwrites the row's four summary fields and status with
// the representative verdict. Called each time selection runs; last writer
// wins per row.
func (r *repo) ProjectSummary(
	ctx context.Context,
	id uuid.UUID,
	summary citations.Summary,
	status citations.Status,
) (*Citation, error) {
	projectQ := `
		UPDATE citations
		SET classification_method = $1,
			classification_model = $2,
			classification_confidence = $3,
			classification_reviewed = $4,
			relationship_type = $5,
			status = $6,
			updated_at = NOW()
		WHERE id = $7
		RETURNING ` + citationColumns

	var model *string
	if summary.Model != "" {
		model = &summary.Model
	}
	var relationship *string
	if summary.Relationship != "" {
		rel := string(summary.Relationship)
		relationship = &rel
	}

	c, err := repository.QueryOne(ctx, r.db, projectQ,
		[]any{summary.Method, model, summary.Confidence, summary.Reviewed, relationship, status, id},
		scanCitation,
	)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("summary projected",
		"id", c.ID,
		"document_id", c.DocumentID,
		"item_id", c.Identifier,
		"relationship", c.Relationship,
		"status", c.Status,
	)
	return &c, nil
}

func (r *repo) SetStatus(ctx context.Context, id uuid.UUID, status citations.Status) error {
	err := repository.ExecExpectOne(
		ctx, r.db,
		"UPDATE citations SET status = $1, updated_at = NOW() WHERE id = $2",
		status, id,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

// MarkReviewed sets the review flag, leaving method, model, and confidence
// unchanged.
func (r *repo) MarkReviewed(ctx context.Context, id uuid.UUID) (*Citation, error) {
	reviewQ := `
		UPDATE citations
		SET classification_reviewed = TRUE,
			status = $1,
			updated_at = NOW()
		WHERE id = $2
		RETURNING ` + citationColumns

	c, err := repository.QueryOne(ctx, r.db, reviewQ,
		[]any{citations.StatusReviewed, id},
		scanCitation,
	)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("citation reviewed", "id", c.ID, "relationship", c.Relationship)
	return &c, nil
}

// Override replaces the summary with a manual verdict: method flips to
// manual, model and confidence clear, reviewed set. The classification
// store's attempts are left untouched.
func (r *repo) Override(ctx context.Context, id uuid.UUID, relationship citations.Relationship) (*Citation, error) {
	overrideQ := `
		UPDATE citations
		SET classification_method = $1,
			classification_model = NULL,
			classification_confidence = NULL,
			classification_reviewed = TRUE,
			relationship_type = $2,
			status = $3,
			updated_at = NOW()
		WHERE id = $4
		RETURNING ` + citationColumns

	c, err := repository.QueryOne(ctx, r.db, overrideQ,
		[]any{citations.MethodManual, relationship, citations.StatusReviewed, id},
		scanCitation,
	)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("citation overridden", "id", c.ID, "relationship", relationship)
	return &c, nil
}

func (r *repo) StatusCounts(ctx context.Context) (map[citations.Status]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM citations GROUP BY status",
	)
	if err != nil {
		return nil, fmt.Errorf("count statuses: %w", err)
	}
	defer rows.Close()

	counts := make(map[citations.Status]int)
	for rows.Next() {
		var status citations.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}
