package tabular

import (
	"github.com/nmarkham/citetype/internal/citations"
	"github.com/nmarkham/citetype/pkg/query"
	"github.com/nmarkham/citetype/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "citations", "c").
	Project("id", "ID").
	Project("document_id", "DocumentID").
	Project("item_id", "Identifier").
	Project("item_flavor", "Flavor").
	Project("title", "Title").
	Project("journal", "Journal").
	Project("year", "Year").
	Project("storage_key", "StorageKey").
	Project("medium", "Medium").
	Project("status", "Status").
	Project("classification_method", "Method").
	Project("classification_model", "Model").
	Project("classification_confidence", "Confidence").
	Project("classification_reviewed", "Reviewed").
	Project("relationship_type", "Relationship").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "UpdatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for citation queries.
// Nil and empty fields are ignored. BelowConfidence filters to rows whose
// summary confidence is strictly below the value, MinConfidence to rows at
// or above it; Reviewed filters on the review flag.
type Filters struct {
	DocumentID      *string  `json:"document_id,omitempty"`
	Identifier      *string  `json:"item_id,omitempty"`
	Statuses        []string `json:"statuses,omitempty"`
	Medium          *string  `json:"medium,omitempty"`
	Title           *string  `json:"title,omitempty"`
	Reviewed        *bool    `json:"reviewed,omitempty"`
	BelowConfidence *float64 `json:"below_confidence,omitempty"`
	MinConfidence   *float64 `json:"min_confidence,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.
		WhereEquals("DocumentID", f.DocumentID).
		WhereEquals("Identifier", f.Identifier).
		WhereEquals("Medium", f.Medium).
		WhereContains("Title", f.Title).
		WhereEquals("Reviewed", f.Reviewed).
		WhereLessThan("Confidence", f.BelowConfidence).
		WhereAtLeast("Confidence", f.MinConfidence)

	if len(f.Statuses) > 0 {
		values := make([]any, len(f.Statuses))
		for i, s := range f.Statuses {
			values[i] = s
		}
		b.WhereIn("Status", values)
	}

	return b
}

func scanCitation(s repository.Scanner) (Citation, error) {
	var c Citation
	var flavor, journal, method, model, relationship *string
	var year *int

	err := s.Scan(
		&c.ID,
		&c.DocumentID,
		&c.Identifier,
		&flavor,
		&c.Title,
		&journal,
		&year,
		&c.StorageKey,
		&c.Medium,
		&c.Status,
		&method,
		&model,
		&c.Confidence,
		&c.Reviewed,
		&relationship,
		&c.UpdatedAt,
	)
	if err != nil {
		return c, err
	}

	if flavor != nil {
		c.Flavor = *flavor
	}
	if journal != nil {
		c.Journal = *journal
	}
	if year != nil {
		c.Year = *year
	}
	if method != nil {
		c.Method = citations.Method(*method)
	}
	if model != nil {
		c.Model = *model
	}
	if relationship != nil {
		c.Relationship = citations.Relationship(*relationship)
	}

	return c, nil
}
