package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nmarkham/citetype/internal/backends"
	"github.com/nmarkham/citetype/internal/citations"
	"github.com/nmarkham/citetype/internal/classifications"
	"github.com/nmarkham/citetype/internal/extraction"
	"github.com/nmarkham/citetype/internal/ingest"
	"github.com/nmarkham/citetype/internal/tabular"
	"github.com/nmarkham/citetype/pkg/storage"
)

// ClassifyRun classifies every (document, identifier) pair with an extraction
// record, fanning out across documents up to the configured concurrency.
// Pairs without evidence go terminal as no-context without touching any
// backend; reviewed pairs and pairs already at or above the threshold are
// skipped unless overwrite is set.
func ClassifyRun(ctx context.Context, rt *Runtime, filters tabular.Filters) (*Summary, error) {
	if len(rt.Backends) == 0 {
		return nil, ErrNoBackends
	}

	rows, err := rt.Tabular.All(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("list citations: %w", err)
	}

	summary := &Summary{}
	docs := groupByDocument(rows)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rt.limit())

	for i := range docs {
		doc := &docs[i]
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			rt.classifyDocument(gctx, doc, summary)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}

	summary.Log(rt.Logger, "classify")
	return summary, nil
}

// classifyDocument runs every pair of one document. Per-pair failures are
// contained as summary counts; the document's other pairs still run.
func (rt *Runtime) classifyDocument(ctx context.Context, doc *document, summary *Summary) {
	logger := rt.Logger.With("document_id", doc.id)

	record, err := rt.readRecord(ctx, doc.id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Debug("no extraction record, skipping")
		} else {
			logger.Error("read extraction record", "error", err)
		}
		summary.add(&summary.Skipped, len(doc.rows))
		return
	}

	if record.Status == extraction.StatusFailed {
		logger.Debug("extraction failed for document, skipping")
		summary.add(&summary.IngestionFailed, len(doc.rows))
		return
	}

	var fullText string
	if rt.Mode == backends.ModeFullText {
		fullText = rt.documentText(ctx, doc)
	}

	for _, row := range doc.rows {
		rt.classifyPair(ctx, logger.With("item_id", row.Identifier), record, row, fullText, summary)
	}
}

func (rt *Runtime) classifyPair(
	ctx context.Context,
	logger *slog.Logger,
	record *extraction.Record,
	row tabular.Citation,
	fullText string,
	summary *Summary,
) {
	if !rt.Overwrite {
		if row.Reviewed {
			logger.Debug("already reviewed, skipping")
			summary.add(&summary.Skipped, 1)
			return
		}
		if row.Confidence != nil && *row.Confidence >= rt.Threshold {
			logger.Debug("already classified above threshold, skipping")
			summary.add(&summary.Skipped, 1)
			return
		}
	}

	windows := record.Contexts(row.Identifier)
	if len(windows) == 0 {
		if err := rt.project(ctx, row, nil, citations.StatusNoContext); err != nil {
			logger.Error("mark no-context", "error", err)
		}
		summary.add(&summary.NoContext, 1)
		return
	}

	contexts := make([]string, 0, len(windows))
	for _, w := range windows {
		contexts = append(contexts, w.Text)
	}
	if rt.Mode == backends.ModeFullText && fullText != "" {
		contexts = []string{fullText}
	}

	req := backends.Request{
		Contexts:   contexts,
		Metadata:   record.Metadata,
		Identifier: row.Identifier,
		Mode:       rt.Mode,
	}

	var attempts []classifications.Attempt
	for _, b := range rt.Backends {
		verdict, err := backends.ClassifyWithRetry(ctx, b, req, rt.Retry)
		if err != nil {
			logger.Warn("backend unavailable, pair left unclassified for this backend",
				"backend", b.Name(),
				"model", b.Model(),
				"error", err,
			)
			summary.add(&summary.BackendErrors, 1)
			continue
		}

		attempts = append(attempts, classifications.NewAttempt(
			row.DocumentID, row.Identifier, row.Flavor, b, rt.Mode, *verdict,
		))
	}

	if len(attempts) == 0 {
		return
	}

	if rt.DryRun {
		for _, a := range attempts {
			logger.Info("dry run, attempt not recorded",
				"backend", a.Backend,
				"model", a.Model,
				"relationship", a.Relationship,
				"confidence", a.Confidence,
			)
		}
		return
	}

	if err := rt.Store.Append(ctx, row.DocumentID, attempts...); err != nil {
		logger.Error("append attempts", "error", err)
		return
	}

	// Attempts are on record even if selection or projection fails below.
	if err := rt.Tabular.SetStatus(ctx, row.ID, citations.StatusClassified); err != nil {
		logger.Warn("mark classified", "error", err)
	}

	all, err := rt.Store.ListPair(ctx, row.DocumentID, row.Identifier)
	if err != nil {
		logger.Error("list attempts", "error", err)
		return
	}

	representative := rt.Selector.Select(all)
	if representative == nil {
		return
	}

	status := citations.StatusPendingReview
	if representative.Confidence >= rt.Threshold {
		status = citations.StatusAutoAccepted
		summary.add(&summary.Classified, 1)
	} else {
		summary.add(&summary.LowConfidence, 1)
	}

	if err := rt.project(ctx, row, representative, status); err != nil {
		logger.Error("project summary", "error", err)
		return
	}

	logger.Info("pair classified",
		"relationship", representative.Relationship,
		"confidence", representative.Confidence,
		"model", representative.Model,
		"status", status,
	)
}

// project writes the representative verdict's summary to the citation row.
// A nil representative marks the pair's terminal no-context status only.
func (rt *Runtime) project(
	ctx context.Context,
	row tabular.Citation,
	representative *classifications.Attempt,
	status citations.Status,
) error {
	if rt.DryRun {
		return nil
	}

	if representative == nil {
		return rt.Tabular.SetStatus(ctx, row.ID, status)
	}

	summary := citations.Summary{
		Method:       citations.MethodLLM,
		Model:        representative.Model,
		Confidence:   &representative.Confidence,
		Reviewed:     false,
		Relationship: representative.Relationship,
	}

	_, err := rt.Tabular.ProjectSummary(ctx, row.ID, summary, status)
	return err
}

// documentText re-ingests the source document and concatenates its chunks
// for full-text mode. Falls back to empty on any failure; callers then use
// the carved windows instead.
func (rt *Runtime) documentText(ctx context.Context, doc *document) string {
	medium, err := ingest.ParseMedium(doc.medium)
	if err != nil {
		return ""
	}

	data, err := rt.readDocument(ctx, doc.storageKey)
	if err != nil {
		return ""
	}

	chunks, err := ingest.Ingest(data, medium)
	if err != nil {
		return ""
	}

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	return strings.Join(texts, "\n\n")
}
