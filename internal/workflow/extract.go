package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/nmarkham/citetype/internal/citations"
	"github.com/nmarkham/citetype/internal/extraction"
	"github.com/nmarkham/citetype/internal/identifiers"
	"github.com/nmarkham/citetype/internal/ingest"
	"github.com/nmarkham/citetype/internal/tabular"
	"github.com/nmarkham/citetype/pkg/storage"
)

// document groups the citation rows sharing one source document.
type document struct {
	id         string
	storageKey string
	medium     string
	metadata   citations.Metadata
	rows       []tabular.Citation
}

// groupByDocument collects citation rows by document ID, preserving row
// order within each group.
func groupByDocument(rows []tabular.Citation) []document {
	index := make(map[string]int)
	var docs []document

	for _, row := range rows {
		i, ok := index[row.DocumentID]
		if !ok {
			i = len(docs)
			index[row.DocumentID] = i
			docs = append(docs, document{
				id:         row.DocumentID,
				storageKey: row.StorageKey,
				medium:     row.Medium,
				metadata:   row.Metadata(),
			})
		}
		docs[i].rows = append(docs[i].rows, row)
	}

	return docs
}

func (d *document) identifiers() []identifiers.Identifier {
	ids := make([]identifiers.Identifier, 0, len(d.rows))
	for _, row := range d.rows {
		ids = append(ids, identifiers.Identifier{
			Namespace: namespaceOf(row.Identifier),
			Value:     valueOf(row.Identifier),
			Flavor:    row.Flavor,
		})
	}
	return ids
}

func namespaceOf(identifier string) string {
	if id, err := identifiers.Parse(identifier); err == nil {
		return id.Namespace
	}
	return identifier
}

func valueOf(identifier string) string {
	if id, err := identifiers.Parse(identifier); err == nil {
		return id.Value
	}
	return ""
}

// ExtractRun builds extraction records for every citation document, fanning
// out across documents up to the configured concurrency. Existing records are
// skipped unless overwrite is set; unreadable documents are marked failed and
// the run continues.
func ExtractRun(ctx context.Context, rt *Runtime, filters tabular.Filters) (*Summary, error) {
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
			rt.extractDocument(gctx, doc, summary)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}

	summary.Log(rt.Logger, "extract")
	return summary, nil
}

// extractDocument handles one document end to end. All failures are contained
// here as summary counts and logs.
func (rt *Runtime) extractDocument(ctx context.Context, doc *document, summary *Summary) {
	logger := rt.Logger.With("document_id", doc.id)

	key := rt.contextsKey(doc.id)
	if !rt.Overwrite {
		exists, err := rt.Artifacts.Exists(ctx, key)
		if err != nil {
			logger.Error("check extraction record", "error", err)
			summary.add(&summary.Skipped, 1)
			return
		}
		if exists {
			logger.Debug("extraction record exists, skipping")
			summary.add(&summary.Skipped, 1)
			return
		}
	}

	medium, err := ingest.ParseMedium(doc.medium)
	if err != nil {
		logger.Warn("unknown medium, skipping", "medium", doc.medium)
		summary.add(&summary.Skipped, 1)
		return
	}

	data, err := rt.readDocument(ctx, doc.storageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Debug("source document absent, skipping")
		} else {
			logger.Error("read source document", "error", err)
		}
		summary.add(&summary.Skipped, 1)
		return
	}

	record, err := rt.Extractor.Extract(doc.id, data, medium, doc.metadata, doc.identifiers())
	if err != nil {
		logger.Error("extract contexts", "error", err)
		summary.add(&summary.Skipped, 1)
		return
	}

	if record.Status == extraction.StatusFailed {
		summary.add(&summary.IngestionFailed, 1)
	} else {
		summary.add(&summary.Extracted, 1)
	}

	if rt.DryRun {
		logger.Info("dry run, extraction record not written",
			"status", record.Status,
			"identifiers", len(record.Citations),
		)
		return
	}

	if err := rt.writeRecord(ctx, key, record); err != nil {
		logger.Error("write extraction record", "error", err)
		return
	}

	logger.Info("contexts extracted",
		"status", record.Status,
		"identifiers", len(record.Citations),
		"pages", record.PageCount,
	)
}

func (rt *Runtime) readDocument(ctx context.Context, key string) ([]byte, error) {
	reader, err := rt.Artifacts.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

func (rt *Runtime) writeRecord(ctx context.Context, key string, record *extraction.Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return rt.Artifacts.Upload(ctx, key, bytes.NewReader(data), "application/json")
}

// readRecord loads a document's extraction record, or storage.ErrNotFound
// when extraction has not run for it.
func (rt *Runtime) readRecord(ctx context.Context, documentID string) (*extraction.Record, error) {
	data, err := rt.readDocument(ctx, rt.contextsKey(documentID))
	if err != nil {
		return nil, err
	}

	var record extraction.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshal extraction record: %w", err)
	}
	return &record, nil
}
