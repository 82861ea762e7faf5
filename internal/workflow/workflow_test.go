package workflow_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nmarkham/citetype/internal/backends"
	"github.com/nmarkham/citetype/internal/citations"
	"github.com/nmarkham/citetype/internal/classifications"
	"github.com/nmarkham/citetype/internal/extraction"
	"github.com/nmarkham/citetype/internal/identifiers"
	"github.com/nmarkham/citetype/internal/ingest"
	"github.com/nmarkham/citetype/internal/tabular"
	"github.com/nmarkham/citetype/internal/workflow"
	"github.com/nmarkham/citetype/pkg/lifecycle"
	"github.com/nmarkham/citetype/pkg/pagination"
	"github.com/nmarkham/citetype/pkg/storage"
)

// memoryStorage is an in-memory storage.System for run tests.
type memoryStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{blobs: make(map[string][]byte)}
}

func (m *memoryStorage) Start(lc *lifecycle.Coordinator) error { return nil }

func (m *memoryStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
	return nil
}

func (m *memoryStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[key]; !ok {
		return storage.ErrNotFound
	}
	delete(m.blobs, key)
	return nil
}

func (m *memoryStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[key]
	return ok, nil
}

// fakeTabular is an in-memory tabular.System for run tests. statuses
// records every status each row passes through, in order.
type fakeTabular struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]*tabular.Citation
	order    []uuid.UUID
	statuses map[uuid.UUID][]citations.Status
}

func newFakeTabular(rows ...tabular.Citation) *fakeTabular {
	f := &fakeTabular{
		rows:     make(map[uuid.UUID]*tabular.Citation),
		statuses: make(map[uuid.UUID][]citations.Status),
	}
	for i := range rows {
		row := rows[i]
		f.rows[row.ID] = &row
		f.order = append(f.order, row.ID)
	}
	return f
}

func (f *fakeTabular) All(ctx context.Context, filters tabular.Filters) ([]tabular.Citation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []tabular.Citation
	for _, id := range f.order {
		row := f.rows[id]
		if filters.DocumentID != nil && row.DocumentID != *filters.DocumentID {
			continue
		}
		if filters.Reviewed != nil && row.Reviewed != *filters.Reviewed {
			continue
		}
		if filters.BelowConfidence != nil {
			if row.Confidence == nil || *row.Confidence >= *filters.BelowConfidence {
				continue
			}
		}
		out = append(out, *row)
	}
	return out, nil
}

func (f *fakeTabular) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters tabular.Filters,
) (*pagination.PageResult[tabular.Citation], error) {
	rows, err := f.All(ctx, filters)
	if err != nil {
		return nil, err
	}
	pageSize := page.PageSize
	if pageSize < 1 {
		pageSize = len(rows) + 1
	}
	result := pagination.NewPageResult(rows, len(rows), page.Page, pageSize)
	return &result, nil
}

func (f *fakeTabular) Find(ctx context.Context, id uuid.UUID) (*tabular.Citation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("citation %s not found", id)
	}
	copied := *row
	return &copied, nil
}

func (f *fakeTabular) FindPair(ctx context.Context, documentID, identifier, flavor string) (*tabular.Citation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.order {
		row := f.rows[id]
		if row.DocumentID == documentID && row.Identifier == identifier && row.Flavor == flavor {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeTabular) ProjectSummary(
	ctx context.Context,
	id uuid.UUID,
	summary citations.Summary,
	status citations.Status,
) (*tabular.Citation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("citation %s not found", id)
	}
	row.Method = summary.Method
	row.Model = summary.Model
	row.Confidence = summary.Confidence
	row.Reviewed = summary.Reviewed
	row.Relationship = summary.Relationship
	row.Status = status
	row.UpdatedAt = time.Now().UTC()
	f.statuses[id] = append(f.statuses[id], status)
	copied := *row
	return &copied, nil
}

func (f *fakeTabular) SetStatus(ctx context.Context, id uuid.UUID, status citations.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return fmt.Errorf("citation %s not found", id)
	}
	row.Status = status
	f.statuses[id] = append(f.statuses[id], status)
	return nil
}

func (f *fakeTabular) MarkReviewed(ctx context.Context, id uuid.UUID) (*tabular.Citation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("citation %s not found", id)
	}
	row.Reviewed = true
	row.Status = citations.StatusReviewed
	copied := *row
	return &copied, nil
}

func (f *fakeTabular) Override(ctx context.Context, id uuid.UUID, rel citations.Relationship) (*tabular.Citation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("citation %s not found", id)
	}
	row.Method = citations.MethodManual
	row.Model = ""
	row.Confidence = nil
	row.Reviewed = true
	row.Relationship = rel
	row.Status = citations.StatusReviewed
	copied := *row
	return &copied, nil
}

func (f *fakeTabular) StatusCounts(ctx context.Context) (map[citations.Status]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[citations.Status]int)
	for _, row := range f.rows {
		counts[row.Status]++
	}
	return counts, nil
}

// scriptedBackend returns the same verdict or error on every call.
type scriptedBackend struct {
	name    string
	model   string
	verdict backends.Verdict
	err     error

	mu    sync.Mutex
	calls int
}

func (s *scriptedBackend) Name() string  { return s.name }
func (s *scriptedBackend) Model() string { return s.model }

func (s *scriptedBackend) Classify(ctx context.Context, req backends.Request) (*backends.Verdict, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	v := s.verdict
	return &v, nil
}

func (s *scriptedBackend) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestRuntime(tab tabular.System, artifacts storage.System, bs ...backends.Backend) *workflow.Runtime {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &workflow.Runtime{
		Tabular:   tab,
		Artifacts: artifacts,
		Store:     classifications.NewStore(artifacts, "classifications", logger),
		Extractor: extraction.NewExtractor(identifiers.Default(), logger),
		Backends:  bs,
		Selector:  classifications.HighestConfidence{},
		Retry:     backends.RetryConfig{MaxAttempts: 1},
		Logger:    logger,

		Threshold:      0.7,
		Concurrency:    1,
		Mode:           backends.ModeShortContext,
		ContextsPrefix: "contexts",
	}
}

func testRow(documentID, identifier string) tabular.Citation {
	return tabular.Citation{
		ID:         uuid.New(),
		DocumentID: documentID,
		Identifier: identifier,
		Title:      "Neural dynamics of reaching",
		StorageKey: "documents/" + documentID + ".html",
		Medium:     "html",
		Status:     citations.StatusUnclassified,
	}
}

func writeContexts(t *testing.T, sys storage.System, record *extraction.Record) {
	t.Helper()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}

	key := path.Join("contexts", record.DocumentID, "contexts.json")
	if err := sys.Upload(context.Background(), key, bytes.NewReader(data), "application/json"); err != nil {
		t.Fatalf("upload record: %v", err)
	}
}

func completeRecord(documentID string, identifier string, windows ...string) *extraction.Record {
	record := &extraction.Record{
		DocumentID:  documentID,
		Method:      ingest.MediumHTML,
		Status:      extraction.StatusComplete,
		ExtractedAt: time.Now().UTC(),
		Citations:   []extraction.CitationContexts{},
	}
	if len(windows) > 0 {
		contexts := extraction.CitationContexts{Identifier: identifier}
		for _, text := range windows {
			contexts.Windows = append(contexts.Windows, extraction.Window{
				Identifier:  identifier,
				Text:        text,
				Source:      ingest.MediumHTML,
				ExtractedAt: record.ExtractedAt,
			})
		}
		record.Citations = append(record.Citations, contexts)
	}
	return record
}

func TestClassifyRunAutoAccepts(t *testing.T) {
	row := testRow("doc-1", "dandi:000003")
	tab := newFakeTabular(row)
	artifacts := newMemoryStorage()
	writeContexts(t, artifacts, completeRecord("doc-1", "dandi:000003", "we reanalyzed dandi:000003 recordings"))

	backend := &scriptedBackend{
		name:    "ollama",
		model:   "llama3.1:8b",
		verdict: backends.Verdict{Relationship: citations.RelationshipUses, Confidence: 0.95, Reasoning: "data reanalyzed"},
	}
	rt := newTestRuntime(tab, artifacts, backend)

	summary, err := workflow.ClassifyRun(context.Background(), rt, tabular.Filters{})
	if err != nil {
		t.Fatalf("classify run failed: %v", err)
	}

	if summary.Classified != 1 {
		t.Errorf("Classified = %d, want 1", summary.Classified)
	}

	updated, err := tab.Find(context.Background(), row.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if updated.Status != citations.StatusAutoAccepted {
		t.Errorf("Status = %v, want %v", updated.Status, citations.StatusAutoAccepted)
	}
	if updated.Method != citations.MethodLLM {
		t.Errorf("Method = %v, want llm", updated.Method)
	}
	if updated.Model != "llama3.1:8b" {
		t.Errorf("Model = %q, want llama3.1:8b", updated.Model)
	}
	if updated.Confidence == nil || *updated.Confidence != 0.95 {
		t.Errorf("Confidence = %v, want 0.95", updated.Confidence)
	}
	if updated.Reviewed {
		t.Error("Reviewed = true, want false")
	}
	if updated.Relationship != citations.RelationshipUses {
		t.Errorf("Relationship = %v, want Uses", updated.Relationship)
	}

	attempts, err := rt.Store.ListPair(context.Background(), "doc-1", "dandi:000003")
	if err != nil {
		t.Fatalf("list attempts failed: %v", err)
	}
	if len(attempts) != 1 {
		t.Errorf("len(attempts) = %d, want 1", len(attempts))
	}
}

func TestClassifyRunTransitionsThroughClassified(t *testing.T) {
	row := testRow("doc-1", "dandi:000003")
	tab := newFakeTabular(row)
	artifacts := newMemoryStorage()
	writeContexts(t, artifacts, completeRecord("doc-1", "dandi:000003", "we reanalyzed dandi:000003 recordings"))

	backend := &scriptedBackend{
		name:    "ollama",
		model:   "llama3.1:8b",
		verdict: backends.Verdict{Relationship: citations.RelationshipUses, Confidence: 0.95},
	}
	rt := newTestRuntime(tab, artifacts, backend)

	if _, err := workflow.ClassifyRun(context.Background(), rt, tabular.Filters{}); err != nil {
		t.Fatalf("classify run failed: %v", err)
	}

	tab.mu.Lock()
	got := tab.statuses[row.ID]
	tab.mu.Unlock()

	want := []citations.Status{citations.StatusClassified, citations.StatusAutoAccepted}
	if len(got) != len(want) {
		t.Fatalf("status transitions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestClassifyRunSelectsAcrossBackends(t *testing.T) {
	row := testRow("doc-1", "dandi:000003")
	tab := newFakeTabular(row)
	artifacts := newMemoryStorage()
	writeContexts(t, artifacts, completeRecord("doc-1", "dandi:000003", "we reanalyzed dandi:000003 recordings"))

	strong := &scriptedBackend{
		name:    "ollama",
		model:   "llama3.1:8b",
		verdict: backends.Verdict{Relationship: citations.RelationshipUses, Confidence: 0.95},
	}
	weak := &scriptedBackend{
		name:    "gateway",
		model:   "qwen2.5:72b",
		verdict: backends.Verdict{Relationship: citations.RelationshipCites, Confidence: 0.4},
	}
	rt := newTestRuntime(tab, artifacts, strong, weak)

	if _, err := workflow.ClassifyRun(context.Background(), rt, tabular.Filters{}); err != nil {
		t.Fatalf("classify run failed: %v", err)
	}

	attempts, err := rt.Store.ListPair(context.Background(), "doc-1", "dandi:000003")
	if err != nil {
		t.Fatalf("list attempts failed: %v", err)
	}
	if len(attempts) != 2 {
		t.Errorf("len(attempts) = %d, want 2", len(attempts))
	}

	updated, _ := tab.Find(context.Background(), row.ID)
	if updated.Confidence == nil || *updated.Confidence != 0.95 {
		t.Errorf("Confidence = %v, want 0.95 (highest across backends)", updated.Confidence)
	}
	if updated.Relationship != citations.RelationshipUses {
		t.Errorf("Relationship = %v, want Uses", updated.Relationship)
	}
}

func TestClassifyRunNoContext(t *testing.T) {
	row := testRow("doc-1", "dandi:000003")
	tab := newFakeTabular(row)
	artifacts := newMemoryStorage()
	writeContexts(t, artifacts, completeRecord("doc-1", "dandi:000003"))

	backend := &scriptedBackend{name: "ollama", model: "llama3.1:8b"}
	rt := newTestRuntime(tab, artifacts, backend)

	summary, err := workflow.ClassifyRun(context.Background(), rt, tabular.Filters{})
	if err != nil {
		t.Fatalf("classify run failed: %v", err)
	}

	if summary.NoContext != 1 {
		t.Errorf("NoContext = %d, want 1", summary.NoContext)
	}
	if backend.callCount() != 0 {
		t.Errorf("backend calls = %d, want 0 for a pair without evidence", backend.callCount())
	}

	updated, _ := tab.Find(context.Background(), row.ID)
	if updated.Status != citations.StatusNoContext {
		t.Errorf("Status = %v, want %v", updated.Status, citations.StatusNoContext)
	}
}

func TestClassifyRunPendingReviewBelowThreshold(t *testing.T) {
	row := testRow("doc-1", "dandi:000003")
	tab := newFakeTabular(row)
	artifacts := newMemoryStorage()
	writeContexts(t, artifacts, completeRecord("doc-1", "dandi:000003", "mentioned once in passing dandi:000003"))

	backend := &scriptedBackend{
		name:    "ollama",
		model:   "llama3.1:8b",
		verdict: backends.Verdict{Relationship: citations.RelationshipCites, Confidence: 0.4},
	}
	rt := newTestRuntime(tab, artifacts, backend)

	summary, err := workflow.ClassifyRun(context.Background(), rt, tabular.Filters{})
	if err != nil {
		t.Fatalf("classify run failed: %v", err)
	}

	if summary.LowConfidence != 1 {
		t.Errorf("LowConfidence = %d, want 1", summary.LowConfidence)
	}

	updated, _ := tab.Find(context.Background(), row.ID)
	if updated.Status != citations.StatusPendingReview {
		t.Errorf("Status = %v, want %v", updated.Status, citations.StatusPendingReview)
	}
}

func TestClassifyRunSkipsAboveThreshold(t *testing.T) {
	row := testRow("doc-1", "dandi:000003")
	confidence := 0.9
	row.Confidence = &confidence
	row.Status = citations.StatusAutoAccepted

	tab := newFakeTabular(row)
	artifacts := newMemoryStorage()
	writeContexts(t, artifacts, completeRecord("doc-1", "dandi:000003", "we reanalyzed dandi:000003 recordings"))

	backend := &scriptedBackend{name: "ollama", model: "llama3.1:8b"}
	rt := newTestRuntime(tab, artifacts, backend)

	summary, err := workflow.ClassifyRun(context.Background(), rt, tabular.Filters{})
	if err != nil {
		t.Fatalf("classify run failed: %v", err)
	}

	if summary.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", summary.Skipped)
	}
	if backend.callCount() != 0 {
		t.Errorf("backend calls = %d, want 0", backend.callCount())
	}
}

func TestClassifyRunSkipsReviewedRows(t *testing.T) {
	row := testRow("doc-1", "dandi:000003")
	row.Relationship = citations.RelationshipReviews
	row.Method = citations.MethodManual
	row.Reviewed = true
	row.Status = citations.StatusReviewed

	tab := newFakeTabular(row)
	artifacts := newMemoryStorage()
	writeContexts(t, artifacts, completeRecord("doc-1", "dandi:000003", "we reanalyzed dandi:000003 recordings"))

	backend := &scriptedBackend{
		name:    "ollama",
		model:   "llama3.1:8b",
		verdict: backends.Verdict{Relationship: citations.RelationshipUses, Confidence: 0.95},
	}
	rt := newTestRuntime(tab, artifacts, backend)

	summary, err := workflow.ClassifyRun(context.Background(), rt, tabular.Filters{})
	if err != nil {
		t.Fatalf("classify run failed: %v", err)
	}

	if summary.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", summary.Skipped)
	}
	if backend.callCount() != 0 {
		t.Errorf("backend calls = %d, want 0", backend.callCount())
	}

	updated, _ := tab.Find(context.Background(), row.ID)
	if updated.Relationship != citations.RelationshipReviews {
		t.Errorf("Relationship = %v, want %v", updated.Relationship, citations.RelationshipReviews)
	}
	if updated.Method != citations.MethodManual {
		t.Errorf("Method = %v, want %v", updated.Method, citations.MethodManual)
	}
	if !updated.Reviewed {
		t.Error("Reviewed = false, want true")
	}
	if updated.Status != citations.StatusReviewed {
		t.Errorf("Status = %v, want %v", updated.Status, citations.StatusReviewed)
	}
}

func TestClassifyRunOverwriteReclassifiesReviewed(t *testing.T) {
	row := testRow("doc-1", "dandi:000003")
	row.Relationship = citations.RelationshipReviews
	row.Method = citations.MethodManual
	row.Reviewed = true
	row.Status = citations.StatusReviewed

	tab := newFakeTabular(row)
	artifacts := newMemoryStorage()
	writeContexts(t, artifacts, completeRecord("doc-1", "dandi:000003", "we reanalyzed dandi:000003 recordings"))

	backend := &scriptedBackend{
		name:    "ollama",
		model:   "llama3.1:8b",
		verdict: backends.Verdict{Relationship: citations.RelationshipUses, Confidence: 0.95},
	}
	rt := newTestRuntime(tab, artifacts, backend)
	rt.Overwrite = true

	summary, err := workflow.ClassifyRun(context.Background(), rt, tabular.Filters{})
	if err != nil {
		t.Fatalf("classify run failed: %v", err)
	}

	if summary.Classified != 1 {
		t.Errorf("Classified = %d, want 1", summary.Classified)
	}
	if backend.callCount() != 1 {
		t.Errorf("backend calls = %d, want 1", backend.callCount())
	}

	updated, _ := tab.Find(context.Background(), row.ID)
	if updated.Relationship != citations.RelationshipUses {
		t.Errorf("Relationship = %v, want %v", updated.Relationship, citations.RelationshipUses)
	}
	if updated.Method != citations.MethodLLM {
		t.Errorf("Method = %v, want %v", updated.Method, citations.MethodLLM)
	}
}

func TestClassifyRunBackendUnavailable(t *testing.T) {
	row := testRow("doc-1", "dandi:000003")
	tab := newFakeTabular(row)
	artifacts := newMemoryStorage()
	writeContexts(t, artifacts, completeRecord("doc-1", "dandi:000003", "we reanalyzed dandi:000003 recordings"))

	backend := &scriptedBackend{name: "ollama", model: "llama3.1:8b", err: backends.ErrUnavailable}
	rt := newTestRuntime(tab, artifacts, backend)

	summary, err := workflow.ClassifyRun(context.Background(), rt, tabular.Filters{})
	if err != nil {
		t.Fatalf("classify run failed: %v", err)
	}

	if summary.BackendErrors != 1 {
		t.Errorf("BackendErrors = %d, want 1", summary.BackendErrors)
	}

	updated, _ := tab.Find(context.Background(), row.ID)
	if updated.Status != citations.StatusUnclassified {
		t.Errorf("Status = %v, want %v after total backend failure", updated.Status, citations.StatusUnclassified)
	}
}

func TestClassifyRunRequiresBackends(t *testing.T) {
	rt := newTestRuntime(newFakeTabular(), newMemoryStorage())

	_, err := workflow.ClassifyRun(context.Background(), rt, tabular.Filters{})
	if err != workflow.ErrNoBackends {
		t.Errorf("error = %v, want ErrNoBackends", err)
	}
}

func TestClassifyRunDryRun(t *testing.T) {
	row := testRow("doc-1", "dandi:000003")
	tab := newFakeTabular(row)
	artifacts := newMemoryStorage()
	writeContexts(t, artifacts, completeRecord("doc-1", "dandi:000003", "we reanalyzed dandi:000003 recordings"))

	backend := &scriptedBackend{
		name:    "ollama",
		model:   "llama3.1:8b",
		verdict: backends.Verdict{Relationship: citations.RelationshipUses, Confidence: 0.95},
	}
	rt := newTestRuntime(tab, artifacts, backend)
	rt.DryRun = true

	if _, err := workflow.ClassifyRun(context.Background(), rt, tabular.Filters{}); err != nil {
		t.Fatalf("classify run failed: %v", err)
	}

	attempts, err := rt.Store.ListPair(context.Background(), "doc-1", "dandi:000003")
	if err != nil {
		t.Fatalf("list attempts failed: %v", err)
	}
	if len(attempts) != 0 {
		t.Errorf("len(attempts) = %d, want 0 in dry run", len(attempts))
	}

	updated, _ := tab.Find(context.Background(), row.ID)
	if updated.Status != citations.StatusUnclassified {
		t.Errorf("Status = %v, want unchanged in dry run", updated.Status)
	}
}

func TestExtractRunWritesRecord(t *testing.T) {
	row := testRow("doc-1", "dandi:000003")
	tab := newFakeTabular(row)
	artifacts := newMemoryStorage()

	html := `<html><body><p>Recordings from DANDI: 000003 were reanalyzed.</p></body></html>`
	if err := artifacts.Upload(context.Background(), row.StorageKey, bytes.NewReader([]byte(html)), "text/html"); err != nil {
		t.Fatalf("upload source failed: %v", err)
	}

	rt := newTestRuntime(tab, artifacts)

	summary, err := workflow.ExtractRun(context.Background(), rt, tabular.Filters{})
	if err != nil {
		t.Fatalf("extract run failed: %v", err)
	}
	if summary.Extracted != 1 {
		t.Errorf("Extracted = %d, want 1", summary.Extracted)
	}

	reader, err := artifacts.Download(context.Background(), "contexts/doc-1/contexts.json")
	if err != nil {
		t.Fatalf("extraction record not written: %v", err)
	}
	defer reader.Close()

	var record extraction.Record
	if err := json.NewDecoder(reader).Decode(&record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record.Status != extraction.StatusComplete {
		t.Errorf("Status = %v, want complete", record.Status)
	}
	if len(record.Contexts("dandi:000003")) != 1 {
		t.Errorf("windows = %d, want 1", len(record.Contexts("dandi:000003")))
	}

	// Second run skips the existing record.
	summary, err = workflow.ExtractRun(context.Background(), rt, tabular.Filters{})
	if err != nil {
		t.Fatalf("second extract run failed: %v", err)
	}
	if summary.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1 on rerun", summary.Skipped)
	}
}

func TestExtractRunMissingSource(t *testing.T) {
	tab := newFakeTabular(testRow("doc-1", "dandi:000003"))
	rt := newTestRuntime(tab, newMemoryStorage())

	summary, err := workflow.ExtractRun(context.Background(), rt, tabular.Filters{})
	if err != nil {
		t.Fatalf("extract run failed: %v", err)
	}
	if summary.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", summary.Skipped)
	}
}

func TestExtractRunUnreadableDocument(t *testing.T) {
	row := testRow("doc-1", "dandi:000003")
	row.Medium = "pdf"
	row.StorageKey = "documents/doc-1.pdf"

	tab := newFakeTabular(row)
	artifacts := newMemoryStorage()
	if err := artifacts.Upload(context.Background(), row.StorageKey, bytes.NewReader([]byte("not a pdf")), "application/pdf"); err != nil {
		t.Fatalf("upload source failed: %v", err)
	}

	rt := newTestRuntime(tab, artifacts)

	summary, err := workflow.ExtractRun(context.Background(), rt, tabular.Filters{})
	if err != nil {
		t.Fatalf("extract run failed: %v", err)
	}
	if summary.IngestionFailed != 1 {
		t.Errorf("IngestionFailed = %d, want 1", summary.IngestionFailed)
	}

	reader, err := artifacts.Download(context.Background(), "contexts/doc-1/contexts.json")
	if err != nil {
		t.Fatalf("failed record not written: %v", err)
	}
	defer reader.Close()

	var record extraction.Record
	if err := json.NewDecoder(reader).Decode(&record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record.Status != extraction.StatusFailed {
		t.Errorf("Status = %v, want failed", record.Status)
	}
}

func TestReviewQueue(t *testing.T) {
	low := 0.4
	pending := testRow("doc-1", "dandi:000003")
	pending.Method = citations.MethodLLM
	pending.Confidence = &low
	pending.Status = citations.StatusPendingReview

	noContext := testRow("doc-2", "dandi:000003")
	noContext.Status = citations.StatusNoContext

	unclassified := testRow("doc-3", "dandi:000003")

	tab := newFakeTabular(pending, noContext, unclassified)

	queue, err := workflow.NewReviewQueue(context.Background(), tab, 0.7, false)
	if err != nil {
		t.Fatalf("build queue failed: %v", err)
	}

	if queue.Remaining() != 1 {
		t.Fatalf("Remaining = %d, want 1", queue.Remaining())
	}

	item := queue.Next()
	if item == nil {
		t.Fatal("Next returned nil")
	}
	if item.ID != pending.ID {
		t.Errorf("queued %v, want the pending-review row", item.ID)
	}

	if err := queue.Accept(context.Background(), item.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	updated, _ := tab.Find(context.Background(), pending.ID)
	if !updated.Reviewed {
		t.Error("Reviewed = false after accept")
	}
	if updated.Status != citations.StatusReviewed {
		t.Errorf("Status = %v, want reviewed", updated.Status)
	}
	if updated.Method != citations.MethodLLM {
		t.Errorf("Method = %v, want llm preserved on accept", updated.Method)
	}

	if queue.Next() != nil {
		t.Error("Next returned a row past the end of the queue")
	}
}

func TestReviewQueueOverride(t *testing.T) {
	low := 0.4
	row := testRow("doc-1", "dandi:000003")
	row.Method = citations.MethodLLM
	row.Model = "llama3.1:8b"
	row.Confidence = &low
	row.Status = citations.StatusPendingReview

	tab := newFakeTabular(row)

	queue, err := workflow.NewReviewQueue(context.Background(), tab, 0.7, false)
	if err != nil {
		t.Fatalf("build queue failed: %v", err)
	}

	item := queue.Next()
	if item == nil {
		t.Fatal("Next returned nil")
	}

	if err := queue.Override(context.Background(), item.ID, citations.RelationshipCitesAsDataSource); err != nil {
		t.Fatalf("override failed: %v", err)
	}

	updated, _ := tab.Find(context.Background(), row.ID)
	if updated.Method != citations.MethodManual {
		t.Errorf("Method = %v, want manual", updated.Method)
	}
	if updated.Model != "" || updated.Confidence != nil {
		t.Errorf("Model/Confidence = %q/%v, want cleared", updated.Model, updated.Confidence)
	}
	if updated.Relationship != citations.RelationshipCitesAsDataSource {
		t.Errorf("Relationship = %v, want CitesAsDataSource", updated.Relationship)
	}
	if !updated.Reviewed {
		t.Error("Reviewed = false after override")
	}
}
