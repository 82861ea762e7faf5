package classifications_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nmarkham/citetype/internal/backends"
	"github.com/nmarkham/citetype/internal/citations"
	"github.com/nmarkham/citetype/internal/classifications"
	"github.com/nmarkham/citetype/pkg/lifecycle"
	"github.com/nmarkham/citetype/pkg/storage"
)

// memoryStorage is an in-memory storage.System for store tests.
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

func newTestStore() *classifications.Store {
	return classifications.NewStore(
		newMemoryStorage(),
		"classifications",
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func makeAttempt(documentID, identifier, backend string, confidence float64, ts time.Time) classifications.Attempt {
	return classifications.Attempt{
		ID:           uuid.New(),
		DocumentID:   documentID,
		Identifier:   identifier,
		Backend:      backend,
		Model:        backend + "-model",
		Relationship: citations.RelationshipUses,
		Confidence:   confidence,
		Mode:         backends.ModeShortContext,
		Timestamp:    ts,
	}
}

func TestListEmptyDocument(t *testing.T) {
	store := newTestStore()

	attempts, err := store.List(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(attempts) != 0 {
		t.Errorf("len(attempts) = %d, want 0", len(attempts))
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	now := time.Now().UTC()

	first := makeAttempt("doc-1", "dandi:000003", "ollama", 0.9, now)
	second := makeAttempt("doc-1", "dandi:000003", "gateway", 0.4, now.Add(time.Second))
	third := makeAttempt("doc-1", "dandi:000003", "ollama", 0.7, now.Add(2*time.Second))

	if err := store.Append(ctx, "doc-1", first, second); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := store.Append(ctx, "doc-1", third); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	attempts, err := store.List(ctx, "doc-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(attempts) != 3 {
		t.Fatalf("len(attempts) = %d, want 3", len(attempts))
	}

	want := []uuid.UUID{first.ID, second.ID, third.ID}
	for i, id := range want {
		if attempts[i].ID != id {
			t.Errorf("attempts[%d].ID = %v, want %v", i, attempts[i].ID, id)
		}
	}
}

func TestAppendIsolatesDocuments(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.Append(ctx, "doc-1", makeAttempt("doc-1", "dandi:000003", "ollama", 0.9, now)); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := store.Append(ctx, "doc-2", makeAttempt("doc-2", "dandi:000003", "ollama", 0.8, now)); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	attempts, err := store.List(ctx, "doc-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(attempts) != 1 {
		t.Errorf("len(doc-1 attempts) = %d, want 1", len(attempts))
	}
	if attempts[0].DocumentID != "doc-1" {
		t.Errorf("DocumentID = %q, want doc-1", attempts[0].DocumentID)
	}
}

func TestListPairFilters(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.Append(ctx, "doc-1",
		makeAttempt("doc-1", "dandi:000003", "ollama", 0.9, now),
		makeAttempt("doc-1", "dandi:000108", "ollama", 0.6, now),
		makeAttempt("doc-1", "dandi:000003", "gateway", 0.5, now),
	); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	pair, err := store.ListPair(ctx, "doc-1", "dandi:000003")
	if err != nil {
		t.Fatalf("list pair failed: %v", err)
	}
	if len(pair) != 2 {
		t.Fatalf("len(pair) = %d, want 2", len(pair))
	}
	for i, a := range pair {
		if a.Identifier != "dandi:000003" {
			t.Errorf("pair[%d].Identifier = %q, want dandi:000003", i, a.Identifier)
		}
	}
}

func TestAppendNothingIsNoOp(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	if err := store.Append(ctx, "doc-1"); err != nil {
		t.Fatalf("empty append failed: %v", err)
	}

	attempts, err := store.List(ctx, "doc-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(attempts) != 0 {
		t.Errorf("len(attempts) = %d, want 0", len(attempts))
	}
}
