package classifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/nmarkham/citetype/pkg/storage"
)

const artifactName = "classifications.json"

// Store persists per-document classification attempts as one JSON artifact
// per document, strictly append-only. The underlying storage system provides
// atomic replace, so a reader never observes a partially written artifact.
type Store struct {
	storage storage.System
	prefix  string
	logger  *slog.Logger
}

// NewStore creates a Store writing artifacts under the given key prefix.
func NewStore(sys storage.System, prefix string, logger *slog.Logger) *Store {
	return &Store{
		storage: sys,
		prefix:  prefix,
		logger:  logger.With("system", "classifications"),
	}
}

func (s *Store) key(documentID string) string {
	return path.Join(s.prefix, documentID, artifactName)
}

// List returns every attempt recorded for a document in append order.
// A document with no artifact yields an empty slice, not an error.
func (s *Store) List(ctx context.Context, documentID string) ([]Attempt, error) {
	reader, err := s.storage.Download(ctx, s.key(documentID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []Attempt{}, nil
		}
		return nil, fmt.Errorf("download attempts for %s: %w", documentID, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read attempts for %s: %w", documentID, err)
	}

	var attempts []Attempt
	if err := json.Unmarshal(data, &attempts); err != nil {
		return nil, fmt.Errorf("unmarshal attempts for %s: %w", documentID, err)
	}

	return attempts, nil
}

// ListPair returns attempts for one (document, identifier) pair in append order.
func (s *Store) ListPair(ctx context.Context, documentID, identifier string) ([]Attempt, error) {
	all, err := s.List(ctx, documentID)
	if err != nil {
		return nil, err
	}

	pair := make([]Attempt, 0)
	for _, a := range all {
		if a.Identifier == identifier {
			pair = append(pair, a)
		}
	}
	return pair, nil
}

// Append adds attempts to a document's artifact. The full artifact is
// rewritten through the storage system's atomic replace, so the append is
// all-or-nothing. Existing attempts are never modified or removed.
func (s *Store) Append(ctx context.Context, documentID string, attempts ...Attempt) error {
	if len(attempts) == 0 {
		return nil
	}

	existing, err := s.List(ctx, documentID)
	if err != nil {
		return err
	}

	combined := append(existing, attempts...)

	data, err := json.MarshalIndent(combined, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal attempts for %s: %w", documentID, err)
	}

	if err := s.storage.Upload(ctx, s.key(documentID), bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("upload attempts for %s: %w", documentID, err)
	}

	s.logger.Debug("attempts appended",
		"document_id", documentID,
		"appended", len(attempts),
		"total", len(combined),
	)
	return nil
}
