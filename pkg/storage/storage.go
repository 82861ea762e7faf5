// Package storage provides blob storage for source documents and pipeline
// artifacts, with local filesystem and Azure Blob Storage implementations.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/nmarkham/citetype/pkg/lifecycle"
)

// System manages blob storage operations and lifecycle coordination.
// Upload must be atomic: a reader observing the key sees either the prior
// content or the full new content, never a partial write.
type System interface {
	// Start registers a startup hook that initializes the storage backend.
	Start(lc *lifecycle.Coordinator) error
	// Upload replaces the blob at the given key with the reader's content.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Download returns a stream for the blob at the given key. The caller must close the reader.
	// Returns ErrNotFound if the blob does not exist.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob at the given key. Returns ErrNotFound if the blob does not exist.
	Delete(ctx context.Context, key string) error
	// Exists reports whether a blob exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}

// New creates a storage system for the configured kind.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	switch cfg.Kind {
	case KindFilesystem:
		return newFilesystem(cfg, logger)
	case KindAzure:
		return newAzure(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage kind: %q", cfg.Kind)
	}
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
