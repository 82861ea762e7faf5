// Package workflow orchestrates the pipeline runs: context extraction,
// multi-backend classification with summary projection, and the pull-based
// review queue.
package workflow

import (
	"log/slog"
	"path"

	"github.com/nmarkham/citetype/internal/backends"
	"github.com/nmarkham/citetype/internal/classifications"
	"github.com/nmarkham/citetype/internal/extraction"
	"github.com/nmarkham/citetype/internal/tabular"
	"github.com/nmarkham/citetype/pkg/storage"
)

const contextsArtifact = "contexts.json"

// Runtime bundles the dependencies that workflow runs require.
// It is constructed by the CLI composition layer from Infrastructure and
// domain systems.
type Runtime struct {
	Tabular   tabular.System
	Artifacts storage.System
	Store     *classifications.Store
	Extractor *extraction.Extractor
	Backends  []backends.Backend
	Selector  classifications.Strategy
	Retry     backends.RetryConfig
	Logger    *slog.Logger

	Threshold      float64
	Concurrency    int
	Mode           backends.Mode
	ContextsPrefix string
	Overwrite      bool
	DryRun         bool
}

func (rt *Runtime) contextsKey(documentID string) string {
	return path.Join(rt.ContextsPrefix, documentID, contextsArtifact)
}

func (rt *Runtime) limit() int {
	if rt.Concurrency < 1 {
		return 1
	}
	return rt.Concurrency
}
