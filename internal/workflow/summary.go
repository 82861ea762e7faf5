package workflow

import (
	"log/slog"
	"sync"
)

// Summary reports the outcome counts of a run. Individual document failures
// increment counters; they never abort the run.
type Summary struct {
	mu sync.Mutex

	Classified      int `json:"classified"`
	LowConfidence   int `json:"low_confidence"`
	NoContext       int `json:"no_context"`
	IngestionFailed int `json:"ingestion_failed"`
	BackendErrors   int `json:"backend_errors"`
	Skipped         int `json:"skipped"`
	Extracted       int `json:"extracted"`
}

func (s *Summary) add(field *int, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*field += n
}

// Log reports the run counts through the runtime logger.
func (s *Summary) Log(logger *slog.Logger, run string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Info("run complete",
		"run", run,
		"extracted", s.Extracted,
		"classified", s.Classified,
		"low_confidence", s.LowConfidence,
		"no_context", s.NoContext,
		"ingestion_failed", s.IngestionFailed,
		"backend_errors", s.BackendErrors,
		"skipped", s.Skipped,
	)
}
