package classifications

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nmarkham/citetype/internal/citations"
)

// Strategy deterministically picks one representative attempt from all
// attempts recorded for a (document, identifier) pair.
type Strategy interface {
	Name() string
	Select(attempts []Attempt) *Attempt
}

// NewStrategy constructs a strategy by configured name. Unknown names are a
// configuration error, fatal at startup.
func NewStrategy(name string, minAgreement int, preferredModels []string) (Strategy, error) {
	switch name {
	case "", "highest_confidence":
		return HighestConfidence{}, nil
	case "majority":
		if minAgreement < 1 {
			minAgreement = 2
		}
		return Majority{MinAgreement: minAgreement}, nil
	case "preferred_model":
		if len(preferredModels) == 0 {
			return nil, fmt.Errorf("preferred_model strategy requires a model priority list")
		}
		return PreferredModel{Priority: preferredModels}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// dedupe drops exact duplicate attempts (same backend, model, mode, and
// timestamp), keeping the first seen. Batch runs racing for the same pair
// may legitimately produce such duplicates.
func dedupe(attempts []Attempt) []Attempt {
	seen := make(map[string]bool, len(attempts))
	out := make([]Attempt, 0, len(attempts))

	for _, a := range attempts {
		key := strings.Join([]string{
			a.Backend, a.Model, string(a.Mode), a.Timestamp.UTC().Format("2006-01-02T15:04:05.000000000"),
		}, "|")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

// HighestConfidence picks the attempt with maximum confidence; ties break by
// earliest timestamp, then by ID for total determinism.
type HighestConfidence struct{}

func (HighestConfidence) Name() string {
	return "highest_confidence"
}

func (HighestConfidence) Select(attempts []Attempt) *Attempt {
	attempts = dedupe(attempts)
	if len(attempts) == 0 {
		return nil
	}

	best := attempts[0]
	for _, a := range attempts[1:] {
		switch {
		case a.Confidence > best.Confidence:
			best = a
		case a.Confidence == best.Confidence && a.Timestamp.Before(best.Timestamp):
			best = a
		case a.Confidence == best.Confidence && a.Timestamp.Equal(best.Timestamp) &&
			a.ID.String() < best.ID.String():
			best = a
		}
	}
	return &best
}

// Majority picks the highest-confidence attempt among the majority
// relationship label, requiring at least MinAgreement votes. Without a
// majority it falls back to HighestConfidence.
type Majority struct {
	MinAgreement int
}

func (Majority) Name() string {
	return "majority"
}

func (m Majority) Select(attempts []Attempt) *Attempt {
	attempts = dedupe(attempts)
	if len(attempts) == 0 {
		return nil
	}

	votes := make(map[citations.Relationship]int)
	for _, a := range attempts {
		votes[a.Relationship]++
	}

	labels := make([]citations.Relationship, 0, len(votes))
	for label := range votes {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if votes[labels[i]] != votes[labels[j]] {
			return votes[labels[i]] > votes[labels[j]]
		}
		return labels[i] < labels[j]
	})

	winner := labels[0]
	if votes[winner] < m.MinAgreement || (len(labels) > 1 && votes[labels[1]] == votes[winner]) {
		return HighestConfidence{}.Select(attempts)
	}

	agreeing := make([]Attempt, 0, votes[winner])
	for _, a := range attempts {
		if a.Relationship == winner {
			agreeing = append(agreeing, a)
		}
	}
	return HighestConfidence{}.Select(agreeing)
}

// PreferredModel walks a model priority list and picks the first model with
// a recorded attempt, preferring that model's highest-confidence attempt.
// Falls back to HighestConfidence when no listed model has an attempt.
type PreferredModel struct {
	Priority []string
}

func (PreferredModel) Name() string {
	return "preferred_model"
}

func (p PreferredModel) Select(attempts []Attempt) *Attempt {
	attempts = dedupe(attempts)
	if len(attempts) == 0 {
		return nil
	}

	for _, model := range p.Priority {
		matching := make([]Attempt, 0)
		for _, a := range attempts {
			if a.Model == model {
				matching = append(matching, a)
			}
		}
		if len(matching) > 0 {
			return HighestConfidence{}.Select(matching)
		}
	}

	return HighestConfidence{}.Select(attempts)
}
