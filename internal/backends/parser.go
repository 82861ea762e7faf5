package backends

import (
	"github.com/nmarkham/citetype/internal/citations"
	"github.com/nmarkham/citetype/pkg/formatting"
)

const (
	// salvageConfidence is assigned when a label is recovered from free
	// text rather than a structured reply.
	salvageConfidence = 0.2

	// relabelCeiling caps confidence when an out-of-vocabulary label is
	// relabeled to the generic fallback.
	relabelCeiling = 0.3

	// missingConfidenceFloor is the conservative default when a structured
	// reply omits confidence entirely.
	missingConfidenceFloor = 0.1
)

// rawVerdict mirrors the JSON shape backends are prompted to produce.
// Confidence is a pointer so an omitted field is distinguishable from 0.
type rawVerdict struct {
	Relationship string   `json:"relationship_type"`
	Confidence   *float64 `json:"confidence"`
	Reasoning    string   `json:"reasoning"`
}

// ParseVerdict converts a raw model reply into a valid verdict. It is total:
// structured extraction first, then substring label salvage at a fixed low
// confidence, then the generic fallback with confidence 0. Downstream code
// never special-cases "no verdict".
func ParseVerdict(raw string) Verdict {
	parsed, err := formatting.Parse[rawVerdict](raw)
	if err == nil && parsed.Relationship != "" {
		return validate(parsed)
	}

	if rel, ok := citations.MatchRelationship(raw); ok {
		return Verdict{
			Relationship: rel,
			Confidence:   salvageConfidence,
			Reasoning:    "label recovered from unstructured response",
		}
	}

	return Verdict{
		Relationship: citations.RelationshipCites,
		Confidence:   0,
		Reasoning:    "unparseable response",
	}
}

// validate normalizes a structured reply: out-of-vocabulary labels are
// relabeled to the generic fallback with a capped confidence, a missing
// confidence gets the conservative floor, and the final value is clamped
// to [0,1].
func validate(raw rawVerdict) Verdict {
	confidence := missingConfidenceFloor
	if raw.Confidence != nil {
		confidence = clamp(*raw.Confidence)
	}

	rel, err := citations.ParseRelationship(raw.Relationship)
	if err != nil {
		rel = citations.RelationshipCites
		if confidence > relabelCeiling {
			confidence = relabelCeiling
		}
	}

	return Verdict{
		Relationship: rel,
		Confidence:   confidence,
		Reasoning:    raw.Reasoning,
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
