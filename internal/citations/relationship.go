// Package citations defines the shared citation vocabulary and projection types.
// It provides the closed relationship label set, document metadata snapshots,
// and the summary record materialized into the tabular citation store.
package citations

import (
	"fmt"
	"strings"
)

// Relationship is a CiTO-style label describing why a document cites the
// tracked identifier.
type Relationship string

// Canonical relationship vocabulary. RelationshipCites is the generic fallback.
const (
	RelationshipUses                Relationship = "Uses"
	RelationshipIsDocumentedBy      Relationship = "IsDocumentedBy"
	RelationshipReviews             Relationship = "Reviews"
	RelationshipCitesAsEvidence     Relationship = "CitesAsEvidence"
	RelationshipCompiles            Relationship = "Compiles"
	RelationshipCitesAsDataSource   Relationship = "CitesAsDataSource"
	RelationshipCitesForInformation Relationship = "CitesForInformation"
	RelationshipCites               Relationship = "Cites"
)

// Relationships returns the canonical vocabulary in definition order.
func Relationships() []Relationship {
	return []Relationship{
		RelationshipUses,
		RelationshipIsDocumentedBy,
		RelationshipReviews,
		RelationshipCitesAsEvidence,
		RelationshipCompiles,
		RelationshipCitesAsDataSource,
		RelationshipCitesForInformation,
		RelationshipCites,
	}
}

// Valid reports whether r is a member of the canonical vocabulary.
func (r Relationship) Valid() bool {
	for _, known := range Relationships() {
		if r == known {
			return true
		}
	}
	return false
}

func (r Relationship) String() string {
	return string(r)
}

// ParseRelationship converts a string to a Relationship, matching
// case-insensitively against the canonical vocabulary. It returns an error
// for any label outside the vocabulary.
func ParseRelationship(s string) (Relationship, error) {
	trimmed := strings.TrimSpace(s)
	for _, known := range Relationships() {
		if strings.EqualFold(trimmed, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown relationship %q", s)
}

// MatchRelationship salvages a relationship label from free text by
// case-insensitive substring search. Longer labels are checked before
// shorter ones so "CitesAsEvidence" wins over the bare "Cites" it contains.
// Returns false when no label appears in the text.
func MatchRelationship(text string) (Relationship, bool) {
	lower := strings.ToLower(text)

	ordered := Relationships()
	for i := range ordered {
		for j := i + 1; j < len(ordered); j++ {
			if len(ordered[j]) > len(ordered[i]) {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			}
		}
	}

	for _, known := range ordered {
		if strings.Contains(lower, strings.ToLower(string(known))) {
			return known, true
		}
	}
	return "", false
}
