package citations_test

import (
	"testing"

	"github.com/nmarkham/citetype/internal/citations"
)

func TestParseRelationship(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    citations.Relationship
		wantErr bool
	}{
		{"exact", "Uses", citations.RelationshipUses, false},
		{"lowercase", "citesasevidence", citations.RelationshipCitesAsEvidence, false},
		{"uppercase", "REVIEWS", citations.RelationshipReviews, false},
		{"whitespace", "  Compiles  ", citations.RelationshipCompiles, false},
		{"fallback label", "cites", citations.RelationshipCites, false},
		{"unknown", "Extends", "", true},
		{"empty", "", "", true},
		{"substring is not a match", "UsesData", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := citations.ParseRelationship(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseRelationship(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRelationship(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRelationship(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMatchRelationship(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  citations.Relationship
		found bool
	}{
		{
			"label in prose",
			`The relationship is "CitesAsDataSource" based on the excerpts.`,
			citations.RelationshipCitesAsDataSource,
			true,
		},
		{
			"longer label wins over contained label",
			"citesasevidence",
			citations.RelationshipCitesAsEvidence,
			true,
		},
		{
			"bare fallback",
			"I would say this cites the dataset generically.",
			citations.RelationshipCites,
			true,
		},
		{
			"case insensitive",
			"Relationship: USES",
			citations.RelationshipUses,
			true,
		},
		{"no label", "the model refused to answer", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := citations.MatchRelationship(tt.text)
			if found != tt.found {
				t.Fatalf("MatchRelationship(%q) found = %v, want %v", tt.text, found, tt.found)
			}
			if got != tt.want {
				t.Errorf("MatchRelationship(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestRelationshipsAllValid(t *testing.T) {
	for _, r := range citations.Relationships() {
		if !r.Valid() {
			t.Errorf("%v.Valid() = false", r)
		}
	}
	if citations.Relationship("Extends").Valid() {
		t.Error(`Relationship("Extends").Valid() = true`)
	}
}
