package identifiers

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Registry maps a namespace to the regexp surface forms its identifiers take
// in running text. Each pattern is a template with a single %s slot for the
// quoted identifier value.
type Registry struct {
	patterns map[string][]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{patterns: make(map[string][]string)}
}

// Default returns a registry seeded with the dandi surface forms: the spelled
// out accession, the archive URL, and the DANDI DOI prefix.
func Default() *Registry {
	r := &Registry{patterns: map[string][]string{}}
	r.Register("dandi",
		`DANDI[:\s]+%s`,
		`dandiarchive\.org/dandiset/%s`,
		`10\.48324/dandi\.%s`,
	)
	return r
}

// Register adds surface form templates for a namespace. Each template must
// contain exactly one %s slot.
func (r *Registry) Register(namespace string, templates ...string) {
	ns := strings.ToLower(namespace)
	r.patterns[ns] = append(r.patterns[ns], templates...)
}

// Match is one located occurrence of an identifier within a text chunk.
type Match struct {
	Identifier Identifier
	Offset     int
	Span       string
}

// Locate finds all occurrences of id in text, case-insensitively, using the
// namespace's registered surface forms plus the literal namespace:value
// rendering. An unregistered namespace still matches its literal form;
// zero matches is a normal outcome, not an error.
func (r *Registry) Locate(text string, id Identifier) ([]Match, error) {
	templates := append([]string{}, r.patterns[id.Namespace]...)
	templates = append(templates, regexp.QuoteMeta(id.Namespace)+`:%s`)

	var matches []Match
	seen := make(map[int]bool)

	for _, tmpl := range templates {
		pattern := fmt.Sprintf("(?i)"+tmpl, regexp.QuoteMeta(id.Value))
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile pattern for %s: %w", id.Namespace, err)
		}

		for _, loc := range re.FindAllStringIndex(text, -1) {
			if seen[loc[0]] {
				continue
			}
			seen[loc[0]] = true
			matches = append(matches, Match{
				Identifier: id,
				Offset:     loc[0],
				Span:       text[loc[0]:loc[1]],
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Offset < matches[j].Offset
	})

	return matches, nil
}
