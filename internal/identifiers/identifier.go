// Package identifiers locates raw-text occurrences of tracked external
// identifiers using a registry of per-namespace surface form patterns.
package identifiers

import (
	"fmt"
	"strings"
)

// Identifier is a namespaced external identifier the pipeline watches for,
// e.g. "dandi:000003". Flavor is an optional sub-version qualifier carried
// through classification attempts, e.g. "draft" or "0.220126.1903".
type Identifier struct {
	Namespace string `json:"namespace"`
	Value     string `json:"value"`
	Flavor    string `json:"flavor,omitempty"`
}

// Parse converts "namespace:value" or "namespace:value@flavor" into an
// Identifier. Both namespace and value must be non-empty.
func Parse(s string) (Identifier, error) {
	base, flavor, _ := strings.Cut(s, "@")

	ns, value, ok := strings.Cut(base, ":")
	if !ok || ns == "" || value == "" {
		return Identifier{}, fmt.Errorf("malformed identifier %q: want namespace:value", s)
	}

	return Identifier{
		Namespace: strings.ToLower(strings.TrimSpace(ns)),
		Value:     strings.TrimSpace(value),
		Flavor:    strings.TrimSpace(flavor),
	}, nil
}

// String renders the identifier without its flavor qualifier.
func (id Identifier) String() string {
	return id.Namespace + ":" + id.Value
}

// Key renders the identifier with its flavor qualifier, suitable for use as
// an artifact or store key.
func (id Identifier) Key() string {
	if id.Flavor == "" {
		return id.String()
	}
	return id.String() + "@" + id.Flavor
}
