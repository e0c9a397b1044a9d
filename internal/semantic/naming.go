// Package semantic groups related symbol names for the architecture
// summary: two functions named validateInput and validatingInputs stem to
// the same root and belong in the same reported group even though they
// don't match as substrings of each other.
package semantic

import (
	"regexp"
	"sort"
	"strings"

	"github.com/surgebase/porter2"
)

var wordSplit = regexp.MustCompile(`[A-Z]?[a-z0-9]+|[A-Z]+(?:[A-Z][a-z0-9]|$)`)

// Stem reduces name to a lowercase, Porter2-stemmed token sequence, so
// camelCase and snake_case identifiers that share a root word group
// together regardless of casing convention or suffix (Get/Getting/Gets).
func Stem(name string) string {
	words := wordSplit.FindAllString(name, -1)
	stemmed := make([]string, 0, len(words))
	for _, w := range words {
		stemmed = append(stemmed, porter2.Stem(strings.ToLower(w)))
	}
	return strings.Join(stemmed, "_")
}

// GroupByStem buckets names by their Stem, for surfacing which functions
// an architecture summary should treat as the same conceptual operation
// (validateInput, ValidateInputs, validating_input all land together).
func GroupByStem(names []string) map[string][]string {
	groups := make(map[string][]string)
	for _, n := range names {
		key := Stem(n)
		groups[key] = append(groups[key], n)
	}
	for _, g := range groups {
		sort.Strings(g)
	}
	return groups
}
