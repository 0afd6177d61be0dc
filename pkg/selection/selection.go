// Package selection keeps the list of genes a user has picked: ordered,
// without duplicates and never longer than MaxGenes.
package selection

import (
	"strings"
	"unicode"
)

// MaxGenes is the most genes a selection may hold.
const MaxGenes = 10

// Normalize splits free text on any run of whitespace and/or commas and
// returns the trimmed, non-empty pieces. Case is kept as typed.
func Normalize(raw string) []string {

	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	var tokens []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			tokens = append(tokens, f)
		}
	}

	return tokens
}

// AddTokens appends newTokens to existing, drops repeats (first occurrence
// wins) and keeps only the first MaxGenes entries. Neither input is modified.
func AddTokens(existing, newTokens []string) []string {

	out := make([]string, 0, MaxGenes)
	seen := make(map[string]struct{}, len(existing)+len(newTokens))

	for _, list := range [][]string{existing, newTokens} {
		for _, g := range list {
			if len(out) == MaxGenes {
				return out
			}
			if _, dup := seen[g]; dup {
				continue
			}
			seen[g] = struct{}{}
			out = append(out, g)
		}
	}

	return out
}

// Remove returns a copy of existing without the element at index. An index
// out of range leaves the selection as it was.
func Remove(existing []string, index int) []string {

	out := make([]string, 0, len(existing))

	for i, g := range existing {
		if i == index {
			continue
		}
		out = append(out, g)
	}

	return out
}

// RemainingCapacity is how many more genes fit: MaxGenes minus the current
// length, never negative.
func RemainingCapacity(existing []string) int {
	return max(0, MaxGenes-len(existing))
}
