// Package redact hides denylisted listings at read time.
package redact

import "github.com/starford/torlist/internal/models"

// Filter returns the listings whose Identifier is not among denied, in input
// order. The input is never modified. With nothing to deny (or nothing to
// filter) the input slice itself is returned.
func Filter(entries []models.Listing, denied []string) []models.Listing {
	if len(entries) == 0 || len(denied) == 0 {
		return entries
	}

	set := make(map[string]struct{}, len(denied))
	for _, h := range denied {
		set[h] = struct{}{}
	}

	out := make([]models.Listing, 0, len(entries))
	for _, e := range entries {
		if _, hidden := set[e.Identifier]; !hidden {
			out = append(out, e)
		}
	}
	return out
}

// Removed reports how many listings Filter dropped.
func Removed(before, after []models.Listing) int {
	return len(before) - len(after)
}
