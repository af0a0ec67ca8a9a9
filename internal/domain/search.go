package domain

import "strings"

// beachKeywords are the terms a geocoding result must mention in its name or
// address to count as a beach. The provider's POI type filter alone lets
// restaurants and hotels named after the beach through.
var beachKeywords = []string{"praia", "beach"}

// SearchLocal returns every beach whose name or neighborhood matches query,
// preserving input order. An empty or whitespace-only query matches nothing.
func SearchLocal(query string, beaches []BeachRecord) []BeachRecord {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	var matches []BeachRecord
	for _, b := range beaches {
		if NamesMatch(query, b.Name) || NamesMatch(query, b.Neighborhood) {
			matches = append(matches, b)
		}
	}
	return matches
}

// IsBeachLike reports whether a geocoding result names a beach in either its
// display name or its formatted address.
func IsBeachLike(p ExternalPlace) bool {
	for _, kw := range beachKeywords {
		if containsFold(p.Name, kw) || containsFold(p.Address, kw) {
			return true
		}
	}
	return false
}

// FilterBeachLike keeps only the beach-like places, preserving order.
func FilterBeachLike(places []ExternalPlace) []ExternalPlace {
	out := make([]ExternalPlace, 0, len(places))
	for _, p := range places {
		if IsBeachLike(p) {
			out = append(out, p)
		}
	}
	return out
}
