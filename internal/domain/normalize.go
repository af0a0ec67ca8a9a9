package domain

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// genericPrefixRe matches the generic "praia [de|do|da|dos|das]" lead-in that
// most beach names carry, e.g. "praia de boa viagem" -> "boa viagem".
// Input is already lower-cased and accent-free when this runs.
var genericPrefixRe = regexp.MustCompile(`^praia\s+(?:(?:de|do|da|dos|das)\s+)?`)

// Normalize canonicalizes a beach name for comparison: lower-case, diacritics
// removed, the leading generic prefix stripped, and surrounding whitespace
// trimmed.
func Normalize(name string) string {
	s := strings.ToLower(stripDiacritics(name))
	s = strings.TrimSpace(s)
	s = genericPrefixRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// NamesMatch reports whether two names plausibly denote the same beach: the
// normalized forms are equal or one contains the other. Names that normalize
// to the empty string never match, otherwise the substring test would be
// vacuously true.
func NamesMatch(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb || strings.Contains(na, nb) || strings.Contains(nb, na)
}

// stripDiacritics decomposes s and drops combining marks ("ç" -> "c").
// A transformer is built per call because transform chains carry state.
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// containsFold reports whether haystack contains needle ignoring case and
// diacritics.
func containsFold(haystack, needle string) bool {
	return strings.Contains(
		strings.ToLower(stripDiacritics(haystack)),
		strings.ToLower(stripDiacritics(needle)),
	)
}
