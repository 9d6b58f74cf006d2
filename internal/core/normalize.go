package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeKey reduces a label to the form used for duplicate detection:
// surrounding space trimmed, diacritics removed and case folded. "Étang " and
// "etang" normalize to the same key.
func NormalizeKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		stripped = strings.TrimSpace(s)
	}
	return cases.Fold().String(stripped)
}

// KeySet is a set of normalized keys.
type KeySet map[string]struct{}

// Add inserts the normalized form of s.
func (k KeySet) Add(s string) {
	k[NormalizeKey(s)] = struct{}{}
}

// Has reports whether a value normalizing like s is present.
func (k KeySet) Has(s string) bool {
	_, ok := k[NormalizeKey(s)]
	return ok
}
