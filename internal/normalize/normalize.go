// Package normalize canonicalises free text before any comparison.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize strips diacritics: NFKD decomposition with combining marks dropped.
func Normalize(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold normalizes, lowercases and collapses internal whitespace.
func Fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(Normalize(s))), " ")
}

// Upper normalizes and uppercases, the form used on machine-readable zones.
func Upper(s string) string {
	return strings.ToUpper(Normalize(s))
}
