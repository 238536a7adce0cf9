// Package fuzzy implements the OCR-tolerant comparisons used across documents.
// All comparisons fold their inputs first (see normalize.Fold).
package fuzzy

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/gyaneshwarpardhi/kycguard/internal/normalize"
)

const (
	maxLengthGap        = 2
	maxMismatches       = 3
	ocrSimilarityFloor  = 0.8
	longStringThreshold = 5

	tokenDistanceRatio = 0.3
	nameSimilarity     = 0.7
)

// confusionClass maps every character of a confusion group onto one
// representative. Groups are symmetric by construction: 0/O, 1/l/I, 5/S, 8/B,
// 6/G, 2/Z, 4/A and n/h (which also covers N/H once folded). The two-character
// confusion m/rn is handled separately.
var confusionClass = map[rune]rune{
	'o': '0',
	'l': '1', 'i': '1',
	's': '5',
	'b': '8',
	'g': '6',
	'z': '2',
	'a': '4',
	'h': 'n',
}

func class(r rune) rune {
	if c, ok := confusionClass[r]; ok {
		return c
	}
	return r
}

// canonical rewrites a folded string so that OCR-confusable spellings collapse
// onto the same text.
func canonical(s string) string {
	s = strings.ReplaceAll(s, "rn", "m")
	return strings.Map(class, s)
}

// Levenshtein is the rune-level edit distance between a and b.
func Levenshtein(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// Similarity is 1 - distance/max(len(a), len(b)); two empty strings are identical.
func Similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(Levenshtein(a, b))/float64(longest)
}

// StringsOCREquivalent reports whether a and b can be the same text read
// through OCR. The relation is reflexive and symmetric.
func StringsOCREquivalent(a, b string) bool {
	fa, fb := normalize.Fold(a), normalize.Fold(b)
	if fa == fb {
		return true
	}
	ra, rb := []rune(fa), []rune(fb)
	if len(ra) == 0 || len(rb) == 0 {
		return false
	}
	if abs(len(ra)-len(rb)) > maxLengthGap {
		return false
	}
	if untolerated(ra, rb) > mismatchBudget(min(len(ra), len(rb))) {
		return false
	}
	if max(len(ra), len(rb)) > longStringThreshold {
		return Similarity(canonical(fa), canonical(fb)) >= ocrSimilarityFloor
	}
	return true
}

// mismatchBudget caps untolerated mismatches at three, and at fewer for short
// strings so that two-letter days or five-letter names cannot differ in most
// of their characters.
func mismatchBudget(shorter int) int {
	return min(maxMismatches, (shorter-1)/2)
}

// untolerated walks both strings in step and counts positions that are neither
// equal nor a known OCR confusion. Characters left over when one string ends
// count as mismatches.
func untolerated(a, b []rune) int {
	n, i, j := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case class(a[i]) == class(b[j]):
			i, j = i+1, j+1
		case a[i] == 'm' && isRN(b, j):
			i, j = i+1, j+2
		case b[j] == 'm' && isRN(a, i):
			i, j = i+2, j+1
		default:
			n++
			i, j = i+1, j+1
		}
	}
	return n + (len(a) - i) + (len(b) - j)
}

func isRN(s []rune, at int) bool {
	return at+1 < len(s) && s[at] == 'r' && s[at+1] == 'n'
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
