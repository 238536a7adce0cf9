package fuzzy

import (
	"strings"
	"unicode/utf8"

	"github.com/gyaneshwarpardhi/kycguard/internal/normalize"
)

var titles = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
}

func stripTitles(s string) []string {
	var tokens []string
	for _, tok := range strings.Fields(normalize.Fold(s)) {
		if titles[strings.TrimSuffix(tok, ".")] {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// NamesSimilar reports whether two personal names plausibly refer to the same
// person despite titles, reordering, truncation or OCR noise.
func NamesSimilar(a, b string) bool {
	ta, tb := stripTitles(a), stripTitles(b)
	na, nb := strings.Join(ta, " "), strings.Join(tb, " ")
	if na == "" || nb == "" {
		return false
	}
	if na == nb || strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}

	bestDist, bestLen := -1, 0
	for _, x := range ta {
		for _, y := range tb {
			if StringsOCREquivalent(x, y) {
				return true
			}
			d := Levenshtein(x, y)
			l := max(utf8.RuneCountInString(x), utf8.RuneCountInString(y))
			if bestDist < 0 || d < bestDist || (d == bestDist && l > bestLen) {
				bestDist, bestLen = d, l
			}
		}
	}
	if bestDist >= 0 && float64(bestDist) <= tokenDistanceRatio*float64(bestLen) {
		return true
	}

	total := utf8.RuneCountInString(na) + utf8.RuneCountInString(nb)
	ratio := 1 - 2*float64(Levenshtein(na, nb))/float64(total)
	return ratio >= nameSimilarity
}
