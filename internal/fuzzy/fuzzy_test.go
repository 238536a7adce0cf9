package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, Levenshtein("abc", "abc"))
	assert.Equal(t, 3, Levenshtein("kitten", "sitting"))
	assert.Equal(t, 4, Levenshtein("", "four"))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.InDelta(t, 0.75, Similarity("abcd", "abce"), 1e-9)
}

func TestStringsOCREquivalent(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"Smith", "Smith", true},
		{"Smith", "SMITH", true},
		{"Smith", "SNITH", true},
		{"Jensen", "JENSEM", true},
		{"Kurnar", "Kumar", true},
		{"CD5678901", "CDS67890l", true},
		{"2000", "2ooo", true},
		{"Brown", "GREEN", false},
		{"30", "20", false},
		{"Smith", "", false},
		{"Al", "Alexander", false},
		{"Hoffmann", "Weber", false},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, StringsOCREquivalent(tt.a, tt.b))
			assert.Equal(t, tt.want, StringsOCREquivalent(tt.b, tt.a), "relation must be symmetric")
		})
	}
}

func TestStringsOCREquivalentIsReflexive(t *testing.T) {
	for _, s := range []string{"x", "Müller", "AB1234567", "rn", "0Ol1"} {
		assert.True(t, StringsOCREquivalent(s, s), s)
	}
}

func TestNamesSimilar(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "Anna Hoffmann", "Anna Hoffmann", true},
		{"truncated ocr", "Hoffmann", "HOFFMAI", true},
		{"title stripped", "Dr. Anna Hoffmann", "anna hoffmann", true},
		{"reordered", "Hoffmann Anna", "Anna Hoffmann", true},
		{"accented", "José García", "JOSE GARCIA", true},
		{"different", "Brown", "GREEN", false},
		{"empty", "", "Anna", false},
		{"only title", "Mr.", "Mr.", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NamesSimilar(tt.a, tt.b))
		})
	}
}

func TestDatesOCREquivalent(t *testing.T) {
	tests := []struct {
		iso, loose string
		want       bool
	}{
		{"2000-12-24", "24-Dec-2ooo", true},
		{"1990-05-15", "15-May-l99O", true},
		{"1972-03-07", "07-Mar-1972", true},
		{"1972-03-07", "7/3/1972", true},
		{"1972-03-07", "1972-03-07", true},
		{"1985-11-12", "12 November 85", true},
		{"2001-01-30", "20-Jan-2001", false},
		{"1985-11-12", "12-Dec-1985", false},
		{"1985-11-12", "12-Xyz-1985", false},
		{"not a date", "12-Nov-1985", false},
		{"1985-11-12", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.iso+" "+tt.loose, func(t *testing.T) {
			assert.Equal(t, tt.want, DatesOCREquivalent(tt.iso, tt.loose))
		})
	}
}
