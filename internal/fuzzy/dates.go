package fuzzy

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ISODate is the layout of every normalized date field.
const ISODate = "2006-01-02"

var monthAbbrev = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// looseDate holds the components read from an OCR date. Empty strings and a
// zero month mean the component was absent; month -1 means present but unreadable.
type looseDate struct {
	day   string
	month time.Month
	year  string
}

// DatesOCREquivalent reports whether an OCR-read date (such as "24-Dec-2ooo" or
// "07/03/1972") denotes the ISO date iso. Year and day get OCR tolerance; the
// month must match exactly.
func DatesOCREquivalent(iso, loose string) bool {
	t, err := time.Parse(ISODate, strings.TrimSpace(iso))
	if err != nil {
		return false
	}
	d, ok := parseLoose(loose)
	if !ok {
		return false
	}
	if d.year != "" && !StringsOCREquivalent(fmt.Sprintf("%04d", t.Year()), d.year) {
		return false
	}
	if d.month != 0 && d.month != t.Month() {
		return false
	}
	if d.day != "" && !StringsOCREquivalent(fmt.Sprintf("%02d", t.Day()), d.day) {
		return false
	}
	return true
}

func parseLoose(s string) (looseDate, bool) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '/' || r == '.' || r == ',' || unicode.IsSpace(r)
	})
	var d looseDate
	switch len(parts) {
	case 3:
		if len(parts[0]) == 4 {
			d = looseDate{year: parts[0], month: parseMonth(parts[1]), day: parts[2]}
		} else {
			d = looseDate{day: parts[0], month: parseMonth(parts[1]), year: parts[2]}
		}
	case 2:
		d = looseDate{month: parseMonth(parts[0]), year: parts[1]}
	case 1:
		d = looseDate{year: parts[0]}
	default:
		return d, false
	}
	d.year = correctYear(d.year)
	if len(d.day) == 1 {
		d.day = "0" + d.day
	}
	return d, true
}

func parseMonth(s string) time.Month {
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= 12 {
			return time.Month(n)
		}
		return -1
	}
	key := strings.ToLower(s)
	if len(key) > 3 {
		key = key[:3]
	}
	if m, ok := monthAbbrev[key]; ok {
		return m
	}
	return -1
}

// correctYear repairs the letter-for-digit confusions seen in OCR years and
// expands two-digit years (above 50 means the 1900s).
func correctYear(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == 'O' || r == 'o':
			b.WriteByte('0')
		case r == 'l' || r == 'I':
			b.WriteByte('1')
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	y := b.String()
	if len(y) == 2 {
		n, _ := strconv.Atoi(y)
		if n > 50 {
			return strconv.Itoa(1900 + n)
		}
		return strconv.Itoa(2000 + n)
	}
	if y == "" {
		return s
	}
	return y
}
