// Package mrz rebuilds the machine-readable zone a passport should carry and
// compares it with the lines read from the document.
package mrz

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/kycguard/internal/fuzzy"
	"github.com/gyaneshwarpardhi/kycguard/internal/normalize"
	"github.com/gyaneshwarpardhi/kycguard/internal/record"
)

const (
	lineWidth   = 44
	line2Prefix = 18
	filler      = "<"

	maxLine1Distance = 1
	maxLine2Distance = 2
)

var numberPattern = regexp.MustCompile(`^[A-Za-z]{2}[0-9]{7}$`)

// Code identifies why a passport failed MRZ validation.
type Code string

const (
	NumberMismatch  Code = "passport_number_mismatch"
	LineCount       Code = "mrz_line_count"
	NumberFormat    Code = "passport_number_format"
	BirthDateFormat Code = "mrz_birth_date_format"
	Line1Mismatch   Code = "mrz_line1_mismatch"
	Line2Mismatch   Code = "mrz_line2_mismatch"
)

// Violation is returned by Validate; inspect it with errors.As.
type Violation struct {
	Code   Code
	Detail string
}

func (v *Violation) Error() string { return string(v.Code) + ": " + v.Detail }

func violation(code Code, format string, args ...any) *Violation {
	return &Violation{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Expected is the MRZ content derived from the passport's printed fields.
// Line1 holds the tokens "P", code+surname, first given name and, when present,
// the remaining given names.
type Expected struct {
	Line1 []string
	Line2 string
}

// Build derives the expected MRZ. Only the birth date can make it fail.
func Build(p record.Passport) (Expected, error) {
	birth, err := time.Parse(fuzzy.ISODate, strings.TrimSpace(p.BirthDate))
	if err != nil {
		return Expected{}, fmt.Errorf("parse birth date %q: %w", p.BirthDate, err)
	}
	code := normalize.Upper(strings.TrimSpace(p.CountryCode))
	surname := strings.Join(strings.Fields(normalize.Upper(p.Surname)), " ")
	given := strings.Fields(normalize.Upper(p.GivenName))

	line1 := []string{"P", code + surname}
	if len(given) > 0 {
		line1 = append(line1, given[0])
	}
	if len(given) > 1 {
		line1 = append(line1, strings.Join(given[1:], " "))
	}
	return Expected{
		Line1: line1,
		Line2: strings.ToUpper(strings.TrimSpace(p.Number)) + code + birth.Format("060102"),
	}, nil
}

// Format renders the expected zone as two fixed-width lines with '<' fillers.
func (e Expected) Format() [2]string {
	var b strings.Builder
	b.WriteString("P<")
	if len(e.Line1) > 1 {
		b.WriteString(chevrons(e.Line1[1]))
	}
	if len(e.Line1) > 2 {
		b.WriteString("<<" + chevrons(e.Line1[2]))
	}
	if len(e.Line1) > 3 {
		b.WriteString("<" + chevrons(e.Line1[3]))
	}
	return [2]string{pad(b.String()), pad(e.Line2)}
}

func chevrons(s string) string { return strings.Join(strings.Fields(s), filler) }

func pad(s string) string {
	if len(s) >= lineWidth {
		return s[:lineWidth]
	}
	return s + strings.Repeat(filler, lineWidth-len(s))
}

// Tokens splits an OCR-read first line on its fillers.
func Tokens(line string) []string {
	var out []string
	for _, part := range strings.Split(normalize.Upper(line), filler) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Compare returns the edit distances between the expected zone and the OCR
// lines: line 1 over its space-joined tokens, line 2 over its first 18 characters.
func Compare(e Expected, lines []string) (line1, line2 int) {
	var ocr1, ocr2 string
	if len(lines) > 0 {
		ocr1 = lines[0]
	}
	if len(lines) > 1 {
		ocr2 = lines[1]
	}
	line1 = fuzzy.Levenshtein(strings.Join(e.Line1, " "), strings.Join(Tokens(ocr1), " "))
	line2 = fuzzy.Levenshtein(prefix(e.Line2, line2Prefix), prefix(strings.ToUpper(ocr2), line2Prefix))
	return line1, line2
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

// Validate checks the passport number across the three documents and the MRZ
// against the passport page. It returns nil or a *Violation.
func Validate(profile record.ClientProfile, account record.AccountForm, passport record.Passport) error {
	number := strings.TrimSpace(passport.Number)
	if strings.TrimSpace(profile.PassportID) != number || strings.TrimSpace(account.PassportNumber) != number {
		return violation(NumberMismatch, "profile %q, account %q, passport %q",
			profile.PassportID, account.PassportNumber, passport.Number)
	}
	if len(passport.MRZ) != 2 {
		return violation(LineCount, "expected 2 lines, got %d", len(passport.MRZ))
	}
	if !numberPattern.MatchString(number) {
		return violation(NumberFormat, "%q is not two letters and seven digits", number)
	}
	expected, err := Build(passport)
	if err != nil {
		return violation(BirthDateFormat, "%v", err)
	}
	d1, d2 := Compare(expected, passport.MRZ)
	if d1 > maxLine1Distance {
		return violation(Line1Mismatch, "distance %d between %q and %q", d1,
			strings.Join(expected.Line1, " "), passport.MRZ[0])
	}
	if d2 > maxLine2Distance {
		return violation(Line2Mismatch, "distance %d between %q and %q", d2,
			expected.Line2, prefix(passport.MRZ[1], line2Prefix))
	}
	return nil
}
