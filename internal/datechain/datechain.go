// Package datechain checks that the dates of a client's documents and history
// form a plausible timeline relative to a fixed reference day.
package datechain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/kycguard/internal/fuzzy"
	"github.com/gyaneshwarpardhi/kycguard/internal/record"
)

// Code names the violated clause.
type Code string

const (
	BirthDateMismatch         Code = "birth_date_mismatch"
	IssueDateMismatch         Code = "issue_date_mismatch"
	ExpiryDateMismatch        Code = "expiry_date_mismatch"
	InvalidDateFormat         Code = "invalid_date_format"
	IssueNotAfterBirth        Code = "issue_not_after_birth"
	ExpiryNotAfterIssue       Code = "expiry_not_after_issue"
	IssueInFuture             Code = "issue_in_future"
	DocumentExpired           Code = "document_expired"
	AgeBelowMinimum           Code = "age_below_minimum"
	AgeAboveMaximum           Code = "age_above_maximum"
	InvalidEmploymentYear     Code = "invalid_employment_year"
	EmploymentInFuture        Code = "employment_in_future"
	EmploymentBeforeBirth     Code = "employment_before_birth"
	EmploymentBelowWorkingAge Code = "employment_below_working_age"
	GraduationInFuture        Code = "graduation_in_future"
	GraduationBeforeBirth     Code = "graduation_before_birth"
	GraduationBelowMinimumAge Code = "graduation_below_minimum_age"
)

// Violation reports the first clause a record breaks.
type Violation struct {
	Code   Code
	Detail string
}

func (v *Violation) Error() string { return string(v.Code) + ": " + v.Detail }

func fail(code Code, format string, args ...any) *Violation {
	return &Violation{Code: code, Detail: fmt.Sprintf(format, args...)}
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// Validator holds the reference day and the age limits. Use New for the
// standard limits.
type Validator struct {
	Today            time.Time
	MinAge           int
	MaxAge           int // exclusive
	MinWorkingAge    int
	MinGraduationAge int
	// OCRTolerant accepts a passport birth date that is an OCR misreading of
	// the profile's.
	OCRTolerant bool
}

// New returns a validator with the standard limits for the given day.
func New(today time.Time) Validator {
	return Validator{
		Today:            today,
		MinAge:           18,
		MaxAge:           120,
		MinWorkingAge:    15,
		MinGraduationAge: 10,
	}
}

// Validate returns nil or a *Violation for the first broken clause.
func (v Validator) Validate(profile record.ClientProfile, passport record.Passport) error {
	if violation := v.documentsAgree(profile, passport); violation != nil {
		return violation
	}

	birth, err := parse("birth date", profile.BirthDate)
	if err != nil {
		return err
	}
	issue, err := parse("issue date", passport.IssueDate)
	if err != nil {
		return err
	}
	expiry, err := parse("expiry date", passport.ExpiryDate)
	if err != nil {
		return err
	}
	today := day(v.Today)

	switch {
	case !birth.Before(issue):
		return fail(IssueNotAfterBirth, "issued %s, born %s", passport.IssueDate, profile.BirthDate)
	case !issue.Before(expiry):
		return fail(ExpiryNotAfterIssue, "issued %s, expires %s", passport.IssueDate, passport.ExpiryDate)
	case issue.After(today):
		return fail(IssueInFuture, "issued %s", passport.IssueDate)
	case expiry.Before(today):
		return fail(DocumentExpired, "expired %s", passport.ExpiryDate)
	}

	age := Age(birth, today)
	if age < v.MinAge {
		return fail(AgeBelowMinimum, "age %d below %d", age, v.MinAge)
	}
	if age >= v.MaxAge {
		return fail(AgeAboveMaximum, "age %d not below %d", age, v.MaxAge)
	}

	for _, job := range profile.Employment {
		if violation := v.employment(job.Status.Since, birth.Year()); violation != nil {
			return violation
		}
	}
	if violation := v.graduation(profile.Personal.EducationHistory, birth.Year()); violation != nil {
		return violation
	}
	return nil
}

func (v Validator) documentsAgree(profile record.ClientProfile, passport record.Passport) *Violation {
	if profile.BirthDate != passport.BirthDate &&
		!(v.OCRTolerant && fuzzy.DatesOCREquivalent(profile.BirthDate, passport.BirthDate)) {
		return fail(BirthDateMismatch, "profile %q, passport %q", profile.BirthDate, passport.BirthDate)
	}
	if !strings.EqualFold(strings.TrimSpace(profile.IDType), "passport") {
		return nil
	}
	if profile.IDIssueDate != passport.IssueDate {
		return fail(IssueDateMismatch, "profile %q, passport %q", profile.IDIssueDate, passport.IssueDate)
	}
	if profile.IDExpiryDate != passport.ExpiryDate {
		return fail(ExpiryDateMismatch, "profile %q, passport %q", profile.IDExpiryDate, passport.ExpiryDate)
	}
	return nil
}

func (v Validator) employment(since string, birthYear int) *Violation {
	since = strings.TrimSpace(since)
	if since == "" {
		return nil
	}
	year, err := strconv.Atoi(since)
	if err != nil {
		return fail(InvalidEmploymentYear, "employment since %q", since)
	}
	switch {
	case year > v.Today.Year()+1:
		return fail(EmploymentInFuture, "employment since %d", year)
	case year < birthYear:
		return fail(EmploymentBeforeBirth, "employment since %d, born %d", year, birthYear)
	case year < birthYear+v.MinWorkingAge:
		return fail(EmploymentBelowWorkingAge, "employment since %d, born %d", year, birthYear)
	}
	return nil
}

func (v Validator) graduation(history string, birthYear int) *Violation {
	match := yearPattern.FindString(history)
	if match == "" {
		return nil
	}
	year, _ := strconv.Atoi(match)
	switch {
	case year > v.Today.Year()+1:
		return fail(GraduationInFuture, "graduated %d", year)
	case year < birthYear:
		return fail(GraduationBeforeBirth, "graduated %d, born %d", year, birthYear)
	case year < birthYear+v.MinGraduationAge:
		return fail(GraduationBelowMinimumAge, "graduated %d, born %d", year, birthYear)
	}
	return nil
}

// Age is the number of completed years between birth and on.
func Age(birth, on time.Time) int {
	age := on.Year() - birth.Year()
	if on.Month() < birth.Month() || (on.Month() == birth.Month() && on.Day() < birth.Day()) {
		age--
	}
	return age
}

func parse(field, value string) (time.Time, *Violation) {
	t, err := time.Parse(fuzzy.ISODate, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fail(InvalidDateFormat, "%s %q", field, value)
	}
	return t, nil
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
