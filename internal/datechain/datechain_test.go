package datechain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/kycguard/internal/record"
)

var today = time.Date(2025, time.April, 13, 0, 0, 0, 0, time.UTC)

func fixture() (record.ClientProfile, record.Passport) {
	profile := record.ClientProfile{
		BirthDate:    "1990-01-01",
		IDType:       "passport",
		IDIssueDate:  "2020-01-01",
		IDExpiryDate: "2030-01-01",
		Employment: []record.Employment{
			{Status: record.EmploymentStatus{Since: "2015"}},
		},
		Personal: record.PersonalInfo{EducationHistory: "University of Zurich (2012)"},
	}
	passport := record.Passport{
		BirthDate:  "1990-01-01",
		IssueDate:  "2020-01-01",
		ExpiryDate: "2030-01-01",
	}
	return profile, passport
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*record.ClientProfile, *record.Passport)
		want   Code
	}{
		{"consistent", func(*record.ClientProfile, *record.Passport) {}, ""},
		{"birth dates differ", func(_ *record.ClientProfile, p *record.Passport) { p.BirthDate = "1990-01-02" }, BirthDateMismatch},
		{"issue dates differ", func(c *record.ClientProfile, _ *record.Passport) { c.IDIssueDate = "2020-01-02" }, IssueDateMismatch},
		{"expiry dates differ", func(c *record.ClientProfile, _ *record.Passport) { c.IDExpiryDate = "2031-01-01" }, ExpiryDateMismatch},
		{"other id type skips document dates", func(c *record.ClientProfile, _ *record.Passport) {
			c.IDType = "identity card"
			c.IDIssueDate = "2019-01-01"
		}, ""},
		{"id type case insensitive", func(c *record.ClientProfile, _ *record.Passport) {
			c.IDType = "Passport"
			c.IDIssueDate = "2019-01-01"
		}, IssueDateMismatch},
		{"unparsable date", func(c *record.ClientProfile, p *record.Passport) {
			c.BirthDate, p.BirthDate = "01/01/1990", "01/01/1990"
		}, InvalidDateFormat},
		{"issued before birth", func(c *record.ClientProfile, p *record.Passport) {
			c.IDIssueDate, p.IssueDate = "1989-01-01", "1989-01-01"
		}, IssueNotAfterBirth},
		{"expiry before issue", func(c *record.ClientProfile, p *record.Passport) {
			c.IDExpiryDate, p.ExpiryDate = "2019-01-01", "2019-01-01"
		}, ExpiryNotAfterIssue},
		{"issued in future", func(c *record.ClientProfile, p *record.Passport) {
			c.IDIssueDate, p.IssueDate = "2025-05-01", "2025-05-01"
		}, IssueInFuture},
		{"expired", func(c *record.ClientProfile, p *record.Passport) {
			c.IDExpiryDate, p.ExpiryDate = "2024-01-01", "2024-01-01"
		}, DocumentExpired},
		{"expires today", func(c *record.ClientProfile, p *record.Passport) {
			c.IDExpiryDate, p.ExpiryDate = "2025-04-13", "2025-04-13"
		}, ""},
		{"too young", func(c *record.ClientProfile, p *record.Passport) {
			c.BirthDate, p.BirthDate = "2007-04-14", "2007-04-14"
			c.Employment = nil
			c.Personal.EducationHistory = ""
		}, AgeBelowMinimum},
		{"too old", func(c *record.ClientProfile, p *record.Passport) {
			c.BirthDate, p.BirthDate = "1900-01-01", "1900-01-01"
		}, AgeAboveMaximum},
		{"employment year not a number", func(c *record.ClientProfile, _ *record.Passport) {
			c.Employment[0].Status.Since = "since 2015"
		}, InvalidEmploymentYear},
		{"employment in future", func(c *record.ClientProfile, _ *record.Passport) {
			c.Employment[0].Status.Since = "2027"
		}, EmploymentInFuture},
		{"employment before birth", func(c *record.ClientProfile, _ *record.Passport) {
			c.Employment[0].Status.Since = "1985"
		}, EmploymentBeforeBirth},
		{"employment as a child", func(c *record.ClientProfile, _ *record.Passport) {
			c.Employment[0].Status.Since = "2000"
		}, EmploymentBelowWorkingAge},
		{"graduation in future", func(c *record.ClientProfile, _ *record.Passport) {
			c.Personal.EducationHistory = "MBA, INSEAD (2028)"
		}, GraduationInFuture},
		{"graduation before birth", func(c *record.ClientProfile, _ *record.Passport) {
			c.Personal.EducationHistory = "Gymnasium (1980)"
		}, GraduationBeforeBirth},
		{"graduation as a child", func(c *record.ClientProfile, _ *record.Passport) {
			c.Personal.EducationHistory = "Primary school (1995)"
		}, GraduationBelowMinimumAge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, passport := fixture()
			tt.mutate(&profile, &passport)

			err := New(today).Validate(profile, passport)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			var v *Violation
			require.True(t, errors.As(err, &v), "got %v", err)
			assert.Equal(t, tt.want, v.Code)
		})
	}
}

func TestOCRTolerantBirthDate(t *testing.T) {
	profile, passport := fixture()
	passport.BirthDate = "01-Jan-l99O"

	assert.Error(t, New(today).Validate(profile, passport))

	v := New(today)
	v.OCRTolerant = true
	assert.NoError(t, v.Validate(profile, passport))
}

func TestAge(t *testing.T) {
	birth := time.Date(1990, time.April, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 34, Age(birth, today))
	assert.Equal(t, 35, Age(birth, today.AddDate(0, 0, 1)))
}
