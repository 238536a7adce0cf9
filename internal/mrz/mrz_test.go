package mrz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/kycguard/internal/record"
)

func samplePassport() record.Passport {
	return record.Passport{
		GivenName:   "Anna Maria",
		Surname:     "Müller",
		BirthDate:   "1990-01-01",
		CountryCode: "CHE",
		Number:      "AB1234567",
		MRZ: []string{
			"P<CHEMULLER<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<<<",
			"AB1234567CHE900101<<<<<<<<<<<<<<<<<<<<<<<<<<",
		},
	}
}

func documents(number string) (record.ClientProfile, record.AccountForm) {
	return record.ClientProfile{PassportID: number}, record.AccountForm{PassportNumber: number}
}

func TestBuild(t *testing.T) {
	e, err := Build(samplePassport())
	require.NoError(t, err)
	assert.Equal(t, []string{"P", "CHEMULLER", "ANNA", "MARIA"}, e.Line1)
	assert.Equal(t, "AB1234567CHE900101", e.Line2)

	p := samplePassport()
	p.BirthDate = "01.01.1990"
	_, err = Build(p)
	assert.Error(t, err)
}

func TestFormatRoundTrip(t *testing.T) {
	p := samplePassport()
	p.Surname = "van der Berg"
	e, err := Build(p)
	require.NoError(t, err)

	lines := e.Format()
	assert.Len(t, lines[0], lineWidth)
	assert.Len(t, lines[1], lineWidth)
	assert.Equal(t, "P<CHEVAN<DER<BERG<<ANNA<MARIA", lines[0][:29])

	d1, d2 := Compare(e, lines[:])
	assert.Zero(t, d1)
	assert.Zero(t, d2)
}

func TestCompareICAOLine2(t *testing.T) {
	e, err := Build(samplePassport())
	require.NoError(t, err)

	// Printed zones carry a check digit after the number and the birth date.
	icao := []string{
		"P<CHEMULLER<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<<<",
		"AB12345674CHE9001015F3001012<<<<<<<<<<<<<<06",
	}
	d1, d2 := Compare(e, icao)
	assert.Zero(t, d1)
	assert.Equal(t, 2, d2)

	p := samplePassport()
	p.MRZ = icao
	profile, account := documents(p.Number)
	assert.NoError(t, Validate(profile, account, p))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*record.ClientProfile, *record.AccountForm, *record.Passport)
		want   Code
	}{
		{"consistent", func(*record.ClientProfile, *record.AccountForm, *record.Passport) {}, ""},
		{"single ocr slip tolerated", func(_ *record.ClientProfile, _ *record.AccountForm, p *record.Passport) {
			p.MRZ[0] = "P<CHEMULLER<<ANNA<MAR1A<<<<<<<<<<<<<<<<<<<<<"
		}, ""},
		{"account number typo", func(_ *record.ClientProfile, a *record.AccountForm, _ *record.Passport) {
			a.PassportNumber = "AB1234568"
		}, NumberMismatch},
		{"three lines", func(_ *record.ClientProfile, _ *record.AccountForm, p *record.Passport) {
			p.MRZ = append(p.MRZ, "<<<<")
		}, LineCount},
		{"bad number shape", func(c *record.ClientProfile, a *record.AccountForm, p *record.Passport) {
			c.PassportID, a.PassportNumber, p.Number = "A12345678", "A12345678", "A12345678"
		}, NumberFormat},
		{"unparsable birth date", func(_ *record.ClientProfile, _ *record.AccountForm, p *record.Passport) {
			p.BirthDate = "1990/01/01"
		}, BirthDateFormat},
		{"surname differs", func(_ *record.ClientProfile, _ *record.AccountForm, p *record.Passport) {
			p.Surname = "Meier"
		}, Line1Mismatch},
		{"birth date differs", func(_ *record.ClientProfile, _ *record.AccountForm, p *record.Passport) {
			p.BirthDate = "1987-06-15"
		}, Line2Mismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := samplePassport()
			profile, account := documents(p.Number)
			tt.mutate(&profile, &account, &p)

			err := Validate(profile, account, p)
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
