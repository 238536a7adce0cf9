package rules

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/kycguard/internal/record"
)

const fixtureDir = "../../testdata/clients/anna_mueller"

var today = time.Date(2025, time.April, 13, 0, 0, 0, 0, time.UTC)

type mutation func(a *record.AccountForm, p *record.ClientProfile, pp *record.Passport)

func fixture(t *testing.T, mutate mutation) *record.ClientRecord {
	t.Helper()
	rec, err := record.LoadDir(fixtureDir)
	require.NoError(t, err)
	require.True(t, rec.Valid(), rec.Problems())
	if mutate == nil {
		return rec
	}
	a, p, pp := rec.AccountForm, rec.Profile, rec.Passport
	p.Employment = append([]record.Employment(nil), p.Employment...)
	pp.MRZ = append([]string(nil), pp.MRZ...)
	mutate(&a, &p, &pp)
	return record.New(rec.ID, a, p, rec.Description, pp, rec.Label)
}

func byName(t *testing.T, rules []Rule, name string) Rule {
	t.Helper()
	for _, r := range rules {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("rule %q not found", name)
	return Rule{}
}

func TestDefaultRulesPassConsistentRecord(t *testing.T) {
	rec := fixture(t, nil)
	rules := Default(Deps{Today: today, OCRNames: true})

	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.Name)
		o := r.Run(context.Background(), rec)
		assert.True(t, o.Passed, "%s: %s %s", r.Name, o.Code, o.Reason)
		assert.Equal(t, r.Name, o.Rule)
	}
	assert.Equal(t, DefaultOrder, names)
}

func TestDefaultRulesReject(t *testing.T) {
	tests := []struct {
		name   string
		rule   string
		mutate mutation
		code   string
	}{
		{"missing first name", Identity, func(_ *record.AccountForm, p *record.ClientProfile, _ *record.Passport) {
			p.FirstName = ""
		}, "invalid_record"},
		{"email differs", Email, func(_ *record.AccountForm, p *record.ClientProfile, _ *record.Passport) {
			p.Contact.Email = "anna@other.ch"
		}, "email_mismatch"},
		{"email malformed", Email, func(a *record.AccountForm, p *record.ClientProfile, _ *record.Passport) {
			a.Email, p.Contact.Email = "anna.example.ch", "anna.example.ch"
		}, "invalid_email"},
		{"phone too short", Phone, func(a *record.AccountForm, _ *record.ClientProfile, _ *record.Passport) {
			a.PhoneNumber = "+41 44 12"
		}, "invalid_phone_format"},
		{"phone letters", Phone, func(_ *record.AccountForm, p *record.ClientProfile, _ *record.Passport) {
			p.Contact.Telephone = "+41 44 ABC 45 67"
		}, "invalid_phone_format"},
		{"phone differs", Phone, func(_ *record.AccountForm, p *record.ClientProfile, _ *record.Passport) {
			p.Contact.Telephone = "+41441234568"
		}, "phone_mismatch"},
		{"domicile differs", Country, func(a *record.AccountForm, _ *record.ClientProfile, _ *record.Passport) {
			a.Country = "Germany"
		}, "country_mismatch"},
		{"nationality differs", Nationality, func(_ *record.AccountForm, _ *record.ClientProfile, pp *record.Passport) {
			pp.Citizenship = "German"
		}, "nationality_mismatch"},
		{"signatory differs", Name, func(a *record.AccountForm, _ *record.ClientProfile, _ *record.Passport) {
			a.Name = "Anna Meier"
		}, "account_name_mismatch"},
		{"holder differs", Name, func(a *record.AccountForm, _ *record.ClientProfile, _ *record.Passport) {
			a.AccountHolderSurname = "Meier"
		}, "holder_name_mismatch"},
		{"passport surname differs", Name, func(_ *record.AccountForm, _ *record.ClientProfile, pp *record.Passport) {
			pp.Surname = "Brown"
		}, "surname_mismatch"},
		{"profile name differs", Name, func(_ *record.AccountForm, p *record.ClientProfile, _ *record.Passport) {
			p.FirstName = "Hanna"
		}, "full_name_mismatch"},
		{"passport given name differs", Name, func(_ *record.AccountForm, _ *record.ClientProfile, pp *record.Passport) {
			pp.GivenName = "Beatrice"
		}, "given_name_mismatch"},
		{"passport number typo", Passport, func(a *record.AccountForm, _ *record.ClientProfile, _ *record.Passport) {
			a.PassportNumber = "AB1234568"
		}, "passport_number_mismatch"},
		{"building number differs", Address, func(_ *record.AccountForm, p *record.ClientProfile, _ *record.Passport) {
			p.Address = "Bahnhofstrasse 14, 8001 Zürich"
		}, "building_number_mismatch"},
		{"postal code differs", Address, func(_ *record.AccountForm, p *record.ClientProfile, _ *record.Passport) {
			p.Address = "Bahnhofstrasse 12, 8002 Zürich"
		}, "postal_code_mismatch"},
		{"street differs", Address, func(a *record.AccountForm, _ *record.ClientProfile, _ *record.Passport) {
			a.StreetName = "Limmatquai"
		}, "street_mismatch"},
		{"passport expired", BirthDate, func(_ *record.AccountForm, p *record.ClientProfile, pp *record.Passport) {
			p.IDExpiryDate, pp.ExpiryDate = "2024-01-01", "2024-01-01"
		}, "document_expired"},
		{"assets below bracket", Wealth, func(_ *record.AccountForm, p *record.ClientProfile, _ *record.Passport) {
			p.Account.TotalAssets = decimal.NewFromInt(1_400_000)
			p.Wealth.Assets = map[string]decimal.Decimal{"savings": decimal.NewFromInt(1_400_000)}
		}, "outside_wealth_range"},
		{"sex differs", Gender, func(_ *record.AccountForm, _ *record.ClientProfile, pp *record.Passport) {
			pp.Sex = record.GenderMale
		}, "gender_mismatch"},
		{"country code too short", PassportCountryCode, func(_ *record.AccountForm, _ *record.ClientProfile, pp *record.Passport) {
			pp.CountryCode = "CH"
		}, "invalid_country_code"},
		{"country code unknown", PassportCountryCode, func(_ *record.AccountForm, _ *record.ClientProfile, pp *record.Passport) {
			pp.CountryCode = "XXQ"
		}, "unknown_country_code"},
		{"country code for another country", PassportCountryCode, func(_ *record.AccountForm, _ *record.ClientProfile, pp *record.Passport) {
			pp.CountryCode = "DEU"
		}, "country_code_mismatch"},
	}
	rules := Default(Deps{Today: today, OCRNames: true})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := byName(t, rules, tt.rule).Run(context.Background(), fixture(t, tt.mutate))
			assert.False(t, o.Passed, o.Reason)
			assert.Equal(t, tt.code, o.Code, o.Reason)
		})
	}
}

func TestDefaultRulesTolerate(t *testing.T) {
	tests := []struct {
		name   string
		rule   string
		mutate mutation
	}{
		{"phone spacing", Phone, func(_ *record.AccountForm, p *record.ClientProfile, _ *record.Passport) {
			p.Contact.Telephone = "+41 441 234 567"
		}},
		{"email case", Email, func(_ *record.AccountForm, p *record.ClientProfile, _ *record.Passport) {
			p.Contact.Email = "Anna.Mueller@Example.ch"
		}},
		{"dual citizenship", Nationality, func(_ *record.AccountForm, _ *record.ClientProfile, pp *record.Passport) {
			pp.Citizenship = "Swiss, Italian"
		}},
		{"city accents", Address, func(a *record.AccountForm, _ *record.ClientProfile, _ *record.Passport) {
			a.City = "Zurich"
		}},
		{"ocr surname", Name, func(_ *record.AccountForm, _ *record.ClientProfile, pp *record.Passport) {
			pp.Surname = "MULLFR"
		}},
		{"issuing country unknown to iso tables", PassportCountryCode, func(_ *record.AccountForm, _ *record.ClientProfile, pp *record.Passport) {
			pp.IssuingCountry = "Republic of Nowhere"
		}},
	}
	rules := Default(Deps{Today: today, OCRNames: true})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := byName(t, rules, tt.rule).Run(context.Background(), fixture(t, tt.mutate))
			assert.True(t, o.Passed, "%s %s", o.Code, o.Reason)
		})
	}
}

func TestNameRuleExactWithoutOCR(t *testing.T) {
	rec := fixture(t, func(_ *record.AccountForm, _ *record.ClientProfile, pp *record.Passport) {
		pp.Surname = "MULLFR"
	})
	o := byName(t, Default(Deps{Today: today}), Name).Run(context.Background(), rec)
	assert.Equal(t, "surname_mismatch", o.Code)
}

func TestNarrativeRuleWithoutChecker(t *testing.T) {
	o := byName(t, Default(Deps{Today: today}), Narrative).Run(context.Background(), fixture(t, nil))
	assert.True(t, o.Passed)
	assert.True(t, o.Skipped)
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in   string
		want PostalAddress
	}{
		{"Place de la Concorde 17, 26627 Toulon", PostalAddress{"Place de la Concorde", "17", "26627", "Toulon"}},
		{"Rue Neuve, 1000 Bruxelles", PostalAddress{Street: "Rue Neuve", PostalCode: "1000", City: "Bruxelles"}},
		{"Baker Street 221, SW1", PostalAddress{Street: "Baker Street", Number: "221", City: "SW1"}},
		{"Hauptstrasse 5, 1010-22", PostalAddress{Street: "Hauptstrasse", Number: "5", PostalCode: "1010-22"}},
		{"no comma here", PostalAddress{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAddress(tt.in))
		})
	}
}

func TestPolicy(t *testing.T) {
	pep, err := Policy("pep_review", "profile.pep AND profile.total_assets > 1000000", "politically exposed client above 1m")
	require.NoError(t, err)

	rec := fixture(t, nil)
	assert.True(t, pep.Run(context.Background(), rec).Passed)

	rec = fixture(t, func(_ *record.AccountForm, p *record.ClientProfile, _ *record.Passport) {
		p.Personal.PoliticallyExposed = true
	})
	o := pep.Run(context.Background(), rec)
	assert.False(t, o.Passed)
	assert.Equal(t, "policy_pep_review", o.Code)
	assert.Equal(t, "politically exposed client above 1m", o.Reason)

	bad, err := Policy("bad_field", "profile.no_such_field == 1", "")
	require.NoError(t, err)
	o = bad.Run(context.Background(), rec)
	assert.True(t, o.Skipped)

	_, err = Policy("broken", "profile.pep ==", "")
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	RegisterDefaults(reg, Deps{Today: today})

	assert.Len(t, reg.Names(), len(DefaultOrder))
	assert.Equal(t, "address", reg.Names()[0])

	r, err := reg.Get(Passport)
	require.NoError(t, err)
	assert.Equal(t, Passport, r.Name)

	_, err = reg.Get("nope")
	assert.Error(t, err)

	assert.Panics(t, func() { reg.Register(Rule{Name: Email}) })
}
