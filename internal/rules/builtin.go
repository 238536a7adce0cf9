package rules

import (
	"context"
	"time"

	"github.com/gyaneshwarpardhi/kycguard/internal/narrative"
	"github.com/gyaneshwarpardhi/kycguard/internal/record"
)

// Built-in rule names.
const (
	Identity            = "identity"
	Email               = "email"
	Phone               = "phone"
	Country             = "country"
	Nationality         = "nationality"
	Name                = "name"
	Passport            = "passport"
	Address             = "address"
	BirthDate           = "birth_date"
	Wealth              = "wealth"
	Gender              = "gender"
	Narrative           = "narrative"
	PassportCountryCode = "passport_country_code"
)

// DefaultOrder is the evaluation order of the built-in rules: cheap structural
// checks first, the narrative model call late.
var DefaultOrder = []string{
	Identity, Email, Phone, Country, Nationality, Name, Passport,
	Address, BirthDate, Wealth, Gender, Narrative, PassportCountryCode,
}

// Deps carries what the built-in rules need beyond the record itself.
type Deps struct {
	// Today is the reference day for every date check.
	Today time.Time
	// OCRNames compares passport names with fuzzy.NamesSimilar instead of
	// exact folded equality.
	OCRNames bool
	// OCRDates accepts OCR misreadings of the passport birth date.
	OCRDates bool
	// Narrative runs the narrative cross-check; nil skips the rule.
	Narrative *narrative.CrossChecker
}

// Default returns the built-in rules in DefaultOrder.
func Default(d Deps) []Rule {
	return []Rule{
		{Name: Identity, Description: "every required field is present", Check: checkIdentity},
		{Name: Email, Description: "account and profile e-mail agree and are well formed", Check: checkEmail},
		{Name: Phone, Description: "account and profile phone numbers agree and are well formed", Check: checkPhone},
		{Name: Country, Description: "account country is the profile domicile", Check: checkCountry},
		{Name: Nationality, Description: "profile nationality matches passport citizenship", Check: checkNationality},
		{Name: Name, Description: "names agree across account, profile and passport", Check: nameCheck(d.OCRNames)},
		{Name: Passport, Description: "passport number and MRZ are consistent", Check: checkPassport},
		{Name: Address, Description: "profile address matches the account address fields", Check: checkAddress},
		{Name: BirthDate, Description: "document and history dates form a plausible timeline", Check: birthDateCheck(d.Today, d.OCRDates)},
		{Name: Wealth, Description: "declared assets add up and fit the wealth bracket", Check: checkWealth},
		{Name: Gender, Description: "profile gender matches passport sex", Check: checkGender},
		{Name: Narrative, Description: "relationship manager narrative agrees with the profile", Check: narrativeCheck(d.Narrative)},
		{Name: PassportCountryCode, Description: "passport country code is ISO alpha-3 and names the issuing country", Check: checkPassportCountryCode},
	}
}

// RegisterDefaults adds the built-in rules to reg.
func RegisterDefaults(reg *Registry, d Deps) {
	for _, r := range Default(d) {
		reg.Register(r)
	}
}

func checkIdentity(_ context.Context, rec *record.ClientRecord) Outcome {
	if rec.Valid() {
		return passed()
	}
	problems := rec.Problems()
	return failed("invalid_record", "%d required fields missing, first: %s", len(problems), problems[0])
}

func narrativeCheck(c *narrative.CrossChecker) Check {
	return func(ctx context.Context, rec *record.ClientRecord) Outcome {
		if c == nil {
			return skipped("narrative extraction disabled")
		}
		res := c.Check(ctx, rec)
		switch {
		case res.Skipped:
			return skipped("extraction failed: %s", res.Detail)
		case res.Code != "":
			return failed(res.Code, "%s", res.Detail)
		}
		return passed()
	}
}
