package rules

import (
	"context"
	"regexp"
	"strings"

	"github.com/gyaneshwarpardhi/kycguard/internal/normalize"
	"github.com/gyaneshwarpardhi/kycguard/internal/record"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)
	phonePattern = regexp.MustCompile(`^\+?\d+$`)
)

const (
	minPhoneLen = 8
	maxPhoneLen = 15
)

func checkEmail(_ context.Context, rec *record.ClientRecord) Outcome {
	account := strings.TrimSpace(rec.AccountForm.Email)
	profile := strings.TrimSpace(rec.Profile.Contact.Email)
	if !strings.EqualFold(account, profile) {
		return failed("email_mismatch", "account %q, profile %q", account, profile)
	}
	if !emailPattern.MatchString(account) {
		return failed("invalid_email", "%q is not an e-mail address", account)
	}
	return passed()
}

func checkPhone(_ context.Context, rec *record.ClientRecord) Outcome {
	account := compactPhone(rec.AccountForm.PhoneNumber)
	profile := compactPhone(rec.Profile.Contact.Telephone)
	for _, p := range []struct{ doc, number string }{{"account", account}, {"profile", profile}} {
		if !validPhone(p.number) {
			return failed("invalid_phone_format", "%s phone %q", p.doc, p.number)
		}
	}
	if account != profile {
		return failed("phone_mismatch", "account %q, profile %q", account, profile)
	}
	return passed()
}

func compactPhone(s string) string { return strings.ReplaceAll(strings.TrimSpace(s), " ", "") }

func validPhone(s string) bool {
	return phonePattern.MatchString(s) && len(s) >= minPhoneLen && len(s) <= maxPhoneLen
}

func checkCountry(_ context.Context, rec *record.ClientRecord) Outcome {
	account, profile := rec.AccountForm.Country, rec.Profile.CountryOfDomicile
	if normalize.Fold(account) != normalize.Fold(profile) {
		return failed("country_mismatch", "account %q, profile domicile %q", account, profile)
	}
	return passed()
}

// checkNationality accepts "Swiss" against "Swiss" and a profile nationality
// contained in a longer passport citizenship ("German" in "German, Austrian").
func checkNationality(_ context.Context, rec *record.ClientRecord) Outcome {
	passport := normalize.Fold(rec.Passport.Citizenship)
	profile := normalize.Fold(rec.Profile.Nationality)
	ok := passport == profile
	if len(passport) != len(profile) {
		ok = strings.Contains(passport, profile)
	}
	if !ok {
		return failed("nationality_mismatch", "profile %q, passport %q", rec.Profile.Nationality, rec.Passport.Citizenship)
	}
	return passed()
}

func checkGender(_ context.Context, rec *record.ClientRecord) Outcome {
	if rec.Profile.Gender != rec.Passport.Sex {
		return failed("gender_mismatch", "profile %q, passport %q", rec.Profile.Gender, rec.Passport.Sex)
	}
	return passed()
}
