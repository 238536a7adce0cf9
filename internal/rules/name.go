package rules

import (
	"context"

	"github.com/gyaneshwarpardhi/kycguard/internal/fuzzy"
	"github.com/gyaneshwarpardhi/kycguard/internal/normalize"
	"github.com/gyaneshwarpardhi/kycguard/internal/record"
)

// nameCheck compares the names inside the account form, then across the
// documents. With ocr set, names read off the passport only need to be
// similar; names typed into forms must always agree exactly once folded.
func nameCheck(ocr bool) Check {
	passportMatch := func(a, b string) bool { return normalize.Fold(a) == normalize.Fold(b) }
	if ocr {
		passportMatch = fuzzy.NamesSimilar
	}

	return func(_ context.Context, rec *record.ClientRecord) Outcome {
		a, p, pp := rec.AccountForm, rec.Profile, rec.Passport
		accountName := normalize.Fold(a.AccountName)

		if accountName != normalize.Fold(a.Name) {
			return failed("account_name_mismatch", "account name %q, signatory %q", a.AccountName, a.Name)
		}
		if holder := normalize.Fold(a.AccountHolderName + " " + a.AccountHolderSurname); accountName != holder {
			return failed("holder_name_mismatch", "account name %q, holder %q", a.AccountName, holder)
		}
		if !passportMatch(p.LastName, pp.Surname) {
			return failed("surname_mismatch", "profile %q, passport %q", p.LastName, pp.Surname)
		}
		if full := normalize.Fold(p.FirstName + " " + p.LastName); full != normalize.Fold(a.Name) {
			return failed("full_name_mismatch", "profile %q, account %q", full, a.Name)
		}
		if !passportMatch(pp.GivenName, a.AccountHolderName) {
			return failed("given_name_mismatch", "passport %q, account holder %q", pp.GivenName, a.AccountHolderName)
		}
		return passed()
	}
}
