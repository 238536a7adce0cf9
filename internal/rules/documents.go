package rules

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/biter777/countries"

	"github.com/gyaneshwarpardhi/kycguard/internal/datechain"
	"github.com/gyaneshwarpardhi/kycguard/internal/mrz"
	"github.com/gyaneshwarpardhi/kycguard/internal/record"
	"github.com/gyaneshwarpardhi/kycguard/internal/wealth"
)

func checkPassport(_ context.Context, rec *record.ClientRecord) Outcome {
	err := mrz.Validate(rec.Profile, rec.AccountForm, rec.Passport)
	var v *mrz.Violation
	if errors.As(err, &v) {
		return failed(string(v.Code), "%s", v.Detail)
	}
	return passed()
}

func birthDateCheck(today time.Time, ocr bool) Check {
	validator := datechain.New(today)
	validator.OCRTolerant = ocr
	return func(_ context.Context, rec *record.ClientRecord) Outcome {
		err := validator.Validate(rec.Profile, rec.Passport)
		var v *datechain.Violation
		if errors.As(err, &v) {
			return failed(string(v.Code), "%s", v.Detail)
		}
		return passed()
	}
}

func checkWealth(_ context.Context, rec *record.ClientRecord) Outcome {
	err := wealth.Validate(rec.Profile.Account, rec.Profile.Wealth)
	var v *wealth.Violation
	if errors.As(err, &v) {
		return failed(string(v.Code), "%s", v.Detail)
	}
	return passed()
}

// checkPassportCountryCode requires an ISO 3166 alpha-3 code naming the
// issuing country. An issuing-country name the ISO tables do not know cannot
// contradict the code and is let through.
func checkPassportCountryCode(_ context.Context, rec *record.ClientRecord) Outcome {
	code := strings.ToUpper(strings.TrimSpace(rec.Passport.CountryCode))
	if len([]rune(code)) != 3 {
		return failed("invalid_country_code", "%q is not a three-letter code", rec.Passport.CountryCode)
	}
	byCode := countries.ByName(code)
	if byCode == countries.Unknown || byCode.Alpha3() != code {
		return failed("unknown_country_code", "%q is not an ISO 3166 alpha-3 code", code)
	}

	issuing := strings.TrimSpace(rec.Passport.IssuingCountry)
	byName := countries.ByName(issuing)
	if byName == countries.Unknown {
		return skipped("issuing country %q not in ISO tables", issuing)
	}
	if byName != byCode {
		return failed("country_code_mismatch", "code %s is %s, issuing country %q is %s", code, byCode.Alpha3(), issuing, byName.Alpha3())
	}
	return passed()
}
