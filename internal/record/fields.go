package record

import "strings"

// Fields flattens the record into dot-path values for policy expressions.
// Numbers are float64, flags are bool, everything else is a string.
func Fields(r *ClientRecord) map[string]any {
	a, p, pp := r.AccountForm, r.Profile, r.Passport

	sources := make([]string, 0, len(p.Wealth.Sources))
	for _, s := range p.Wealth.Sources {
		sources = append(sources, s.String())
	}
	var employmentType string
	if len(p.Employment) > 0 {
		employmentType = p.Employment[0].Status.Type.String()
	}
	total, _ := p.Account.TotalAssets.Float64()
	transfer, _ := p.Account.TransferAssets.Float64()

	return map[string]any{
		"account.name":             a.AccountName,
		"account.email":            a.Email,
		"account.country":          a.Country,
		"account.city":             a.City,
		"account.currency.chf":     a.CHF,
		"account.currency.eur":     a.EUR,
		"account.currency.usd":     a.USD,
		"account.other_currency":   a.OtherCurrency,
		"account.signature":        a.SpecimenSignature,
		"profile.nationality":      p.Nationality,
		"profile.gender":           p.Gender.String(),
		"profile.birth_date":       p.BirthDate,
		"profile.domicile":         p.CountryOfDomicile,
		"profile.id_type":          p.IDType,
		"profile.pep":              p.Personal.PoliticallyExposed,
		"profile.marital_status":   p.Personal.MaritalStatus.String(),
		"profile.education":        p.Personal.HighestEducation,
		"profile.employment.type":  employmentType,
		"profile.employment.count": float64(len(p.Employment)),
		"profile.wealth.range":     p.Wealth.TotalWealthRange.String(),
		"profile.wealth.sources":   strings.Join(sources, ", "),
		"profile.income.range":     p.Income.TotalIncomeRange.String(),
		"profile.risk_profile":     p.Account.RiskProfile.String(),
		"profile.commercial":       p.Account.IsCommercial,
		"profile.total_assets":     total,
		"profile.transfer_assets":  transfer,
		"profile.mandate":          p.Account.Investment.Mandate.String(),
		"profile.experience":       p.Account.Investment.Experience.String(),
		"profile.horizon":          p.Account.Investment.Horizon.String(),
		"passport.country_code":    pp.CountryCode,
		"passport.citizenship":     pp.Citizenship,
		"passport.issuing_country": pp.IssuingCountry,
		"passport.sex":             pp.Sex.String(),
		"passport.signature":       pp.Signature,
	}
}
