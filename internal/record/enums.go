package record

import (
	"fmt"
	"strings"
)

// table is the string mapping behind every categorical field. Labels are the
// canonical rendering; aliases cover the spellings the document parsers emit.
type table[T ~int] struct {
	kind   string
	labels map[T]string
	lookup map[string]T
}

func newTable[T ~int](kind string, labels map[T]string, aliases map[string]T) table[T] {
	t := table[T]{kind: kind, labels: labels, lookup: make(map[string]T, len(labels)+len(aliases))}
	for v, l := range labels {
		t.lookup[enumKey(l)] = v
	}
	for a, v := range aliases {
		t.lookup[enumKey(a)] = v
	}
	return t
}

func enumKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func (t table[T]) parse(s string) (T, error) {
	if v, ok := t.lookup[enumKey(s)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q", t.kind, s)
}

// unrecognised marks a value that was present but matched no label or alias.
const unrecognised = -1

// decode never fails: an empty value decodes to the zero (unknown) member, any
// other unmatched value to unrecognised. Both are reported by the structural
// validation in New.
func (t table[T]) decode(b []byte) T {
	if strings.TrimSpace(string(b)) == "" {
		var zero T
		return zero
	}
	v, err := t.parse(string(b))
	if err != nil {
		return T(unrecognised)
	}
	return v
}

func (t table[T]) label(v T) string {
	return t.labels[v]
}

// Gender is shared by the profile ("Male"/"Female") and the passport ("M"/"F").
type Gender int

const (
	GenderUnknown Gender = iota
	GenderMale
	GenderFemale
)

var genders = newTable("gender",
	map[Gender]string{GenderMale: "Male", GenderFemale: "Female"},
	map[string]Gender{"m": GenderMale, "f": GenderFemale},
)

func ParseGender(s string) (Gender, error)     { return genders.parse(s) }
func (g Gender) String() string                { return genders.label(g) }
func (g Gender) MarshalText() ([]byte, error)  { return []byte(g.String()), nil }
func (g *Gender) UnmarshalText(b []byte) error { *g = genders.decode(b); return nil }

type MaritalStatus int

const (
	MaritalUnknown MaritalStatus = iota
	MaritalSingle
	MaritalMarried
	MaritalDivorced
	MaritalWidowed
	MaritalSeparated
)

var maritalStatuses = newTable("marital status",
	map[MaritalStatus]string{
		MaritalSingle:    "Single",
		MaritalMarried:   "Married",
		MaritalDivorced:  "Divorced",
		MaritalWidowed:   "Widowed",
		MaritalSeparated: "Separated",
	}, nil)

func ParseMaritalStatus(s string) (MaritalStatus, error) { return maritalStatuses.parse(s) }
func (m MaritalStatus) String() string                   { return maritalStatuses.label(m) }
func (m MaritalStatus) MarshalText() ([]byte, error)     { return []byte(m.String()), nil }
func (m *MaritalStatus) UnmarshalText(b []byte) error    { *m = maritalStatuses.decode(b); return nil }

type EmploymentType int

const (
	EmploymentUnknown EmploymentType = iota
	EmploymentEmployee
	EmploymentSelfEmployed
	EmploymentNotEmployed
	EmploymentRetired
	EmploymentStudent
	EmploymentDiplomat
	EmploymentMilitary
)

var employmentTypes = newTable("employment type",
	map[EmploymentType]string{
		EmploymentEmployee:     "Employee",
		EmploymentSelfEmployed: "Self-Employed",
		EmploymentNotEmployed:  "Currently not employed",
		EmploymentRetired:      "Retired",
		EmploymentStudent:      "Student",
		EmploymentDiplomat:     "Diplomat",
		EmploymentMilitary:     "Military representative",
	},
	map[string]EmploymentType{"self employed": EmploymentSelfEmployed, "unemployed": EmploymentNotEmployed},
)

func ParseEmploymentType(s string) (EmploymentType, error) { return employmentTypes.parse(s) }
func (e EmploymentType) String() string                    { return employmentTypes.label(e) }
func (e EmploymentType) MarshalText() ([]byte, error)      { return []byte(e.String()), nil }
func (e *EmploymentType) UnmarshalText(b []byte) error     { *e = employmentTypes.decode(b); return nil }

// WealthRange is the total-wealth bucket ticked on the client profile.
type WealthRange int

const (
	WealthRangeUnknown WealthRange = iota
	WealthBelow1_5M
	Wealth1_5MTo5M
	Wealth5MTo10M
	Wealth10MTo20M
	Wealth20MTo50M
	WealthAbove50M
)

var wealthRanges = newTable("wealth range",
	map[WealthRange]string{
		WealthBelow1_5M: "< EUR 1.5m",
		Wealth1_5MTo5M:  "EUR 1.5m-5m",
		Wealth5MTo10M:   "EUR 5m-10m",
		Wealth10MTo20M:  "EUR 10m.-20m",
		Wealth20MTo50M:  "EUR 20m.-50m",
		WealthAbove50M:  "> EUR 50m",
	},
	map[string]WealthRange{
		"<1.5m":       WealthBelow1_5M,
		"EUR 10m-20m": Wealth10MTo20M,
		"EUR 20m-50m": Wealth20MTo50M,
		">50m":        WealthAbove50M,
	},
)

func ParseWealthRange(s string) (WealthRange, error) { return wealthRanges.parse(s) }
func (w WealthRange) String() string                 { return wealthRanges.label(w) }
func (w WealthRange) MarshalText() ([]byte, error)   { return []byte(w.String()), nil }
func (w *WealthRange) UnmarshalText(b []byte) error  { *w = wealthRanges.decode(b); return nil }

type IncomeRange int

const (
	IncomeRangeUnknown IncomeRange = iota
	IncomeBelow250K
	Income250KTo500K
	Income500KTo1M
	IncomeAbove1M
)

var incomeRanges = newTable("income range",
	map[IncomeRange]string{
		IncomeBelow250K:  "< EUR 250,000",
		Income250KTo500K: "EUR 250,000 - 500,000",
		Income500KTo1M:   "EUR 500,000 – 1m",
		IncomeAbove1M:    "> EUR 1m",
	},
	map[string]IncomeRange{"EUR 500,000 - 1m": Income500KTo1M},
)

func ParseIncomeRange(s string) (IncomeRange, error) { return incomeRanges.parse(s) }
func (i IncomeRange) String() string                 { return incomeRanges.label(i) }
func (i IncomeRange) MarshalText() ([]byte, error)   { return []byte(i.String()), nil }
func (i *IncomeRange) UnmarshalText(b []byte) error  { *i = incomeRanges.decode(b); return nil }

type RiskProfile int

const (
	RiskUnknown RiskProfile = iota
	RiskLow
	RiskModerate
	RiskConsiderable
	RiskHigh
)

var riskProfiles = newTable("risk profile",
	map[RiskProfile]string{
		RiskLow:          "Low",
		RiskModerate:     "Moderate",
		RiskConsiderable: "Considerable",
		RiskHigh:         "High",
	}, nil)

func ParseRiskProfile(s string) (RiskProfile, error) { return riskProfiles.parse(s) }
func (r RiskProfile) String() string                 { return riskProfiles.label(r) }
func (r RiskProfile) MarshalText() ([]byte, error)   { return []byte(r.String()), nil }
func (r *RiskProfile) UnmarshalText(b []byte) error  { *r = riskProfiles.decode(b); return nil }

type MandateType int

const (
	MandateUnknown MandateType = iota
	MandateDiscretionary
	MandateAdvisory
)

var mandateTypes = newTable("mandate type",
	map[MandateType]string{MandateDiscretionary: "Discretionary", MandateAdvisory: "Advisory"}, nil)

func (m MandateType) String() string                { return mandateTypes.label(m) }
func (m MandateType) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (m *MandateType) UnmarshalText(b []byte) error { *m = mandateTypes.decode(b); return nil }

type InvestmentExperience int

const (
	ExperienceUnknown InvestmentExperience = iota
	ExperienceInexperienced
	ExperienceExperienced
	ExperienceExpert
)

var investmentExperiences = newTable("investment experience",
	map[InvestmentExperience]string{
		ExperienceInexperienced: "Inexperienced",
		ExperienceExperienced:   "Experienced",
		ExperienceExpert:        "Expert",
	}, nil)

func (e InvestmentExperience) String() string               { return investmentExperiences.label(e) }
func (e InvestmentExperience) MarshalText() ([]byte, error) { return []byte(e.String()), nil }
func (e *InvestmentExperience) UnmarshalText(b []byte) error {
	*e = investmentExperiences.decode(b)
	return nil
}

type InvestmentHorizon int

const (
	HorizonUnknown InvestmentHorizon = iota
	HorizonShort
	HorizonMedium
	HorizonLong
)

var investmentHorizons = newTable("investment horizon",
	map[InvestmentHorizon]string{HorizonShort: "Short", HorizonMedium: "Medium", HorizonLong: "Long-term"},
	map[string]InvestmentHorizon{"long": HorizonLong, "short-term": HorizonShort, "medium-term": HorizonMedium},
)

func (h InvestmentHorizon) String() string               { return investmentHorizons.label(h) }
func (h InvestmentHorizon) MarshalText() ([]byte, error) { return []byte(h.String()), nil }
func (h *InvestmentHorizon) UnmarshalText(b []byte) error {
	*h = investmentHorizons.decode(b)
	return nil
}

type WealthSource int

const (
	SourceUnknown WealthSource = iota
	SourceEmployment
	SourceInheritance
	SourceBusiness
	SourceInvestments
	SourceRealEstate
	SourceRetirement
	SourceOther
)

var wealthSources = newTable("wealth source",
	map[WealthSource]string{
		SourceEmployment:  "Employment",
		SourceInheritance: "Inheritance",
		SourceBusiness:    "Business",
		SourceInvestments: "Investments",
		SourceRealEstate:  "Sale of real estate",
		SourceRetirement:  "Retirement package",
		SourceOther:       "Other",
	}, nil)

func ParseWealthSource(s string) (WealthSource, error) { return wealthSources.parse(s) }
func (w WealthSource) String() string                  { return wealthSources.label(w) }
func (w WealthSource) MarshalText() ([]byte, error)    { return []byte(w.String()), nil }
func (w *WealthSource) UnmarshalText(b []byte) error   { *w = wealthSources.decode(b); return nil }
