package record

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AccountForm is the account-opening form, as extracted from the PDF.
type AccountForm struct {
	AccountName          string `json:"account_name"`
	AccountHolderName    string `json:"account_holder_name"`
	AccountHolderSurname string `json:"account_holder_surname"`
	PassportNumber       string `json:"passport_number"`

	CHF           bool   `json:"chf"`
	EUR           bool   `json:"eur"`
	USD           bool   `json:"usd"`
	OtherCurrency string `json:"other_ccy,omitempty"`

	StreetName     string `json:"street_name"`
	BuildingNumber string `json:"building_number"`
	PostalCode     string `json:"postal_code"`
	City           string `json:"city"`
	Country        string `json:"country"`

	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`

	SpecimenSignature bool `json:"specimen_signature"`
	SignatureFields   bool `json:"signature_fields"`
}

// ClientProfile is the structured client profile, as extracted from the DOCX tables.
type ClientProfile struct {
	LastName          string `json:"last_name"`
	FirstName         string `json:"first_name"`
	Nationality       string `json:"nationality"`
	PassportID        string `json:"passport_id"`
	IDType            string `json:"id_type"`
	IDIssueDate       string `json:"id_issue_date"`
	IDExpiryDate      string `json:"id_expiry_date"`
	Gender            Gender `json:"gender"`
	CountryOfDomicile string `json:"country_of_domicile"`
	BirthDate         string `json:"birth_date"`

	Address    string         `json:"address"`
	Contact    ContactInfo    `json:"contact_info"`
	Personal   PersonalInfo   `json:"personal_info"`
	Employment []Employment   `json:"employment"`
	Wealth     WealthInfo     `json:"wealth_info"`
	Income     IncomeInfo     `json:"income_info"`
	Account    AccountDetails `json:"account_details"`
}

type ContactInfo struct {
	Telephone string `json:"telephone"`
	Email     string `json:"email"`
}

type PersonalInfo struct {
	PoliticallyExposed bool          `json:"is_politically_exposed"`
	MaritalStatus      MaritalStatus `json:"marital_status"`
	HighestEducation   string        `json:"highest_education"`
	EducationHistory   string        `json:"education_history"`
}

type EmploymentStatus struct {
	Type  EmploymentType `json:"status_type"`
	Since string         `json:"since"`
}

type Employment struct {
	Status             EmploymentStatus `json:"current_status"`
	Employer           string           `json:"employer,omitempty"`
	Position           string           `json:"position,omitempty"`
	AnnualIncome       string           `json:"annual_income,omitempty"`
	PreviousProfession string           `json:"previous_profession,omitempty"`
}

type WealthInfo struct {
	TotalWealthRange WealthRange                `json:"total_wealth_range"`
	Sources          []WealthSource             `json:"wealth_sources"`
	SourceInfo       []string                   `json:"source_info,omitempty"`
	Assets           map[string]decimal.Decimal `json:"assets"`
}

// HasSource reports whether s is among the declared wealth sources.
func (w WealthInfo) HasSource(s WealthSource) bool {
	for _, src := range w.Sources {
		if src == s {
			return true
		}
	}
	return false
}

type IncomeInfo struct {
	TotalIncomeRange IncomeRange `json:"total_income_range"`
	SourceInfo       string      `json:"source_info,omitempty"`
}

type InvestmentPreferences struct {
	Mandate                       MandateType          `json:"type_of_mandate"`
	Experience                    InvestmentExperience `json:"investment_experience"`
	Horizon                       InvestmentHorizon    `json:"investment_horizon"`
	ExpectedTransactionalBehavior string               `json:"expected_transactional_behavior,omitempty"`
	PreferredMarkets              []string             `json:"preferred_markets"`
}

type AccountDetails struct {
	AccountNumber  string                `json:"account_number,omitempty"`
	IsCommercial   bool                  `json:"is_commercial_account"`
	RiskProfile    RiskProfile           `json:"risk_profile"`
	TotalAssets    decimal.Decimal       `json:"total_assets"`
	TransferAssets decimal.Decimal       `json:"transfer_assets"`
	Investment     InvestmentPreferences `json:"investment_preferences"`
}

// ClientDescription holds the relationship manager's free-text narrative.
type ClientDescription struct {
	SummaryNote         string `json:"summary_note"`
	FamilyBackground    string `json:"family_background"`
	EducationBackground string `json:"education_background"`
	OccupationHistory   string `json:"occupation_history"`
	WealthSummary       string `json:"wealth_summary"`
	ClientSummary       string `json:"client_summary"`
}

// Sections returns the six narrative sections keyed by their JSON names.
func (d ClientDescription) Sections() map[string]string {
	return map[string]string{
		"summary_note":         d.SummaryNote,
		"family_background":    d.FamilyBackground,
		"education_background": d.EducationBackground,
		"occupation_history":   d.OccupationHistory,
		"wealth_summary":       d.WealthSummary,
		"client_summary":       d.ClientSummary,
	}
}

// Passport is the OCR-read passport page.
type Passport struct {
	GivenName      string   `json:"given_name"`
	Surname        string   `json:"surname"`
	Sex            Gender   `json:"sex"`
	BirthDate      string   `json:"birth_date"`
	Citizenship    string   `json:"citizenship"`
	IssuingCountry string   `json:"issuing_country"`
	CountryCode    string   `json:"country_code"`
	Number         string   `json:"passport_number"`
	MRZ            []string `json:"passport_mrz"`
	IssueDate      string   `json:"issue_date"`
	ExpiryDate     string   `json:"expiry_date"`
	Signature      bool     `json:"signature"`
}

// ClientRecord is one onboarding packet. It is assembled once by New and must be
// treated as read-only afterwards; rules receive it by pointer only to avoid copies.
type ClientRecord struct {
	ID          string
	AccountForm AccountForm
	Profile     ClientProfile
	Description ClientDescription
	Passport    Passport
	// Label is the ground-truth decision (true = accept) of training data.
	// The rule engine never reads it.
	Label *bool

	problems []string
}

// New assembles a record and runs the structural validation once.
func New(id string, account AccountForm, profile ClientProfile, description ClientDescription, passport Passport, label *bool) *ClientRecord {
	r := &ClientRecord{
		ID:          id,
		AccountForm: account,
		Profile:     profile,
		Description: description,
		Passport:    passport,
		Label:       label,
	}
	r.problems = validate(r)
	return r
}

// Valid reports whether every required field was populated.
func (r *ClientRecord) Valid() bool { return len(r.problems) == 0 }

// Problems lists the missing or unrecognised required fields.
func (r *ClientRecord) Problems() []string {
	out := make([]string, len(r.problems))
	copy(out, r.problems)
	return out
}

type required struct {
	path  string
	value string
}

type enumField struct {
	path            string
	set, recognised bool
}

func enum[T ~int](path string, v T) enumField {
	return enumField{path: path, set: v != 0, recognised: int(v) != unrecognised}
}

func validate(r *ClientRecord) []string {
	a, p, d, pp := r.AccountForm, r.Profile, r.Description, r.Passport
	fields := []required{
		{"account_form.account_name", a.AccountName},
		{"account_form.account_holder_name", a.AccountHolderName},
		{"account_form.account_holder_surname", a.AccountHolderSurname},
		{"account_form.passport_number", a.PassportNumber},
		{"account_form.street_name", a.StreetName},
		{"account_form.building_number", a.BuildingNumber},
		{"account_form.postal_code", a.PostalCode},
		{"account_form.city", a.City},
		{"account_form.country", a.Country},
		{"account_form.name", a.Name},
		{"account_form.phone_number", a.PhoneNumber},
		{"account_form.email", a.Email},

		{"client_profile.last_name", p.LastName},
		{"client_profile.first_name", p.FirstName},
		{"client_profile.nationality", p.Nationality},
		{"client_profile.passport_id", p.PassportID},
		{"client_profile.id_type", p.IDType},
		{"client_profile.id_issue_date", p.IDIssueDate},
		{"client_profile.id_expiry_date", p.IDExpiryDate},
		{"client_profile.country_of_domicile", p.CountryOfDomicile},
		{"client_profile.birth_date", p.BirthDate},
		{"client_profile.address", p.Address},
		{"client_profile.contact_info.telephone", p.Contact.Telephone},
		{"client_profile.contact_info.email", p.Contact.Email},

		{"client_description.summary_note", d.SummaryNote},
		{"client_description.family_background", d.FamilyBackground},
		{"client_description.education_background", d.EducationBackground},
		{"client_description.occupation_history", d.OccupationHistory},
		{"client_description.wealth_summary", d.WealthSummary},
		{"client_description.client_summary", d.ClientSummary},

		{"passport.given_name", pp.GivenName},
		{"passport.surname", pp.Surname},
		{"passport.birth_date", pp.BirthDate},
		{"passport.citizenship", pp.Citizenship},
		{"passport.issuing_country", pp.IssuingCountry},
		{"passport.country_code", pp.CountryCode},
		{"passport.passport_number", pp.Number},
		{"passport.issue_date", pp.IssueDate},
		{"passport.expiry_date", pp.ExpiryDate},
	}

	categorical := []enumField{
		enum("client_profile.gender", p.Gender),
		enum("client_profile.personal_info.marital_status", p.Personal.MaritalStatus),
		enum("client_profile.wealth_info.total_wealth_range", p.Wealth.TotalWealthRange),
		enum("client_profile.account_details.risk_profile", p.Account.RiskProfile),
		enum("passport.sex", pp.Sex),
	}

	var problems []string
	for _, f := range categorical {
		switch {
		case !f.recognised:
			problems = append(problems, fmt.Sprintf("%s is unrecognised", f.path))
		case !f.set:
			problems = append(problems, fmt.Sprintf("%s is required", f.path))
		}
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			problems = append(problems, fmt.Sprintf("%s is required", f.path))
		}
	}
	if len(pp.MRZ) == 0 {
		problems = append(problems, "passport.passport_mrz is required")
	}
	return problems
}
