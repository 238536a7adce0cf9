package narrative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/kycguard/internal/fuzzy"
	"github.com/gyaneshwarpardhi/kycguard/internal/metrics"
	"github.com/gyaneshwarpardhi/kycguard/internal/normalize"
	"github.com/gyaneshwarpardhi/kycguard/internal/record"
)

// Mismatch codes reported by Compare.
const (
	AgeMismatch               = "age_mismatch"
	MaritalStatusMismatch     = "marital_status_mismatch"
	EmployerMismatch          = "employer_mismatch"
	PositionMismatch          = "position_mismatch"
	InheritanceMismatch       = "inheritance_mismatch"
	InheritanceSourceMismatch = "inheritance_source_mismatch"
	InheritanceYearMismatch   = "inheritance_year_mismatch"
	InheritanceOccupation     = "inheritance_occupation_mismatch"
	UniversityMismatch        = "university_mismatch"
	UniversityYearMismatch    = "university_year_mismatch"
	UniversityYearInFuture    = "university_year_in_future"
	EducationLevelMismatch    = "education_level_mismatch"
	SchoolMismatch            = "secondary_school_mismatch"
	EducationOrder            = "education_order_mismatch"
	SchoolYearInFuture        = "secondary_year_in_future"
	SchoolBelowMinimumAge     = "secondary_below_minimum_age"
)

const (
	ageTolerance        = 2
	minSchoolLeavingAge = 15
	levelTertiary       = "Tertiary"
	levelSecondary      = "Secondary"
)

// Result is the outcome of one cross-check. A skipped check carries the
// extraction failure in Detail; otherwise an empty Code means consistent.
type Result struct {
	Skipped bool
	Code    string
	Detail  string
}

func (r Result) Consistent() bool { return !r.Skipped && r.Code == "" }

type CrossChecker struct {
	extractor Extractor
	today     time.Time
	timeout   time.Duration
	logger    *slog.Logger
}

// NewCrossChecker returns a checker that gives each extraction at most
// timeout (zero means no limit of its own).
func NewCrossChecker(extractor Extractor, today time.Time, timeout time.Duration, logger *slog.Logger) *CrossChecker {
	return &CrossChecker{extractor: extractor, today: today, timeout: timeout, logger: logger}
}

// Check extracts the narrative facts of rec and compares them with its
// profile. Extraction failures of any kind skip the check.
func (c *CrossChecker) Check(ctx context.Context, rec *record.ClientRecord) Result {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	facts, err := c.extractor.Extract(ctx, rec.Description)
	if err != nil {
		status := extractionStatus(err)
		metrics.NarrativeExtractions.WithLabelValues(status).Inc()
		c.logger.Warn("narrative check skipped", "record_id", rec.ID, "status", status, "error", err)
		return Result{Skipped: true, Detail: err.Error()}
	}
	metrics.NarrativeExtractions.WithLabelValues("ok").Inc()

	code, detail := Compare(facts, rec.Profile, c.today)
	return Result{Code: code, Detail: detail}
}

func extractionStatus(err error) string {
	switch {
	case errors.Is(err, ErrMalformedOutput):
		return "malformed"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

// Compare checks every fact the narrative claims against the profile and
// returns the first mismatch. Facts the narrative does not state are skipped.
func Compare(f Facts, p record.ClientProfile, today time.Time) (code, detail string) {
	birthYear, haveBirth := parseBirthYear(p.BirthDate)

	if age, ok := f.Age.Int(); ok && haveBirth {
		if derived := today.Year() - birthYear; abs(age-derived) > ageTolerance {
			return AgeMismatch, fmt.Sprintf("narrative says %d, profile gives %d", age, derived)
		}
	}

	if f.MaritalStatus.Present() && !sameText(f.MaritalStatus.String(), p.Personal.MaritalStatus.String()) {
		return MaritalStatusMismatch, fmt.Sprintf("narrative %q, profile %q", f.MaritalStatus, p.Personal.MaritalStatus)
	}

	var job record.Employment
	if len(p.Employment) > 0 {
		job = p.Employment[0]
	}
	if f.Employment.Company.Present() && !sameText(f.Employment.Company.String(), job.Employer) {
		return EmployerMismatch, fmt.Sprintf("narrative %q, profile %q", f.Employment.Company, job.Employer)
	}
	if f.Employment.Position.Present() && !sameText(f.Employment.Position.String(), job.Position) {
		return PositionMismatch, fmt.Sprintf("narrative %q, profile %q", f.Employment.Position, job.Position)
	}

	if code, detail := compareInheritance(f, p.Wealth); code != "" {
		return code, detail
	}
	return compareEducation(f, p, birthYear, haveBirth, today)
}

func compareInheritance(f Facts, w record.WealthInfo) (string, string) {
	claimed, ok := f.Inheritance.Bool()
	if !ok {
		return "", ""
	}
	declared := w.HasSource(record.SourceInheritance)
	if claimed != declared && f.InheritedFrom.Present() {
		return InheritanceMismatch, fmt.Sprintf("narrative %t, profile %t", claimed, declared)
	}
	if !claimed {
		return "", ""
	}

	info := strings.Join(w.SourceInfo, " ")
	checks := []struct {
		code string
		fact Text
	}{
		{InheritanceSourceMismatch, f.InheritedFrom},
		{InheritanceYearMismatch, f.InheritanceYear},
		{InheritanceOccupation, f.InheritedFromOccupation},
	}
	for _, c := range checks {
		if c.fact.Present() && !containsText(info, c.fact.String()) {
			return c.code, fmt.Sprintf("%q not in %q", c.fact, info)
		}
	}
	return "", ""
}

func compareEducation(f Facts, p record.ClientProfile, birthYear int, haveBirth bool, today time.Time) (string, string) {
	history := p.Personal.EducationHistory
	level := p.Personal.HighestEducation
	uni, school := f.University, f.Secondary

	if uni.Name.Present() {
		if !containsText(history, uni.Name.String()) {
			return UniversityMismatch, fmt.Sprintf("%q not in %q", uni.Name, history)
		}
		if uni.GraduationYear.Present() && !containsText(history, uni.GraduationYear.String()) {
			return UniversityYearMismatch, fmt.Sprintf("%q not in %q", uni.GraduationYear, history)
		}
		if year, ok := uni.GraduationYear.Int(); ok && year > today.Year() {
			return UniversityYearInFuture, fmt.Sprintf("graduated %d", year)
		}
		if !sameText(level, levelTertiary) {
			return EducationLevelMismatch, fmt.Sprintf("university named, highest education %q", level)
		}
	}

	if !school.Name.Present() {
		return "", ""
	}
	if !containsText(history, school.Name.String()) {
		return SchoolMismatch, fmt.Sprintf("%q not in %q", school.Name, history)
	}
	if !uni.Name.Present() && !sameText(level, levelSecondary) {
		return EducationLevelMismatch, fmt.Sprintf("only a school named, highest education %q", level)
	}
	year, ok := school.GraduationYear.Int()
	if !ok {
		return "", ""
	}
	if uniYear, ok := uni.GraduationYear.Int(); ok && year >= uniYear {
		return EducationOrder, fmt.Sprintf("school %d not before university %d", year, uniYear)
	}
	if year > today.Year() {
		return SchoolYearInFuture, fmt.Sprintf("school finished %d", year)
	}
	if haveBirth && year-birthYear < minSchoolLeavingAge {
		return SchoolBelowMinimumAge, fmt.Sprintf("school finished at %d", year-birthYear)
	}
	return "", ""
}

func parseBirthYear(iso string) (int, bool) {
	t, err := time.Parse(fuzzy.ISODate, strings.TrimSpace(iso))
	if err != nil {
		return 0, false
	}
	return t.Year(), true
}

func sameText(a, b string) bool { return normalize.Fold(a) == normalize.Fold(b) }

func containsText(haystack, needle string) bool {
	return strings.Contains(normalize.Fold(haystack), normalize.Fold(needle))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
