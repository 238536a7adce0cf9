package rules

import (
	"context"
	"regexp"
	"strings"

	"github.com/gyaneshwarpardhi/kycguard/internal/normalize"
	"github.com/gyaneshwarpardhi/kycguard/internal/record"
)

var postalToken = regexp.MustCompile(`^[0-9_/-]+$`)

// PostalAddress is a profile address string split into its parts.
type PostalAddress struct {
	Street     string
	Number     string
	PostalCode string
	City       string
}

// ParseAddress reads "Place de la Concorde 17, 26627 Toulon". A street without
// a trailing number keeps the whole first part; a location with no city word
// is taken as all postal code.
func ParseAddress(s string) PostalAddress {
	var addr PostalAddress
	parts := strings.Split(s, ",")
	if len(parts) < 2 {
		return addr
	}

	words := strings.Fields(parts[0])
	if n := len(words); n > 0 && isDigits(words[n-1]) {
		addr.Number = words[n-1]
		addr.Street = strings.Join(words[:n-1], " ")
	} else {
		addr.Street = strings.Join(words, " ")
	}

	location := strings.Fields(parts[1])
	city := -1
	for i, w := range location {
		if !postalToken.MatchString(w) {
			city = i
			break
		}
	}
	if city < 0 {
		addr.PostalCode = strings.Join(location, " ")
		return addr
	}
	addr.PostalCode = strings.Join(location[:city], " ")
	addr.City = strings.Join(location[city:], " ")
	return addr
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func checkAddress(_ context.Context, rec *record.ClientRecord) Outcome {
	a := rec.AccountForm
	addr := ParseAddress(rec.Profile.Address)

	switch {
	case normalize.Fold(addr.Street) != normalize.Fold(a.StreetName):
		return failed("street_mismatch", "profile %q, account %q", addr.Street, a.StreetName)
	case addr.Number != strings.TrimSpace(a.BuildingNumber):
		return failed("building_number_mismatch", "profile %q, account %q", addr.Number, a.BuildingNumber)
	case addr.PostalCode != strings.TrimSpace(a.PostalCode):
		return failed("postal_code_mismatch", "profile %q, account %q", addr.PostalCode, a.PostalCode)
	case normalize.Fold(addr.City) != normalize.Fold(a.City):
		return failed("city_mismatch", "profile %q, account %q", addr.City, a.City)
	}
	return passed()
}
