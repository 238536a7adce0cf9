package condition

import (
	"testing"
)

type evalCase struct {
	name    string
	expr    string
	fields  Fields
	want    bool
	wantErr bool
}

func TestEvaluate(t *testing.T) {
	cases := []evalCase{
		{
			name:   "number gt",
			expr:   "profile.total_assets > 1000000",
			fields: Fields{"profile.total_assets": float64(1500000)},
			want:   true,
		},
		{
			name:   "number lte",
			expr:   "profile.total_assets <= 1000000",
			fields: Fields{"profile.total_assets": float64(1500000)},
			want:   false,
		},
		{
			name:   "string eq",
			expr:   `profile.risk_profile == "High"`,
			fields: Fields{"profile.risk_profile": "High"},
			want:   true,
		},
		{
			name:   "string neq single quotes",
			expr:   `profile.risk_profile != 'Low'`,
			fields: Fields{"profile.risk_profile": "Low"},
			want:   false,
		},
		{
			name:   "bool literal",
			expr:   "profile.pep == true",
			fields: Fields{"profile.pep": true},
			want:   true,
		},
		{
			name:   "bare flag",
			expr:   "profile.pep AND profile.commercial",
			fields: Fields{"profile.pep": true, "profile.commercial": false},
			want:   false,
		},
		{
			name:   "or short circuits",
			expr:   `profile.pep OR missing.field > 1`,
			fields: Fields{"profile.pep": true},
			want:   true,
		},
		{
			name:   "and short circuits",
			expr:   `profile.pep AND missing.field > 1`,
			fields: Fields{"profile.pep": false},
			want:   false,
		},
		{
			name:   "not and parentheses",
			expr:   `NOT (account.currency.chf OR account.currency.eur)`,
			fields: Fields{"account.currency.chf": false, "account.currency.eur": false},
			want:   true,
		},
		{
			name:   "contains",
			expr:   `profile.wealth.sources contains "Inheritance"`,
			fields: Fields{"profile.wealth.sources": "Employment, Inheritance"},
			want:   true,
		},
		{
			name:   "matches",
			expr:   `account.email matches ".*@example\\.com$"`,
			fields: Fields{"account.email": "anna@example.com"},
			want:   true,
		},
		{
			name:   "matches false",
			expr:   `account.email matches ".*@example\\.com$"`,
			fields: Fields{"account.email": "anna@example.co.uk"},
			want:   false,
		},
		{
			name:   "in list",
			expr:   `passport.country_code in ["PRK", "IRN", "SYR"]`,
			fields: Fields{"passport.country_code": "IRN"},
			want:   true,
		},
		{
			name:   "in numeric list",
			expr:   `profile.employment.count in [0, 1]`,
			fields: Fields{"profile.employment.count": float64(2)},
			want:   false,
		},
		{
			name:   "unicode literal",
			expr:   `account.city == "Zürich"`,
			fields: Fields{"account.city": "Zürich"},
			want:   true,
		},
		{
			name:    "unknown field",
			expr:    "missing > 10",
			fields:  Fields{},
			wantErr: true,
		},
		{
			name:    "ordering needs numbers",
			expr:    `account.name > 10`,
			fields:  Fields{"account.name": "Anna"},
			wantErr: true,
		},
		{
			name:    "bare non-flag",
			expr:    `account.name`,
			fields:  Fields{"account.name": "Anna"},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prog, err := Compile(tc.expr)
			if err != nil {
				t.Fatalf("Compile(%q) error: %v", tc.expr, err)
			}
			got, err := prog.Eval(tc.fields)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil (result=%v)", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Eval error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Eval(%q) = %v, want %v", tc.expr, got, tc.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []string{
		`"unterminated`,
		`amount 1000`,
		``,
		`a = 1`,
		`a in [1, 2`,
		`a in [b]`,
		`a matches "("`,
		`(a == 1`,
		`10 == 10 10`,
		`"x"`,
	}
	for _, expr := range cases {
		t.Run(expr, func(t *testing.T) {
			if _, err := Parse(expr); err == nil {
				t.Errorf("expected parse error for %q, got nil", expr)
			}
		})
	}
}
