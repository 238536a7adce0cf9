// Package wealth checks declared assets against each other and against the
// ticked total-wealth bracket. All amounts are EUR.
package wealth

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/gyaneshwarpardhi/kycguard/internal/record"
)

// Code identifies which wealth consistency check failed.
type Code string

const (
	NegativeTotalAssets    Code = "negative_total_assets"
	NegativeTransferAssets Code = "negative_transfer_assets"
	TransferExceedsTotal   Code = "transfer_exceeds_total"
	NegativeAssetItem      Code = "negative_asset_item"
	AssetsExceedTotal      Code = "assets_exceed_total"
	UnknownWealthRange     Code = "unknown_wealth_range"
	OutsideWealthRange     Code = "outside_wealth_range"
)

// Violation is returned by Validate; inspect it with errors.As.
type Violation struct {
	Code   Code
	Detail string
}

func (v *Violation) Error() string { return string(v.Code) + ": " + v.Detail }

func fail(code Code, format string, args ...any) *Violation {
	return &Violation{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Bracket is the numeric interval behind a wealth range. A zero Upper means
// unbounded; the open-ended bracket excludes its lower bound.
type Bracket struct {
	Lower, Upper   decimal.Decimal
	ExclusiveLower bool
}

// Contains reports whether v falls inside the bracket, bounds included unless
// ExclusiveLower is set.
func (b Bracket) Contains(v decimal.Decimal) bool {
	if b.ExclusiveLower {
		if !v.GreaterThan(b.Lower) {
			return false
		}
	} else if v.LessThan(b.Lower) {
		return false
	}
	return b.Upper.IsZero() || v.LessThanOrEqual(b.Upper)
}

func (b Bracket) String() string {
	if b.Upper.IsZero() {
		return fmt.Sprintf("(%s, inf)", b.Lower)
	}
	return fmt.Sprintf("[%s, %s]", b.Lower, b.Upper)
}

func millions(m float64) decimal.Decimal {
	return decimal.NewFromFloat(m).Mul(decimal.NewFromInt(1_000_000))
}

var brackets = map[record.WealthRange]Bracket{
	record.WealthBelow1_5M: {Lower: decimal.Zero, Upper: millions(1.5)},
	record.Wealth1_5MTo5M:  {Lower: millions(1.5), Upper: millions(5)},
	record.Wealth5MTo10M:   {Lower: millions(5), Upper: millions(10)},
	record.Wealth10MTo20M:  {Lower: millions(10), Upper: millions(20)},
	record.Wealth20MTo50M:  {Lower: millions(20), Upper: millions(50)},
	record.WealthAbove50M:  {Lower: millions(50), ExclusiveLower: true},
}

// BracketFor returns the interval of r, or false for an unknown range.
func BracketFor(r record.WealthRange) (Bracket, bool) {
	b, ok := brackets[r]
	return b, ok
}

// Validate returns nil or the first *Violation found.
func Validate(details record.AccountDetails, info record.WealthInfo) error {
	total, transfer := details.TotalAssets, details.TransferAssets
	if total.IsNegative() {
		return fail(NegativeTotalAssets, "total assets %s", total)
	}
	if transfer.IsNegative() {
		return fail(NegativeTransferAssets, "transfer assets %s", transfer)
	}
	if transfer.GreaterThan(total) {
		return fail(TransferExceedsTotal, "transfer %s exceeds total %s", transfer, total)
	}

	names := make([]string, 0, len(info.Assets))
	for name := range info.Assets {
		names = append(names, name)
	}
	sort.Strings(names)

	sum := decimal.Zero
	for _, name := range names {
		v := info.Assets[name]
		if v.IsNegative() {
			return fail(NegativeAssetItem, "%s is %s", name, v)
		}
		sum = sum.Add(v)
	}
	if sum.GreaterThan(total) {
		return fail(AssetsExceedTotal, "itemized %s exceeds total %s", sum, total)
	}

	b, ok := BracketFor(info.TotalWealthRange)
	if !ok {
		return fail(UnknownWealthRange, "range %q", info.TotalWealthRange)
	}
	if !b.Contains(sum) {
		return fail(OutsideWealthRange, "itemized %s outside %q %s", sum, info.TotalWealthRange, b)
	}
	return nil
}
