package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DiscountKind enumerates the supported discount rules. At most one rule is
// active per price calculation.
type DiscountKind string

const (
	DiscountNone       DiscountKind = "none"
	DiscountPercentOff DiscountKind = "percent_off"
	DiscountAmountOff  DiscountKind = "amount_off"
	DiscountMembership DiscountKind = "membership"
)

// MembershipDiscountPercent is the flat community-member discount.
const MembershipDiscountPercent = 20

var (
	oneHundred         = decimal.NewFromInt(100)
	membershipDiscount = decimal.NewFromInt(MembershipDiscountPercent)
)

// DiscountContext is the single active discount rule applied to a price
// calculation.
type DiscountContext struct {
	Kind    DiscountKind
	Code    string
	Percent decimal.Decimal
	Amount  decimal.Decimal
}

// NoDiscount is the zero rule: prices pass through unchanged.
func NoDiscount() DiscountContext {
	return DiscountContext{Kind: DiscountNone}
}

// CouponLookup is the already-resolved result of a coupon code lookup, as
// supplied by the coupon store or an external provider.
type CouponLookup struct {
	Code       string
	PercentOff *decimal.Decimal
	AmountOff  *decimal.Decimal
	Valid      bool
}

// ResolveDiscount decides which single rule applies. A valid coupon always
// wins over the membership discount; an invalid or absent coupon falls back
// to membership when isMember is set, else to no discount.
//
// A coupon marked valid but carrying neither a percent nor an amount is an
// upstream data anomaly: the caller gets NoDiscount plus
// ErrInvalidDiscountInput, which should be logged, never surfaced.
func ResolveDiscount(coupon *CouponLookup, isMember bool) (DiscountContext, error) {
	if coupon != nil && coupon.Valid {
		switch {
		case coupon.PercentOff != nil:
			return DiscountContext{Kind: DiscountPercentOff, Code: coupon.Code, Percent: *coupon.PercentOff}, nil
		case coupon.AmountOff != nil:
			return DiscountContext{Kind: DiscountAmountOff, Code: coupon.Code, Amount: *coupon.AmountOff}, nil
		default:
			return NoDiscount(), fmt.Errorf("%w: %s", ErrInvalidDiscountInput, coupon.Code)
		}
	}
	if isMember {
		return DiscountContext{Kind: DiscountMembership, Percent: membershipDiscount}, nil
	}
	return NoDiscount(), nil
}

// EffectivePrice applies the rule to a base price. The result is clamped to
// zero and left unrounded; rounding happens at display time only.
func (d DiscountContext) EffectivePrice(base decimal.Decimal) decimal.Decimal {
	var price decimal.Decimal
	switch d.Kind {
	case DiscountPercentOff, DiscountMembership:
		price = base.Mul(oneHundred.Sub(d.Percent)).Div(oneHundred)
	case DiscountAmountOff:
		price = base.Sub(d.Amount)
	default:
		price = base
	}
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// DiscountAmount is the absolute reduction the rule takes off a base price,
// never exceeding the base itself.
func (d DiscountContext) DiscountAmount(base decimal.Decimal) decimal.Decimal {
	return base.Sub(d.EffectivePrice(base))
}

// Label renders the rule for display, e.g. "20%" or "CHF 10".
func (d DiscountContext) Label(currency string) string {
	switch d.Kind {
	case DiscountPercentOff, DiscountMembership:
		return fmt.Sprintf("%s%%", d.Percent)
	case DiscountAmountOff:
		return fmt.Sprintf("%s %s", currency, d.Amount)
	default:
		return ""
	}
}
