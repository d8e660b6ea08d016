package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coupon is a stored discount definition. Exactly one of PercentOff or
// AmountOff is set on a well-formed coupon.
type Coupon struct {
	Code       string
	PercentOff *decimal.Decimal
	AmountOff  *decimal.Decimal
	Valid      bool
	CreatedAt  time.Time
}

// Lookup projects the stored coupon into the already-resolved form the
// pricing core consumes.
func (c Coupon) Lookup() CouponLookup {
	return CouponLookup{
		Code:       c.Code,
		PercentOff: c.PercentOff,
		AmountOff:  c.AmountOff,
		Valid:      c.Valid,
	}
}
