package domain

import "errors"

var (
	ErrTierNotFound         = errors.New("ticket tier is no longer available")
	ErrCatalogNotFound      = errors.New("catalog not found")
	ErrNotFound             = errors.New("coupon not found")
	ErrDuplicateCoupon      = errors.New("coupon already exists")
	ErrInvalidTier          = errors.New("invalid ticket tier")
	ErrInvalidCartItem      = errors.New("invalid cart item")
	ErrInvalidDiscountInput = errors.New("coupon is valid but carries no discount")
)
