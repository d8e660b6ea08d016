package kafka

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
)

const (
	ErrCodeCatalogNotFound = "CATALOG_NOT_FOUND"
	ErrCodeTierNotFound    = "TIER_NOT_FOUND"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

type CartItemPayload struct {
	ProductRef string          `json:"product_ref"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
}

type RequestPayload struct {
	SchemaVersion int    `json:"schema_version"`
	CorrelationID string `json:"correlation_id"`
	ReplyTo       string `json:"reply_to"`

	CatalogID  string            `json:"catalog_id,omitempty"`
	TierID     string            `json:"tier_id,omitempty"`
	CouponCode string            `json:"coupon_code,omitempty"`
	IsMember   bool              `json:"is_member,omitempty"`
	At         *time.Time        `json:"at,omitempty"`
	Currency   string            `json:"currency,omitempty"`
	Items      []CartItemPayload `json:"items,omitempty"`
}

type LineItemPayload struct {
	TierID         string          `json:"tier_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	BasePrice      decimal.Decimal `json:"base_price"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
	DiscountLabel  string          `json:"discount_label,omitempty"`
	AutoSelect     bool            `json:"auto_select"`
	Features       []string        `json:"features,omitempty"`
}

type PricingPayload struct {
	CatalogID     string            `json:"catalog_id"`
	EventName     string            `json:"event_name"`
	Currency      string            `json:"currency"`
	Tiers         []LineItemPayload `json:"tiers"`
	DefaultTierID string            `json:"default_tier_id,omitempty"`
	DiscountLabel string            `json:"discount_label,omitempty"`
	SelectedTier  *LineItemPayload  `json:"selected_tier,omitempty"`
}

type QuotePayload struct {
	Currency      string          `json:"currency"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	DiscountLabel string          `json:"discount_label,omitempty"`
}

type CouponPayload struct {
	Code       string           `json:"code"`
	PercentOff *decimal.Decimal `json:"percent_off,omitempty"`
	AmountOff  *decimal.Decimal `json:"amount_off,omitempty"`
	Valid      bool             `json:"valid"`
}

type ResponsePayload struct {
	SchemaVersion int             `json:"schema_version"`
	CorrelationID string          `json:"correlation_id"`
	Status        string          `json:"status"`
	ErrorCode     string          `json:"error_code,omitempty"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	Pricing       *PricingPayload `json:"pricing,omitempty"`
	Quote         *QuotePayload   `json:"quote,omitempty"`
	Coupon        *CouponPayload  `json:"coupon,omitempty"`
}
