package usecase

import (
	"context"

	"github.com/communityconf/ticketing/internal/domain"
)

// PricingGateway is the checkout-facing surface. It is served either
// directly by the PricingService or through the Kafka request/reply bus,
// depending on deployment.
type PricingGateway interface {
	ResolvePricing(ctx context.Context, req ResolveRequest) (*PricingView, error)
	QuoteCart(ctx context.Context, req CartQuoteRequest) (*CartQuote, error)
	GetCoupon(ctx context.Context, code string) (*domain.Coupon, error)
}
