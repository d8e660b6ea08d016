package kafka

import (
	"context"

	"github.com/communityconf/ticketing/internal/domain"
	"github.com/communityconf/ticketing/internal/usecase"
)

// DirectGateway serves pricing in-process when the bus is disabled.
type DirectGateway struct {
	service *usecase.PricingService
}

func NewDirectGateway(service *usecase.PricingService) usecase.PricingGateway {
	return &DirectGateway{service: service}
}

func (g *DirectGateway) ResolvePricing(ctx context.Context, req usecase.ResolveRequest) (*usecase.PricingView, error) {
	return g.service.ResolvePricing(ctx, req)
}

func (g *DirectGateway) QuoteCart(ctx context.Context, req usecase.CartQuoteRequest) (*usecase.CartQuote, error) {
	return g.service.QuoteCart(ctx, req)
}

func (g *DirectGateway) GetCoupon(ctx context.Context, code string) (*domain.Coupon, error) {
	return g.service.GetCoupon(ctx, code)
}
