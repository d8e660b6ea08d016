package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/communityconf/ticketing/internal/config"
	"github.com/communityconf/ticketing/internal/domain"
	"github.com/communityconf/ticketing/internal/usecase"
)

// Gateway fronts the pricing service over the request/reply bus. Each
// request carries a correlation ID and a per-instance reply topic.
type Gateway struct {
	client      *kgo.Client
	cfg         *config.Config
	pendingResp sync.Map
}

func NewGateway(cfg *config.Config, client *kgo.Client) *Gateway {
	return &Gateway{
		client: client,
		cfg:    cfg,
	}
}

func (g *Gateway) ResolvePricing(ctx context.Context, r usecase.ResolveRequest) (*usecase.PricingView, error) {
	req := RequestPayload{
		SchemaVersion: 1,
		CorrelationID: uuid.New().String(),
		ReplyTo:       fmt.Sprintf("%s%s", TopicReplyPrefix, g.cfg.KafkaInstanceID),
		CatalogID:     r.CatalogID,
		TierID:        r.TierID,
		CouponCode:    r.CouponCode,
		IsMember:      r.IsMember,
		At:            r.At,
	}

	resp, err := g.requestReply(ctx, TopicResolveRequest, []byte(r.CatalogID), req)
	if err != nil {
		return nil, err
	}
	if resp.Status == StatusError {
		return nil, g.mapError(resp.ErrorCode, resp.ErrorMessage)
	}
	if resp.Pricing == nil {
		return nil, errors.New("pricing response without payload")
	}
	return pricingView(resp.Pricing), nil
}

func (g *Gateway) QuoteCart(ctx context.Context, r usecase.CartQuoteRequest) (*usecase.CartQuote, error) {
	req := RequestPayload{
		SchemaVersion: 1,
		CorrelationID: uuid.New().String(),
		ReplyTo:       fmt.Sprintf("%s%s", TopicReplyPrefix, g.cfg.KafkaInstanceID),
		Currency:      r.Currency,
		CouponCode:    r.CouponCode,
		IsMember:      r.IsMember,
	}
	for _, item := range r.Items {
		req.Items = append(req.Items, CartItemPayload{
			ProductRef: item.ProductRef,
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
		})
	}

	resp, err := g.requestReply(ctx, TopicQuoteRequest, []byte(req.CorrelationID), req)
	if err != nil {
		return nil, err
	}
	if resp.Status == StatusError {
		return nil, g.mapError(resp.ErrorCode, resp.ErrorMessage)
	}
	if resp.Quote == nil {
		return nil, errors.New("quote response without payload")
	}
	return &usecase.CartQuote{
		Currency:      resp.Quote.Currency,
		Subtotal:      resp.Quote.Subtotal,
		Discount:      resp.Quote.Discount,
		Total:         resp.Quote.Total,
		DiscountLabel: resp.Quote.DiscountLabel,
	}, nil
}

func (g *Gateway) GetCoupon(ctx context.Context, code string) (*domain.Coupon, error) {
	req := RequestPayload{
		SchemaVersion: 1,
		CorrelationID: uuid.New().String(),
		ReplyTo:       fmt.Sprintf("%s%s", TopicReplyPrefix, g.cfg.KafkaInstanceID),
		CouponCode:    code,
	}

	resp, err := g.requestReply(ctx, TopicCouponRequest, []byte(code), req)
	if err != nil {
		return nil, err
	}
	if resp.Status == StatusError {
		return nil, g.mapError(resp.ErrorCode, resp.ErrorMessage)
	}
	if resp.Coupon == nil {
		return nil, errors.New("coupon response without payload")
	}
	return &domain.Coupon{
		Code:       resp.Coupon.Code,
		PercentOff: resp.Coupon.PercentOff,
		AmountOff:  resp.Coupon.AmountOff,
		Valid:      resp.Coupon.Valid,
	}, nil
}

func (g *Gateway) requestReply(ctx context.Context, topic string, key []byte, req RequestPayload) (*ResponsePayload, error) {
	respChan := make(chan *ResponsePayload, 1)
	g.pendingResp.Store(req.CorrelationID, respChan)
	defer g.pendingResp.Delete(req.CorrelationID)

	payload, _ := json.Marshal(req)
	record := &kgo.Record{
		Topic: topic,
		Key:   key,
		Value: payload,
	}

	if err := g.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return nil, err
	}

	select {
	case resp := <-respChan:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(RequestTimeout):
		return nil, errors.New("timeout waiting for response")
	}
}

func (g *Gateway) HandleResponse(payload []byte) {
	var resp ResponsePayload
	if err := json.Unmarshal(payload, &resp); err != nil {
		log.Printf("Failed to decode response payload: %v", err)
		return
	}

	if ch, ok := g.pendingResp.Load(resp.CorrelationID); ok {
		ch.(chan *ResponsePayload) <- &resp
		return
	}

	log.Printf("No pending response for correlation ID %s", resp.CorrelationID)
}

func (g *Gateway) mapError(code, message string) error {
	switch code {
	case ErrCodeCatalogNotFound:
		return domain.ErrCatalogNotFound
	case ErrCodeTierNotFound:
		return domain.ErrTierNotFound
	case ErrCodeNotFound:
		return domain.ErrNotFound
	case ErrCodeInvalidRequest:
		return domain.ErrInvalidCartItem
	default:
		return errors.New(message)
	}
}

func pricingView(p *PricingPayload) *usecase.PricingView {
	if p == nil {
		return nil
	}
	view := &usecase.PricingView{
		CatalogID:     p.CatalogID,
		EventName:     p.EventName,
		Currency:      p.Currency,
		DefaultTierID: p.DefaultTierID,
		DiscountLabel: p.DiscountLabel,
	}
	for _, item := range p.Tiers {
		view.Tiers = append(view.Tiers, lineItemView(item))
	}
	if p.SelectedTier != nil {
		selected := lineItemView(*p.SelectedTier)
		view.SelectedTier = &selected
	}
	return view
}

func lineItemView(p LineItemPayload) usecase.LineItemView {
	return usecase.LineItemView{
		TierID:         p.TierID,
		Title:          p.Title,
		Description:    p.Description,
		BasePrice:      p.BasePrice,
		EffectivePrice: p.EffectivePrice,
		DiscountLabel:  p.DiscountLabel,
		AutoSelect:     p.AutoSelect,
		Features:       p.Features,
	}
}

var _ usecase.PricingGateway = (*Gateway)(nil)
