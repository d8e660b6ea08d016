package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/communityconf/ticketing/internal/config"
	"github.com/communityconf/ticketing/internal/domain"
	"github.com/communityconf/ticketing/internal/usecase"
)

type Consumer struct {
	client  *kgo.Client
	cfg     *config.Config
	service *usecase.PricingService
	ready   chan struct{}
}

func NewConsumer(cfg *config.Config, client *kgo.Client, service *usecase.PricingService) *Consumer {
	return &Consumer{
		client:  client,
		cfg:     cfg,
		service: service,
		ready:   make(chan struct{}),
	}
}

func (c *Consumer) Start(ctx context.Context) {
	close(c.ready)
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			log.Printf("Consumer poll errors: %v", errs)
		}

		iter := fetches.RecordIter()
		for !iter.Done() {
			record := iter.Next()
			c.processRecord(ctx, record)
		}

		if err := c.client.CommitRecords(ctx, fetches.Records()...); err != nil {
			log.Printf("Failed to commit records: %v", err)
		}
	}
}

func (c *Consumer) StartRetry(ctx context.Context) {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return
		}
		iter := fetches.RecordIter()
		for !iter.Done() {
			record := iter.Next()

			if nextAt, ok := retryNextAt(record); ok && time.Now().Before(nextAt) {
				time.Sleep(time.Until(nextAt))
			}

			mainTopic := strings.TrimSuffix(record.Topic, TopicRetrySuffix) + TopicRequestSuffix
			newRecord := &kgo.Record{
				Topic:   mainTopic,
				Key:     record.Key,
				Value:   record.Value,
				Headers: record.Headers,
			}
			if err := c.client.ProduceSync(ctx, newRecord).FirstErr(); err != nil {
				log.Printf("Failed to requeue retry record: %v", err)
			}
		}
		if err := c.client.CommitRecords(ctx, fetches.Records()...); err != nil {
			log.Printf("Failed to commit retry records: %v", err)
		}
	}
}

func (c *Consumer) Ready() <-chan struct{} {
	return c.ready
}

func (c *Consumer) processRecord(ctx context.Context, record *kgo.Record) {
	switch record.Topic {
	case TopicResolveRequest:
		c.handleResolve(ctx, record)
	case TopicQuoteRequest:
		c.handleQuote(ctx, record)
	case TopicCouponRequest:
		c.handleCoupon(ctx, record)
	}
}

func (c *Consumer) handleResolve(ctx context.Context, record *kgo.Record) {
	var req RequestPayload
	if err := json.Unmarshal(record.Value, &req); err != nil {
		c.sendError(ctx, record, ErrCodeInvalidRequest, "invalid request payload")
		return
	}

	view, err := c.service.ResolvePricing(ctx, usecase.ResolveRequest{
		CatalogID:  req.CatalogID,
		TierID:     req.TierID,
		CouponCode: req.CouponCode,
		IsMember:   req.IsMember,
		At:         req.At,
	})
	var finalResp *ResponsePayload
	if err != nil {
		code, message := mapServiceError(err)
		finalResp = errorResponse(req.CorrelationID, code, message)
	} else {
		finalResp = successResponse(req.CorrelationID)
		finalResp.Pricing = pricingPayload(view)
	}

	c.sendResponse(ctx, req.ReplyTo, finalResp)
}

func (c *Consumer) handleQuote(ctx context.Context, record *kgo.Record) {
	var req RequestPayload
	if err := json.Unmarshal(record.Value, &req); err != nil {
		c.sendError(ctx, record, ErrCodeInvalidRequest, "invalid request payload")
		return
	}

	quoteReq := usecase.CartQuoteRequest{
		Currency:   req.Currency,
		CouponCode: req.CouponCode,
		IsMember:   req.IsMember,
	}
	for _, item := range req.Items {
		quoteReq.Items = append(quoteReq.Items, usecase.CartQuoteItem{
			ProductRef: item.ProductRef,
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
		})
	}

	quote, err := c.service.QuoteCart(ctx, quoteReq)
	var finalResp *ResponsePayload
	if err != nil {
		code, message := mapServiceError(err)
		finalResp = errorResponse(req.CorrelationID, code, message)
	} else {
		finalResp = successResponse(req.CorrelationID)
		finalResp.Quote = &QuotePayload{
			Currency:      quote.Currency,
			Subtotal:      quote.Subtotal,
			Discount:      quote.Discount,
			Total:         quote.Total,
			DiscountLabel: quote.DiscountLabel,
		}
	}

	c.sendResponse(ctx, req.ReplyTo, finalResp)
}

func (c *Consumer) handleCoupon(ctx context.Context, record *kgo.Record) {
	var req RequestPayload
	if err := json.Unmarshal(record.Value, &req); err != nil {
		c.sendError(ctx, record, ErrCodeInvalidRequest, "invalid request payload")
		return
	}

	coupon, err := c.service.GetCoupon(ctx, req.CouponCode)
	var finalResp *ResponsePayload
	if err != nil {
		code, message := mapServiceError(err)
		finalResp = errorResponse(req.CorrelationID, code, message)
	} else {
		finalResp = successResponse(req.CorrelationID)
		finalResp.Coupon = &CouponPayload{
			Code:       coupon.Code,
			PercentOff: coupon.PercentOff,
			AmountOff:  coupon.AmountOff,
			Valid:      coupon.Valid,
		}
	}

	c.sendResponse(ctx, req.ReplyTo, finalResp)
}

func (c *Consumer) sendResponse(ctx context.Context, topic string, resp *ResponsePayload) {
	payload, _ := json.Marshal(resp)
	record := &kgo.Record{
		Topic: topic,
		Value: payload,
	}
	if err := c.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		log.Printf("Failed to send response to %s: %v", topic, err)
	}
}

func (c *Consumer) sendError(ctx context.Context, record *kgo.Record, code, message string) {
	var req RequestPayload
	_ = json.Unmarshal(record.Value, &req)

	resp := errorResponse(req.CorrelationID, code, message)
	if req.ReplyTo != "" {
		c.sendResponse(ctx, req.ReplyTo, resp)
	}

	dlqTopic := record.Topic + TopicDLQSuffix
	dlqRecord := &kgo.Record{
		Topic: dlqTopic,
		Value: record.Value,
		Headers: []kgo.RecordHeader{
			{Key: ErrorHeaderKey, Value: []byte(message)},
		},
	}
	_ = c.client.ProduceSync(ctx, dlqRecord).FirstErr()
}

func retryNextAt(record *kgo.Record) (time.Time, bool) {
	for _, header := range record.Headers {
		if header.Key != RetryHeaderNextAt {
			continue
		}
		nextAt, err := time.Parse(time.RFC3339, string(header.Value))
		if err != nil {
			return time.Time{}, false
		}
		return nextAt, true
	}

	return time.Time{}, false
}

func successResponse(correlationID string) *ResponsePayload {
	return &ResponsePayload{
		SchemaVersion: 1,
		CorrelationID: correlationID,
		Status:        StatusSuccess,
	}
}

func errorResponse(correlationID, code, message string) *ResponsePayload {
	return &ResponsePayload{
		SchemaVersion: 1,
		CorrelationID: correlationID,
		Status:        StatusError,
		ErrorCode:     code,
		ErrorMessage:  message,
	}
}

func mapServiceError(err error) (string, string) {
	message := err.Error()
	switch {
	case errors.Is(err, domain.ErrCatalogNotFound):
		return ErrCodeCatalogNotFound, message
	case errors.Is(err, domain.ErrTierNotFound):
		return ErrCodeTierNotFound, message
	case errors.Is(err, domain.ErrNotFound):
		return ErrCodeNotFound, message
	case errors.Is(err, domain.ErrInvalidCartItem), errors.Is(err, domain.ErrInvalidTier):
		return ErrCodeInvalidRequest, message
	default:
		return ErrCodeInternalError, message
	}
}

func pricingPayload(view *usecase.PricingView) *PricingPayload {
	if view == nil {
		return nil
	}
	payload := &PricingPayload{
		CatalogID:     view.CatalogID,
		EventName:     view.EventName,
		Currency:      view.Currency,
		DefaultTierID: view.DefaultTierID,
		DiscountLabel: view.DiscountLabel,
	}
	for _, item := range view.Tiers {
		payload.Tiers = append(payload.Tiers, lineItemPayload(item))
	}
	if view.SelectedTier != nil {
		selected := lineItemPayload(*view.SelectedTier)
		payload.SelectedTier = &selected
	}
	return payload
}

func lineItemPayload(item usecase.LineItemView) LineItemPayload {
	return LineItemPayload{
		TierID:         item.TierID,
		Title:          item.Title,
		Description:    item.Description,
		BasePrice:      item.BasePrice,
		EffectivePrice: item.EffectivePrice,
		DiscountLabel:  item.DiscountLabel,
		AutoSelect:     item.AutoSelect,
		Features:       item.Features,
	}
}
