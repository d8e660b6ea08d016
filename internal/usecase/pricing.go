package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/communityconf/ticketing/internal/domain"
	"github.com/communityconf/ticketing/internal/repository"
)

// ResolveRequest asks for the purchasable view of one catalog. At defaults
// to the current instant; TierID optionally prices a single selected tier.
type ResolveRequest struct {
	CatalogID  string
	CouponCode string
	IsMember   bool
	At         *time.Time
	TierID     string
}

// LineItemView is one tier with its discounted price, ready for display.
type LineItemView struct {
	TierID         string
	Title          string
	Description    string
	BasePrice      decimal.Decimal
	EffectivePrice decimal.Decimal
	DiscountLabel  string
	AutoSelect     bool
	Features       []string
}

// PricingView is the resolver output handed to checkout.
type PricingView struct {
	CatalogID     string
	EventName     string
	Currency      string
	Tiers         []LineItemView
	DefaultTierID string
	DiscountLabel string
	SelectedTier  *LineItemView
}

type CartQuoteItem struct {
	ProductRef string
	UnitPrice  decimal.Decimal
	Quantity   int
}

type CartQuoteRequest struct {
	Currency   string
	Items      []CartQuoteItem
	CouponCode string
	IsMember   bool
}

type CartQuote struct {
	Currency      string
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	DiscountLabel string
}

type PricingService struct {
	store           repository.Store
	defaultCurrency string
}

func NewPricingService(store repository.Store, defaultCurrency string) *PricingService {
	return &PricingService{store: store, defaultCurrency: defaultCurrency}
}

// ResolvePricing loads the catalog and the optional coupon, decides the
// active discount, and projects the purchasable tiers.
func (s *PricingService) ResolvePricing(ctx context.Context, req ResolveRequest) (*PricingView, error) {
	catalog, err := s.store.GetCatalog(ctx, req.CatalogID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCatalogNotFound
		}
		return nil, err
	}
	if catalog.Currency == "" {
		catalog.Currency = s.defaultCurrency
	}

	now := time.Now()
	if req.At != nil {
		now = *req.At
	}

	discount := s.resolveDiscount(ctx, req.CouponCode, req.IsMember)
	resolution := domain.Resolve(catalog, now, discount)

	view := &PricingView{
		CatalogID:     catalog.ID,
		EventName:     catalog.EventName,
		Currency:      catalog.Currency,
		DiscountLabel: discount.Label(catalog.Currency),
	}
	for _, tier := range resolution.ActiveTiers {
		item, err := resolution.LineItemFor(tier.ID)
		if err != nil {
			return nil, err
		}
		view.Tiers = append(view.Tiers, lineItemView(item))
	}
	if resolution.DefaultTier != nil {
		view.DefaultTierID = resolution.DefaultTier.ID
	}
	if req.TierID != "" {
		item, err := resolution.LineItemFor(req.TierID)
		if err != nil {
			return nil, err
		}
		selected := lineItemView(item)
		view.SelectedTier = &selected
	}
	return view, nil
}

// QuoteCart sums the given line items and applies one discount to the
// subtotal. Items are assumed still available; windows are not re-checked.
func (s *PricingService) QuoteCart(ctx context.Context, req CartQuoteRequest) (*CartQuote, error) {
	currency := req.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}

	cart := &domain.Cart{Currency: currency}
	for _, item := range req.Items {
		if err := cart.AddItem(item.ProductRef, item.UnitPrice, item.Quantity); err != nil {
			return nil, err
		}
	}

	discount := s.resolveDiscount(ctx, req.CouponCode, req.IsMember)
	subtotal := cart.Subtotal()
	total := cart.Total(discount)

	return &CartQuote{
		Currency:      currency,
		Subtotal:      subtotal,
		Discount:      subtotal.Sub(total),
		Total:         total,
		DiscountLabel: discount.Label(currency),
	}, nil
}

// resolveDiscount turns external signals into the single active rule. An
// unknown or invalid coupon is a normal branch, not an error: it falls back
// to the membership discount or none.
func (s *PricingService) resolveDiscount(ctx context.Context, couponCode string, isMember bool) domain.DiscountContext {
	var lookup *domain.CouponLookup
	if couponCode != "" {
		coupon, err := s.store.GetCoupon(ctx, couponCode)
		if err == nil {
			l := coupon.Lookup()
			lookup = &l
		} else if !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("Coupon lookup failed for %q, pricing without it: %v", couponCode, err)
		}
	}

	discount, err := domain.ResolveDiscount(lookup, isMember)
	if err != nil {
		log.Printf("Discount anomaly: %v", err)
	}
	return discount
}

// CreateCatalog validates and stores a catalog with its tiers in one
// transaction. Catalog order is preserved; it decides overlap precedence.
func (s *PricingService) CreateCatalog(ctx context.Context, eventName, currency string, tiers []domain.TicketTier) (string, error) {
	if currency == "" {
		currency = s.defaultCurrency
	}

	autoSelected := 0
	for _, tier := range tiers {
		if _, err := domain.NewTicketTier(tier.ID, tier.Title, tier.Description, tier.BasePrice, tier.AvailableFrom, tier.AvailableUntil, tier.AutoSelect, tier.Features); err != nil {
			return "", err
		}
		if tier.AutoSelect {
			autoSelected++
		}
	}
	if autoSelected > 1 {
		return "", domain.ErrInvalidTier
	}

	id := uuid.New().String()
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		if err := q.InsertCatalog(ctx, id, eventName, currency); err != nil {
			return err
		}
		for i, tier := range tiers {
			if err := q.InsertTier(ctx, id, i, tier); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *PricingService) GetCatalog(ctx context.Context, id string) (domain.TierCatalog, error) {
	catalog, err := s.store.GetCatalog(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TierCatalog{}, domain.ErrCatalogNotFound
		}
		return domain.TierCatalog{}, err
	}
	return catalog, nil
}

// CreateCoupon stores a coupon carrying exactly one of a percent or an
// amount reduction.
func (s *PricingService) CreateCoupon(ctx context.Context, coupon domain.Coupon) error {
	if coupon.Code == "" {
		return domain.ErrInvalidDiscountInput
	}
	if (coupon.PercentOff == nil) == (coupon.AmountOff == nil) {
		return domain.ErrInvalidDiscountInput
	}
	if coupon.PercentOff != nil && (coupon.PercentOff.IsNegative() || coupon.PercentOff.GreaterThan(decimal.NewFromInt(100))) {
		return domain.ErrInvalidDiscountInput
	}
	if coupon.AmountOff != nil && coupon.AmountOff.IsNegative() {
		return domain.ErrInvalidDiscountInput
	}

	if err := s.store.InsertCoupon(ctx, coupon); err != nil {
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "unique constraint") {
			return domain.ErrDuplicateCoupon
		}
		return err
	}
	return nil
}

func (s *PricingService) GetCoupon(ctx context.Context, code string) (*domain.Coupon, error) {
	coupon, err := s.store.GetCoupon(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &coupon, nil
}

// InvalidateCoupon flips a coupon to invalid. Pricing then treats the code
// like any unknown coupon.
func (s *PricingService) InvalidateCoupon(ctx context.Context, code string) error {
	affected, err := s.store.SetCouponValid(ctx, code, false)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func lineItemView(item domain.ResolvedLineItem) LineItemView {
	return LineItemView{
		TierID:         item.Tier.ID,
		Title:          item.Tier.Title,
		Description:    item.Tier.Description,
		BasePrice:      item.Tier.BasePrice,
		EffectivePrice: item.EffectivePrice,
		DiscountLabel:  item.DiscountLabel,
		AutoSelect:     item.Tier.AutoSelect,
		Features:       item.Tier.Features,
	}
}
