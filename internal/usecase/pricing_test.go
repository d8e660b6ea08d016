package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/communityconf/ticketing/internal/domain"
	"github.com/communityconf/ticketing/internal/repository"
)

type mockStore struct {
	getCatalogFn     func(ctx context.Context, id string) (domain.TierCatalog, error)
	getCouponFn      func(ctx context.Context, code string) (domain.Coupon, error)
	insertCouponFn   func(ctx context.Context, coupon domain.Coupon) error
	setCouponValidFn func(ctx context.Context, code string, valid bool) (int64, error)
	execTxFn         func(ctx context.Context, fn func(repository.Querier) error) error
}

func (m *mockStore) GetCatalog(ctx context.Context, id string) (domain.TierCatalog, error) {
	if m.getCatalogFn != nil {
		return m.getCatalogFn(ctx, id)
	}
	return domain.TierCatalog{}, pgx.ErrNoRows
}

func (m *mockStore) GetCoupon(ctx context.Context, code string) (domain.Coupon, error) {
	if m.getCouponFn != nil {
		return m.getCouponFn(ctx, code)
	}
	return domain.Coupon{}, pgx.ErrNoRows
}

func (m *mockStore) InsertCoupon(ctx context.Context, coupon domain.Coupon) error {
	if m.insertCouponFn != nil {
		return m.insertCouponFn(ctx, coupon)
	}
	return nil
}

func (m *mockStore) SetCouponValid(ctx context.Context, code string, valid bool) (int64, error) {
	if m.setCouponValidFn != nil {
		return m.setCouponValidFn(ctx, code, valid)
	}
	return 1, nil
}

func (m *mockStore) ExecTx(ctx context.Context, fn func(repository.Querier) error) error {
	if m.execTxFn != nil {
		return m.execTxFn(ctx, fn)
	}
	return nil
}

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %s: %v", value, err)
	}
	return d
}

func decp(t *testing.T, value string) *decimal.Decimal {
	t.Helper()
	d := dec(t, value)
	return &d
}

func timep(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %s: %v", value, err)
	}
	return &parsed
}

func testCatalog(t *testing.T) domain.TierCatalog {
	t.Helper()
	cutover := timep(t, "2025-12-01T00:00:00Z")
	return domain.TierCatalog{
		ID:        "catalog-1",
		EventName: "Advanced Workshop",
		Currency:  "CHF",
		Tiers: []domain.TicketTier{
			{ID: "early-bird", Title: "Early Bird", BasePrice: dec(t, "525"), AvailableUntil: cutover, AutoSelect: true},
			{ID: "standard", Title: "Standard", BasePrice: dec(t, "595"), AvailableFrom: cutover},
		},
	}
}

func TestResolvePricing_CatalogNotFound(t *testing.T) {
	svc := NewPricingService(&mockStore{}, "CHF")

	_, err := svc.ResolvePricing(context.Background(), ResolveRequest{CatalogID: "nope"})
	if !errors.Is(err, domain.ErrCatalogNotFound) {
		t.Fatalf("expected ErrCatalogNotFound, got %v", err)
	}
}

func TestResolvePricing_CouponApplied(t *testing.T) {
	store := &mockStore{
		getCatalogFn: func(ctx context.Context, id string) (domain.TierCatalog, error) {
			return testCatalog(t), nil
		},
		getCouponFn: func(ctx context.Context, code string) (domain.Coupon, error) {
			return domain.Coupon{Code: code, PercentOff: decp(t, "20"), Valid: true}, nil
		},
	}
	svc := NewPricingService(store, "CHF")

	view, err := svc.ResolvePricing(context.Background(), ResolveRequest{
		CatalogID:  "catalog-1",
		CouponCode: "SAVE20",
		IsMember:   true,
		At:         timep(t, "2025-11-15T00:00:00Z"),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(view.Tiers) != 1 || view.Tiers[0].TierID != "early-bird" {
		t.Fatalf("expected [early-bird], got %+v", view.Tiers)
	}
	// coupon wins over membership
	if !view.Tiers[0].EffectivePrice.Equal(dec(t, "420")) {
		t.Fatalf("expected 420, got %s", view.Tiers[0].EffectivePrice)
	}
	if view.DefaultTierID != "early-bird" {
		t.Fatalf("expected early-bird default, got %s", view.DefaultTierID)
	}
	if view.DiscountLabel != "20%" {
		t.Fatalf("expected label 20%%, got %s", view.DiscountLabel)
	}
}

func TestResolvePricing_UnknownCouponFallsBackToMembership(t *testing.T) {
	store := &mockStore{
		getCatalogFn: func(ctx context.Context, id string) (domain.TierCatalog, error) {
			return testCatalog(t), nil
		},
	}
	svc := NewPricingService(store, "CHF")

	view, err := svc.ResolvePricing(context.Background(), ResolveRequest{
		CatalogID:  "catalog-1",
		CouponCode: "NOPE",
		IsMember:   true,
		At:         timep(t, "2025-11-15T00:00:00Z"),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !view.Tiers[0].EffectivePrice.Equal(dec(t, "420")) {
		t.Fatalf("expected membership price 420, got %s", view.Tiers[0].EffectivePrice)
	}
}

func TestResolvePricing_BrokenCouponDegradesToNoDiscount(t *testing.T) {
	store := &mockStore{
		getCatalogFn: func(ctx context.Context, id string) (domain.TierCatalog, error) {
			return testCatalog(t), nil
		},
		getCouponFn: func(ctx context.Context, code string) (domain.Coupon, error) {
			return domain.Coupon{Code: code, Valid: true}, nil
		},
	}
	svc := NewPricingService(store, "CHF")

	view, err := svc.ResolvePricing(context.Background(), ResolveRequest{
		CatalogID:  "catalog-1",
		CouponCode: "BROKEN",
		At:         timep(t, "2025-11-15T00:00:00Z"),
	})
	if err != nil {
		t.Fatalf("anomaly must not surface, got %v", err)
	}
	if !view.Tiers[0].EffectivePrice.Equal(dec(t, "525")) {
		t.Fatalf("expected undiscounted 525, got %s", view.Tiers[0].EffectivePrice)
	}
}

func TestResolvePricing_SelectedTierExpired(t *testing.T) {
	store := &mockStore{
		getCatalogFn: func(ctx context.Context, id string) (domain.TierCatalog, error) {
			return testCatalog(t), nil
		},
	}
	svc := NewPricingService(store, "CHF")

	_, err := svc.ResolvePricing(context.Background(), ResolveRequest{
		CatalogID: "catalog-1",
		TierID:    "early-bird",
		At:        timep(t, "2025-12-15T00:00:00Z"),
	})
	if !errors.Is(err, domain.ErrTierNotFound) {
		t.Fatalf("expected ErrTierNotFound, got %v", err)
	}
}

func TestQuoteCart(t *testing.T) {
	svc := NewPricingService(&mockStore{}, "CHF")

	quote, err := svc.QuoteCart(context.Background(), CartQuoteRequest{
		Items: []CartQuoteItem{
			{ProductRef: "ticket-a", UnitPrice: dec(t, "50"), Quantity: 2},
			{ProductRef: "ticket-b", UnitPrice: dec(t, "30"), Quantity: 1},
		},
		IsMember: true,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !quote.Subtotal.Equal(dec(t, "130")) {
		t.Fatalf("expected subtotal 130, got %s", quote.Subtotal)
	}
	if !quote.Total.Equal(dec(t, "104")) {
		t.Fatalf("expected total 104, got %s", quote.Total)
	}
	if !quote.Discount.Equal(dec(t, "26")) {
		t.Fatalf("expected discount 26, got %s", quote.Discount)
	}
	if quote.Currency != "CHF" {
		t.Fatalf("expected CHF default currency, got %s", quote.Currency)
	}
}

func TestQuoteCart_InvalidItem(t *testing.T) {
	svc := NewPricingService(&mockStore{}, "CHF")

	_, err := svc.QuoteCart(context.Background(), CartQuoteRequest{
		Items: []CartQuoteItem{{ProductRef: "ticket-a", UnitPrice: dec(t, "-5"), Quantity: 1}},
	})
	if !errors.Is(err, domain.ErrInvalidCartItem) {
		t.Fatalf("expected ErrInvalidCartItem, got %v", err)
	}
}

func TestCreateCoupon_Duplicate(t *testing.T) {
	store := &mockStore{
		insertCouponFn: func(ctx context.Context, coupon domain.Coupon) error {
			return errors.New("duplicate key value violates unique constraint")
		},
	}
	svc := NewPricingService(store, "CHF")

	err := svc.CreateCoupon(context.Background(), domain.Coupon{Code: "SAVE20", PercentOff: decp(t, "20"), Valid: true})
	if !errors.Is(err, domain.ErrDuplicateCoupon) {
		t.Fatalf("expected ErrDuplicateCoupon, got %v", err)
	}
}

func TestCreateCoupon_RejectsBothOrNeither(t *testing.T) {
	svc := NewPricingService(&mockStore{}, "CHF")

	err := svc.CreateCoupon(context.Background(), domain.Coupon{Code: "BOTH", PercentOff: decp(t, "20"), AmountOff: decp(t, "10")})
	if !errors.Is(err, domain.ErrInvalidDiscountInput) {
		t.Fatalf("expected ErrInvalidDiscountInput for both, got %v", err)
	}

	err = svc.CreateCoupon(context.Background(), domain.Coupon{Code: "NEITHER"})
	if !errors.Is(err, domain.ErrInvalidDiscountInput) {
		t.Fatalf("expected ErrInvalidDiscountInput for neither, got %v", err)
	}
}

func TestCreateCatalog_MultipleAutoSelect(t *testing.T) {
	svc := NewPricingService(&mockStore{}, "CHF")

	_, err := svc.CreateCatalog(context.Background(), "Meetup", "CHF", []domain.TicketTier{
		{ID: "t1", Title: "A", BasePrice: dec(t, "10"), AutoSelect: true},
		{ID: "t2", Title: "B", BasePrice: dec(t, "20"), AutoSelect: true},
	})
	if !errors.Is(err, domain.ErrInvalidTier) {
		t.Fatalf("expected ErrInvalidTier, got %v", err)
	}
}

func TestInvalidateCoupon_NotFound(t *testing.T) {
	store := &mockStore{
		setCouponValidFn: func(ctx context.Context, code string, valid bool) (int64, error) {
			return 0, nil
		},
	}
	svc := NewPricingService(store, "CHF")

	err := svc.InvalidateCoupon(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
