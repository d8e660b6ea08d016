package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestResolve_LineItemPricing(t *testing.T) {
	catalog := workshopCatalog(t)
	discount := DiscountContext{Kind: DiscountPercentOff, Code: "SAVE20", Percent: dec("20")}

	res := Resolve(catalog, at(t, "2025-11-15T00:00:00Z"), discount)
	item, err := res.LineItemFor("early-bird")
	if err != nil {
		t.Fatalf("expected line item, got %v", err)
	}
	if !item.EffectivePrice.Equal(dec("420")) {
		t.Fatalf("expected 420, got %s", item.EffectivePrice)
	}
	if item.DiscountLabel != "20%" {
		t.Fatalf("expected label 20%%, got %s", item.DiscountLabel)
	}
}

func TestResolve_ExpiredTierSurfaced(t *testing.T) {
	catalog := workshopCatalog(t)

	// early-bird was on the page, but its window closed before checkout
	res := Resolve(catalog, at(t, "2025-12-15T00:00:00Z"), NoDiscount())
	_, err := res.LineItemFor("early-bird")
	if !errors.Is(err, ErrTierNotFound) {
		t.Fatalf("expected ErrTierNotFound, got %v", err)
	}
}

func TestResolve_UnknownTier(t *testing.T) {
	res := Resolve(workshopCatalog(t), at(t, "2025-11-15T00:00:00Z"), NoDiscount())
	if _, err := res.LineItemFor("vip"); !errors.Is(err, ErrTierNotFound) {
		t.Fatalf("expected ErrTierNotFound, got %v", err)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	catalog := workshopCatalog(t)
	now := at(t, "2025-11-15T00:00:00Z")
	discount := DiscountContext{Kind: DiscountMembership, Percent: dec("20")}

	first := Resolve(catalog, now, discount)
	second := Resolve(catalog, now, discount)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs produced different resolutions:\n%+v\n%+v", first, second)
	}
}
