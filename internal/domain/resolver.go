package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResolvedLineItem is one tier's price after the active discount. It is a
// pure projection: computed on demand, never mutated, never persisted.
type ResolvedLineItem struct {
	Tier           TicketTier
	EffectivePrice decimal.Decimal
	DiscountLabel  string
}

// Resolution is the purchasable view of a catalog at one instant under one
// discount rule.
type Resolution struct {
	ActiveTiers []TicketTier
	DefaultTier *TicketTier
	Discount    DiscountContext
	Currency    string
}

// Resolve computes the purchasable view. It is a pure function of its
// inputs: identical arguments always yield an identical resolution.
func Resolve(catalog TierCatalog, now time.Time, discount DiscountContext) Resolution {
	res := Resolution{
		ActiveTiers: catalog.ActiveTiers(now),
		Discount:    discount,
		Currency:    catalog.Currency,
	}
	if tier, ok := catalog.DefaultSelection(now); ok {
		res.DefaultTier = &tier
	}
	return res
}

// LineItemFor prices a single tier out of the active set. A tier whose
// window expired between page load and checkout is reported as
// ErrTierNotFound so the caller can ask the user to refresh, rather than
// quoting a stale price.
func (r Resolution) LineItemFor(tierID string) (ResolvedLineItem, error) {
	for _, t := range r.ActiveTiers {
		if t.ID == tierID {
			return ResolvedLineItem{
				Tier:           t,
				EffectivePrice: r.Discount.EffectivePrice(t.BasePrice),
				DiscountLabel:  r.Discount.Label(r.Currency),
			}, nil
		}
	}
	return ResolvedLineItem{}, ErrTierNotFound
}
