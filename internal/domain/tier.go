package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TicketTier is one purchasable ticket option with its own price and an
// optional validity window. Both window bounds are inclusive of the instant.
type TicketTier struct {
	ID             string
	Title          string
	Description    string
	BasePrice      decimal.Decimal
	AvailableFrom  *time.Time
	AvailableUntil *time.Time
	AutoSelect     bool
	Features       []string
}

// NewTicketTier validates the fields that would otherwise produce silently
// wrong prices downstream.
func NewTicketTier(id, title, description string, basePrice decimal.Decimal, from, until *time.Time, autoSelect bool, features []string) (TicketTier, error) {
	if id == "" {
		return TicketTier{}, fmt.Errorf("%w: missing id", ErrInvalidTier)
	}
	if basePrice.IsNegative() {
		return TicketTier{}, fmt.Errorf("%w: negative base price %s", ErrInvalidTier, basePrice)
	}
	if from != nil && until != nil && until.Before(*from) {
		return TicketTier{}, fmt.Errorf("%w: available_until precedes available_from", ErrInvalidTier)
	}
	return TicketTier{
		ID:             id,
		Title:          title,
		Description:    description,
		BasePrice:      basePrice,
		AvailableFrom:  from,
		AvailableUntil: until,
		AutoSelect:     autoSelect,
		Features:       features,
	}, nil
}

// ActiveAt reports whether the tier is purchasable at the given instant.
// Tiers without bounds are always active.
func (t TicketTier) ActiveAt(now time.Time) bool {
	if t.AvailableFrom != nil && now.Before(*t.AvailableFrom) {
		return false
	}
	if t.AvailableUntil != nil && now.After(*t.AvailableUntil) {
		return false
	}
	return true
}

// TierCatalog is an ordered list of tiers for one event. Order matters:
// if validity windows overlap, the first matching tier wins.
type TierCatalog struct {
	ID        string
	EventName string
	Currency  string
	Tiers     []TicketTier
}

// ActiveTiers returns the tiers purchasable at the given instant, in
// catalog order.
func (c TierCatalog) ActiveTiers(now time.Time) []TicketTier {
	active := make([]TicketTier, 0, len(c.Tiers))
	for _, t := range c.Tiers {
		if t.ActiveAt(now) {
			active = append(active, t)
		}
	}
	return active
}

// DefaultSelection picks the tier a checkout should preselect: the active
// tier flagged AutoSelect, else the sole active tier. With several active
// tiers and no AutoSelect flag the caller must require an explicit choice.
func (c TierCatalog) DefaultSelection(now time.Time) (TicketTier, bool) {
	active := c.ActiveTiers(now)
	for _, t := range active {
		if t.AutoSelect {
			return t, true
		}
	}
	if len(active) == 1 {
		return active[0], true
	}
	return TicketTier{}, false
}
