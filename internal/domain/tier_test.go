package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func mustTier(t *testing.T, id string, price int64, from, until *time.Time, autoSelect bool) TicketTier {
	t.Helper()
	tier, err := NewTicketTier(id, id, "", decimal.NewFromInt(price), from, until, autoSelect, nil)
	if err != nil {
		t.Fatalf("NewTicketTier(%s): %v", id, err)
	}
	return tier
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse %s: %v", value, err)
	}
	return parsed
}

func atp(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed := at(t, value)
	return &parsed
}

func workshopCatalog(t *testing.T) TierCatalog {
	t.Helper()
	cutover := "2025-12-01T00:00:00Z"
	return TierCatalog{
		ID:        "catalog-1",
		EventName: "Advanced Workshop",
		Currency:  "CHF",
		Tiers: []TicketTier{
			mustTier(t, "early-bird", 525, nil, atp(t, cutover), true),
			mustTier(t, "standard", 595, atp(t, cutover), nil, false),
		},
	}
}

func TestNewTicketTier_NegativePrice(t *testing.T) {
	_, err := NewTicketTier("t1", "Tier", "", decimal.NewFromInt(-1), nil, nil, false, nil)
	if !errors.Is(err, ErrInvalidTier) {
		t.Fatalf("expected ErrInvalidTier, got %v", err)
	}
}

func TestNewTicketTier_WindowInverted(t *testing.T) {
	from := atp(t, "2025-12-01T00:00:00Z")
	until := atp(t, "2025-11-01T00:00:00Z")
	_, err := NewTicketTier("t1", "Tier", "", decimal.NewFromInt(10), from, until, false, nil)
	if !errors.Is(err, ErrInvalidTier) {
		t.Fatalf("expected ErrInvalidTier, got %v", err)
	}
}

func TestActiveTiers_EarlyBirdWindow(t *testing.T) {
	catalog := workshopCatalog(t)

	active := catalog.ActiveTiers(at(t, "2025-11-15T00:00:00Z"))
	if len(active) != 1 || active[0].ID != "early-bird" {
		t.Fatalf("expected [early-bird], got %+v", active)
	}

	def, ok := catalog.DefaultSelection(at(t, "2025-11-15T00:00:00Z"))
	if !ok || def.ID != "early-bird" {
		t.Fatalf("expected early-bird default, got %+v (ok=%v)", def, ok)
	}
}

func TestActiveTiers_AfterCutover(t *testing.T) {
	catalog := workshopCatalog(t)

	active := catalog.ActiveTiers(at(t, "2025-12-15T00:00:00Z"))
	if len(active) != 1 || active[0].ID != "standard" {
		t.Fatalf("expected [standard], got %+v", active)
	}

	// sole active tier becomes the default even without AutoSelect
	def, ok := catalog.DefaultSelection(at(t, "2025-12-15T00:00:00Z"))
	if !ok || def.ID != "standard" {
		t.Fatalf("expected standard default, got %+v (ok=%v)", def, ok)
	}
}

func TestActiveTiers_BoundaryInstantInclusive(t *testing.T) {
	catalog := workshopCatalog(t)

	active := catalog.ActiveTiers(at(t, "2025-12-01T00:00:00Z"))
	if len(active) != 2 {
		t.Fatalf("expected both tiers at the boundary instant, got %+v", active)
	}
	// overlap resolves in catalog order: early-bird first
	if active[0].ID != "early-bird" {
		t.Fatalf("expected early-bird first, got %s", active[0].ID)
	}
}

func TestActiveTiers_BeforeEveryWindow(t *testing.T) {
	from := atp(t, "2025-11-01T00:00:00Z")
	catalog := TierCatalog{
		Currency: "CHF",
		Tiers: []TicketTier{
			mustTier(t, "t1", 100, from, nil, false),
			mustTier(t, "t2", 200, atp(t, "2025-12-01T00:00:00Z"), nil, false),
		},
	}
	active := catalog.ActiveTiers(at(t, "2025-10-01T00:00:00Z"))
	if len(active) != 0 {
		t.Fatalf("expected no active tiers, got %+v", active)
	}
}

func TestActiveTiers_UnboundedAlwaysActive(t *testing.T) {
	catalog := TierCatalog{Currency: "CHF", Tiers: []TicketTier{mustTier(t, "t1", 100, nil, nil, false)}}
	if len(catalog.ActiveTiers(at(t, "1999-01-01T00:00:00Z"))) != 1 {
		t.Fatal("expected unbounded tier to be active")
	}
	if len(catalog.ActiveTiers(at(t, "2999-01-01T00:00:00Z"))) != 1 {
		t.Fatal("expected unbounded tier to be active")
	}
}

func TestDefaultSelection_AmbiguousNeedsExplicitChoice(t *testing.T) {
	catalog := TierCatalog{
		Currency: "CHF",
		Tiers: []TicketTier{
			mustTier(t, "t1", 100, nil, nil, false),
			mustTier(t, "t2", 200, nil, nil, false),
		},
	}
	if _, ok := catalog.DefaultSelection(at(t, "2025-11-15T00:00:00Z")); ok {
		t.Fatal("expected no default with multiple active tiers and no auto-select")
	}
}

func TestDefaultSelection_AutoSelectWins(t *testing.T) {
	catalog := TierCatalog{
		Currency: "CHF",
		Tiers: []TicketTier{
			mustTier(t, "t1", 100, nil, nil, false),
			mustTier(t, "t2", 200, nil, nil, true),
		},
	}
	def, ok := catalog.DefaultSelection(at(t, "2025-11-15T00:00:00Z"))
	if !ok || def.ID != "t2" {
		t.Fatalf("expected t2 default, got %+v (ok=%v)", def, ok)
	}
}
