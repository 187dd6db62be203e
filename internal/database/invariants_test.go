package database

import (
	"testing"

	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
)

// TestInvariantInitialisedFactionIsPlayable exercises spec property 3:
// every initialised account's faction is one of RED/GREEN/BLUE.
func TestInvariantInitialisedFactionIsPlayable(t *testing.T) {
	s := newTestStore(t)
	accounts := NewAccountsTable(s, NewTracker())

	h, _ := accounts.CreateNew("dave")
	h.Mutable().Faction = config.FactionGreen
	h.Release()

	reloaded, _ := accounts.GetByName("dave")
	defer reloaded.Release()

	if !reloaded.Get().IsInitialised() {
		t.Fatal("expected account with faction=green to be initialised")
	}
	switch reloaded.Get().Faction {
	case config.FactionRed, config.FactionGreen, config.FactionBlue:
	default:
		t.Fatalf("initialised account has non-playable faction %v", reloaded.Get().Faction)
	}
}

// TestInvariantGroundLootAbsentIffEmpty exercises the "absent iff empty"
// lifecycle rule from spec.md §3 for ground loot rows.
func TestInvariantGroundLootAbsentIffEmpty(t *testing.T) {
	s := newTestStore(t)
	loot := NewGroundLootTable(s, NewTracker())
	pos := hexcoord.NewCoord(7, 7)

	h, err := loot.Get(pos)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	h.Mutable().Add("ore", 10)
	if err := h.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	h2, _ := loot.Get(pos)
	if h2.Inventory().Get("ore") != 10 {
		t.Fatalf("expected 10 ore, got %d", h2.Inventory().Get("ore"))
	}
	h2.Mutable().Add("ore", -10)
	if err := h2.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	h3, _ := loot.Get(pos)
	if h3.existed {
		t.Fatal("expected the ground-loot row to be deleted once drained to empty")
	}
	if h3.Inventory().Get("ore") != 0 {
		t.Fatalf("expected empty inventory after draining to zero, got %v", h3.Inventory())
	}
	h3.Release()
}

// TestInvariantItemCountsTrackMutations exercises the supplemented
// money-supply/item-count running totals.
func TestInvariantItemCountsTrackMutations(t *testing.T) {
	s := newTestStore(t)
	counts := NewItemCounts(s)

	if err := counts.AdjustMoneySupply(1000); err != nil {
		t.Fatalf("AdjustMoneySupply() error = %v", err)
	}
	if err := counts.AdjustItemCount("ore", 50); err != nil {
		t.Fatalf("AdjustItemCount() error = %v", err)
	}

	supply, err := counts.MoneySupply()
	if err != nil || supply != 1000 {
		t.Fatalf("expected money supply 1000, got %d err=%v", supply, err)
	}
	oreCount, err := counts.ItemCount("ore")
	if err != nil || oreCount != 50 {
		t.Fatalf("expected ore count 50, got %d err=%v", oreCount, err)
	}
}
