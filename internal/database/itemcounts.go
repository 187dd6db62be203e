package database

import (
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/store"
)

// ItemCounts tracks process-wide running totals for money supply and
// per-item counts across the whole game world, grounded on
// original_source/src/itemcounts.cpp's "global counters updated
// incrementally alongside every mutation that creates or destroys items
// or coins" (SPEC_FULL.md's supplemented feature). Backed by the store's
// generic counters table rather than a dedicated one, since these are
// scalar running totals with no row identity of their own.
type ItemCounts struct {
	store *store.Store
}

// NewItemCounts constructs an ItemCounts view over the store.
func NewItemCounts(s *store.Store) *ItemCounts {
	return &ItemCounts{store: s}
}

const moneySupplyKey = "money_supply"

func itemCountKey(item string) string { return "item_count:" + item }

func prizesFoundKey(prize string) string { return "prize_found:" + prize }

// MoneySupply returns the current total coin balance across all accounts.
func (c *ItemCounts) MoneySupply() (int64, error) {
	return c.store.Counter(moneySupplyKey)
}

// AdjustMoneySupply applies delta (positive on mint, negative on burn) to
// the tracked money supply. Ordinary account-to-account transfers must
// not call this: the supply only changes on mint/burn.
func (c *ItemCounts) AdjustMoneySupply(delta int64) error {
	if _, err := c.store.AddToCounter(moneySupplyKey, delta); err != nil {
		return fmt.Errorf("database: adjust money supply: %w", err)
	}
	return nil
}

// ItemCount returns the current total quantity of item tracked across
// all ground loot, building inventories, and character inventories.
func (c *ItemCounts) ItemCount(item string) (int64, error) {
	return c.store.Counter(itemCountKey(item))
}

// AdjustItemCount applies delta to the running total for item — positive
// when units are created (mining, construction output), negative when
// consumed (refining input, construction cost, burns).
func (c *ItemCounts) AdjustItemCount(item string, delta int64) error {
	if _, err := c.store.AddToCounter(itemCountKey(item), delta); err != nil {
		return fmt.Errorf("database: adjust item count for %q: %w", item, err)
	}
	return nil
}

// PrizesFound returns how many of the given prospecting prize item have
// ever been awarded, across the lifetime of the world — distinct from
// ItemCount, which tracks what is currently held and falls as prizes get
// consumed. Prize tiers are capped by how many have ever been found, not
// by how many still exist (spec.md §4.6.1).
func (c *ItemCounts) PrizesFound(prize string) (int64, error) {
	return c.store.Counter(prizesFoundKey(prize))
}

// AdjustPrizesFound increments the ever-found counter for prize by delta
// (always +1 in practice, once per successful prize roll).
func (c *ItemCounts) AdjustPrizesFound(prize string, delta int64) error {
	if _, err := c.store.AddToCounter(prizesFoundKey(prize), delta); err != nil {
		return fmt.Errorf("database: adjust prizes found for %q: %w", prize, err)
	}
	return nil
}
