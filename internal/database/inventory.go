package database

import "github.com/hexrealm/taurion-gsp/internal/config"

// Inventory is a fungible-item-name to quantity map, shared by ground
// loot and building inventories (spec.md §3). Quantities are bounded by
// MaxQuantity; callers computing products of two quantities must use
// arbitrary-precision arithmetic first and only then check the ceiling,
// per spec.md §3's numeric-range rule.
type Inventory map[string]uint64

// MaxQuantity is the ceiling on any single item quantity (2^50, spec.md §3).
const MaxQuantity = 1 << 50

// IsEmpty reports whether every tracked quantity is zero, the condition
// under which ground loot / building inventory rows are absent rather
// than stored as zero-valued rows.
func (inv Inventory) IsEmpty() bool {
	for _, q := range inv {
		if q > 0 {
			return false
		}
	}
	return true
}

// Add increases the quantity of item by delta, clamping negative results
// at zero and removing the key once it reaches zero so IsEmpty stays
// accurate.
func (inv Inventory) Add(item string, delta int64) {
	cur := int64(inv[item]) + delta
	if cur <= 0 {
		delete(inv, item)
		return
	}
	inv[item] = uint64(cur)
}

// Get returns the current quantity of item (zero if absent).
func (inv Inventory) Get(item string) uint64 {
	return inv[item]
}

// UsedSpace returns the total cargo space occupied by the inventory,
// summing each tracked item's per-unit space times its quantity (spec.md
// §3: "cargo space consumed is the sum over held items of quantity times
// the item's configured space").
func (inv Inventory) UsedSpace(cfg *config.ChainConfig) int64 {
	var total int64
	for item, qty := range inv {
		it, ok := cfg.ItemOrNil(item)
		if !ok {
			continue
		}
		total += it.Space * int64(qty)
	}
	return total
}
