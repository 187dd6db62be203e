package database

import (
	"database/sql"
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
	"github.com/hexrealm/taurion-gsp/internal/store"
)

// GroundLootHandle is a scoped, write-back-on-release handle to the
// ground-loot inventory at one hex tile. Absent iff empty (spec.md §3).
type GroundLootHandle struct {
	tbl     *GroundLootTable
	pos     hexcoord.Coord
	inv     Inventory
	existed bool
	dirty   bool
	release func()
	done    bool
}

// Inventory returns the read-only inventory at this tile.
func (h *GroundLootHandle) Inventory() Inventory { return h.inv }

// Mutable returns the inventory for modification.
func (h *GroundLootHandle) Mutable() Inventory {
	h.dirty = true
	return h.inv
}

// Release writes back the inventory, or deletes the row if it became (or
// remained) empty.
func (h *GroundLootHandle) Release() error {
	if h.done {
		return nil
	}
	h.done = true
	defer h.release()

	if !h.dirty {
		return nil
	}
	if h.inv.IsEmpty() {
		if h.existed {
			return h.tbl.delete(h.pos)
		}
		return nil
	}
	return h.tbl.writeBack(h.pos, h.inv)
}

// GroundLootTable provides CRUD access to ground-loot rows.
type GroundLootTable struct {
	store   *store.Store
	tracker *Tracker
}

// NewGroundLootTable constructs a GroundLootTable.
func NewGroundLootTable(s *store.Store, t *Tracker) *GroundLootTable {
	return &GroundLootTable{store: s, tracker: t}
}

func tileKey(pos hexcoord.Coord) string {
	return fmt.Sprintf("%d,%d", pos.X, pos.Y)
}

// Get returns a handle to the ground loot at pos, creating an empty one
// if none exists yet.
func (t *GroundLootTable) Get(pos hexcoord.Coord) (*GroundLootHandle, error) {
	release := t.tracker.Acquire("groundloot", tileKey(pos))

	var blob []byte
	err := t.store.DB().QueryRow(
		`SELECT inventory_blob FROM ground_loot WHERE pos_x = ? AND pos_y = ?`, pos.X, pos.Y).Scan(&blob)

	if err == sql.ErrNoRows {
		return &GroundLootHandle{tbl: t, pos: pos, inv: Inventory{}, release: release}, nil
	}
	if err != nil {
		release()
		return nil, fmt.Errorf("database: get ground loot at %s: %w", pos, err)
	}

	var inv Inventory
	if err := jsonUnmarshalInventory(blob, &inv); err != nil {
		release()
		return nil, fmt.Errorf("database: decode ground loot at %s: %w", pos, err)
	}
	return &GroundLootHandle{tbl: t, pos: pos, inv: inv, existed: true, release: release}, nil
}

// ListAll returns every non-empty ground-loot row, for the JSON state
// projection (spec.md §6).
func (t *GroundLootTable) ListAll() (map[hexcoord.Coord]Inventory, error) {
	rows, err := t.store.DB().Query(`SELECT pos_x, pos_y, inventory_blob FROM ground_loot ORDER BY pos_x, pos_y`)
	if err != nil {
		return nil, fmt.Errorf("database: list ground loot: %w", err)
	}
	defer rows.Close()

	out := make(map[hexcoord.Coord]Inventory)
	for rows.Next() {
		var x, y int64
		var blob []byte
		if err := rows.Scan(&x, &y, &blob); err != nil {
			return nil, fmt.Errorf("database: scan ground loot row: %w", err)
		}
		var inv Inventory
		if err := jsonUnmarshalInventory(blob, &inv); err != nil {
			return nil, fmt.Errorf("database: decode ground loot at (%d,%d): %w", x, y, err)
		}
		out[hexcoord.NewCoord(x, y)] = inv
	}
	return out, rows.Err()
}

func (t *GroundLootTable) writeBack(pos hexcoord.Coord, inv Inventory) error {
	blob, err := jsonMarshalInventory(inv)
	if err != nil {
		return fmt.Errorf("database: encode ground loot at %s: %w", pos, err)
	}
	_, err = t.store.DB().Exec(`
		INSERT INTO ground_loot (pos_x, pos_y, inventory_blob) VALUES (?, ?, ?)
		ON CONFLICT(pos_x, pos_y) DO UPDATE SET inventory_blob = excluded.inventory_blob
	`, pos.X, pos.Y, blob)
	if err != nil {
		return fmt.Errorf("database: write ground loot at %s: %w", pos, err)
	}
	return nil
}

func (t *GroundLootTable) delete(pos hexcoord.Coord) error {
	_, err := t.store.DB().Exec(`DELETE FROM ground_loot WHERE pos_x = ? AND pos_y = ?`, pos.X, pos.Y)
	if err != nil {
		return fmt.Errorf("database: delete ground loot at %s: %w", pos, err)
	}
	return nil
}
