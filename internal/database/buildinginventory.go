package database

import (
	"database/sql"
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/store"
)

// BuildingInventoryHandle is a scoped, write-back-on-release handle to
// one (building, account) inventory. Absent iff empty (spec.md §3).
type BuildingInventoryHandle struct {
	tbl        *BuildingInventoryTable
	buildingID int64
	account    string
	inv        Inventory
	existed    bool
	dirty      bool
	release    func()
	done       bool
}

// Inventory returns the read-only inventory.
func (h *BuildingInventoryHandle) Inventory() Inventory { return h.inv }

// Mutable returns the inventory for modification.
func (h *BuildingInventoryHandle) Mutable() Inventory {
	h.dirty = true
	return h.inv
}

// Release writes back the inventory, or deletes the row if it became (or
// remained) empty.
func (h *BuildingInventoryHandle) Release() error {
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
			return h.tbl.delete(h.buildingID, h.account)
		}
		return nil
	}
	return h.tbl.writeBack(h.buildingID, h.account, h.inv)
}

// BuildingInventoryTable provides CRUD access to building-inventory rows.
type BuildingInventoryTable struct {
	store   *store.Store
	tracker *Tracker
}

// NewBuildingInventoryTable constructs a BuildingInventoryTable.
func NewBuildingInventoryTable(s *store.Store, t *Tracker) *BuildingInventoryTable {
	return &BuildingInventoryTable{store: s, tracker: t}
}

func buildingInventoryKey(buildingID int64, account string) string {
	return fmt.Sprintf("%d:%s", buildingID, account)
}

// Get returns a handle to the (buildingID, account) inventory, creating
// an empty one if none exists yet.
func (t *BuildingInventoryTable) Get(buildingID int64, account string) (*BuildingInventoryHandle, error) {
	release := t.tracker.Acquire("buildinginventory", buildingInventoryKey(buildingID, account))

	var blob []byte
	err := t.store.DB().QueryRow(
		`SELECT inventory_blob FROM building_inventories WHERE building_id = ? AND account = ?`,
		buildingID, account).Scan(&blob)

	if err == sql.ErrNoRows {
		return &BuildingInventoryHandle{tbl: t, buildingID: buildingID, account: account, inv: Inventory{}, release: release}, nil
	}
	if err != nil {
		release()
		return nil, fmt.Errorf("database: get building inventory (%d,%s): %w", buildingID, account, err)
	}

	var inv Inventory
	if err := jsonUnmarshalInventory(blob, &inv); err != nil {
		release()
		return nil, fmt.Errorf("database: decode building inventory (%d,%s): %w", buildingID, account, err)
	}
	return &BuildingInventoryHandle{tbl: t, buildingID: buildingID, account: account, inv: inv, existed: true, release: release}, nil
}

// ListByBuilding returns every account inventory inside a building, used
// when a building is destroyed and its contents spill to the ground
// (spec.md §4.9 building destruction rules).
func (t *BuildingInventoryTable) ListByBuilding(buildingID int64) (map[string]Inventory, error) {
	rows, err := t.store.DB().Query(
		`SELECT account, inventory_blob FROM building_inventories WHERE building_id = ?`, buildingID)
	if err != nil {
		return nil, fmt.Errorf("database: list building inventories for %d: %w", buildingID, err)
	}
	defer rows.Close()

	out := make(map[string]Inventory)
	for rows.Next() {
		var account string
		var blob []byte
		if err := rows.Scan(&account, &blob); err != nil {
			return nil, fmt.Errorf("database: scan building inventory row: %w", err)
		}
		var inv Inventory
		if err := jsonUnmarshalInventory(blob, &inv); err != nil {
			return nil, fmt.Errorf("database: decode building inventory (%d,%s): %w", buildingID, account, err)
		}
		out[account] = inv
	}
	return out, rows.Err()
}

func (t *BuildingInventoryTable) writeBack(buildingID int64, account string, inv Inventory) error {
	blob, err := jsonMarshalInventory(inv)
	if err != nil {
		return fmt.Errorf("database: encode building inventory (%d,%s): %w", buildingID, account, err)
	}
	_, err = t.store.DB().Exec(`
		INSERT INTO building_inventories (building_id, account, inventory_blob) VALUES (?, ?, ?)
		ON CONFLICT(building_id, account) DO UPDATE SET inventory_blob = excluded.inventory_blob
	`, buildingID, account, blob)
	if err != nil {
		return fmt.Errorf("database: write building inventory (%d,%s): %w", buildingID, account, err)
	}
	return nil
}

func (t *BuildingInventoryTable) delete(buildingID int64, account string) error {
	_, err := t.store.DB().Exec(
		`DELETE FROM building_inventories WHERE building_id = ? AND account = ?`, buildingID, account)
	if err != nil {
		return fmt.Errorf("database: delete building inventory (%d,%s): %w", buildingID, account, err)
	}
	return nil
}

// RemoveBuilding deletes every inventory row belonging to buildingID,
// used once a destroyed building's combined inventory has been
// transferred to ground loot.
func (t *BuildingInventoryTable) RemoveBuilding(buildingID int64) error {
	_, err := t.store.DB().Exec(`DELETE FROM building_inventories WHERE building_id = ?`, buildingID)
	if err != nil {
		return fmt.Errorf("database: remove building inventories for %d: %w", buildingID, err)
	}
	return nil
}
