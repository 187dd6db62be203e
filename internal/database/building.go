package database

import (
	"database/sql"
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
	"github.com/hexrealm/taurion-gsp/internal/store"
)

// BuildingBlob holds the fields not promoted to scalar columns.
type BuildingBlob struct {
	HP                   CombatHP      `json:"hp"`
	ServiceFeePercent    int64         `json:"service_fee_percent"`
	DexFeeBps            int64         `json:"dex_fee_bps"`
	ConstructionInventory Inventory    `json:"construction_inventory,omitempty"`
	Target               *CombatTarget `json:"target,omitempty"`
}

// Building is the decoded, in-memory view of one buildings row.
type Building struct {
	ID            int64
	Type          string
	Owner         string // empty string if ancient
	Centre        hexcoord.Coord
	Rotation      int64
	IsFoundation  bool
	AttackRange   int64
	FriendlyRange int64
	CanRegen      bool
	blob          *Lazy[BuildingBlob]
}

// Blob returns the read-only decoded blob fields.
func (b *Building) Blob() *BuildingBlob { return b.blob.Get() }

// MutableBlob returns the blob fields for modification.
func (b *Building) MutableBlob() *BuildingBlob { return b.blob.Mutable() }

// Shape computes the building's occupied tiles: its type's canonical
// shape, rotated by Rotation steps and translated to Centre (spec.md
// §3's "occupied tiles = canonical shape of type rotated and translated").
func (b *Building) Shape(cfg *config.ChainConfig) []hexcoord.Coord {
	bt := cfg.Building(b.Type)
	out := make([]hexcoord.Coord, len(bt.Shape))
	for i, tile := range bt.Shape {
		c := hexcoord.NewCoord(tile.X, tile.Y)
		c = hexcoord.Rotate(c, int(b.Rotation))
		out[i] = hexcoord.Coord{X: b.Centre.X + c.X, Y: b.Centre.Y + c.Y}
	}
	return out
}

// deriveRangesAndRegen recomputes AttackRange, FriendlyRange and CanRegen
// from the combat data, the "re-derive on write-back" step spec.md §4.2
// calls for so these stay queryable as plain columns.
func (b *Building) deriveRangesAndRegen(cfg *config.ChainConfig) {
	bt, ok := cfg.BuildingOrNil(b.Type)
	if !ok {
		return
	}
	b.AttackRange = largestRangeOrArea(bt.Combat.Attacks)
	b.FriendlyRange = largestRangeOrArea(bt.Combat.FriendlyAttacks)
	b.CanRegen = bt.Combat.ArmourRegenMHP > 0 || bt.Combat.ShieldRegenMHP > 0
}

func largestRangeOrArea(attacks []config.AttackData) int64 {
	var max int64 = -1
	for _, a := range attacks {
		v := a.Range
		if a.Area > v {
			v = a.Area
		}
		if v > max {
			max = v
		}
	}
	return max
}

// BuildingHandle is a scoped, write-back-on-release handle to one
// building.
type BuildingHandle struct {
	tbl     *BuildingsTable
	rec     *Building
	isNew   bool
	dirty   bool
	release func()
	done    bool
}

// Get returns the read-only building record.
func (h *BuildingHandle) Get() *Building { return h.rec }

// Mutable returns the building record for modification.
func (h *BuildingHandle) Mutable() *Building {
	h.dirty = true
	return h.rec
}

// Release re-derives the combat-range/regen columns, writes back any
// pending changes, and releases the handle tracker entry.
func (h *BuildingHandle) Release() error {
	if h.done {
		return nil
	}
	h.done = true
	defer h.release()

	if !h.isNew && !h.dirty && !h.rec.blob.IsDirty() {
		return nil
	}
	h.rec.deriveRangesAndRegen(h.tbl.cfg)
	return h.tbl.writeBack(h.rec)
}

// BuildingsTable provides CRUD access to the buildings entity kind.
type BuildingsTable struct {
	store   *store.Store
	tracker *Tracker
	cfg     *config.ChainConfig
}

// NewBuildingsTable constructs a BuildingsTable.
func NewBuildingsTable(s *store.Store, t *Tracker, cfg *config.ChainConfig) *BuildingsTable {
	return &BuildingsTable{store: s, tracker: t, cfg: cfg}
}

// CreateNew allocates a fresh building ID and returns a handle to a new,
// not-yet-persisted building record. isFoundation controls whether it
// starts under construction.
func (t *BuildingsTable) CreateNew(buildingType, owner string, centre hexcoord.Coord, rotation int64, isFoundation bool) (*BuildingHandle, error) {
	id, err := t.store.NextID("building")
	if err != nil {
		return nil, fmt.Errorf("database: allocate building id: %w", err)
	}

	bt := t.cfg.Building(buildingType)
	rec := &Building{
		ID:           id,
		Type:         buildingType,
		Owner:        owner,
		Centre:       centre,
		Rotation:     rotation,
		IsFoundation: isFoundation,
		blob:         NewLazyDefault[BuildingBlob](),
	}
	blob := rec.blob.Mutable()
	blob.HP.Armour = bt.Combat.MaxArmour
	blob.HP.Shield = bt.Combat.MaxShield
	if isFoundation {
		blob.ConstructionInventory = Inventory{}
	}
	rec.deriveRangesAndRegen(t.cfg)

	release := t.tracker.Acquire("building", fmt.Sprintf("%d", id))
	return &BuildingHandle{tbl: t, rec: rec, isNew: true, release: release}, nil
}

// GetByID loads an existing building by id, or returns (nil, nil) if
// absent.
func (t *BuildingsTable) GetByID(id int64) (*BuildingHandle, error) {
	row := t.store.DB().QueryRow(`
		SELECT id, type, owner, centre_x, centre_y, rotation, is_foundation,
		       attack_range, friendly_range, can_regen, proto_blob
		FROM buildings WHERE id = ?`, id)

	rec, err := scanBuilding(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database: get building %d: %w", id, err)
	}

	release := t.tracker.Acquire("building", fmt.Sprintf("%d", id))
	return &BuildingHandle{tbl: t, rec: rec, release: release}, nil
}

// Peek reads a building's current state without acquiring a write
// handle, for read-only consultation (e.g. DEX fee computation) that
// must not conflict with a building handle already open elsewhere in the
// same move.
func (t *BuildingsTable) Peek(id int64) (*Building, error) {
	row := t.store.DB().QueryRow(`
		SELECT id, type, owner, centre_x, centre_y, rotation, is_foundation,
		       attack_range, friendly_range, can_regen, proto_blob
		FROM buildings WHERE id = ?`, id)

	rec, err := scanBuilding(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database: peek building %d: %w", id, err)
	}
	return rec, nil
}

// ListAll returns every building, for dynamic-obstacles-overlay
// construction at block start (spec.md §4.3).
func (t *BuildingsTable) ListAll() ([]*Building, error) {
	rows, err := t.store.DB().Query(`
		SELECT id, type, owner, centre_x, centre_y, rotation, is_foundation,
		       attack_range, friendly_range, can_regen, proto_blob
		FROM buildings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("database: list buildings: %w", err)
	}
	defer rows.Close()

	var out []*Building
	for rows.Next() {
		rec, err := scanBuilding(rows)
		if err != nil {
			return nil, fmt.Errorf("database: scan building row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanBuilding(row rowScanner) (*Building, error) {
	var id, centreX, centreY, rotation, attackRange, friendlyRange int64
	var typ, owner string
	var isFoundation, canRegen int64
	var blob []byte

	if err := row.Scan(&id, &typ, &owner, &centreX, &centreY, &rotation, &isFoundation,
		&attackRange, &friendlyRange, &canRegen, &blob); err != nil {
		return nil, err
	}

	return &Building{
		ID:            id,
		Type:          typ,
		Owner:         owner,
		Centre:        hexcoord.NewCoord(centreX, centreY),
		Rotation:      rotation,
		IsFoundation:  isFoundation != 0,
		AttackRange:   attackRange,
		FriendlyRange: friendlyRange,
		CanRegen:      canRegen != 0,
		blob:          NewLazy[BuildingBlob](blob),
	}, nil
}

func (t *BuildingsTable) writeBack(b *Building) error {
	blob, err := b.blob.Serialised()
	if err != nil {
		return fmt.Errorf("database: serialise building %d: %w", b.ID, err)
	}

	_, err = t.store.DB().Exec(`
		INSERT INTO buildings (id, type, owner, centre_x, centre_y, rotation,
			is_foundation, attack_range, friendly_range, can_regen, proto_blob)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			owner = excluded.owner,
			centre_x = excluded.centre_x,
			centre_y = excluded.centre_y,
			rotation = excluded.rotation,
			is_foundation = excluded.is_foundation,
			attack_range = excluded.attack_range,
			friendly_range = excluded.friendly_range,
			can_regen = excluded.can_regen,
			proto_blob = excluded.proto_blob
	`, b.ID, b.Type, b.Owner, b.Centre.X, b.Centre.Y, b.Rotation,
		boolToInt(b.IsFoundation), b.AttackRange, b.FriendlyRange, boolToInt(b.CanRegen), blob)
	if err != nil {
		return fmt.Errorf("database: write back building %d: %w", b.ID, err)
	}
	return nil
}

// DeleteByID removes a building row outright.
func (t *BuildingsTable) DeleteByID(id int64) error {
	_, err := t.store.DB().Exec(`DELETE FROM buildings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("database: delete building %d: %w", id, err)
	}
	return nil
}
