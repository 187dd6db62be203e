package database

import (
	"database/sql"
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
	"github.com/hexrealm/taurion-gsp/internal/store"
)

// CombatHP is a combatant's current hit points, including the milli-HP
// sub-unit accumulators used for fractional regeneration (spec.md §3,
// §4.4.6).
type CombatHP struct {
	Armour     int64 `json:"armour"`
	Shield     int64 `json:"shield"`
	MHPArmour  int64 `json:"mhp_armour"`
	MHPShield  int64 `json:"mhp_shield"`
}

// IsDead reports whether both armour and shield have been exhausted.
func (hp CombatHP) IsDead() bool { return hp.Armour <= 0 && hp.Shield <= 0 }

// MovementPlan is a character's pending waypoint list and chosen speed
// (spec.md §4.5).
type MovementPlan struct {
	Waypoints    []hexcoord.Coord `json:"waypoints,omitempty"`
	ChosenSpeed  int64            `json:"chosen_speed,omitempty"`
	BlockedTurns int64            `json:"blocked_turns,omitempty"`
}

// IsActive reports whether there is a remaining path to follow.
func (m *MovementPlan) IsActive() bool { return m != nil && len(m.Waypoints) > 0 }

// CombatTarget is a reference to whatever a combatant is currently
// attacking: either a character or a building (spec.md §4.4.1's "get/set
// target" capability shared by both kinds).
type CombatTarget struct {
	IsBuilding bool  `json:"is_building,omitempty"`
	ID         int64 `json:"id"`
}

// CharacterBlob holds every character field that is not promoted to its
// own scalar column (spec.md §4.2: characters get a fast, non-blob
// UPDATE path for movement-only changes, so position/building/ongoing/
// mining/busy live as scalar columns while everything else sits here).
type CharacterBlob struct {
	VehicleType        string         `json:"vehicle_type"`
	Fitments           []string       `json:"fitments,omitempty"`
	Inventory          Inventory      `json:"inventory,omitempty"`
	Movement           *MovementPlan  `json:"movement,omitempty"`
	HP                 CombatHP       `json:"hp"`
	Effects            config.Effects `json:"effects"`
	EnterBuildingIntent *int64        `json:"enter_building,omitempty"`
	Target             *CombatTarget  `json:"target,omitempty"`
	// DamageList maps attacker character id to the block height at which
	// that attacker's entry expires from the rolling window (spec.md
	// §4.4.5's "set of attacker character-ids that damaged it within the
	// last K blocks").
	DamageList map[int64]int64 `json:"damage_list,omitempty"`
}

// Character is the decoded, in-memory view of one characters row.
type Character struct {
	ID           int64
	Owner        string
	Faction      config.Faction
	Pos          *hexcoord.Coord // nil if inside a building
	BuildingID   *int64          // nil if on the map
	OngoingID    *int64
	MiningRegion *int64
	Busy         bool
	blob         *Lazy[CharacterBlob]
}

// Blob returns the read-only decoded blob fields.
func (c *Character) Blob() *CharacterBlob { return c.blob.Get() }

// MutableBlob returns the blob fields for modification.
func (c *Character) MutableBlob() *CharacterBlob { return c.blob.Mutable() }

// IsOnMap reports whether the character is placed on the hex grid rather
// than inside a building.
func (c *Character) IsOnMap() bool { return c.Pos != nil }

// IsMining reports whether the character has an active mining-region
// marker. Per spec.md §3, a character cannot be moving and mining at the
// same time.
func (c *Character) IsMining() bool { return c.MiningRegion != nil }

// CharacterHandle is a scoped, write-back-on-release handle to one
// character.
type CharacterHandle struct {
	tbl          *CharactersTable
	rec          *Character
	isNew        bool
	scalarDirty  bool
	release      func()
	done         bool
}

// Get returns the read-only character record.
func (h *CharacterHandle) Get() *Character { return h.rec }

// Mutable returns the character record for modification. Callers that
// only touch scalar fields (position, building, ongoing ref, mining
// marker, busy) and never call MutableBlob take the cheap UPDATE
// write-back path.
func (h *CharacterHandle) Mutable() *Character {
	h.scalarDirty = true
	return h.rec
}

// SetPosition moves the character onto the map, clearing any building
// placement — spec.md §3's "location is exactly one of" invariant.
func (h *CharacterHandle) SetPosition(pos hexcoord.Coord) {
	rec := h.Mutable()
	rec.Pos = &pos
	rec.BuildingID = nil
}

// SetBuilding moves the character into a building, clearing its map
// position.
func (h *CharacterHandle) SetBuilding(buildingID int64) {
	rec := h.Mutable()
	rec.BuildingID = &buildingID
	rec.Pos = nil
}

// Release writes back any pending changes and releases the handle
// tracker entry.
func (h *CharacterHandle) Release() error {
	if h.done {
		return nil
	}
	h.done = true
	defer h.release()

	blobDirty := h.rec.blob.IsDirty()
	if !h.isNew && !h.scalarDirty && !blobDirty {
		return nil
	}

	// Fast path: only scalar columns changed, the blob was never touched
	// this handle's lifetime. Avoids re-serialising/rewriting the blob on
	// every movement-only update (spec.md §4.2).
	if !h.isNew && !blobDirty {
		return h.tbl.updateScalarColumns(h.rec)
	}
	return h.tbl.writeBackFull(h.rec)
}

// CharactersTable provides CRUD access to the characters entity kind.
type CharactersTable struct {
	store   *store.Store
	tracker *Tracker
}

// NewCharactersTable constructs a CharactersTable.
func NewCharactersTable(s *store.Store, t *Tracker) *CharactersTable {
	return &CharactersTable{store: s, tracker: t}
}

// CreateNew allocates a fresh character ID and returns a handle to a new,
// not-yet-persisted character record.
func (t *CharactersTable) CreateNew(owner string, faction config.Faction, pos hexcoord.Coord, vehicleType string) (*CharacterHandle, error) {
	id, err := t.store.NextID("character")
	if err != nil {
		return nil, fmt.Errorf("database: allocate character id: %w", err)
	}

	rec := &Character{
		ID:      id,
		Owner:   owner,
		Faction: faction,
		Pos:     &pos,
		blob: NewLazyDefault[CharacterBlob](),
	}
	rec.blob.Mutable().VehicleType = vehicleType

	release := t.tracker.Acquire("character", fmt.Sprintf("%d", id))
	return &CharacterHandle{tbl: t, rec: rec, isNew: true, release: release}, nil
}

// GetByID loads an existing character by id, or returns (nil, nil) if
// absent.
func (t *CharactersTable) GetByID(id int64) (*CharacterHandle, error) {
	row := t.store.DB().QueryRow(`
		SELECT id, owner, faction, pos_x, pos_y, building_id, proto_blob,
		       ongoing_id, mining_region, busy
		FROM characters WHERE id = ?`, id)

	rec, err := scanCharacter(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database: get character %d: %w", id, err)
	}

	release := t.tracker.Acquire("character", fmt.Sprintf("%d", id))
	return &CharacterHandle{tbl: t, rec: rec, release: release}, nil
}

// ListByOwner returns every character owned by the given account name.
func (t *CharactersTable) ListByOwner(owner string) ([]*Character, error) {
	rows, err := t.store.DB().Query(`
		SELECT id, owner, faction, pos_x, pos_y, building_id, proto_blob,
		       ongoing_id, mining_region, busy
		FROM characters WHERE owner = ?`, owner)
	if err != nil {
		return nil, fmt.Errorf("database: list characters for %q: %w", owner, err)
	}
	defer rows.Close()
	return scanCharacterRows(rows)
}

// ListByBuilding returns every character currently inside buildingID, for
// building-destruction kill processing (spec.md §4.4.4).
func (t *CharactersTable) ListByBuilding(buildingID int64) ([]*Character, error) {
	rows, err := t.store.DB().Query(`
		SELECT id, owner, faction, pos_x, pos_y, building_id, proto_blob,
		       ongoing_id, mining_region, busy
		FROM characters WHERE building_id = ? ORDER BY id`, buildingID)
	if err != nil {
		return nil, fmt.Errorf("database: list characters in building %d: %w", buildingID, err)
	}
	defer rows.Close()
	return scanCharacterRows(rows)
}

// ListOnMap returns every character currently placed on the hex grid,
// for dynamic-obstacles-overlay construction at block start (spec.md §4.3).
func (t *CharactersTable) ListOnMap() ([]*Character, error) {
	rows, err := t.store.DB().Query(`
		SELECT id, owner, faction, pos_x, pos_y, building_id, proto_blob,
		       ongoing_id, mining_region, busy
		FROM characters WHERE pos_x IS NOT NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("database: list on-map characters: %w", err)
	}
	defer rows.Close()
	return scanCharacterRows(rows)
}

// ListMining returns every character with an active mining-region marker,
// in ascending id order, for the per-block mining extraction step (spec.md
// §4.6).
func (t *CharactersTable) ListMining() ([]*Character, error) {
	rows, err := t.store.DB().Query(`
		SELECT id, owner, faction, pos_x, pos_y, building_id, proto_blob,
		       ongoing_id, mining_region, busy
		FROM characters WHERE mining_region IS NOT NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("database: list mining characters: %w", err)
	}
	defer rows.Close()
	return scanCharacterRows(rows)
}

func scanCharacterRows(rows *sql.Rows) ([]*Character, error) {
	var out []*Character
	for rows.Next() {
		rec, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("database: scan character row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanCharacter(row rowScanner) (*Character, error) {
	var id int64
	var owner, faction string
	var posX, posY, buildingID, ongoingID, miningRegion sql.NullInt64
	var blob []byte
	var busy int64

	if err := row.Scan(&id, &owner, &faction, &posX, &posY, &buildingID, &blob, &ongoingID, &miningRegion, &busy); err != nil {
		return nil, err
	}

	rec := &Character{
		ID:      id,
		Owner:   owner,
		Faction: config.FactionFromString(faction),
		Busy:    busy != 0,
		blob:    NewLazy[CharacterBlob](blob),
	}
	if posX.Valid && posY.Valid {
		c := hexcoord.NewCoord(posX.Int64, posY.Int64)
		rec.Pos = &c
	}
	if buildingID.Valid {
		v := buildingID.Int64
		rec.BuildingID = &v
	}
	if ongoingID.Valid {
		v := ongoingID.Int64
		rec.OngoingID = &v
	}
	if miningRegion.Valid {
		v := miningRegion.Int64
		rec.MiningRegion = &v
	}
	return rec, nil
}

func (t *CharactersTable) updateScalarColumns(c *Character) error {
	var posX, posY, buildingID, ongoingID, miningRegion interface{}
	if c.Pos != nil {
		posX, posY = c.Pos.X, c.Pos.Y
	}
	if c.BuildingID != nil {
		buildingID = *c.BuildingID
	}
	if c.OngoingID != nil {
		ongoingID = *c.OngoingID
	}
	if c.MiningRegion != nil {
		miningRegion = *c.MiningRegion
	}

	_, err := t.store.DB().Exec(`
		UPDATE characters SET
			pos_x = ?, pos_y = ?, building_id = ?, ongoing_id = ?,
			mining_region = ?, busy = ?
		WHERE id = ?`,
		posX, posY, buildingID, ongoingID, miningRegion, boolToInt(c.Busy), c.ID)
	if err != nil {
		return fmt.Errorf("database: update character %d scalars: %w", c.ID, err)
	}
	return nil
}

func (t *CharactersTable) writeBackFull(c *Character) error {
	blob, err := c.blob.Serialised()
	if err != nil {
		return fmt.Errorf("database: serialise character %d: %w", c.ID, err)
	}

	var posX, posY, buildingID, ongoingID, miningRegion interface{}
	if c.Pos != nil {
		posX, posY = c.Pos.X, c.Pos.Y
	}
	if c.BuildingID != nil {
		buildingID = *c.BuildingID
	}
	if c.OngoingID != nil {
		ongoingID = *c.OngoingID
	}
	if c.MiningRegion != nil {
		miningRegion = *c.MiningRegion
	}

	_, err = t.store.DB().Exec(`
		INSERT INTO characters (id, owner, faction, pos_x, pos_y, building_id,
			proto_blob, ongoing_id, mining_region, busy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner = excluded.owner,
			faction = excluded.faction,
			pos_x = excluded.pos_x,
			pos_y = excluded.pos_y,
			building_id = excluded.building_id,
			proto_blob = excluded.proto_blob,
			ongoing_id = excluded.ongoing_id,
			mining_region = excluded.mining_region,
			busy = excluded.busy
	`, c.ID, c.Owner, c.Faction.String(), posX, posY, buildingID, blob, ongoingID, miningRegion, boolToInt(c.Busy))
	if err != nil {
		return fmt.Errorf("database: write back character %d: %w", c.ID, err)
	}
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// DeleteByID removes a character row outright (spec.md §3's explicit
// DeleteById lifecycle path, used by kill processing and building
// destruction).
func (t *CharactersTable) DeleteByID(id int64) error {
	_, err := t.store.DB().Exec(`DELETE FROM characters WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("database: delete character %d: %w", id, err)
	}
	return nil
}
