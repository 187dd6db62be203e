// Package gamestatejson builds the read-only JSON state projection
// (spec.md §6: "A JSON rendering of: accounts (initialised only),
// buildings (with materialised tile shapes), characters (with movement
// plan remainder, cargo usage, mining info, combat block including
// attacker list), ground loot, ongoing operations, regions modified
// since a given height, and a prize-inventory summary. This projection
// is read-only and idempotent.").
//
// Grounded on original_source/src/gamestatejson.cpp, which assembles the
// same handful of sections from the same entity tables; the shape below
// follows its section layout rather than its Json::Value builder style,
// since Go's encoding/json works directly off tagged structs.
package gamestatejson

import (
	"sort"

	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/database"
	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
)

// AccountView is the projected view of one initialised account.
type AccountView struct {
	Name    string `json:"name"`
	Faction string `json:"faction"`
	Fame    int64  `json:"fame"`
	Kills   int64  `json:"kills"`
	Balance int64  `json:"balance"`
}

// BuildingView is the projected view of one building, with its footprint
// materialised into absolute tile coordinates rather than left as a
// centre-plus-rotation pair.
type BuildingView struct {
	ID                    int64              `json:"id"`
	Type                  string             `json:"type"`
	Owner                 string             `json:"owner,omitempty"`
	Centre                hexcoord.Coord     `json:"centre"`
	Rotation              int64              `json:"rotation"`
	IsFoundation          bool               `json:"is_foundation,omitempty"`
	Shape                 []hexcoord.Coord   `json:"shape"`
	HP                    database.CombatHP  `json:"hp"`
	ServiceFeePercent     int64              `json:"service_fee_percent"`
	DexFeeBps             int64              `json:"dex_fee_bps"`
	ConstructionInventory database.Inventory `json:"construction_inventory,omitempty"`
}

// CombatView is a fighter's combat block: its current target, if any,
// and the still-active attacker list (spec.md §4.4.5's rolling window).
type CombatView struct {
	TargetIsBuilding bool    `json:"target_is_building,omitempty"`
	TargetID         *int64  `json:"target_id,omitempty"`
	Attackers        []int64 `json:"attackers,omitempty"`
}

// CharacterView is the projected view of one character.
type CharacterView struct {
	ID             int64                    `json:"id"`
	Owner          string                   `json:"owner"`
	Faction        string                   `json:"faction"`
	Pos            *hexcoord.Coord          `json:"pos,omitempty"`
	BuildingID     *int64                   `json:"building_id,omitempty"`
	VehicleType    string                   `json:"vehicle_type"`
	Fitments       []string                 `json:"fitments,omitempty"`
	Inventory      database.Inventory       `json:"inventory,omitempty"`
	CargoUsed      int64                    `json:"cargo_used"`
	CargoCapacity  int64                    `json:"cargo_capacity"`
	Movement       *database.MovementPlan   `json:"movement,omitempty"`
	HP             database.CombatHP        `json:"hp"`
	Effects        config.Effects           `json:"effects"`
	MiningRegion   *int64                   `json:"mining_region,omitempty"`
	Busy           bool                     `json:"busy,omitempty"`
	Combat         CombatView               `json:"combat"`
}

// GroundLootView is the non-empty inventory sitting at one hex tile.
type GroundLootView struct {
	Pos       hexcoord.Coord     `json:"pos"`
	Inventory database.Inventory `json:"inventory"`
}

// OngoingView mirrors one pending ongoing operation.
type OngoingView struct {
	ID           int64                     `json:"id"`
	TargetHeight int64                     `json:"target_height"`
	CharacterID  *int64                    `json:"character_id,omitempty"`
	BuildingID   *int64                    `json:"building_id,omitempty"`
	Variant      database.OngoingVariant   `json:"variant"`
	Payload      database.OngoingPayload   `json:"payload"`
}

// RegionView is one region's prospection state, included in the
// projection only when it was modified at or after the caller's
// requested height.
type RegionView struct {
	ID                   int64  `json:"id"`
	Resource             string `json:"resource,omitempty"`
	ResourceLeft         int64  `json:"resource_left"`
	ProspectingCharacter *int64 `json:"prospecting_character,omitempty"`
	ProspectedHeight     *int64 `json:"prospected_height,omitempty"`
	LastModifiedHeight   int64  `json:"last_modified_height"`
}

// PrizeView is the lifetime award count for one prospecting prize tier.
type PrizeView struct {
	Name  string `json:"name"`
	Found int64  `json:"found"`
}

// State is the complete JSON state projection for one block height.
type State struct {
	Height          int64            `json:"height"`
	Accounts        []AccountView    `json:"accounts"`
	Buildings       []BuildingView   `json:"buildings"`
	Characters      []CharacterView  `json:"characters"`
	GroundLoot      []GroundLootView `json:"ground_loot"`
	Ongoing         []OngoingView    `json:"ongoing"`
	RegionsModified []RegionView     `json:"regions_modified"`
	Prizes          []PrizeView      `json:"prizes"`
}

// Projector assembles State snapshots from the committed store, using
// the same table accessors the block pipeline itself reads from. It
// holds no handles and never mutates anything (spec.md §6: "read-only
// and idempotent").
type Projector struct {
	tables *database.Tables
	cfg    *config.ChainConfig
}

// NewProjector constructs a Projector bound to the given tables and
// chain configuration.
func NewProjector(tables *database.Tables, cfg *config.ChainConfig) *Projector {
	return &Projector{tables: tables, cfg: cfg}
}

// Build assembles the full state projection as of height, including
// every region modified at or after regionsSince (spec.md §6: "regions
// modified since a given height" — callers pass the height of their last
// known snapshot to get an incremental region delta alongside the full
// snapshot of everything else).
func (p *Projector) Build(height, regionsSince int64) (*State, error) {
	accounts, err := p.buildAccounts()
	if err != nil {
		return nil, err
	}
	buildings, err := p.buildBuildings()
	if err != nil {
		return nil, err
	}
	characters, err := p.buildCharacters(height)
	if err != nil {
		return nil, err
	}
	loot, err := p.buildGroundLoot()
	if err != nil {
		return nil, err
	}
	ongoing, err := p.buildOngoing()
	if err != nil {
		return nil, err
	}
	regions, err := p.buildRegions(regionsSince)
	if err != nil {
		return nil, err
	}
	prizes := p.buildPrizes()

	return &State{
		Height:          height,
		Accounts:        accounts,
		Buildings:       buildings,
		Characters:      characters,
		GroundLoot:      loot,
		Ongoing:         ongoing,
		RegionsModified: regions,
		Prizes:          prizes,
	}, nil
}

func (p *Projector) buildAccounts() ([]AccountView, error) {
	recs, err := p.tables.Accounts.ListInitialised()
	if err != nil {
		return nil, err
	}
	out := make([]AccountView, len(recs))
	for i, a := range recs {
		out[i] = AccountView{
			Name:    a.Name,
			Faction: a.Faction.String(),
			Fame:    a.Fame,
			Kills:   a.Kills,
			Balance: a.Balance,
		}
	}
	return out, nil
}

func (p *Projector) buildBuildings() ([]BuildingView, error) {
	recs, err := p.tables.Buildings.ListAll()
	if err != nil {
		return nil, err
	}
	out := make([]BuildingView, len(recs))
	for i, b := range recs {
		blob := b.Blob()
		out[i] = BuildingView{
			ID:                    b.ID,
			Type:                  b.Type,
			Owner:                 b.Owner,
			Centre:                b.Centre,
			Rotation:              b.Rotation,
			IsFoundation:          b.IsFoundation,
			Shape:                 b.Shape(p.cfg),
			HP:                    blob.HP,
			ServiceFeePercent:     blob.ServiceFeePercent,
			DexFeeBps:             blob.DexFeeBps,
			ConstructionInventory: blob.ConstructionInventory,
		}
	}
	return out, nil
}

func (p *Projector) buildCharacters(height int64) ([]CharacterView, error) {
	recs, err := p.tables.Characters.ListOnMap()
	if err != nil {
		return nil, err
	}
	byOwner := make(map[int64]*database.Character, len(recs))
	for _, rec := range recs {
		byOwner[rec.ID] = rec
	}

	// Characters inside buildings are also part of the projection (spec.md
	// §6 names no "on-map only" restriction for the character section,
	// unlike ground loot which is inherently map-only); fold those in too.
	all := make([]*database.Character, 0, len(recs))
	all = append(all, recs...)

	buildings, err := p.tables.Buildings.ListAll()
	if err != nil {
		return nil, err
	}
	for _, b := range buildings {
		inBuilding, err := p.tables.Characters.ListByBuilding(b.ID)
		if err != nil {
			return nil, err
		}
		for _, rec := range inBuilding {
			if _, seen := byOwner[rec.ID]; seen {
				continue
			}
			byOwner[rec.ID] = rec
			all = append(all, rec)
		}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	out := make([]CharacterView, len(all))
	for i, rec := range all {
		blob := rec.Blob()
		vehicle := p.cfg.Vehicle(blob.VehicleType)
		cargoCap := config.Apply(vehicle.CargoSpace, blob.Effects.CargoPercent)

		view := CharacterView{
			ID:            rec.ID,
			Owner:         rec.Owner,
			Faction:       rec.Faction.String(),
			Pos:           rec.Pos,
			BuildingID:    rec.BuildingID,
			VehicleType:   blob.VehicleType,
			Fitments:      blob.Fitments,
			Inventory:     blob.Inventory,
			CargoUsed:     blob.Inventory.UsedSpace(p.cfg),
			CargoCapacity: cargoCap,
			Movement:      blob.Movement,
			HP:            blob.HP,
			Effects:       blob.Effects,
			MiningRegion:  rec.MiningRegion,
			Busy:          rec.Busy,
			Combat:        buildCombatView(blob, height),
		}
		out[i] = view
	}
	return out, nil
}

func buildCombatView(blob *database.CharacterBlob, height int64) CombatView {
	var v CombatView
	if blob.Target != nil {
		v.TargetIsBuilding = blob.Target.IsBuilding
		id := blob.Target.ID
		v.TargetID = &id
	}
	for attackerID, expiry := range blob.DamageList {
		if expiry >= height {
			v.Attackers = append(v.Attackers, attackerID)
		}
	}
	sort.Slice(v.Attackers, func(i, j int) bool { return v.Attackers[i] < v.Attackers[j] })
	return v
}

func (p *Projector) buildGroundLoot() ([]GroundLootView, error) {
	byPos, err := p.tables.GroundLoot.ListAll()
	if err != nil {
		return nil, err
	}
	out := make([]GroundLootView, 0, len(byPos))
	for pos, inv := range byPos {
		out = append(out, GroundLootView{Pos: pos, Inventory: inv})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pos.X != out[j].Pos.X {
			return out[i].Pos.X < out[j].Pos.X
		}
		return out[i].Pos.Y < out[j].Pos.Y
	})
	return out, nil
}

func (p *Projector) buildOngoing() ([]OngoingView, error) {
	recs, err := p.tables.Ongoing.ListAll()
	if err != nil {
		return nil, err
	}
	out := make([]OngoingView, len(recs))
	for i, op := range recs {
		out[i] = OngoingView{
			ID:           op.ID,
			TargetHeight: op.TargetHeight,
			CharacterID:  op.CharacterID,
			BuildingID:   op.BuildingID,
			Variant:      op.Variant,
			Payload:      op.Payload,
		}
	}
	return out, nil
}

func (p *Projector) buildRegions(since int64) ([]RegionView, error) {
	recs, err := p.tables.Regions.QueryModifiedSince(since)
	if err != nil {
		return nil, err
	}
	out := make([]RegionView, len(recs))
	for i, r := range recs {
		out[i] = RegionView{
			ID:                   r.ID,
			Resource:             r.Resource,
			ResourceLeft:         r.ResourceLeft,
			ProspectingCharacter: r.ProspectingCharacter,
			ProspectedHeight:     r.ProspectedHeight,
			LastModifiedHeight:   r.LastModifiedHeight,
		}
	}
	return out, nil
}

func (p *Projector) buildPrizes() []PrizeView {
	tiers := p.cfg.Params.PrizeTiers
	out := make([]PrizeView, 0, len(tiers))
	for _, tier := range tiers {
		found, err := p.tables.ItemCounts.PrizesFound(tier.Name + " prize")
		if err != nil {
			// PrizesFound only fails on a store I/O error, which the rest of
			// the projection would already have surfaced; treat an
			// unreadable counter as "none found yet" rather than aborting
			// the whole projection over a summary field.
			found = 0
		}
		out = append(out, PrizeView{Name: tier.Name, Found: found})
	}
	return out
}
