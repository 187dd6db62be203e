package combat

import (
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/blockrand"
	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/database"
	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
)

// Engine wires target selection, damage dealing, fame redistribution,
// kill processing, and HP regeneration into the single per-block combat
// step run from the top-level block pipeline (spec.md §4.9 steps 1 and
// 7). Grounded on original_source/src/combat.cpp's AllHpUpdates, which
// runs the same five stages in the same order.
type Engine struct {
	characters  *database.CharactersTable
	buildings   *database.BuildingsTable
	buildingInv *database.BuildingInventoryTable
	groundLoot  *database.GroundLootTable
	ongoing     *database.OngoingTable
	regions     *database.RegionsTable
	accounts    *database.AccountsTable
	cfg         *config.ChainConfig
}

// NewEngine constructs a combat Engine bound to the given tables and
// chain configuration.
func NewEngine(
	characters *database.CharactersTable,
	buildings *database.BuildingsTable,
	buildingInv *database.BuildingInventoryTable,
	groundLoot *database.GroundLootTable,
	ongoing *database.OngoingTable,
	regions *database.RegionsTable,
	accounts *database.AccountsTable,
	cfg *config.ChainConfig,
) *Engine {
	return &Engine{
		characters:  characters,
		buildings:   buildings,
		buildingInv: buildingInv,
		groundLoot:  groundLoot,
		ongoing:     ongoing,
		regions:     regions,
		accounts:    accounts,
		cfg:         cfg,
	}
}

// noCombatTile reports whether pos lies inside a configured safe zone,
// where target acquisition and damage are suppressed regardless of the
// zone's starter-faction assignment (spec.md's "Safe zone / no-combat
// zone": "target acquisition and damage are suppressed").
func (e *Engine) noCombatTile(pos hexcoord.Coord) bool {
	for _, sz := range e.cfg.SafeZones {
		centre := hexcoord.NewCoord(sz.CentreX, sz.CentreY)
		if hexcoord.DistanceL1(centre, pos) <= sz.Radius {
			return true
		}
	}
	return false
}

func (e *Engine) noCombatFighter(f Fighter) bool {
	pos, onMap := f.Position()
	return !onMap || e.noCombatTile(pos)
}

// characterHandles opens a mutable handle to every character currently
// on the map, for use as combat fighters. Closing over the returned
// handles is the caller's responsibility.
func (e *Engine) characterHandles() ([]*database.CharacterHandle, error) {
	recs, err := e.characters.ListOnMap()
	if err != nil {
		return nil, fmt.Errorf("combat: list characters on map: %w", err)
	}
	handles := make([]*database.CharacterHandle, 0, len(recs))
	for _, rec := range recs {
		h, err := e.characters.GetByID(rec.ID)
		if err != nil {
			releaseCharacters(handles)
			return nil, fmt.Errorf("combat: open character %d: %w", rec.ID, err)
		}
		if h == nil {
			continue
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// buildingHandles opens a mutable handle to every building.
func (e *Engine) buildingHandles() ([]*database.BuildingHandle, error) {
	recs, err := e.buildings.ListAll()
	if err != nil {
		return nil, fmt.Errorf("combat: list buildings: %w", err)
	}
	handles := make([]*database.BuildingHandle, 0, len(recs))
	for _, rec := range recs {
		h, err := e.buildings.GetByID(rec.ID)
		if err != nil {
			releaseBuildings(handles)
			return nil, fmt.Errorf("combat: open building %d: %w", rec.ID, err)
		}
		if h == nil {
			continue
		}
		handles = append(handles, h)
	}
	return handles, nil
}

func releaseCharacters(handles []*database.CharacterHandle) {
	for _, h := range handles {
		_ = h.Release()
	}
}

func releaseBuildings(handles []*database.BuildingHandle) {
	for _, h := range handles {
		_ = h.Release()
	}
}

// AcquireTargets re-runs target selection over every fighter currently on
// the map, using targets set here to drive the *next* block's damage
// step (spec.md §4.9 step 7: "Combat target acquisition (feeds next
// block's damage)"). It must run after movement has settled each
// character's position for the block.
func (e *Engine) AcquireTargets(rnd *blockrand.Source) error {
	charHandles, err := e.characterHandles()
	if err != nil {
		return err
	}
	buildHandles, err := e.buildingHandles()
	if err != nil {
		releaseCharacters(charHandles)
		return err
	}

	fighters := make([]Fighter, 0, len(charHandles)+len(buildHandles))
	for _, h := range charHandles {
		fighters = append(fighters, NewCharacterFighter(h, e.cfg))
	}
	for _, h := range buildHandles {
		fighters = append(fighters, NewBuildingFighter(h, e.cfg))
	}

	idx := NewIndex(fighters, e.noCombatTile)
	FindCombatTargets(fighters, idx, rnd, e.noCombatFighter)

	for _, h := range charHandles {
		if err := h.Release(); err != nil {
			return err
		}
	}
	for _, h := range buildHandles {
		if err := h.Release(); err != nil {
			return err
		}
	}
	return nil
}

// Run executes one block's combat step at height: damage application
// against whatever targets the previous block's AcquireTargets left in
// place, self-destruct cascades, fame redistribution for every character
// killed, permanent kill consequences, and finally HP regeneration for
// every surviving fighter (spec.md §4.9 step 1). It deliberately does not
// re-run target selection itself — see AcquireTargets, called separately
// at step 7 — so that a block's damage never depends on positions the
// same block's movement step later changes.
func (e *Engine) Run(height int64, rnd *blockrand.Source) error {
	charHandles, err := e.characterHandles()
	if err != nil {
		return err
	}
	buildHandles, err := e.buildingHandles()
	if err != nil {
		releaseCharacters(charHandles)
		return err
	}

	fighters := make([]Fighter, 0, len(charHandles)+len(buildHandles))
	for _, h := range charHandles {
		fighters = append(fighters, NewCharacterFighter(h, e.cfg))
	}
	for _, h := range buildHandles {
		fighters = append(fighters, NewBuildingFighter(h, e.cfg))
	}

	idx := NewIndex(fighters, e.noCombatTile)

	proc := NewProcessor(idx, rnd, height, e.cfg.Params.DamageListBlocks)
	dead := proc.Process(fighters)

	for _, h := range charHandles {
		if err := h.Release(); err != nil {
			return err
		}
	}
	for _, h := range buildHandles {
		if err := h.Release(); err != nil {
			return err
		}
	}

	fame := NewFameUpdater(e.accounts, e.characters, height)
	for _, k := range dead {
		if k.IsBuilding {
			continue
		}
		if err := fame.UpdateForKill(k.ID); err != nil {
			return err
		}
	}
	if err := fame.Flush(); err != nil {
		return err
	}

	kp := NewKillProcessor(e.characters, e.buildings, e.buildingInv, e.groundLoot, e.ongoing, e.regions, rnd, height)
	if err := kp.ProcessDeaths(dead); err != nil {
		return err
	}

	return e.regenerateAll()
}

// regenerateAll reloads every surviving character and building and
// applies passive HP regeneration to each.
func (e *Engine) regenerateAll() error {
	charHandles, err := e.characterHandles()
	if err != nil {
		return err
	}
	buildHandles, err := e.buildingHandles()
	if err != nil {
		releaseCharacters(charHandles)
		return err
	}

	for _, h := range charHandles {
		RegenerateHP(NewCharacterFighter(h, e.cfg))
	}
	for _, h := range buildHandles {
		RegenerateHP(NewBuildingFighter(h, e.cfg))
	}

	for _, h := range charHandles {
		if err := h.Release(); err != nil {
			return err
		}
	}
	for _, h := range buildHandles {
		if err := h.Release(); err != nil {
			return err
		}
	}
	return nil
}
