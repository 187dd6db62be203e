package combat

import (
	"fmt"
	"sort"

	"github.com/hexrealm/taurion-gsp/internal/blockrand"
	"github.com/hexrealm/taurion-gsp/internal/database"
	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
)

// buildingInventoryDropPercent is the independent per-item-position
// chance that a destroyed building's contents fall to the ground instead
// of being destroyed (original_source's BUILDING_INVENTORY_DROP_PERCENT).
const buildingInventoryDropPercent = 30

// KillProcessor applies the permanent consequences of a combat death:
// dropping inventory as ground loot, cancelling prospecting, deleting
// ongoing operations, and removing the row. Grounded on
// original_source/src/combat.cpp's KillProcessor.
type KillProcessor struct {
	characters  *database.CharactersTable
	buildings   *database.BuildingsTable
	buildingInv *database.BuildingInventoryTable
	groundLoot  *database.GroundLootTable
	ongoing     *database.OngoingTable
	regions     *database.RegionsTable
	rnd         *blockrand.Source
	height      int64
}

// NewKillProcessor constructs a KillProcessor bound to the given tables.
func NewKillProcessor(
	characters *database.CharactersTable,
	buildings *database.BuildingsTable,
	buildingInv *database.BuildingInventoryTable,
	groundLoot *database.GroundLootTable,
	ongoing *database.OngoingTable,
	regions *database.RegionsTable,
	rnd *blockrand.Source,
	height int64,
) *KillProcessor {
	return &KillProcessor{
		characters:  characters,
		buildings:   buildings,
		buildingInv: buildingInv,
		groundLoot:  groundLoot,
		ongoing:     ongoing,
		regions:     regions,
		rnd:         rnd,
		height:      height,
	}
}

// ProcessDeaths applies ProcessCharacter/ProcessBuilding to every key in
// dead, the entry point used after Processor.Process.
func (p *KillProcessor) ProcessDeaths(dead []TargetKey) error {
	for _, k := range dead {
		var err error
		if k.IsBuilding {
			err = p.ProcessBuilding(k.ID)
		} else {
			err = p.ProcessCharacter(k.ID)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ProcessCharacter cancels any prospecting the character had in progress,
// drops its inventory as ground loot at its last position, and deletes
// it outright (spec.md §4.4.4, original_source's
// KillProcessor::ProcessCharacter).
func (p *KillProcessor) ProcessCharacter(id int64) error {
	h, err := p.characters.GetByID(id)
	if err != nil {
		return fmt.Errorf("combat: load killed character %d: %w", id, err)
	}
	if h == nil {
		return nil
	}
	rec := h.Get()
	pos := rec.Pos

	if rec.Busy && pos != nil {
		if err := p.cancelProspectingIfAny(rec); err != nil {
			_ = h.Release()
			return err
		}
	}

	inv := rec.Blob().Inventory
	if pos != nil && !inv.IsEmpty() {
		loot, err := p.groundLoot.Get(*pos)
		if err != nil {
			_ = h.Release()
			return fmt.Errorf("combat: load ground loot at %s for character %d death: %w", pos, id, err)
		}
		dst := loot.Mutable()
		for item, qty := range inv {
			dst.Add(item, int64(qty))
		}
		if err := loot.Release(); err != nil {
			_ = h.Release()
			return err
		}
	}

	if err := h.Release(); err != nil {
		return err
	}
	if err := p.ongoing.DeleteForCharacter(id); err != nil {
		return err
	}
	return p.characters.DeleteByID(id)
}

func (p *KillProcessor) cancelProspectingIfAny(rec *database.Character) error {
	if rec.OngoingID == nil {
		return nil
	}
	op, err := p.ongoing.ByCharacter(rec.ID)
	if err != nil {
		return fmt.Errorf("combat: load ongoing op for killed character %d: %w", rec.ID, err)
	}
	if op == nil || op.Variant != database.OngoingProspection {
		return nil
	}

	regionID := hexcoord.RegionID(*rec.Pos)
	region, err := p.regions.GetByID(regionID, p.height)
	if err != nil {
		return fmt.Errorf("combat: load region %d for killed prospector %d: %w", regionID, rec.ID, err)
	}
	mrec := region.Mutable()
	mrec.ProspectingCharacter = nil
	return region.Release()
}

// ProcessBuilding computes the building's combined inventory (account
// inventories, characters inside, blueprint/construction originals, and
// the building's own construction inventory), deletes every character
// inside, rolls an independent drop chance per distinct item, and
// deletes the building outright (original_source's
// KillProcessor::ProcessBuilding).
func (p *KillProcessor) ProcessBuilding(id int64) error {
	combined := database.Inventory{}

	accInvs, err := p.buildingInv.ListByBuilding(id)
	if err != nil {
		return fmt.Errorf("combat: list inventories in destroyed building %d: %w", id, err)
	}
	for _, inv := range accInvs {
		for item, qty := range inv {
			combined.Add(item, int64(qty))
		}
	}

	inside, err := p.characters.ListByBuilding(id)
	if err != nil {
		return fmt.Errorf("combat: list characters in destroyed building %d: %w", id, err)
	}
	for _, c := range inside {
		for item, qty := range c.Blob().Inventory {
			combined.Add(item, int64(qty))
		}
		if err := p.ongoing.DeleteForCharacter(c.ID); err != nil {
			return err
		}
		if err := p.characters.DeleteByID(c.ID); err != nil {
			return err
		}
	}

	ops, err := p.ongoing.ByBuilding(id)
	if err != nil {
		return fmt.Errorf("combat: list ongoing ops for destroyed building %d: %w", id, err)
	}
	for _, op := range ops {
		switch op.Variant {
		case database.OngoingBlueprintCopy:
			combined.Add(op.Payload.OriginalItem, 1)
		case database.OngoingItemConstruction:
			if op.Payload.OriginalItem != "" {
				combined.Add(op.Payload.OriginalItem, 1)
			}
		}
	}

	bh, err := p.buildings.GetByID(id)
	if err != nil {
		return fmt.Errorf("combat: load destroyed building %d: %w", id, err)
	}
	if bh == nil {
		return fmt.Errorf("combat: killed non-existent building %d", id)
	}
	for item, qty := range bh.Get().Blob().ConstructionInventory {
		combined.Add(item, int64(qty))
	}
	centre := bh.Get().Centre
	if err := bh.Release(); err != nil {
		return err
	}

	// The inventory map has no well-defined iteration order; the random
	// drop rolls depend on processing order, so items are sorted by name
	// first (ProcessBuilding's "make sure to explicitly sort").
	names := make([]string, 0, len(combined))
	for item := range combined {
		names = append(names, item)
	}
	sort.Strings(names)

	if len(names) > 0 {
		loot, err := p.groundLoot.Get(centre)
		if err != nil {
			return fmt.Errorf("combat: load ground loot at %s for destroyed building %d: %w", centre, id, err)
		}
		dst := loot.Mutable()
		for _, item := range names {
			qty := combined[item]
			if !p.rnd.ProbabilityRoll(buildingInventoryDropPercent, 100) {
				continue
			}
			dst.Add(item, int64(qty))
		}
		if err := loot.Release(); err != nil {
			return err
		}
	}

	if err := p.buildingInv.RemoveBuilding(id); err != nil {
		return err
	}
	if err := p.ongoing.DeleteForBuilding(id); err != nil {
		return err
	}
	return p.buildings.DeleteByID(id)
}
