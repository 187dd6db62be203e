package ongoing

import (
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/database"
)

// finishArmourRepair restores a character's armour to its vehicle's
// configured maximum and clears its busy flag (ongoings.cpp's
// kArmourRepair case).
func (s *Scheduler) finishArmourRepair(op *database.OngoingOperation) error {
	if op.CharacterID == nil {
		return fmt.Errorf("armour_repair operation %d has no character", op.ID)
	}

	h, err := s.characters.GetByID(*op.CharacterID)
	if err != nil {
		return fmt.Errorf("load character %d: %w", *op.CharacterID, err)
	}
	if h == nil {
		return fmt.Errorf("armour_repair character %d missing", *op.CharacterID)
	}
	defer h.Release()

	maxArmour := s.cfg.Vehicle(h.Get().Blob().VehicleType).Combat.MaxArmour
	h.MutableBlob().HP.Armour = maxArmour

	rec := h.Mutable()
	rec.Busy = false
	rec.OngoingID = nil
	return nil
}

// finishBlueprintCopy credits the named account's building inventory with
// the original blueprint plus its rolled number of copies (ongoings.cpp's
// kBlueprintCopy case).
func (s *Scheduler) finishBlueprintCopy(op *database.OngoingOperation) error {
	if op.BuildingID == nil {
		return fmt.Errorf("blueprint_copy operation %d has no building", op.ID)
	}

	h, err := s.buildingInv.Get(*op.BuildingID, op.Payload.Account)
	if err != nil {
		return fmt.Errorf("load building inventory (%d,%s): %w", *op.BuildingID, op.Payload.Account, err)
	}
	inv := h.Mutable()
	inv.Add(op.Payload.OriginalItem, 1)
	if op.Payload.NumCopies > 0 {
		inv.Add(copyItemName(op.Payload.OriginalItem), op.Payload.NumCopies)
	}
	return h.Release()
}

// copyItemName derives the "bpc" pseudo-item name for an original
// blueprint item, the suffix config.ItemOrNil synthesizes on lookup.
func copyItemName(original string) string { return original + " bpc" }

// finishItemConstruction credits the constructed outputs to the named
// account's building inventory, returning the original (if the payload
// records one as consumed) the way a non-destructive construction recipe
// would (spec.md §4.8's
// "credit outputs; if an original was consumed, return it").
func (s *Scheduler) finishItemConstruction(op *database.OngoingOperation) error {
	if op.BuildingID == nil {
		return fmt.Errorf("item_construction operation %d has no building", op.ID)
	}

	h, err := s.buildingInv.Get(*op.BuildingID, op.Payload.Account)
	if err != nil {
		return fmt.Errorf("load building inventory (%d,%s): %w", *op.BuildingID, op.Payload.Account, err)
	}
	inv := h.Mutable()
	if op.Payload.OutputQty > 0 {
		inv.Add(op.Payload.OutputItem, op.Payload.OutputQty)
	}
	if op.Payload.ConsumedOriginal && op.Payload.OriginalItem != "" {
		inv.Add(op.Payload.OriginalItem, 1)
	}
	return h.Release()
}

// finishBuildingConstruction transitions a foundation into a fully
// constructed building: it unlocks full attacks/regen (already derived
// fresh from config on every write-back once IsFoundation is false) and
// tops HP up to the type's maximum, discarding the now-irrelevant
// construction-contribution inventory (spec.md §4.8's "unlocks its full
// attacks, HP regeneration, service menu").
func (s *Scheduler) finishBuildingConstruction(op *database.OngoingOperation) error {
	if op.BuildingID == nil {
		return fmt.Errorf("building_construction operation %d has no building", op.ID)
	}

	h, err := s.buildings.GetByID(*op.BuildingID)
	if err != nil {
		return fmt.Errorf("load building %d: %w", *op.BuildingID, err)
	}
	if h == nil {
		return fmt.Errorf("building_construction building %d missing", *op.BuildingID)
	}
	defer h.Release()

	bt := s.cfg.Building(h.Get().Type)
	blob := h.MutableBlob()
	blob.HP.Armour = bt.Combat.MaxArmour
	blob.HP.Shield = bt.Combat.MaxShield
	blob.ConstructionInventory = nil

	h.Mutable().IsFoundation = false
	return nil
}

// finishBuildingConfigUpdate replaces a building's owner-configurable fees
// with the values scheduled `building_update_delay` blocks earlier
// (spec.md §4.7's "changes... take effect only after
// building_update_delay blocks via an ongoing-operation").
func (s *Scheduler) finishBuildingConfigUpdate(op *database.OngoingOperation) error {
	if op.BuildingID == nil {
		return fmt.Errorf("building_config_update operation %d has no building", op.ID)
	}

	h, err := s.buildings.GetByID(*op.BuildingID)
	if err != nil {
		return fmt.Errorf("load building %d: %w", *op.BuildingID, err)
	}
	if h == nil {
		return fmt.Errorf("building_config_update building %d missing", *op.BuildingID)
	}
	defer h.Release()

	blob := h.MutableBlob()
	blob.ServiceFeePercent = op.Payload.NewServiceFee
	blob.DexFeeBps = op.Payload.NewDexFeeBps
	return nil
}
