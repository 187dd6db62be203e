package moveproc

import (
	"github.com/hexrealm/taurion-gsp/internal/blockrand"
	"github.com/hexrealm/taurion-gsp/internal/database"
)

// handleServiceOp applies one entry of the "s" array: a building-scoped
// service request that queues an ongoing operation once its
// preconditions are met (spec.md §4.8). Every kind but buildcont (which
// directly mutates a foundation's construction inventory) ultimately
// lands on finishArmourRepair / finishBlueprintCopy / finishItemConstruction
// in internal/ongoing.
func (d *Dispatcher) handleServiceOp(height int64, owner string, op ServiceOp, rnd *blockrand.Source) error {
	b, err := d.tables.Buildings.Peek(op.Building)
	if err != nil {
		return err
	}
	if b == nil || b.IsFoundation {
		d.log.Warn("s targets an unusable building, dropping", "building", op.Building)
		return nil
	}

	switch op.Type {
	case ServiceArmourRepair:
		return d.serviceArmourRepair(height, owner, op)
	case ServiceBlueprintCopy:
		return d.serviceBlueprintCopy(height, owner, op, rnd)
	case ServiceItemConstruction:
		return d.serviceItemConstruction(height, owner, op)
	case ServiceBuildingContribution:
		return d.serviceBuildingContribution(height, owner, op, b)
	default:
		d.log.Warn("s names an unknown service type, dropping", "type", op.Type)
		return nil
	}
}

// copyItemName mirrors internal/ongoing's " bpc" pseudo-item suffix
// convention for counting existing blueprint copies.
func copyItemName(original string) string { return original + " bpc" }

func (d *Dispatcher) serviceArmourRepair(height int64, owner string, op ServiceOp) error {
	if op.Character == nil {
		d.log.Warn("repair without a character, dropping")
		return nil
	}
	ch, err := d.tables.Characters.GetByID(*op.Character)
	if err != nil {
		return err
	}
	if ch == nil {
		d.log.Warn("repair targets unknown character, dropping", "character", *op.Character)
		return nil
	}
	defer ch.Release()

	rec := ch.Get()
	if rec.Owner != owner || rec.BuildingID == nil || *rec.BuildingID != op.Building || rec.Busy {
		d.log.Warn("repair preconditions not met, dropping", "character", rec.ID, "building", op.Building)
		return nil
	}

	queued := &database.OngoingOperation{
		TargetHeight: height + d.cfg.Params.ProspectingBlocks,
		CharacterID:  &rec.ID,
		Variant:      database.OngoingArmourRepair,
	}
	opID, err := d.tables.Ongoing.CreateNew(queued)
	if err != nil {
		return err
	}

	busy := ch.Mutable()
	busy.Busy = true
	busy.OngoingID = &opID
	return nil
}

func (d *Dispatcher) serviceBlueprintCopy(height int64, owner string, op ServiceOp, rnd *blockrand.Source) error {
	it, ok := d.cfg.ItemOrNil(op.Item)
	if !ok || !it.WithBlueprint || op.Num <= 0 {
		d.log.Warn("bpc names an unusable item or count, dropping", "item", op.Item)
		return nil
	}

	inv, err := d.tables.BuildingInventory.Get(op.Building, owner)
	if err != nil {
		return err
	}
	existingCopies := int64(inv.Inventory().Get(copyItemName(op.Item)))
	have := inv.Inventory().Get(op.Item)
	if err := inv.Release(); err != nil {
		return err
	}
	if have < 1 {
		d.log.Warn("bpc requires a held blueprint original, dropping", "item", op.Item, "account", owner)
		return nil
	}

	var successes int64
	for i := int64(0); i < op.Num; i++ {
		n := d.params.RevEngSuccessChance(existingCopies + successes)
		if rnd.ProbabilityRoll(1, int(n)) {
			successes++
		}
	}

	queued := &database.OngoingOperation{
		TargetHeight: height + d.cfg.Params.ProspectingBlocks,
		BuildingID:   &op.Building,
		Variant:      database.OngoingBlueprintCopy,
		Payload: database.OngoingPayload{
			Account:      owner,
			OriginalItem: op.Item,
			NumCopies:    successes,
		},
	}
	_, err = d.tables.Ongoing.CreateNew(queued)
	return err
}

func (d *Dispatcher) serviceItemConstruction(height int64, owner string, op ServiceOp) error {
	out, ok := d.cfg.ItemOrNil(op.Item)
	if !ok || op.Num <= 0 {
		d.log.Warn("construct names an unusable item or count, dropping", "item", op.Item)
		return nil
	}

	queued := &database.OngoingOperation{
		TargetHeight: height + d.cfg.Params.ProspectingBlocks,
		BuildingID:   &op.Building,
		Variant:      database.OngoingItemConstruction,
		Payload: database.OngoingPayload{
			Account:    owner,
			OutputItem: out.Name,
			OutputQty:  op.Num,
		},
	}
	_, err := d.tables.Ongoing.CreateNew(queued)
	return err
}

// serviceBuildingContribution credits resources from the caller's own
// building inventory towards a foundation's construction cost, queuing
// the building_construction completion once every required item has
// been fully contributed (spec.md §4.8's "foundations accumulate
// construction-cost items before an ongoing operation finishes them").
func (d *Dispatcher) serviceBuildingContribution(height int64, owner string, op ServiceOp, b *database.Building) error {
	if !b.IsFoundation {
		d.log.Warn("buildcont targets a building that is not a foundation, dropping", "building", op.Building)
		return nil
	}
	bt := d.cfg.Building(b.Type)
	_, ok := bt.ConstructionCost[op.Item]
	if !ok || op.Num <= 0 {
		d.log.Warn("buildcont names an item the foundation does not need, dropping", "item", op.Item)
		return nil
	}

	inv, err := d.tables.BuildingInventory.Get(op.Building, owner)
	if err != nil {
		return err
	}
	have := int64(inv.Inventory().Get(op.Item))
	qty := op.Num
	if qty > have {
		qty = have
	}
	if qty <= 0 {
		return inv.Release()
	}
	inv.Mutable().Add(op.Item, -qty)
	if err := inv.Release(); err != nil {
		return err
	}

	bh, err := d.tables.Buildings.GetByID(op.Building)
	if err != nil {
		return err
	}
	if bh == nil {
		return nil
	}
	defer bh.Release()

	blob := bh.MutableBlob()
	ensureInventory(&blob.ConstructionInventory)
	blob.ConstructionInventory.Add(op.Item, qty)

	complete := true
	for item, reqd := range bt.ConstructionCost {
		if int64(blob.ConstructionInventory.Get(item)) < reqd {
			complete = false
			break
		}
	}
	if !complete {
		return nil
	}

	queued := &database.OngoingOperation{
		TargetHeight: height + bt.ConstructionBlocks,
		BuildingID:   &op.Building,
		Variant:      database.OngoingBuildingConstruction,
	}
	_, err = d.tables.Ongoing.CreateNew(queued)
	return err
}
