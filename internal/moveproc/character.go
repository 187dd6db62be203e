package moveproc

import (
	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/database"
	"github.com/hexrealm/taurion-gsp/internal/dynobstacles"
	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
	"github.com/hexrealm/taurion-gsp/internal/mining"
	"github.com/hexrealm/taurion-gsp/pkg/helpers"
)

// handleCharacterMove applies the "c" sub-command to every character id
// it names, in order. A character not owned by the acting account, or
// currently busy with an ongoing operation, rejects the whole update
// (spec.md §4.1: "a character with a pending ongoing operation accepts
// no other character sub-command until it completes").
func (d *Dispatcher) handleCharacterMove(height int64, owner string, cm *CharacterMove, ov *dynobstacles.Overlay) error {
	ids, err := parseIDList(cm.ID)
	if err != nil {
		d.log.Warn("c sub-command rejected", "account", owner, "err", err)
		return nil
	}

	for _, id := range ids {
		if err := d.applyCharacterMove(height, owner, id, cm, ov); err != nil {
			return err
		}
	}
	return nil
}

func ensureInventory(inv *database.Inventory) {
	if *inv == nil {
		*inv = database.Inventory{}
	}
}

func (d *Dispatcher) applyCharacterMove(height int64, owner string, id int64, cm *CharacterMove, ov *dynobstacles.Overlay) error {
	h, err := d.tables.Characters.GetByID(id)
	if err != nil {
		return err
	}
	if h == nil {
		d.log.Warn("c targets unknown character, dropping", "id", id)
		return nil
	}
	defer h.Release()

	if h.Get().Owner != owner {
		d.log.Warn("c targets a character not owned by the acting account, dropping", "id", id, "account", owner)
		return nil
	}
	if h.Get().Busy {
		d.log.Warn("c targets a busy character, dropping", "id", id)
		return nil
	}

	if cm.Vehicle != nil {
		if vt, ok := d.cfg.VehicleOrNil(*cm.Vehicle); ok {
			h.MutableBlob().VehicleType = vt.Name
		} else {
			d.log.Warn("c.v names an unknown vehicle type, ignoring", "id", id, "vehicle", *cm.Vehicle)
		}
	}

	if cm.Fitments != nil {
		valid := make([]string, 0, len(cm.Fitments))
		for _, f := range cm.Fitments {
			if _, ok := d.cfg.ItemOrNil(f); ok {
				valid = append(valid, f)
			} else {
				d.log.Warn("c.fit names an unknown item, dropping entry", "id", id, "item", f)
			}
		}
		h.MutableBlob().Fitments = valid
	}

	if cm.Speed != nil && *cm.Speed <= 0 {
		d.log.Warn("c.speed must be positive, ignoring", "id", id, "speed", *cm.Speed)
		cm = cloneWithoutSpeed(cm)
	}

	if cm.WP != nil {
		d.applyWaypoints(h, id, *cm.WP, cm.Speed, false)
	} else if cm.WPX != nil {
		d.applyWaypoints(h, id, *cm.WPX, cm.Speed, true)
	} else if cm.Speed != nil {
		blob := h.MutableBlob()
		if blob.Movement != nil {
			blob.Movement.ChosenSpeed = *cm.Speed
		}
	}

	if cm.EnterBuilding != nil {
		d.applyEnterBuilding(h, id, *cm.EnterBuilding)
	}
	if cm.ExitBuilding != nil {
		d.applyExitBuilding(h, id)
	}

	if len(cm.Pickup) > 0 {
		if err := d.handlePickup(h, cm.Pickup); err != nil {
			return err
		}
	}
	if len(cm.Drop) > 0 {
		if err := d.handleDrop(h, cm.Drop); err != nil {
			return err
		}
	}

	if cm.Prospect != nil {
		if err := d.handleProspect(h, height); err != nil {
			return err
		}
	}
	if cm.Mine != nil {
		if err := d.handleMine(h, height); err != nil {
			return err
		}
	}

	if cm.FoundBuilding != nil {
		if err := d.handleFoundBuilding(h, owner, cm.FoundBuilding, ov); err != nil {
			return err
		}
	}

	if cm.Send != nil {
		h.Mutable().Owner = *cm.Send
	}

	return nil
}

// cloneWithoutSpeed suppresses an invalid speed value for the rest of
// this sub-command's handling while leaving the caller's struct (shared
// across every targeted id) untouched.
func cloneWithoutSpeed(cm *CharacterMove) *CharacterMove {
	clone := *cm
	clone.Speed = nil
	return &clone
}

func (d *Dispatcher) applyWaypoints(h *database.CharacterHandle, id int64, encoded string, speed *int64, extend bool) {
	pts, err := helpers.DecodeWaypoints(encoded)
	if err != nil {
		d.log.Warn("malformed waypoint encoding, dropping", "id", id, "err", err)
		return
	}
	if h.Get().Pos == nil {
		d.log.Warn("waypoints require an on-map character, dropping", "id", id)
		return
	}

	blob := h.MutableBlob()
	if extend {
		if !blob.Movement.IsActive() {
			d.log.Warn("wpx requires an active movement plan, dropping", "id", id)
			return
		}
		blob.Movement.Waypoints = append(blob.Movement.Waypoints, pts...)
		return
	}

	plan := &database.MovementPlan{Waypoints: pts}
	if speed != nil && *speed > 0 {
		plan.ChosenSpeed = *speed
	}
	blob.Movement = plan
}

func (d *Dispatcher) applyEnterBuilding(h *database.CharacterHandle, id, buildingID int64) {
	b, err := d.tables.Buildings.Peek(buildingID)
	if err != nil || b == nil {
		d.log.Warn("eb names an unknown building, dropping", "id", id, "building", buildingID)
		return
	}
	if h.Get().Pos == nil {
		d.log.Warn("eb requires an on-map character, dropping", "id", id)
		return
	}
	h.MutableBlob().EnterBuildingIntent = &buildingID
}

func (d *Dispatcher) applyExitBuilding(h *database.CharacterHandle, id int64) {
	rec := h.Get()
	if rec.BuildingID == nil {
		d.log.Warn("xb on a character not inside a building, dropping", "id", id)
		return
	}
	b, err := d.tables.Buildings.Peek(*rec.BuildingID)
	if err != nil || b == nil {
		h.SetPosition(hexcoord.NewCoord(0, 0))
		return
	}
	shape := b.Shape(d.cfg)
	exit := b.Centre
	if len(shape) > 0 {
		exit = shape[0]
	}
	h.SetPosition(exit)
}

func (d *Dispatcher) handlePickup(h *database.CharacterHandle, pu map[string]map[string]int64) error {
	rec := h.Get()
	if rec.Pos == nil {
		d.log.Warn("pu requires an on-map character, dropping", "id", rec.ID)
		return nil
	}

	for src, items := range pu {
		if src != "f" {
			d.log.Warn("pu names an unknown source, ignoring", "id", rec.ID, "source", src)
			continue
		}

		gl, err := d.tables.GroundLoot.Get(*rec.Pos)
		if err != nil {
			return err
		}

		blob := h.MutableBlob()
		ensureInventory(&blob.Inventory)
		vt := d.cfg.Vehicle(blob.VehicleType)
		cargoCap := config.Apply(vt.CargoSpace, blob.Effects.CargoPercent)

		for item, qty := range items {
			if qty <= 0 {
				continue
			}
			have := int64(gl.Inventory().Get(item))
			if qty > have {
				qty = have
			}
			if qty <= 0 {
				continue
			}
			it, ok := d.cfg.ItemOrNil(item)
			if ok && it.Space > 0 {
				free := cargoCap - blob.Inventory.UsedSpace(d.cfg)
				maxByCargo := free / it.Space
				if qty > maxByCargo {
					qty = maxByCargo
				}
			}
			if qty <= 0 {
				continue
			}
			gl.Mutable().Add(item, -qty)
			blob.Inventory.Add(item, qty)
		}

		if err := gl.Release(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) handleDrop(h *database.CharacterHandle, drop map[string]map[string]int64) error {
	rec := h.Get()
	if rec.Pos == nil {
		d.log.Warn("drop requires an on-map character, dropping", "id", rec.ID)
		return nil
	}

	for dst, items := range drop {
		if dst != "f" {
			d.log.Warn("drop names an unknown destination, ignoring", "id", rec.ID, "destination", dst)
			continue
		}

		gl, err := d.tables.GroundLoot.Get(*rec.Pos)
		if err != nil {
			return err
		}

		blob := h.MutableBlob()
		ensureInventory(&blob.Inventory)
		for item, qty := range items {
			if qty <= 0 {
				continue
			}
			have := int64(blob.Inventory.Get(item))
			if qty > have {
				qty = have
			}
			if qty <= 0 {
				continue
			}
			blob.Inventory.Add(item, -qty)
			gl.Mutable().Add(item, qty)
		}

		if err := gl.Release(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) handleProspect(h *database.CharacterHandle, height int64) error {
	rec := h.Get()
	if rec.Pos == nil {
		d.log.Warn("prospect requires an on-map character, dropping", "id", rec.ID)
		return nil
	}

	regionID := hexcoord.RegionID(*rec.Pos)
	region, err := d.tables.Regions.GetByID(regionID, height)
	if err != nil {
		return err
	}
	defer region.Release()

	if !mining.CanProspectRegion(region.Get(), d.cfg, height) {
		d.log.Warn("prospect rejected, region not eligible", "id", rec.ID, "region", regionID)
		return nil
	}

	return mining.StartProspecting(region, h, d.tables.Ongoing, height, d.cfg)
}

func (d *Dispatcher) handleMine(h *database.CharacterHandle, height int64) error {
	rec := h.Get()
	if rec.MiningRegion != nil {
		h.Mutable().MiningRegion = nil
		return nil
	}
	if rec.Pos == nil {
		d.log.Warn("mine requires an on-map character, dropping", "id", rec.ID)
		return nil
	}

	vt := d.cfg.Vehicle(rec.Blob().VehicleType)
	if vt.Mining.Max <= 0 {
		d.log.Warn("mine rejected, vehicle cannot mine", "id", rec.ID, "vehicle", vt.Name)
		return nil
	}

	regionID := hexcoord.RegionID(*rec.Pos)
	region, err := d.tables.Regions.GetByID(regionID, height)
	if err != nil {
		return err
	}
	defer region.Release()

	if !region.Get().IsProspected() {
		d.log.Warn("mine rejected, region not yet prospected", "id", rec.ID, "region", regionID)
		return nil
	}

	h.Mutable().MiningRegion = &regionID
	return nil
}

func (d *Dispatcher) handleFoundBuilding(h *database.CharacterHandle, owner string, fb *FoundBuilding, ov *dynobstacles.Overlay) error {
	rec := h.Get()
	if rec.Pos == nil {
		d.log.Warn("fb requires an on-map character, dropping", "id", rec.ID)
		return nil
	}

	bt, ok := d.cfg.BuildingOrNil(fb.Type)
	if !ok {
		d.log.Warn("fb names an unknown building type, dropping", "id", rec.ID, "type", fb.Type)
		return nil
	}
	if bt.FactionRestrict != "" && bt.FactionRestrict != rec.Faction.String() {
		d.log.Warn("fb building is faction-restricted, dropping", "id", rec.ID, "type", fb.Type)
		return nil
	}

	probe := &database.Building{Type: fb.Type, Centre: *rec.Pos, Rotation: fb.Rotation}
	shape := probe.Shape(d.cfg)
	for _, tile := range shape {
		if !ov.IsFree(tile) {
			d.log.Warn("fb site is obstructed, dropping", "id", rec.ID, "type", fb.Type)
			return nil
		}
	}

	isFoundation := len(bt.ConstructionCost) > 0
	bh, err := d.tables.Buildings.CreateNew(fb.Type, owner, *rec.Pos, fb.Rotation, isFoundation)
	if err != nil {
		return err
	}
	if err := ov.AddBuilding(shape); err != nil {
		return err
	}
	return bh.Release()
}
