package moveproc

import (
	"github.com/hexrealm/taurion-gsp/internal/database"
	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
)

// ResolveEnterBuilding is the per-block pipeline's step 6 (spec.md
// §4.9): every on-map character with a pending enter-building intent
// (set by the "eb" move sub-command) is moved inside its target building
// if it is now standing adjacent to (or on) the building's footprint;
// otherwise the intent is dropped and the character stays on the map.
func (d *Dispatcher) ResolveEnterBuilding() error {
	chars, err := d.tables.Characters.ListOnMap()
	if err != nil {
		return err
	}

	for _, rec := range chars {
		if rec.Blob().EnterBuildingIntent == nil {
			continue
		}

		h, err := d.tables.Characters.GetByID(rec.ID)
		if err != nil {
			return err
		}
		if h == nil {
			continue
		}
		if err := d.resolveEnterIntent(h); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) resolveEnterIntent(h *database.CharacterHandle) error {
	defer h.Release()

	rec := h.Get()
	buildingID := rec.Blob().EnterBuildingIntent
	if buildingID == nil || rec.Pos == nil {
		return nil
	}

	b, err := d.tables.Buildings.Peek(*buildingID)
	if err != nil {
		return err
	}
	if b == nil || b.IsFoundation {
		h.MutableBlob().EnterBuildingIntent = nil
		return nil
	}

	near := false
	for _, tile := range b.Shape(d.cfg) {
		if hexcoord.DistanceL1(tile, *rec.Pos) <= 1 {
			near = true
			break
		}
	}
	if !near {
		h.MutableBlob().EnterBuildingIntent = nil
		return nil
	}

	h.SetBuilding(*buildingID)
	h.MutableBlob().EnterBuildingIntent = nil
	return nil
}
