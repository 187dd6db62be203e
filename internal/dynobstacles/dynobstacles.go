// Package dynobstacles implements the in-memory dynamic-obstacles overlay
// (spec.md §4.3): a per-block, in-memory index of which hex tiles are
// currently occupied by a building or by a single faction-tagged vehicle.
//
// Grounded on original_source/src/dynobstacles.cpp's DynObstacles class:
// the same two-tier model (a building occupies a tile outright; a vehicle
// occupies it only for other factions) and the same "probe, then commit"
// AddBuilding shape that clashes on any tile already occupied.
package dynobstacles

import (
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
)

// occupant describes what sits on one tile of the overlay.
type occupant struct {
	isBuilding bool
	hasVehicle bool
	faction    config.Faction
}

// Overlay is the mutable per-block obstacle index. It is not safe for
// concurrent use; block processing is single-threaded per spec.md §5.
type Overlay struct {
	tiles map[hexcoord.Coord]occupant
}

// New returns an empty overlay.
func New() *Overlay {
	return &Overlay{tiles: make(map[hexcoord.Coord]occupant)}
}

// AddVehicle marks pos as occupied by a vehicle of the given faction. It
// does not check for clashes: the caller is expected to have validated
// passability via IsPassable before moving a vehicle onto a tile.
func (o *Overlay) AddVehicle(pos hexcoord.Coord, faction config.Faction) {
	t := o.tiles[pos]
	t.hasVehicle = true
	t.faction = faction
	o.tiles[pos] = t
}

// RemoveVehicle clears the vehicle occupant (if any) from pos, leaving any
// building occupant untouched.
func (o *Overlay) RemoveVehicle(pos hexcoord.Coord) {
	t, ok := o.tiles[pos]
	if !ok {
		return
	}
	t.hasVehicle = false
	t.faction = config.FactionInvalid
	if !t.isBuilding {
		delete(o.tiles, pos)
		return
	}
	o.tiles[pos] = t
}

// AddBuilding claims every tile in shape for a building. It returns an
// error and leaves the overlay unchanged if any tile already has a
// building or a vehicle on it — mirroring the probe-before-commit loop in
// DynObstacles::AddBuilding.
func (o *Overlay) AddBuilding(shape []hexcoord.Coord) error {
	for _, c := range shape {
		if t, ok := o.tiles[c]; ok && (t.isBuilding || t.hasVehicle) {
			return fmt.Errorf("dynobstacles: tile %s already occupied", c)
		}
	}
	for _, c := range shape {
		t := o.tiles[c]
		t.isBuilding = true
		o.tiles[c] = t
	}
	return nil
}

// RemoveBuilding releases every tile in shape that was claimed by a
// building.
func (o *Overlay) RemoveBuilding(shape []hexcoord.Coord) {
	for _, c := range shape {
		t, ok := o.tiles[c]
		if !ok {
			continue
		}
		t.isBuilding = false
		if !t.hasVehicle {
			delete(o.tiles, c)
			continue
		}
		o.tiles[c] = t
	}
}

// IsPassable reports whether pos can be entered by a mover of the given
// faction: false if a building occupies it, or if a vehicle of a
// different faction sits there. A same-faction vehicle does not block
// passage (spec.md §4.3).
func (o *Overlay) IsPassable(pos hexcoord.Coord, faction config.Faction) bool {
	t, ok := o.tiles[pos]
	if !ok {
		return true
	}
	if t.isBuilding {
		return false
	}
	if t.hasVehicle && t.faction != faction {
		return false
	}
	return true
}

// IsFree reports whether pos has no building and no vehicle on it at all
// — the stricter check used before placing a new building foundation.
func (o *Overlay) IsFree(pos hexcoord.Coord) bool {
	t, ok := o.tiles[pos]
	return !ok || (!t.isBuilding && !t.hasVehicle)
}
