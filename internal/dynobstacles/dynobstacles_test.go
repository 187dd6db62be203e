package dynobstacles

import (
	"testing"

	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
)

func TestVehiclePassability(t *testing.T) {
	o := New()
	pos := hexcoord.NewCoord(1, 2)

	o.AddVehicle(pos, config.FactionRed)
	if o.IsPassable(pos, config.FactionGreen) {
		t.Error("expected tile with an opposing-faction vehicle to be impassable")
	}
	if !o.IsPassable(pos, config.FactionRed) {
		t.Error("expected same-faction vehicle to not block passage")
	}

	o.RemoveVehicle(pos)
	if !o.IsPassable(pos, config.FactionGreen) {
		t.Error("expected tile to be passable again after vehicle removal")
	}
}

func TestBuildingBlocksEveryFaction(t *testing.T) {
	o := New()
	shape := []hexcoord.Coord{hexcoord.NewCoord(0, 0), hexcoord.NewCoord(1, 0)}

	if err := o.AddBuilding(shape); err != nil {
		t.Fatalf("AddBuilding() error = %v", err)
	}
	for _, f := range []config.Faction{config.FactionRed, config.FactionGreen, config.FactionBlue} {
		if o.IsPassable(shape[0], f) {
			t.Errorf("expected building tile to be impassable for faction %v", f)
		}
	}

	o.RemoveBuilding(shape)
	if !o.IsPassable(shape[0], config.FactionRed) {
		t.Error("expected tile to be passable after building removal")
	}
}

func TestAddBuildingClashRollsBackNothing(t *testing.T) {
	o := New()
	o.AddVehicle(hexcoord.NewCoord(5, 5), config.FactionRed)

	shape := []hexcoord.Coord{hexcoord.NewCoord(4, 5), hexcoord.NewCoord(5, 5)}
	if err := o.AddBuilding(shape); err == nil {
		t.Fatal("expected clash error when a shape tile already has a vehicle")
	}
	if !o.IsFree(hexcoord.NewCoord(4, 5)) {
		t.Error("expected the non-clashing tile to remain unclaimed after a rejected AddBuilding")
	}
}
