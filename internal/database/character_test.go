package database

import (
	"testing"

	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
)

func TestCharacterCreateAndReload(t *testing.T) {
	s := newTestStore(t)
	characters := NewCharactersTable(s, NewTracker())

	pos := hexcoord.NewCoord(3, 4)
	h, err := characters.CreateNew("alice", config.FactionRed, pos, "basic vehicle")
	if err != nil {
		t.Fatalf("CreateNew() error = %v", err)
	}
	id := h.Get().ID
	h.Get().MutableBlob().HP = CombatHP{Armour: 100, Shield: 50}
	if err := h.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	reloaded, err := characters.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if reloaded == nil {
		t.Fatal("expected character to persist")
	}
	if !reloaded.Get().IsOnMap() {
		t.Error("expected character to be on the map")
	}
	if reloaded.Get().Blob().HP.Armour != 100 {
		t.Errorf("expected armour 100, got %d", reloaded.Get().Blob().HP.Armour)
	}
	reloaded.Release()
}

func TestCharacterScalarOnlyUpdateTakesFastPath(t *testing.T) {
	s := newTestStore(t)
	characters := NewCharactersTable(s, NewTracker())

	h, _ := characters.CreateNew("alice", config.FactionRed, hexcoord.NewCoord(0, 0), "basic vehicle")
	id := h.Get().ID
	h.Release()

	reloaded, _ := characters.GetByID(id)
	reloaded.SetPosition(hexcoord.NewCoord(1, 1))
	if reloaded.Get().blob.IsDirty() {
		t.Fatal("expected blob to remain untouched on a scalar-only mutation")
	}
	if err := reloaded.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	again, _ := characters.GetByID(id)
	if again.Get().Pos.X != 1 || again.Get().Pos.Y != 1 {
		t.Errorf("expected position to persist via the fast path, got %v", again.Get().Pos)
	}
	again.Release()
}

func TestCharacterMoveIntoBuildingClearsPosition(t *testing.T) {
	s := newTestStore(t)
	characters := NewCharactersTable(s, NewTracker())

	h, _ := characters.CreateNew("alice", config.FactionRed, hexcoord.NewCoord(0, 0), "basic vehicle")
	h.SetBuilding(42)
	if h.Get().Pos != nil {
		t.Error("expected position to be cleared when entering a building")
	}
	if h.Get().IsOnMap() {
		t.Error("expected IsOnMap to be false inside a building")
	}
	h.Release()
}
