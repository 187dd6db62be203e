package database

import (
	"testing"

	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
)

func testChainConfig(t *testing.T) *config.ChainConfig {
	t.Helper()
	cfg, err := config.LoadEmbedded(config.ChainRegtest)
	if err != nil {
		t.Fatalf("config.LoadEmbedded() error = %v", err)
	}
	return cfg
}

func TestBuildingCreateInitialisesHPFromConfig(t *testing.T) {
	s := newTestStore(t)
	cfg := testChainConfig(t)
	buildings := NewBuildingsTable(s, NewTracker(), cfg)

	h, err := buildings.CreateNew("ancient1", "", hexcoord.NewCoord(0, 0), 0, false)
	if err != nil {
		t.Fatalf("CreateNew() error = %v", err)
	}
	if h.Get().Blob().HP.Armour != 1000 {
		t.Errorf("expected armour 1000 from config, got %d", h.Get().Blob().HP.Armour)
	}
	if err := h.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
}

func TestBuildingWriteBackRederivesRangesAndRegen(t *testing.T) {
	s := newTestStore(t)
	cfg := testChainConfig(t)
	buildings := NewBuildingsTable(s, NewTracker(), cfg)

	h, _ := buildings.CreateNew("r refinery", "bob", hexcoord.NewCoord(2, 2), 0, true)
	id := h.Get().ID
	if err := h.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	reloaded, err := buildings.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if reloaded.Get().CanRegen {
		t.Error("expected r refinery (armour_regen_mhp: 0, no shield regen) to have CanRegen false")
	}
	if !reloaded.Get().IsFoundation {
		t.Error("expected foundation flag to persist")
	}
	reloaded.Release()
}

func TestBuildingShapeTranslatesToCentre(t *testing.T) {
	cfg := testChainConfig(t)
	b := &Building{
		Type:     "ancient1",
		Centre:   hexcoord.NewCoord(5, 5),
		Rotation: 0,
	}
	shape := b.Shape(cfg)
	if len(shape) != 2 {
		t.Fatalf("expected 2 tiles, got %d", len(shape))
	}
	if shape[0] != (hexcoord.Coord{X: 5, Y: 5}) {
		t.Errorf("expected first tile at centre, got %v", shape[0])
	}
}

func TestBuildingListAllReturnsEveryBuilding(t *testing.T) {
	s := newTestStore(t)
	cfg := testChainConfig(t)
	buildings := NewBuildingsTable(s, NewTracker(), cfg)

	h1, _ := buildings.CreateNew("ancient1", "", hexcoord.NewCoord(0, 0), 0, false)
	h1.Release()
	h2, _ := buildings.CreateNew("r refinery", "bob", hexcoord.NewCoord(3, 3), 0, false)
	h2.Release()

	all, err := buildings.ListAll()
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 buildings, got %d", len(all))
	}
}
