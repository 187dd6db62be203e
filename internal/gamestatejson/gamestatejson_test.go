package gamestatejson

import (
	"testing"

	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/database"
	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
	"github.com/hexrealm/taurion-gsp/internal/store"
)

func newTestProjector(t *testing.T) (*Projector, *database.Tables) {
	t.Helper()
	s, err := store.New(&store.Config{InMemory: true})
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	cfg, err := config.LoadEmbedded(config.ChainRegtest)
	if err != nil {
		t.Fatalf("config.LoadEmbedded() error = %v", err)
	}

	tables := database.NewTables(s, cfg)
	return NewProjector(tables, cfg), tables
}

func TestBuildAccountsOnlyInitialised(t *testing.T) {
	p, tables := newTestProjector(t)

	uninit, err := tables.Accounts.CreateNew("nobody")
	if err != nil {
		t.Fatalf("CreateNew() error = %v", err)
	}
	if err := uninit.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	init, err := tables.Accounts.CreateNew("someone")
	if err != nil {
		t.Fatalf("CreateNew() error = %v", err)
	}
	init.Mutable().Faction = config.FactionGreen
	init.SetFame(5)
	if err := init.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	state, err := p.Build(1, 1)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(state.Accounts) != 1 {
		t.Fatalf("got %d accounts, want 1 (uninitialised account must be excluded)", len(state.Accounts))
	}
	if state.Accounts[0].Name != "someone" || state.Accounts[0].Faction != "g" {
		t.Errorf("unexpected account view: %+v", state.Accounts[0])
	}
}

func TestBuildCharactersDedupesAndSorts(t *testing.T) {
	p, tables := newTestProjector(t)

	building, err := tables.Buildings.CreateNew("r refinery", "owner", hexcoord.NewCoord(0, 0), 0, false)
	if err != nil {
		t.Fatalf("building CreateNew() error = %v", err)
	}
	buildingID := building.Get().ID
	if err := building.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	onMap, err := tables.Characters.CreateNew("alice", config.FactionRed, hexcoord.NewCoord(1, 1), "basic tank")
	if err != nil {
		t.Fatalf("character CreateNew() error = %v", err)
	}
	higherID := onMap.Get().ID
	if err := onMap.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	inBuilding, err := tables.Characters.CreateNew("bob", config.FactionRed, hexcoord.NewCoord(0, 0), "basic tank")
	if err != nil {
		t.Fatalf("character CreateNew() error = %v", err)
	}
	inBuilding.Mutable().Pos = nil
	inBuilding.Mutable().BuildingID = &buildingID
	lowerID := inBuilding.Get().ID
	if err := inBuilding.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	state, err := p.Build(1, 1)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(state.Characters) != 2 {
		t.Fatalf("got %d characters, want 2", len(state.Characters))
	}

	ids := []int64{state.Characters[0].ID, state.Characters[1].ID}
	wantFirst, wantSecond := lowerID, higherID
	if wantFirst > wantSecond {
		wantFirst, wantSecond = wantSecond, wantFirst
	}
	if ids[0] != wantFirst || ids[1] != wantSecond {
		t.Errorf("characters not sorted ascending by id: got %v", ids)
	}
}

func TestBuildCombatViewFiltersExpiredAttackers(t *testing.T) {
	blob := &database.CharacterBlob{
		Target: &database.CombatTarget{IsBuilding: true, ID: 7},
		DamageList: map[int64]int64{
			1: 100, // expires before height 150
			2: 200, // still active at height 150
		},
	}
	view := buildCombatView(blob, 150)

	if view.TargetID == nil || *view.TargetID != 7 || !view.TargetIsBuilding {
		t.Errorf("unexpected combat target: %+v", view)
	}
	if len(view.Attackers) != 1 || view.Attackers[0] != 2 {
		t.Errorf("got attackers %v, want [2]", view.Attackers)
	}
}

func TestBuildGroundLootSortedByPosition(t *testing.T) {
	p, tables := newTestProjector(t)

	for _, pos := range []hexcoord.Coord{hexcoord.NewCoord(5, 0), hexcoord.NewCoord(1, 9), hexcoord.NewCoord(1, 2)} {
		handle, err := tables.GroundLoot.Get(pos)
		if err != nil {
			t.Fatalf("GroundLoot.Get() error = %v", err)
		}
		handle.Mutable()["foo"] = 1
		if err := handle.Release(); err != nil {
			t.Fatalf("Release() error = %v", err)
		}
	}

	state, err := p.Build(1, 1)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(state.GroundLoot) != 3 {
		t.Fatalf("got %d ground loot entries, want 3", len(state.GroundLoot))
	}
	for i := 1; i < len(state.GroundLoot); i++ {
		a, b := state.GroundLoot[i-1].Pos, state.GroundLoot[i].Pos
		if a.X > b.X || (a.X == b.X && a.Y > b.Y) {
			t.Errorf("ground loot not sorted: %+v before %+v", a, b)
		}
	}
}

func TestBuildPrizesListsEveryTierAtZeroOnFreshStore(t *testing.T) {
	p, _ := newTestProjector(t)

	state, err := p.Build(1, 1)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(state.Prizes) != 3 {
		t.Fatalf("got %d prize tiers, want 3 (bronze/silver/gold)", len(state.Prizes))
	}
	for _, prize := range state.Prizes {
		if prize.Found != 0 {
			t.Errorf("expected zero prizes found for %q, got %d", prize.Name, prize.Found)
		}
	}
}
