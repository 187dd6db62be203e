package movement

import (
	"testing"

	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/database"
	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
	"github.com/hexrealm/taurion-gsp/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(&store.Config{InMemory: true})
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testChainConfig(t *testing.T) *config.ChainConfig {
	t.Helper()
	cfg, err := config.LoadEmbedded(config.ChainRegtest)
	if err != nil {
		t.Fatalf("config.LoadEmbedded() error = %v", err)
	}
	return cfg
}

func TestStepperAdvancesTowardsWaypoint(t *testing.T) {
	s := newTestStore(t)
	cfg := testChainConfig(t)
	characters := database.NewCharactersTable(s, database.NewTracker())
	buildings := database.NewBuildingsTable(s, database.NewTracker(), cfg)

	h, err := characters.CreateNew("alice", config.FactionRed, hexcoord.NewCoord(0, 0), "basic tank")
	if err != nil {
		t.Fatalf("CreateNew() error = %v", err)
	}
	id := h.Get().ID
	h.Get().MutableBlob().Movement = &database.MovementPlan{
		Waypoints: []hexcoord.Coord{hexcoord.NewCoord(10, 0)},
	}
	if err := h.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	st := NewStepper(characters, buildings, cfg)
	if err := st.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	reloaded, err := characters.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	defer reloaded.Release()

	// "basic tank" has speed 3 (internal/config/testdata/regtest.yaml).
	if got := *reloaded.Get().Pos; got != (hexcoord.Coord{X: 3, Y: 0}) {
		t.Errorf("expected position {3 0} after one block, got %v", got)
	}
	if !reloaded.Get().Blob().Movement.IsActive() {
		t.Error("expected movement plan to remain active, waypoint not yet reached")
	}
}

func TestStepperClearsMovementOnArrival(t *testing.T) {
	s := newTestStore(t)
	cfg := testChainConfig(t)
	characters := database.NewCharactersTable(s, database.NewTracker())
	buildings := database.NewBuildingsTable(s, database.NewTracker(), cfg)

	h, _ := characters.CreateNew("alice", config.FactionRed, hexcoord.NewCoord(0, 0), "basic tank")
	id := h.Get().ID
	h.Get().MutableBlob().Movement = &database.MovementPlan{
		Waypoints: []hexcoord.Coord{hexcoord.NewCoord(2, 0)},
	}
	h.Release()

	st := NewStepper(characters, buildings, cfg)
	if err := st.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	reloaded, _ := characters.GetByID(id)
	defer reloaded.Release()
	if got := *reloaded.Get().Pos; got != (hexcoord.Coord{X: 2, Y: 0}) {
		t.Errorf("expected to reach waypoint {2 0}, got %v", got)
	}
	if reloaded.Get().Blob().Movement.IsActive() {
		t.Error("expected movement plan to clear once the waypoint list is exhausted")
	}
}

func TestStepperBlockedByBuildingIncrementsBlockedTurns(t *testing.T) {
	s := newTestStore(t)
	cfg := testChainConfig(t)
	characters := database.NewCharactersTable(s, database.NewTracker())
	buildings := database.NewBuildingsTable(s, database.NewTracker(), cfg)

	bh, err := buildings.CreateNew("ancient1", "", hexcoord.NewCoord(1, 0), 0, false)
	if err != nil {
		t.Fatalf("CreateNew() building error = %v", err)
	}
	if err := bh.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	h, _ := characters.CreateNew("alice", config.FactionRed, hexcoord.NewCoord(0, 0), "basic tank")
	id := h.Get().ID
	h.Get().MutableBlob().Movement = &database.MovementPlan{
		Waypoints: []hexcoord.Coord{hexcoord.NewCoord(5, 0)},
	}
	h.Release()

	st := NewStepper(characters, buildings, cfg)
	if err := st.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	reloaded, _ := characters.GetByID(id)
	defer reloaded.Release()
	if got := *reloaded.Get().Pos; got != (hexcoord.Coord{X: 0, Y: 0}) {
		t.Errorf("expected to stay put when the next tile is blocked, got %v", got)
	}
	if reloaded.Get().Blob().Movement.BlockedTurns != 1 {
		t.Errorf("expected BlockedTurns to increment to 1, got %d", reloaded.Get().Blob().Movement.BlockedTurns)
	}
}

func TestStepperClearsMovementAfterTooManyBlockedTurns(t *testing.T) {
	s := newTestStore(t)
	cfg := testChainConfig(t)
	characters := database.NewCharactersTable(s, database.NewTracker())
	buildings := database.NewBuildingsTable(s, database.NewTracker(), cfg)

	bh, _ := buildings.CreateNew("ancient1", "", hexcoord.NewCoord(1, 0), 0, false)
	bh.Release()

	h, _ := characters.CreateNew("alice", config.FactionRed, hexcoord.NewCoord(0, 0), "basic tank")
	id := h.Get().ID
	h.Get().MutableBlob().Movement = &database.MovementPlan{
		Waypoints:    []hexcoord.Coord{hexcoord.NewCoord(5, 0)},
		BlockedTurns: cfg.Params.BlockedTurnsThreshold,
	}
	h.Release()

	st := NewStepper(characters, buildings, cfg)
	if err := st.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	reloaded, _ := characters.GetByID(id)
	defer reloaded.Release()
	if reloaded.Get().Blob().Movement.IsActive() {
		t.Error("expected movement plan to clear once blocked turns exceed the threshold")
	}
}

func TestStepperTwoCharactersCannotSwapThroughEachOther(t *testing.T) {
	s := newTestStore(t)
	cfg := testChainConfig(t)
	characters := database.NewCharactersTable(s, database.NewTracker())
	buildings := database.NewBuildingsTable(s, database.NewTracker(), cfg)

	h1, _ := characters.CreateNew("alice", config.FactionRed, hexcoord.NewCoord(0, 0), "basic tank")
	h1.Get().MutableBlob().Movement = &database.MovementPlan{
		Waypoints: []hexcoord.Coord{hexcoord.NewCoord(1, 0)},
	}
	h1.Release()

	h2, _ := characters.CreateNew("bob", config.FactionBlue, hexcoord.NewCoord(1, 0), "basic tank")
	h2.Get().MutableBlob().Movement = &database.MovementPlan{
		Waypoints: []hexcoord.Coord{hexcoord.NewCoord(0, 0)},
	}
	h2.Release()

	st := NewStepper(characters, buildings, cfg)
	if err := st.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	a, _ := characters.GetByID(h1.Get().ID)
	defer a.Release()
	b, _ := characters.GetByID(h2.Get().ID)
	defer b.Release()

	if *a.Get().Pos == *b.Get().Pos {
		t.Fatal("expected the two characters to not occupy the same tile")
	}
}
