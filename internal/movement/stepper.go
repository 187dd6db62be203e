// Package movement implements the per-block waypoint stepper (spec.md
// §4.5): advancing every on-map character with an active movement plan
// along its precomputed path, honoring the dynamic obstacles overlay.
//
// original_source/src/movement.{hpp,cpp} is not present in the retrieved
// reference pack (logic.cpp calls ProcessAllMovement and includes
// movement.hpp, but the file itself is absent from the index), so the
// stepping algorithm here follows spec.md §4.5's text directly rather
// than a ported original. It reuses the combat engine's handle-loading
// and ID-ordered-iteration idiom (internal/combat/engine.go) and the
// dynamic-obstacles overlay built the same way combat builds its fighter
// set: fresh from the on-map characters and all buildings each block.
package movement

import (
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/database"
	"github.com/hexrealm/taurion-gsp/internal/dynobstacles"
	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
)

// Stepper advances every character's movement plan by one block.
type Stepper struct {
	characters *database.CharactersTable
	buildings  *database.BuildingsTable
	cfg        *config.ChainConfig
}

// NewStepper constructs a Stepper bound to the given tables and chain
// configuration.
func NewStepper(characters *database.CharactersTable, buildings *database.BuildingsTable, cfg *config.ChainConfig) *Stepper {
	return &Stepper{characters: characters, buildings: buildings, cfg: cfg}
}

// speedFor resolves a character's per-block L1 step budget: its chosen
// speed, falling back to the vehicle's innate speed, scaled by any
// SpeedPercent fitment effect (spec.md §4.5 and §4.2's shared effects
// bundle). A character always advances at least one step per block.
func (s *Stepper) speedFor(rec *database.Character) int64 {
	blob := rec.Blob()
	base := blob.Movement.ChosenSpeed
	if base <= 0 {
		base = s.cfg.Vehicle(blob.VehicleType).Speed
	}
	speed := config.Apply(base, blob.Effects.SpeedPercent)
	if speed <= 0 {
		speed = 1
	}
	return speed
}

// buildOverlay loads every building and on-map character and populates a
// fresh dynamic-obstacles overlay from them.
func (s *Stepper) buildOverlay() (*dynobstacles.Overlay, []*database.Character, error) {
	chars, err := s.characters.ListOnMap()
	if err != nil {
		return nil, nil, fmt.Errorf("movement: list on-map characters: %w", err)
	}
	buildings, err := s.buildings.ListAll()
	if err != nil {
		return nil, nil, fmt.Errorf("movement: list buildings: %w", err)
	}

	ov := dynobstacles.New()
	for _, b := range buildings {
		if err := ov.AddBuilding(b.Shape(s.cfg)); err != nil {
			return nil, nil, fmt.Errorf("movement: place building %d: %w", b.ID, err)
		}
	}
	for _, c := range chars {
		ov.AddVehicle(*c.Pos, c.Faction)
	}
	return ov, chars, nil
}

// Run advances every character with an active movement plan by one
// block, processing characters in ascending id order (ListOnMap is
// ordered) so overlay-occupancy contention between characters resolves
// identically on every node.
func (s *Stepper) Run() error {
	ov, chars, err := s.buildOverlay()
	if err != nil {
		return err
	}

	for _, rec := range chars {
		if !rec.Blob().Movement.IsActive() {
			continue
		}
		if err := s.step(rec.ID, ov); err != nil {
			return err
		}
	}
	return nil
}

// step advances a single character along its movement plan by at most
// its per-block speed, stopping early if blocked (spec.md §4.5).
func (s *Stepper) step(id int64, ov *dynobstacles.Overlay) error {
	h, err := s.characters.GetByID(id)
	if err != nil {
		return fmt.Errorf("movement: load character %d: %w", id, err)
	}
	if h == nil {
		return nil
	}
	rec := h.Get()
	if rec.Pos == nil || !rec.Blob().Movement.IsActive() {
		return h.Release()
	}

	pos := *rec.Pos
	faction := rec.Faction
	steps := s.speedFor(rec)

	blob := rec.MutableBlob()
	plan := blob.Movement

	for steps > 0 && len(plan.Waypoints) > 0 {
		target := plan.Waypoints[0]
		if pos == target {
			plan.Waypoints = plan.Waypoints[1:]
			continue
		}

		path := hexcoord.DensePath(pos, target)
		if len(path) < 2 {
			// Already adjacent-or-coincident by some other metric; treat
			// the waypoint as reached rather than looping forever.
			plan.Waypoints = plan.Waypoints[1:]
			continue
		}
		next := path[1]

		if !ov.IsPassable(next, faction) {
			plan.BlockedTurns++
			if plan.BlockedTurns > s.cfg.Params.BlockedTurnsThreshold {
				blob.Movement = nil
			}
			break
		}

		ov.RemoveVehicle(pos)
		ov.AddVehicle(next, faction)
		pos = next
		plan.BlockedTurns = 0
		steps--

		if pos == target {
			plan.Waypoints = plan.Waypoints[1:]
		}
	}

	if blob.Movement != nil && len(plan.Waypoints) == 0 {
		blob.Movement = nil
	}

	h.SetPosition(pos)
	return h.Release()
}
