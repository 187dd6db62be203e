package combat

import (
	"github.com/hexrealm/taurion-gsp/internal/blockrand"
	"github.com/hexrealm/taurion-gsp/internal/config"
)

// attackRangeFor returns the (possibly modifier-adjusted) range and
// whether the fighter's attacks are friendly-only, per spec.md §4.4.1:
// a fighter with any hostile Attacks targets enemies; one with only
// FriendlyAttacks (e.g. a repair/support template) targets its own
// faction instead. A fighter never runs both passes in the same block,
// matching the single Target field each entity record carries.
func attackRangeFor(f Fighter, mod Modifier) (rng int64, friendly bool, ok bool) {
	cd := f.CombatData()
	switch {
	case len(cd.Attacks) > 0:
		return mod.ApplyRange(largestRange(cd.Attacks)), false, true
	case len(cd.FriendlyAttacks) > 0:
		return mod.ApplyRange(largestRange(cd.FriendlyAttacks)), true, true
	default:
		return 0, false, false
	}
}

func largestRange(attacks []config.AttackData) int64 {
	var max int64 = -1
	for _, a := range attacks {
		v := a.Range
		if a.Area > v {
			v = a.Area
		}
		if v > max {
			max = v
		}
	}
	return max
}

// selectTargetFor runs target selection for a single fighter: find every
// in-range candidate (enemy faction for hostile attacks, own faction for
// friendly attacks) not sitting in a no-combat zone, narrow to the
// closest, and break ties uniformly at random (original_source's
// SelectTarget).
func selectTargetFor(f Fighter, idx *Index, rnd *blockrand.Source, noCombat func(f Fighter) bool) {
	if noCombat(f) {
		f.ClearTarget()
		return
	}

	mod := ComputeModifier(f)
	rng, friendly, ok := attackRangeFor(f, mod)
	if !ok {
		return
	}

	pos, onMap := f.Position()
	if !onMap {
		f.ClearTarget()
		return
	}

	self := f.Key()
	faction := f.Faction()
	cands := idx.Query(pos, rng, self, func(cand Fighter) bool {
		if friendly {
			return cand.Faction() == faction
		}
		return cand.Faction() != faction && cand.Faction() != config.FactionInvalid
	})

	closest := ClosestSet(cands)
	if len(closest) == 0 {
		f.ClearTarget()
		return
	}

	chosen := closest[rnd.Intn(len(closest))]
	f.SetTarget(chosen)
}

// FindCombatTargets runs target selection for every fighter with at least
// one attack defined, the top-level entry point used by the engine's
// per-block pipeline (spec.md §4.9 step 7), grounded on
// original_source/src/combat.cpp's FindCombatTargets.
func FindCombatTargets(fighters []Fighter, idx *Index, rnd *blockrand.Source, noCombatZone func(f Fighter) bool) {
	for _, f := range fighters {
		if !HasAttacks(f) {
			continue
		}
		selectTargetFor(f, idx, rnd, noCombatZone)
	}
}
