package combat

import "github.com/hexrealm/taurion-gsp/internal/hexcoord"

// Index is a snapshot of every fighter on the map for one block, used by
// target selection and area-of-effect damage to find nearby combatants.
// It is rebuilt fresh each block from the characters/buildings tables,
// the Go equivalent of TargetFinder being constructed directly off
// Database at the top of FindCombatTargets in
// original_source/src/combat.cpp.
type Index struct {
	fighters  map[TargetKey]Fighter
	noCombat  func(hexcoord.Coord) bool
}

// NewIndex builds a target index over the given fighters. noCombat
// reports whether a tile lies in a no-combat (safe) zone; entities there
// are excluded both as attackers (handled by the caller) and as
// candidate targets.
func NewIndex(fighters []Fighter, noCombat func(hexcoord.Coord) bool) *Index {
	idx := &Index{
		fighters: make(map[TargetKey]Fighter, len(fighters)),
		noCombat: noCombat,
	}
	for _, f := range fighters {
		idx.fighters[f.Key()] = f
	}
	return idx
}

// Get looks up a fighter by key.
func (idx *Index) Get(k TargetKey) (Fighter, bool) {
	f, ok := idx.fighters[k]
	return f, ok
}

// candidate is one fighter found within range of a query, paired with its
// L1 distance from the query point.
type candidate struct {
	key  TargetKey
	dist int64
}

// Query returns every fighter within range of pos for which want returns
// true, excluding self and any fighter standing in a no-combat zone
// (original_source's ProcessL1Targets skipping targets for which
// SafeZones().IsNoCombat holds).
func (idx *Index) Query(pos hexcoord.Coord, rng int64, self TargetKey, want func(Fighter) bool) []candidate {
	var out []candidate
	for k, f := range idx.fighters {
		if k == self {
			continue
		}
		fpos, ok := f.Position()
		if !ok {
			continue
		}
		if idx.noCombat != nil && idx.noCombat(fpos) {
			continue
		}
		dist := hexcoord.DistanceL1(pos, fpos)
		if dist > rng {
			continue
		}
		if !want(f) {
			continue
		}
		out = append(out, candidate{key: k, dist: dist})
	}
	return out
}

// ClosestSet narrows candidates down to only those at the minimum
// distance present, mirroring SelectTarget's closestTargets accumulation.
func ClosestSet(cands []candidate) []TargetKey {
	if len(cands) == 0 {
		return nil
	}
	best := cands[0].dist
	for _, c := range cands[1:] {
		if c.dist < best {
			best = c.dist
		}
	}
	var out []TargetKey
	for _, c := range cands {
		if c.dist == best {
			out = append(out, c.key)
		}
	}
	return out
}
