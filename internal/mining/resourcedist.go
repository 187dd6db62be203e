// Package mining implements prospecting and ore extraction (spec.md
// §4.6, §4.6.1): deciding what a freshly-prospected region holds, rolling
// its prospecting prizes, and draining a region's reserve into a mining
// character's cargo hold each block.
//
// Grounded on original_source/src/resourcedist.cpp (resource pick),
// prospecting.cpp (prospecting eligibility and completion) and
// mining.cpp (per-block extraction).
package mining

import (
	"github.com/hexrealm/taurion-gsp/internal/blockrand"
	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
)

// resourceBaseChance is the nominal weight a resource area contributes at
// zero distance, before fall-off. Only the relative weight between
// candidate areas matters for SelectByWeight, but keeping the same
// magnitude as the original's BASE_CHANCE keeps this file readable
// against resourcedist.cpp.
const resourceBaseChance = 100_000_000

// fallOff scales val down linearly between an area's core and outer
// radius: full value inside the core, zero beyond the outer radius,
// linear in between. Mirrors resourcedist.cpp's internal::FallOff.
func fallOff(dist, core, outer, val int64) int64 {
	if dist <= core {
		return val
	}
	if dist > outer {
		return 0
	}
	if outer <= core {
		return 0
	}
	return (val-1)*(outer-dist)/(outer-core) + 1
}

// DetectResource picks which resource a freshly-prospected region at pos
// contains, and how much of it, following resourcedist.cpp's
// DetectResource: every configured resource area with non-zero fall-off
// chance at pos is a candidate, weighted by that chance; one is drawn via
// rnd.SelectByWeight, then a base amount uniformly drawn from that area's
// configured ore range gets the same fall-off applied a second time.
//
// If no area reaches pos at all, the region is barren: "raw a" with zero
// reserve, matching the original's fallback.
func DetectResource(pos hexcoord.Coord, cfg *config.ChainConfig, rnd *blockrand.Source) (resource string, amount int64) {
	type candidate struct {
		area   config.ResourceArea
		dist   int64
		weight uint64
	}

	var candidates []candidate
	for _, ra := range cfg.Resources {
		centre := hexcoord.NewCoord(ra.CentreX, ra.CentreY)
		dist := hexcoord.DistanceL1(centre, pos)
		chance := fallOff(dist, ra.CoreRadius, ra.OuterRadius, resourceBaseChance)
		if chance <= 0 {
			continue
		}
		candidates = append(candidates, candidate{area: ra, dist: dist, weight: uint64(chance)})
	}

	if len(candidates) == 0 {
		return "raw a", 0
	}

	weights := make([]uint64, len(candidates))
	for i, c := range candidates {
		weights[i] = c.weight
	}
	pick := candidates[rnd.SelectByWeight(weights)]

	span := pick.area.MaxRegionOre - pick.area.MinRegionOre
	base := pick.area.MinRegionOre
	if span > 0 {
		base += int64(rnd.Intn(int(span + 1)))
	}

	final := fallOff(pick.dist, pick.area.CoreRadius, pick.area.OuterRadius, base)
	return pick.area.Resource, final
}
