package config

import "github.com/hexrealm/taurion-gsp/internal/hexcoord"

// Params extends the raw roconfig with derived, "computed" parameters —
// mirroring original_source/src/params.{hpp,cpp}'s Params class, which
// wraps RoConfig plus the basemap to expose IsLowPrizeZone and
// RevEngSuccessChance rather than making every caller recompute them.
type Params struct {
	cfg *ChainConfig
}

// NewParams builds a Params view over a loaded chain configuration.
func NewParams(cfg *ChainConfig) *Params {
	return &Params{cfg: cfg}
}

// IsLowPrizeZone reports whether pos lies within the configured radius of
// any starter safe zone (a safe zone with a faction assigned), per
// SPEC_FULL.md's supplemented feature grounded on params.cpp's
// IsLowPrizeZone (hard-coded 1250-tile radius there; configurable here via
// NumericParams.LowPrizeZoneRadius so tests can use small maps).
func (p *Params) IsLowPrizeZone(pos hexcoord.Coord) bool {
	radius := p.cfg.Params.LowPrizeZoneRadius
	for _, sz := range p.cfg.SafeZones {
		if sz.Faction == "" {
			continue
		}
		centre := hexcoord.NewCoord(sz.CentreX, sz.CentreY)
		if hexcoord.DistanceL1(centre, pos) <= radius {
			return true
		}
	}
	return false
}

// RevEngSuccessChance returns the "1 in N" reverse-engineering/blueprint
// success chance given the number of already-existing blueprint copies,
// grounded on params.cpp's RevEngSuccessChance: a fixed-point (1e6 scale)
// base chance discounted by 25% per existing copy (base *= 4/3 each
// round, since cost of success is 1/N and discounting success means
// increasing N), floored at 1-in-1e9.
func (p *Params) RevEngSuccessChance(existingCopies int64) uint64 {
	const fpMultiple = uint64(1_000_000)
	const minChance = uint64(1_000_000_000)

	var base uint64
	switch p.cfg.Chain {
	case ChainMain, ChainTest:
		base = 10
	case ChainRegtest:
		base = 1
	default:
		panic("config: invalid chain for RevEngSuccessChance")
	}

	base *= fpMultiple
	for i := int64(0); i < existingCopies; i++ {
		base = (4 * base) / 3
		if base >= fpMultiple*minChance {
			return minChance
		}
	}
	base /= fpMultiple
	return base
}

// AdjustedProbability1In scales a prize-tier 1-in-N probability down (i.e.
// makes winning harder) by the configured discount percentage when pos is
// inside a low-prize zone, per spec.md §4.6 ("prize odds...reduced by 45%
// inside designated low-prize zones"): a 1-in-N chance becomes 1-in-N'
// with N' = N * 100/(100-discount).
func (p *Params) AdjustedProbability1In(base int64, pos hexcoord.Coord) int64 {
	if !p.IsLowPrizeZone(pos) {
		return base
	}
	discount := p.cfg.Params.LowPrizeDiscountPercent
	if discount <= 0 || discount >= 100 {
		return base
	}
	return base * 100 / (100 - discount)
}
