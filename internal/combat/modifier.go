package combat

import "github.com/hexrealm/taurion-gsp/internal/config"

// Modifier bundles the damage/range percentage adjustments in effect for
// one fighter during a round, composed once up front from low-HP boosts
// and received effects so that damage processing is independent of
// iteration order (original_source/src/combat.cpp's ComputeModifier: "this
// is filled in before actual damaging starts... so HP changes do not
// influence low-HP boosts").
type Modifier struct {
	DamagePercent int64
	RangePercent  int64
}

// ApplyDamage scales a base damage value by this modifier.
func (m Modifier) ApplyDamage(base int64) int64 { return config.Apply(base, m.DamagePercent) }

// ApplyRange scales a base range value by this modifier.
func (m Modifier) ApplyRange(base int64) int64 { return config.Apply(base, m.RangePercent) }

// ComputeModifier composes the low-HP boosts that apply at the fighter's
// current armour fraction with its received effects' range bonus.
func ComputeModifier(f Fighter) Modifier {
	var mod Modifier

	cd := f.CombatData()
	hp := f.HP()
	max := f.MaxHP()

	for _, boost := range cd.LowHPBoosts {
		// hp/max > p/100 iff 100*hp > p*max — stay in integers.
		if max.Armour > 0 && 100*hp.Armour > boost.MaxHPPercent*max.Armour {
			continue
		}
		mod.DamagePercent += boost.Damage
		mod.RangePercent += boost.Range
	}

	mod.RangePercent += f.Effects().RangePercent
	return mod
}
