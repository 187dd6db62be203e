package combat

import "github.com/hexrealm/taurion-gsp/internal/config"

// regenerateHPType advances one HP type's milli-HP accumulator by rate
// and folds whole points into cur, capping at max. Grounded on
// original_source/src/combat.cpp's RegenerateHpType.
func regenerateHPType(max, rate, cur, milli int64) (newCur, newMilli int64) {
	if rate <= 0 {
		return cur, milli
	}
	newMilli = milli + rate
	newCur = cur + newMilli/1000
	newMilli %= 1000

	if newCur >= max {
		return max, 0
	}
	return newCur, newMilli
}

// RegenerateHP applies one block's worth of passive HP regeneration to
// f, advancing the milli-HP accumulators for armour and shield. Shield
// regeneration is scaled by the target's Effects.ShieldRegenPercent;
// armour regeneration is not affected by any effect (spec.md §4.4.6,
// original_source's RegenerateFighterHP).
func RegenerateHP(f Fighter) {
	if !f.CanRegen() {
		return
	}

	cd := f.CombatData()
	hp := f.HP()
	maxHP := f.MaxHP()

	hp.Armour, hp.MHPArmour = regenerateHPType(maxHP.Armour, cd.ArmourRegenMHP, hp.Armour, hp.MHPArmour)

	shieldRate := config.Apply(cd.ShieldRegenMHP, f.Effects().ShieldRegenPercent)
	hp.Shield, hp.MHPShield = regenerateHPType(maxHP.Shield, shieldRate, hp.Shield, hp.MHPShield)

	f.SetHP(hp)
}

// RegenerateAll runs RegenerateHP over every fighter in fighters.
func RegenerateAll(fighters []Fighter) {
	for _, f := range fighters {
		RegenerateHP(f)
	}
}
