package combat

import (
	"github.com/hexrealm/taurion-gsp/internal/blockrand"
	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/database"
	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
)

// drainedHP accumulates how much HP one attacker drained from one target
// via gain_hp attacks this round (original_source's gainHpDrained map).
type drainedHP struct {
	armour, shield int64
}

// Processor runs one block's worth of damage dealing, self-destructs, and
// HP gain reconciliation over a fixed set of fighters with targets, and
// returns the set of fighters killed this block.
//
// Grounded on original_source/src/combat.cpp's DamageProcessor: the two
// gain_hp/non-gain_hp DealDamage passes and the self-destruct cascade
// loop are reproduced with the same ordering rules so processing stays
// independent of fighter iteration order.
type Processor struct {
	idx *Index
	rnd *blockrand.Source

	// height and damageListBlocks let character-on-character hits stamp
	// an expiry height into the victim's rolling attacker-list (spec.md
	// §4.4.5's "keyed multi-set with a TTL in blocks").
	height           int64
	damageListBlocks int64

	modifiers map[TargetKey]Modifier
	gainHP    map[TargetKey]map[TargetKey]drainedHP
	dead      []TargetKey
}

// attackerListRecorder is implemented by characterFighter to maintain the
// rolling attacker-list fame redistribution reads from; buildings have no
// such list and simply don't satisfy this interface.
type attackerListRecorder interface {
	RecordAttacker(attackerID, expiryHeight int64)
}

// NewProcessor builds a damage processor over idx (every fighter present
// this block). idx already excludes no-combat-zone tiles from candidate
// queries, so damage naturally never reaches a target sitting in one.
// height is the block height being processed and damageListBlocks is
// config.NumericParams.DamageListBlocks.
func NewProcessor(idx *Index, rnd *blockrand.Source, height, damageListBlocks int64) *Processor {
	return &Processor{
		idx:              idx,
		rnd:              rnd,
		height:           height,
		damageListBlocks: damageListBlocks,
		modifiers:        make(map[TargetKey]Modifier),
		gainHP:           make(map[TargetKey]map[TargetKey]drainedHP),
	}
}

// rollDamage picks a uniform damage value in [min,max] after the
// modifier is applied to both bounds (RollAttackDamage).
func rollDamage(rnd *blockrand.Source, a config.AttackData, mod Modifier) int64 {
	lo := mod.ApplyDamage(a.MinDamage)
	hi := mod.ApplyDamage(a.MaxDamage)
	n := hi - lo + 1
	if n <= 0 {
		return lo
	}
	return lo + int64(rnd.Intn(int(n)))
}

// splitShieldArmour computes how much of dmg is absorbed by shield vs
// armour given the attack's percentage split and the target's remaining
// HP, rounding toward zero throughout (ComputeDamage).
func splitShieldArmour(dmg int64, a config.AttackData, hp database.CombatHP) (shieldDone, armourDone int64) {
	shieldPercent := a.ShieldPercent
	if shieldPercent == 0 {
		shieldPercent = 100
	}
	armourPercent := a.ArmourPercent
	if armourPercent == 0 {
		armourPercent = 100
	}

	availForShield := (dmg * shieldPercent) / 100
	shieldDone = min64(availForShield, hp.Shield)
	if shieldDone < hp.Shield {
		return shieldDone, 0
	}

	if shieldDone > 0 {
		baseDoneShield := (shieldDone * 100) / shieldPercent
		dmg -= baseDoneShield
	}

	availForArmour := (dmg * armourPercent) / 100
	armourDone = min64(availForArmour, hp.Armour)
	return shieldDone, armourDone
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func (p *Processor) isDead(key TargetKey) bool {
	for _, d := range p.dead {
		if d == key {
			return true
		}
	}
	return false
}

// applyDamageLow applies a raw damage roll to one target, honouring its
// received-damage-percent effect, returns the shield/armour HP actually
// removed, and records a new kill if the target hits zero HP (the
// low-level ApplyDamage overload; used directly by self-destructs and
// wrapped by applyDamageHigh for gain_hp bookkeeping on real attacks).
// attacker may be nil (self-destructs re-derive their own modifier and
// call in without one further attacker-attribution beyond the dying
// fighter itself, which processSelfDestructs passes explicitly).
func (p *Processor) applyDamageLow(dmg int64, a config.AttackData, attacker, target Fighter) (shieldDone, armourDone int64) {
	scale := 100 + target.Effects().ReceivedDamagePercent
	dmg = dmg * scale / 100
	if dmg < 0 {
		dmg = 0
	}
	if dmg == 0 {
		return 0, 0
	}
	if p.isDead(target.Key()) {
		return 0, 0
	}

	hp := target.HP()
	shieldDone, armourDone = splitShieldArmour(dmg, a, hp)
	hp.Shield -= shieldDone
	hp.Armour -= armourDone
	target.SetHP(hp)

	if shieldDone+armourDone > 0 {
		if attacker != nil {
			if ak := attacker.Key(); !ak.IsBuilding {
				if rec, ok := target.(attackerListRecorder); ok {
					rec.RecordAttacker(ak.ID, p.height+p.damageListBlocks)
				}
			}
		}
		if hp.Armour <= 0 && hp.Shield <= 0 {
			p.dead = append(p.dead, target.Key())
		}
	}
	return shieldDone, armourDone
}

// applyDamageHigh is the gain_hp-aware variant used for real (non-self-
// destruct) attacks: it records drained HP for later reconciliation.
func (p *Processor) applyDamageHigh(dmg int64, attacker Fighter, a config.AttackData, target Fighter) {
	shieldDone, armourDone := p.applyDamageLow(dmg, a, attacker, target)
	if !a.GainHP {
		return
	}
	tk, ak := target.Key(), attacker.Key()
	if p.gainHP[tk] == nil {
		p.gainHP[tk] = make(map[TargetKey]drainedHP)
	}
	d := p.gainHP[tk][ak]
	d.shield += shieldDone
	d.armour += armourDone
	p.gainHP[tk][ak] = d
}

// dealDamage runs every attack of one type (gain_hp filter) that f has
// against its current target, including AoE splash against the attacker's
// enemies in the blast radius.
func (p *Processor) dealDamage(f Fighter, wantGainHP bool) {
	tk, ok := f.Target()
	if !ok {
		return
	}
	target, ok := p.idx.Get(tk)
	if !ok {
		return
	}
	pos, _ := f.Position()
	targetPos, _ := target.Position()
	dist := hexcoord.DistanceL1(pos, targetPos)

	mod := p.modifiers[f.Key()]
	for _, a := range f.CombatData().Attacks {
		if a.GainHP != wantGainHP {
			continue
		}
		if a.Range > 0 && dist > mod.ApplyRange(a.Range) {
			continue
		}

		var dmg int64
		if a.MaxDamage > 0 || a.MinDamage > 0 {
			dmg = rollDamage(p.rnd, a, mod)
		}

		if a.Area > 0 {
			centre := pos
			if a.Range > 0 {
				centre = targetPos
			}
			cands := p.idx.Query(centre, mod.ApplyRange(a.Area), f.Key(), func(cand Fighter) bool {
				return cand.Faction() != f.Faction()
			})
			for _, c := range cands {
				if t, ok := p.idx.Get(c.key); ok {
					p.applyDamageHigh(dmg, f, a, t)
				}
			}
			continue
		}

		p.applyDamageHigh(dmg, f, a, target)
	}
}

// processSelfDestructs deals the self-destruct damage of a just-killed
// fighter to every enemy within its blast radius, appending any further
// kills this causes to newDead for the next cascade round.
func (p *Processor) processSelfDestructs(f Fighter, newDead *[]TargetKey) {
	pos, _ := f.Position()
	mod := ComputeModifier(f)

	for _, sd := range f.CombatData().SelfDestructs {
		dmg := rollDamage(p.rnd, sd, mod)
		cands := p.idx.Query(pos, mod.ApplyRange(sd.Area), f.Key(), func(cand Fighter) bool {
			return cand.Faction() != f.Faction()
		})
		for _, c := range cands {
			t, ok := p.idx.Get(c.key)
			if !ok {
				continue
			}
			before := len(p.dead)
			p.applyDamageLow(dmg, sd, f, t)
			if len(p.dead) > before {
				*newDead = append(*newDead, p.dead[before:]...)
			}
		}
	}
}

// Process runs the full damage-dealing step over every fighter in
// fighters that currently has a target, then cascades self-destructs
// until no new kills result, and reconciles gained HP. It returns the
// set of fighters killed this block.
func (p *Processor) Process(fighters []Fighter) []TargetKey {
	for _, f := range fighters {
		if _, ok := f.Target(); ok {
			p.modifiers[f.Key()] = ComputeModifier(f)
		}
	}

	// Gain-HP attacks first so shields aren't drawn down to zero by a
	// normal attack before a syphon-type attack can drain them.
	for _, f := range fighters {
		if _, ok := f.Target(); ok {
			p.dealDamage(f, true)
		}
	}

	gained := p.reconcileGainHP()

	for _, f := range fighters {
		if _, ok := f.Target(); ok {
			p.dealDamage(f, false)
		}
	}

	newDead := append([]TargetKey(nil), p.dead...)
	for len(newDead) > 0 {
		toProcess := newDead
		newDead = nil
		for _, k := range toProcess {
			if f, ok := p.idx.Get(k); ok {
				p.processSelfDestructs(f, &newDead)
			}
		}
	}

	for key, hp := range gained {
		if p.isDead(key) {
			continue
		}
		f, ok := p.idx.Get(key)
		if !ok {
			continue
		}
		cur := f.HP()
		max := f.MaxHP()
		cur.Armour = min64(cur.Armour+hp.armour, max.Armour)
		cur.Shield = min64(cur.Shield+hp.shield, max.Shield)
		f.SetHP(cur)
	}

	return p.dead
}

// reconcileGainHP computes, per attacker, how much HP they actually get
// to keep from their gain_hp drains this round: if more than one
// attacker drained the same target and it ends up fully drained, no one
// gets anything; a single drainer is always paid in full
// (original_source's "noone gets any" reconciliation rule).
func (p *Processor) reconcileGainHP() map[TargetKey]drainedHP {
	gained := make(map[TargetKey]drainedHP)

	for tk, attackers := range p.gainHP {
		target, ok := p.idx.Get(tk)
		if !ok {
			continue
		}
		hp := target.HP()
		multi := len(attackers) > 1

		for ak, d := range attackers {
			var g drainedHP
			if hp.Armour > 0 || !multi {
				g.armour = d.armour
			}
			if hp.Shield > 0 || !multi {
				g.shield = d.shield
			}
			if g.armour > 0 || g.shield > 0 {
				cur := gained[ak]
				cur.armour += g.armour
				cur.shield += g.shield
				gained[ak] = cur
			}
		}
	}
	return gained
}
