// Package combat implements the two-party combat subsystem of spec.md
// §4.4: target selection, damage application with gain-HP reconciliation,
// self-destruct cascades, kill processing, fame updates, and HP
// regeneration.
//
// Grounded on original_source/src/combat.cpp (DamageProcessor,
// KillProcessor, RegenerateHP) and fame.cpp (FameUpdater), with
// characters and buildings unified behind a small Fighter interface
// instead of the C++ FighterTable/CombatEntity virtual-dispatch pair
// (spec.md §9: "model as a variant with a small dispatch layer, not as
// runtime-typed inheritance").
package combat

import (
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/database"
	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
)

// TargetKey identifies one combatant uniquely across both entity kinds,
// the Go equivalent of original_source's TargetKey pair over
// proto::TargetId.
type TargetKey struct {
	IsBuilding bool
	ID         int64
}

// String renders a TargetKey for logs and map keys.
func (k TargetKey) String() string {
	if k.IsBuilding {
		return fmt.Sprintf("building:%d", k.ID)
	}
	return fmt.Sprintf("character:%d", k.ID)
}

func keyFromRef(ref *database.CombatTarget) (TargetKey, bool) {
	if ref == nil {
		return TargetKey{}, false
	}
	return TargetKey{IsBuilding: ref.IsBuilding, ID: ref.ID}, true
}

func refFromKey(k TargetKey) *database.CombatTarget {
	return &database.CombatTarget{IsBuilding: k.IsBuilding, ID: k.ID}
}

// Fighter is the capability set shared by characters and buildings for
// combat purposes (spec.md §9's "polymorphic combat entities").
type Fighter interface {
	Key() TargetKey
	Faction() config.Faction
	// Position returns the combat-relevant position and whether the
	// fighter is currently placed where combat applies at all (a
	// character inside a building is not attackable/attacking, spec.md
	// §4.4.1).
	Position() (hexcoord.Coord, bool)
	CombatData() config.CombatData
	Effects() config.Effects
	HP() database.CombatHP
	SetHP(database.CombatHP)
	MaxHP() database.CombatHP
	Target() (TargetKey, bool)
	SetTarget(TargetKey)
	ClearTarget()
	CanRegen() bool
}

// characterFighter adapts a character handle to the Fighter interface.
type characterFighter struct {
	h   *database.CharacterHandle
	cfg *config.ChainConfig
}

func (f *characterFighter) Key() TargetKey { return TargetKey{ID: f.h.Get().ID} }
func (f *characterFighter) Faction() config.Faction { return f.h.Get().Faction }

func (f *characterFighter) Position() (hexcoord.Coord, bool) {
	rec := f.h.Get()
	if rec.Pos == nil {
		return hexcoord.Coord{}, false
	}
	return *rec.Pos, true
}

func (f *characterFighter) vehicle() config.VehicleType {
	return f.cfg.Vehicle(f.h.Get().Blob().VehicleType)
}

func (f *characterFighter) CombatData() config.CombatData { return f.vehicle().Combat }
func (f *characterFighter) Effects() config.Effects        { return f.h.Get().Blob().Effects }
func (f *characterFighter) HP() database.CombatHP           { return f.h.Get().Blob().HP }

func (f *characterFighter) SetHP(hp database.CombatHP) {
	f.h.Get().MutableBlob().HP = hp
}

func (f *characterFighter) MaxHP() database.CombatHP {
	cd := f.CombatData()
	return database.CombatHP{Armour: cd.MaxArmour, Shield: cd.MaxShield}
}

func (f *characterFighter) Target() (TargetKey, bool) {
	return keyFromRef(f.h.Get().Blob().Target)
}

func (f *characterFighter) SetTarget(k TargetKey) {
	f.h.Get().MutableBlob().Target = refFromKey(k)
}

func (f *characterFighter) ClearTarget() {
	f.h.Get().MutableBlob().Target = nil
}

// RecordAttacker stamps attackerID into this character's rolling
// attacker-list with the given expiry height, satisfying
// attackerListRecorder for fame redistribution.
func (f *characterFighter) RecordAttacker(attackerID, expiryHeight int64) {
	blob := f.h.Get().MutableBlob()
	if blob.DamageList == nil {
		blob.DamageList = make(map[int64]int64)
	}
	blob.DamageList[attackerID] = expiryHeight
}

func (f *characterFighter) CanRegen() bool {
	hp := f.HP()
	max := f.MaxHP()
	cd := f.CombatData()
	return (hp.Armour < max.Armour && cd.ArmourRegenMHP > 0) ||
		(hp.Shield < max.Shield && cd.ShieldRegenMHP > 0)
}

// NewCharacterFighter wraps a character handle as a Fighter.
func NewCharacterFighter(h *database.CharacterHandle, cfg *config.ChainConfig) Fighter {
	return &characterFighter{h: h, cfg: cfg}
}

// buildingFighter adapts a building handle to the Fighter interface.
// Foundations (§3's "Foundation": under construction) have no combat
// capability at all — CombatData returns a zero value so target
// selection and damage never engage them as attackers, though they
// remain valid (harmless) attack targets like any other building row.
type buildingFighter struct {
	h   *database.BuildingHandle
	cfg *config.ChainConfig
}

func (f *buildingFighter) Key() TargetKey             { return TargetKey{IsBuilding: true, ID: f.h.Get().ID} }
func (f *buildingFighter) Faction() config.Faction {
	bt, ok := f.cfg.BuildingOrNil(f.h.Get().Type)
	if !ok {
		return config.FactionInvalid
	}
	return config.FactionFromString(bt.FactionRestrict)
}

func (f *buildingFighter) Position() (hexcoord.Coord, bool) {
	return f.h.Get().Centre, true
}

func (f *buildingFighter) CombatData() config.CombatData {
	if f.h.Get().IsFoundation {
		return config.CombatData{}
	}
	bt, ok := f.cfg.BuildingOrNil(f.h.Get().Type)
	if !ok {
		return config.CombatData{}
	}
	return bt.Combat
}

func (f *buildingFighter) Effects() config.Effects { return config.Effects{} }
func (f *buildingFighter) HP() database.CombatHP    { return f.h.Get().Blob().HP }

func (f *buildingFighter) SetHP(hp database.CombatHP) {
	f.h.Get().MutableBlob().HP = hp
}

func (f *buildingFighter) MaxHP() database.CombatHP {
	cd := f.CombatData()
	return database.CombatHP{Armour: cd.MaxArmour, Shield: cd.MaxShield}
}

func (f *buildingFighter) Target() (TargetKey, bool) {
	return keyFromRef(f.h.Get().Blob().Target)
}

func (f *buildingFighter) SetTarget(k TargetKey) {
	f.h.Get().MutableBlob().Target = refFromKey(k)
}

func (f *buildingFighter) ClearTarget() {
	f.h.Get().MutableBlob().Target = nil
}

func (f *buildingFighter) CanRegen() bool {
	if f.h.Get().IsFoundation {
		return false
	}
	hp := f.HP()
	max := f.MaxHP()
	cd := f.CombatData()
	return (hp.Armour < max.Armour && cd.ArmourRegenMHP > 0) ||
		(hp.Shield < max.Shield && cd.ShieldRegenMHP > 0)
}

// NewBuildingFighter wraps a building handle as a Fighter.
func NewBuildingFighter(h *database.BuildingHandle, cfg *config.ChainConfig) Fighter {
	return &buildingFighter{h: h, cfg: cfg}
}

// HasAttacks reports whether a fighter has any attack (hostile or
// friendly), the gate spec.md §4.4.1 uses to decide whether target
// selection runs for it at all.
func HasAttacks(f Fighter) bool {
	cd := f.CombatData()
	return len(cd.Attacks) > 0 || len(cd.FriendlyAttacks) > 0
}
