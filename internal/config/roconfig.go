// Package config provides the read-only, chain-keyed static game
// configuration ("roconfig", spec.md §6): building types, item types,
// resource areas, safe zones, spawn areas and the numeric parameters that
// drive the rest of the engine.
//
// Structurally this follows klingon-v2/internal/config/config.go (a
// chain-keyed top-level struct backed by typed maps, with Get*-style
// accessors); the content instead follows the static configuration blob
// described in spec.md §6 and the chain-keyed singleton lookup of
// original_source/proto/roconfig.{hpp,cpp}.
package config

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ChainID identifies which blockchain network's rules apply — mirrors the
// "chain-id" the roconfig is keyed by in spec.md §6.
type ChainID string

const (
	ChainMain    ChainID = "main"
	ChainTest    ChainID = "test"
	ChainRegtest ChainID = "regtest"
)

// ItemType is one entry of the static item-type table.
type ItemType struct {
	Name          string  `yaml:"name"`
	Space         int64   `yaml:"space"`
	WithBlueprint bool    `yaml:"with_blueprint"`
	FitmentEffect Effects `yaml:"fitment_effect"`
	RefinesInto   string  `yaml:"refines_into"`
	RefineAmount  int64   `yaml:"refine_amount"`
}

// Effects is an additive bundle of stat modifiers applied by fitments and
// by combat low-HP boosts / received effects (spec.md §4.4.2,
// SPEC_FULL.md's fitments supplement grounded on original_source/src/fitments.cpp).
type Effects struct {
	SpeedPercent          int64 `yaml:"speed_percent"`
	CargoPercent          int64 `yaml:"cargo_percent"`
	RangePercent          int64 `yaml:"range_percent"`
	DamagePercent         int64 `yaml:"damage_percent"`
	ShieldRegenPercent    int64 `yaml:"shield_regen_percent"`
	ReceivedDamagePercent int64 `yaml:"received_damage_percent"`
}

// Add folds another Effects bundle additively into this one.
func (e Effects) Add(o Effects) Effects {
	return Effects{
		SpeedPercent:          e.SpeedPercent + o.SpeedPercent,
		CargoPercent:          e.CargoPercent + o.CargoPercent,
		RangePercent:          e.RangePercent + o.RangePercent,
		DamagePercent:         e.DamagePercent + o.DamagePercent,
		ShieldRegenPercent:    e.ShieldRegenPercent + o.ShieldRegenPercent,
		ReceivedDamagePercent: e.ReceivedDamagePercent + o.ReceivedDamagePercent,
	}
}

// Apply scales a base quantity by 100+percent over 100, truncating toward
// zero (all numerics here are integer per spec.md §1's floating-point
// Non-goal).
func Apply(base int64, percent int64) int64 {
	return base * (100 + percent) / 100
}

// AttackData describes one weapon/attack slot on a combatant template.
type AttackData struct {
	MinDamage     int64 `yaml:"min_damage"`
	MaxDamage     int64 `yaml:"max_damage"`
	Range         int64 `yaml:"range"`
	Area          int64 `yaml:"area"`
	GainHP        bool  `yaml:"gain_hp"`
	ShieldPercent int64 `yaml:"shield_percent"`
	ArmourPercent int64 `yaml:"armour_percent"`
}

// LowHPBoost is a conditional combat modifier active below a HP threshold.
type LowHPBoost struct {
	MaxHPPercent int64   `yaml:"max_hp_percent"`
	Damage       int64   `yaml:"damage_percent"`
	Range        int64   `yaml:"range_percent"`
}

// CombatData bundles everything needed by internal/combat for one
// combatant template (character vehicle type or building type).
type CombatData struct {
	Attacks         []AttackData `yaml:"attacks"`
	FriendlyAttacks []AttackData `yaml:"friendly_attacks"`
	SelfDestructs   []AttackData `yaml:"self_destructs"`
	LowHPBoosts     []LowHPBoost `yaml:"low_hp_boosts"`
	MaxArmour       int64        `yaml:"max_armour"`
	MaxShield       int64        `yaml:"max_shield"`
	ArmourRegenMHP  int64        `yaml:"armour_regen_mhp"`
	ShieldRegenMHP  int64        `yaml:"shield_regen_mhp"`
}

// MiningRate is a vehicle's per-block ore extraction range, mirroring
// original_source/src/fitments.cpp's InitCharacterStats writing
// data.mining_rate() straight onto the character from its vehicle's
// static data. A vehicle with Min == Max == 0 cannot mine at all.
type MiningRate struct {
	Min int64 `yaml:"min"`
	Max int64 `yaml:"max"`
}

// VehicleType is one entry of the static vehicle-type table a character's
// `VehicleType` field names (spec.md §3: characters "carry... vehicle
// type"). No original_source file enumerates vehicle data directly (the
// upstream engine embeds it in a combined item/vehicle proto registry
// this pack doesn't include); shaped here the same way as BuildingType
// since both feed the same combat/movement machinery.
type VehicleType struct {
	Name        string     `yaml:"name"`
	Speed       int64      `yaml:"speed"`
	CargoSpace  int64      `yaml:"cargo_space"`
	Complexity  int64      `yaml:"complexity"`
	Combat      CombatData `yaml:"combat"`
	Mining      MiningRate `yaml:"mining_rate"`
}

// BuildingType is one entry of the static building-type table.
type BuildingType struct {
	Name             string           `yaml:"name"`
	Shape            []ShapeTile      `yaml:"shape"`
	FactionRestrict  string           `yaml:"faction_restrict"`
	ConstructionCost map[string]int64 `yaml:"construction_cost"`
	ConstructionBlocks int64          `yaml:"construction_blocks"`
	Combat           CombatData       `yaml:"combat"`
}

// ShapeTile is one occupied offset (relative to a building's centre,
// before rotation) of a building's footprint.
type ShapeTile struct {
	X int64 `yaml:"x"`
	Y int64 `yaml:"y"`
}

// ResourceArea is one entry of the static resource-distribution table
// used by prospecting's resource pick (spec.md §4.6.1).
type ResourceArea struct {
	Resource    string `yaml:"resource"`
	CentreX     int64  `yaml:"centre_x"`
	CentreY     int64  `yaml:"centre_y"`
	CoreRadius  int64  `yaml:"core_radius"`
	OuterRadius int64  `yaml:"outer_radius"`
	MinRegionOre int64 `yaml:"min_region_ore"`
	MaxRegionOre int64 `yaml:"max_region_ore"`
}

// SafeZone is one entry of the static safe/no-combat-zone table. A zone
// with a non-empty Faction is also a starter zone (spec.md GLOSSARY).
type SafeZone struct {
	CentreX int64  `yaml:"centre_x"`
	CentreY int64  `yaml:"centre_y"`
	Radius  int64  `yaml:"radius"`
	Faction string `yaml:"faction"`
}

// SpawnArea is one faction's character spawn zone.
type SpawnArea struct {
	Faction string `yaml:"faction"`
	CentreX int64  `yaml:"centre_x"`
	CentreY int64  `yaml:"centre_y"`
	Radius  int64  `yaml:"radius"`
}

// PrizeTier is one tier of a prospecting prize roll.
type PrizeTier struct {
	Name          string `yaml:"name"`
	Count         int64  `yaml:"count"`
	Probability1In int64 `yaml:"probability_1_in"`
}

// NumericParams bundles the scalar game-rule constants named in spec.md §6.
type NumericParams struct {
	CharacterCost         int64 `yaml:"character_cost"`
	CharacterLimit        int64 `yaml:"character_limit"`
	DamageListBlocks      int64 `yaml:"damage_list_blocks"`
	ProspectingBlocks     int64 `yaml:"prospecting_blocks"`
	ProspectionExpiryBlocks int64 `yaml:"prospection_expiry_blocks"`
	ReprospectingAllowed  bool  `yaml:"reprospecting_allowed"`
	BuildingUpdateDelay   int64 `yaml:"building_update_delay"`
	// GameStartHeight is the block height at which gameplay itself
	// begins (original_source/src/moveprocessor.cpp's Fork::GameStart
	// check). Before it, only coin operations are processed; every other
	// sub-command in a move is dropped regardless of account state.
	GameStartHeight       int64 `yaml:"game_start_height"`
	DexBaseFeeBps         int64 `yaml:"dex_base_fee_bps"`
	BlockedTurnsThreshold int64 `yaml:"blocked_turns_threshold"`
	MaxServiceFeePercent  int64 `yaml:"max_service_fee_percent"`
	MaxDexFeeBps          int64 `yaml:"max_dex_fee_bps"`
	LowPrizeZoneRadius    int64 `yaml:"low_prize_zone_radius"`
	LowPrizeDiscountPercent int64 `yaml:"low_prize_discount_percent"`
	PrizeTiers            []PrizeTier `yaml:"prize_tiers"`
	// DevAddress is the `out` recipient a move's CHI payment must reach
	// for character-creation cost and other dev-paid fees to count
	// (spec.md §6: "cost is character_cost CHI per entry, paid to the dev
	// address via out").
	DevAddress string `yaml:"dev_address"`
	// BurnAddress is the `out` recipient whose amount backs a `vc.m` mint
	// (spec.md §4.9's "minting from a burn-sale (requires burnt CHI from
	// the transaction)"): moves may only mint in-game coin up to however
	// much CHI they are simultaneously observed burning to this address
	// in the same transaction's `out` map.
	BurnAddress string `yaml:"burn_address"`
}

// ChainConfig is the full roconfig for a single chain-id.
type ChainConfig struct {
	Chain       ChainID                 `yaml:"-"`
	GodMode     bool                    `yaml:"god_mode"`
	Params      NumericParams           `yaml:"params"`
	Items       map[string]ItemType     `yaml:"items"`
	Vehicles    map[string]VehicleType  `yaml:"vehicles"`
	Buildings   map[string]BuildingType `yaml:"buildings"`
	Resources   []ResourceArea          `yaml:"resources"`
	SafeZones   []SafeZone              `yaml:"safe_zones"`
	SpawnAreas  []SpawnArea             `yaml:"spawn_areas"`
}

//go:embed testdata/regtest.yaml testdata/mainnet.yaml testdata/testnet.yaml
var embeddedConfigs embed.FS

var loaded = map[ChainID]*ChainConfig{}

// Load parses and caches the roconfig for a chain from raw YAML bytes.
// Subsequent calls for the same chain return the same cached instance,
// mirroring the singleton behaviour of original_source's RoConfig::Data.
func Load(chain ChainID, yamlDoc []byte) (*ChainConfig, error) {
	if c, ok := loaded[chain]; ok {
		return c, nil
	}

	var cfg ChainConfig
	if err := yaml.Unmarshal(yamlDoc, &cfg); err != nil {
		return nil, fmt.Errorf("parsing roconfig for chain %q: %w", chain, err)
	}
	cfg.Chain = chain
	loaded[chain] = &cfg
	return &cfg, nil
}

// LoadEmbedded loads the roconfig for a chain from the module's built-in
// default YAML documents.
func LoadEmbedded(chain ChainID) (*ChainConfig, error) {
	name := map[ChainID]string{
		ChainMain:    "testdata/mainnet.yaml",
		ChainTest:    "testdata/testnet.yaml",
		ChainRegtest: "testdata/regtest.yaml",
	}[chain]
	if name == "" {
		return nil, fmt.Errorf("unknown chain id %q", chain)
	}

	raw, err := embeddedConfigs.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading embedded roconfig for %q: %w", chain, err)
	}
	return Load(chain, raw)
}

// Item looks up item data, panicking if the item type is unknown — §7 of
// spec.md classifies an unknown-type lookup for an existing record as a
// "configuration lookup that returns absent", a fatal programming-invariant
// violation rather than a recoverable error.
func (c *ChainConfig) Item(name string) ItemType {
	it, ok := c.ItemOrNil(name)
	if !ok {
		panic(fmt.Sprintf("config: unknown item type %q", name))
	}
	return it
}

// ItemOrNil looks up item data, also synthesizing blueprint-original and
// blueprint-copy pseudo-items (" bpo"/" bpc" suffixes) the way
// original_source/proto/roitems.cpp does for any base item flagged
// with_blueprint.
func (c *ChainConfig) ItemOrNil(name string) (ItemType, bool) {
	if it, ok := c.Items[name]; ok {
		return it, true
	}

	const suffixOriginal = " bpo"
	const suffixCopy = " bpc"
	tryBlueprint := func(suffix string) (ItemType, bool) {
		if len(name) <= len(suffix) || name[len(name)-len(suffix):] != suffix {
			return ItemType{}, false
		}
		base := name[:len(name)-len(suffix)]
		baseItem, ok := c.Items[base]
		if !ok || !baseItem.WithBlueprint {
			return ItemType{}, false
		}
		return ItemType{Name: name, Space: 0}, true
	}
	if it, ok := tryBlueprint(suffixOriginal); ok {
		return it, true
	}
	if it, ok := tryBlueprint(suffixCopy); ok {
		return it, true
	}
	return ItemType{}, false
}

// Vehicle looks up vehicle-type data, panicking if unknown (same
// rationale as Item).
func (c *ChainConfig) Vehicle(name string) VehicleType {
	v, ok := c.VehicleOrNil(name)
	if !ok {
		panic(fmt.Sprintf("config: unknown vehicle type %q", name))
	}
	return v
}

// VehicleOrNil looks up vehicle-type data without panicking, for move
// validation that must silently reject an unknown type rather than fault.
func (c *ChainConfig) VehicleOrNil(name string) (VehicleType, bool) {
	v, ok := c.Vehicles[name]
	return v, ok
}

// Building looks up building-type data, panicking if unknown (same
// rationale as Item).
func (c *ChainConfig) Building(name string) BuildingType {
	b, ok := c.Buildings[name]
	if !ok {
		panic(fmt.Sprintf("config: unknown building type %q", name))
	}
	return b
}

// BuildingOrNil looks up building-type data without panicking, for move
// validation that must silently reject an unknown type rather than fault.
func (c *ChainConfig) BuildingOrNil(name string) (BuildingType, bool) {
	b, ok := c.Buildings[name]
	return b, ok
}
