package config

// Faction identifies the owning side of a character or building.
// ANCIENT and INVALID are sentinels never assignable to a player account
// (spec.md §3).
type Faction int

const (
	FactionInvalid Faction = iota
	FactionRed
	FactionGreen
	FactionBlue
	FactionAncient
)

// String renders the faction the way moves and JSON output spell it.
func (f Faction) String() string {
	switch f {
	case FactionRed:
		return "r"
	case FactionGreen:
		return "g"
	case FactionBlue:
		return "b"
	case FactionAncient:
		return "a"
	default:
		return "invalid"
	}
}

// FactionFromString parses the single-letter faction code used in move
// JSON (`init:{faction:"r"|"g"|"b"}`, spec.md §6).
func FactionFromString(s string) Faction {
	switch s {
	case "r":
		return FactionRed
	case "g":
		return FactionGreen
	case "b":
		return FactionBlue
	case "a":
		return FactionAncient
	default:
		return FactionInvalid
	}
}

// IsPlayable reports whether the faction can be chosen by a player account
// (spec.md §3: "ANCIENT/INVALID are sentinels, not assignable by a player").
func (f Faction) IsPlayable() bool {
	return f == FactionRed || f == FactionGreen || f == FactionBlue
}
