package moveproc

import (
	"encoding/json"
	"fmt"
)

// BlockInfo identifies the block a move-processing pass applies to.
type BlockInfo struct {
	Height    int64 `json:"height"`
	Timestamp int64 `json:"timestamp"`
}

// BlockEnvelope is the literal shape of one block's worth of moves fed
// into the processor (spec.md §6): the block identity, the ordered list
// of name-moves, and an out-of-band admin channel honoured only on
// permissive chains.
type BlockEnvelope struct {
	Block BlockInfo    `json:"block"`
	Moves []Move       `json:"moves"`
	Admin []AdminEntry `json:"admin"`
}

// Move is one account's move: the CHI payments it made (keyed by
// recipient address) and the game-move JSON itself.
type Move struct {
	Name string            `json:"name"`
	Out  map[string]string `json:"out,omitempty"`
	Move MoveBody          `json:"move"`
}

// MoveBody is the "move" object's sub-commands, one per concern spec.md
// §6 lists. Every field is optional; an empty MoveBody is a legal no-op
// move (e.g. one that only pays the dev address).
type MoveBody struct {
	NewCharacters []struct{}     `json:"nc,omitempty"`
	Character     *CharacterMove `json:"c,omitempty"`
	Building      *BuildingMove  `json:"b,omitempty"`
	Service       []ServiceOp    `json:"s,omitempty"`
	Dex           []DexOp        `json:"x,omitempty"`
	Account       *AccountUpdate `json:"a,omitempty"`
	Coins         *CoinOp        `json:"vc,omitempty"`
}

// AccountUpdate is the "a" sub-command: account initialisation (the only
// account-level operation spec.md §4.1 defines beyond fame/kill bookkeeping,
// which the engine itself performs as a side effect of combat).
type AccountUpdate struct {
	Init *AccountInit `json:"init,omitempty"`
}

// AccountInit chooses a playable faction, the one-time, irreversible
// step that takes an account from uninitialised to initialised.
type AccountInit struct {
	Faction string `json:"faction"`
}

// FoundBuilding is the "fb" character sub-command: found a new building
// foundation centred on the character's current position.
type FoundBuilding struct {
	Type     string `json:"t"`
	Rotation int64  `json:"rot"`
}

// CharacterMove is the "c" sub-command: one body of updates applied to
// every character id named by ID (a plain integer or an array of them).
type CharacterMove struct {
	ID json.RawMessage `json:"id"`

	WP    *string `json:"wp,omitempty"`
	WPX   *string `json:"wpx,omitempty"`
	Speed *int64  `json:"speed,omitempty"`

	EnterBuilding *int64   `json:"eb,omitempty"`
	ExitBuilding  *struct{} `json:"xb,omitempty"`

	Pickup map[string]map[string]int64 `json:"pu,omitempty"`
	Drop   map[string]map[string]int64 `json:"drop,omitempty"`

	Prospect *struct{} `json:"prospect,omitempty"`
	Mine     *struct{} `json:"mine,omitempty"`

	Vehicle   *string  `json:"v,omitempty"`
	Fitments  []string `json:"fit,omitempty"`

	FoundBuilding *FoundBuilding `json:"fb,omitempty"`
	Send          *string        `json:"send,omitempty"`
}

// BuildingMove is the "b" sub-command: one body of updates applied to
// every building id named by ID.
type BuildingMove struct {
	ID json.RawMessage `json:"id"`

	ServiceFee *int64  `json:"sf,omitempty"`
	DexFee     *int64  `json:"xf,omitempty"`
	Send       *string `json:"send,omitempty"`
}

// ServiceOp is one entry of the "s" array: a building-scoped service
// request (armour repair, blueprint copying, item or building
// construction contribution).
type ServiceOp struct {
	Building  int64  `json:"b"`
	Type      string `json:"t"`
	Character *int64 `json:"c,omitempty"`
	Item      string `json:"i,omitempty"`
	Num       int64  `json:"n,omitempty"`
}

// Service operation type tags.
const (
	ServiceArmourRepair         = "repair"
	ServiceBlueprintCopy        = "bpc"
	ServiceItemConstruction     = "construct"
	ServiceBuildingContribution = "buildcont"
)

// DexOp is one entry of the "x" array: exactly one of TransferTo,
// BidPrice, AskPrice or Cancel identifies which DEX operation this is.
type DexOp struct {
	Building *int64 `json:"b,omitempty"`
	Item     string `json:"i,omitempty"`
	Quantity *int64 `json:"n,omitempty"`

	TransferTo *string `json:"t,omitempty"`
	BidPrice   *int64  `json:"bp,omitempty"`
	AskPrice   *int64  `json:"ap,omitempty"`
	Cancel     *int64  `json:"c,omitempty"`
}

// CoinOp is the "vc" sub-command: in-game coin transfer, burn, or
// burn-backed mint.
type CoinOp struct {
	Transfer map[string]string `json:"t,omitempty"`
	Burn     string            `json:"b,omitempty"`
	Mint     *struct{}         `json:"m,omitempty"`
}

// AdminEntry is one out-of-band admin channel operation, honoured only
// when the chain config enables god mode (spec.md §6's "dev/test chains
// only" admin primitives).
type AdminEntry struct {
	Teleport  *AdminTeleport  `json:"teleport,omitempty"`
	SetHP     *AdminSetHP     `json:"sethp,omitempty"`
	Build     *AdminBuild     `json:"build,omitempty"`
	DropLoot  *AdminDropLoot  `json:"droploot,omitempty"`
	GiftCoins *AdminGiftCoins `json:"giftcoins,omitempty"`
}

type AdminTeleport struct {
	Character int64 `json:"character"`
	X         int64 `json:"x"`
	Y         int64 `json:"y"`
}

type AdminSetHP struct {
	Character int64 `json:"character"`
	Armour    int64 `json:"armour"`
	Shield    int64 `json:"shield"`
}

type AdminBuild struct {
	Type     string `json:"type"`
	Owner    string `json:"owner"`
	X        int64  `json:"x"`
	Y        int64  `json:"y"`
	Rotation int64  `json:"rotation"`
}

type AdminDropLoot struct {
	X        int64  `json:"x"`
	Y        int64  `json:"y"`
	Item     string `json:"item"`
	Quantity int64  `json:"quantity"`
}

type AdminGiftCoins struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

// parseIDList decodes a "c"/"b" sub-command's id field, which is either a
// single integer or an array of them.
func parseIDList(raw json.RawMessage) ([]int64, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("moveproc: missing id")
	}

	var single int64
	if err := json.Unmarshal(raw, &single); err == nil {
		return []int64{single}, nil
	}

	var multi []int64
	if err := json.Unmarshal(raw, &multi); err == nil {
		return multi, nil
	}

	return nil, fmt.Errorf("moveproc: id field is neither an integer nor an array of integers")
}
