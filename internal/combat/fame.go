package combat

import (
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/database"
)

// famePerKill caps how much fame can change hands for a single kill
// (original_source/src/fame.cpp's FAME_PER_KILL).
const famePerKill = 100

// fameLevel buckets a fame value into one of 9 levels (0-8), matching
// fame.cpp's GetLevel.
func fameLevel(fame int64) int64 {
	lvl := fame / 1000
	if lvl > 8 {
		return 8
	}
	return lvl
}

// FameUpdater accumulates per-account fame deltas across every kill in a
// block and applies them in one final pass, so the order in which kills
// are processed within a block never changes the outcome (spec.md
// §4.4.5). Grounded on original_source/src/fame.cpp's FameUpdater, whose
// destructor performs the same deferred-apply step.
type FameUpdater struct {
	accounts   *database.AccountsTable
	characters *database.CharactersTable
	height     int64
	deltas     map[string]int64
}

// NewFameUpdater constructs a FameUpdater for one block at the given
// height, used to prune each victim's rolling attacker-list.
func NewFameUpdater(accounts *database.AccountsTable, characters *database.CharactersTable, height int64) *FameUpdater {
	return &FameUpdater{
		accounts:   accounts,
		characters: characters,
		height:     height,
		deltas:     make(map[string]int64),
	}
}

// UpdateForKill schedules the fame consequences of victimCharID's death.
// It must run before the victim's character row is deleted, since it
// reads the victim's owner and rolling attacker-list from it.
//
// Every distinct attacker account has its kills counter incremented
// regardless of level. Fame only moves for attackers whose level is
// within 1 of the victim's, and — per spec.md §4.4.5's literal text —
// the lost fame is split across the in-range attacker accounts, not
// across every distinct attacker (original_source's fame.cpp divides by
// the full owner set instead; this module follows the specification).
func (u *FameUpdater) UpdateForKill(victimCharID int64) error {
	vh, err := u.characters.GetByID(victimCharID)
	if err != nil {
		return fmt.Errorf("combat: load killed character %d for fame update: %w", victimCharID, err)
	}
	if vh == nil {
		return nil
	}
	rec := vh.Get()
	victimOwner := rec.Owner

	var attackerIDs []int64
	for attackerID, expiry := range rec.Blob().DamageList {
		if expiry <= u.height {
			continue
		}
		attackerIDs = append(attackerIDs, attackerID)
	}
	if err := vh.Release(); err != nil {
		return err
	}

	vah, err := u.accounts.GetOrCreate(victimOwner)
	if err != nil {
		return fmt.Errorf("combat: load victim account %q for fame update: %w", victimOwner, err)
	}
	victimFame := vah.Get().Fame
	if err := vah.Release(); err != nil {
		return err
	}
	victimLevel := fameLevel(victimFame)

	owners := make(map[string]bool)
	for _, aid := range attackerIDs {
		ah, err := u.characters.GetByID(aid)
		if err != nil {
			return fmt.Errorf("combat: load attacker character %d for fame update: %w", aid, err)
		}
		if ah == nil {
			// The attacker character no longer exists (e.g. it also died
			// this block); it still counted as a distinct attacker while
			// alive, but there is no owner left to credit.
			continue
		}
		owners[ah.Get().Owner] = true
		if err := ah.Release(); err != nil {
			return err
		}
	}

	var inRange []string
	for owner := range owners {
		ah, err := u.accounts.GetOrCreate(owner)
		if err != nil {
			return fmt.Errorf("combat: load killer account %q for fame update: %w", owner, err)
		}
		ah.Mutable().Kills++
		level := fameLevel(ah.Get().Fame)
		if err := ah.Release(); err != nil {
			return err
		}
		if abs64(level-victimLevel) <= 1 {
			inRange = append(inRange, owner)
		}
	}

	if len(inRange) == 0 {
		return nil
	}

	fameLost := min64(victimFame, famePerKill)
	famePerKiller := fameLost / int64(len(inRange))
	for _, owner := range inRange {
		u.deltas[owner] += famePerKiller
	}
	u.deltas[victimOwner] -= fameLost
	return nil
}

// Flush applies every accumulated fame delta in one pass, clamped to
// [0, MaxFame] by AccountHandle.SetFame.
func (u *FameUpdater) Flush() error {
	for owner, delta := range u.deltas {
		h, err := u.accounts.GetOrCreate(owner)
		if err != nil {
			return fmt.Errorf("combat: load account %q to apply fame delta: %w", owner, err)
		}
		h.SetFame(h.Get().Fame + delta)
		if err := h.Release(); err != nil {
			return err
		}
	}
	return nil
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
