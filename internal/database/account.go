package database

import (
	"database/sql"
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/store"
)

// MaxFame and MaxCoinAmount bound the two capped integer fields on an
// account (spec.md §3).
const (
	MaxFame       = 9999
	MaxCoinAmount = 100_000_000_000
)

// AccountConfig is the opaque per-account configuration blob (spec.md §3
// calls it out without specifying content beyond "opaque"); kept small
// and JSON-encoded through Lazy like every other blob field.
type AccountConfig struct {
	// MinimumFame is the account's minimum acceptable fame level for
	// matchmaking-style filtering, an example of the kind of per-player
	// preference this blob exists to hold. Empty/zero for most accounts.
	MinimumFame int64 `json:"min_fame,omitempty"`
}

// Account is the decoded, in-memory view of one accounts row.
type Account struct {
	Name    string
	Faction config.Faction
	Fame    int64
	Kills   int64
	Balance int64
	cfg     *Lazy[AccountConfig]
}

// IsInitialised reports whether the account has chosen a playable faction
// (spec.md §3: "initialised iff its faction is one of {RED, GREEN, BLUE}").
func (a *Account) IsInitialised() bool {
	return a.Faction.IsPlayable()
}

// Config returns the read-only decoded configuration blob.
func (a *Account) Config() *AccountConfig { return a.cfg.Get() }

// MutableConfig returns the configuration blob for modification.
func (a *Account) MutableConfig() *AccountConfig { return a.cfg.Mutable() }

// AccountHandle is a scoped, write-back-on-release handle to one account.
type AccountHandle struct {
	tbl     *AccountsTable
	rec     *Account
	isNew   bool
	dirty   bool
	release func()
	done    bool
}

// Get returns the read-only account record.
func (h *AccountHandle) Get() *Account { return h.rec }

// Mutable returns the account record for modification and marks the
// handle dirty.
func (h *AccountHandle) Mutable() *Account {
	h.dirty = true
	return h.rec
}

// SetFame clamps and sets fame, per spec.md §3's [0, 9999] bound.
func (h *AccountHandle) SetFame(v int64) {
	if v < 0 {
		v = 0
	}
	if v > MaxFame {
		v = MaxFame
	}
	h.Mutable().Fame = v
}

// AddBalance adjusts the account's coin balance by delta, clamping the
// result to [0, MaxCoinAmount]. Negative deltas that would underflow are
// clamped at zero rather than returning an error, matching the other
// capped-integer setters on this type (spec.md §3).
func (h *AccountHandle) AddBalance(delta int64) {
	v := h.rec.Balance + delta
	if v < 0 {
		v = 0
	}
	if v > MaxCoinAmount {
		v = MaxCoinAmount
	}
	h.Mutable().Balance = v
}

// Release writes back any pending changes and releases the handle
// tracker entry. It is idempotent; calling it more than once is a no-op
// after the first call.
func (h *AccountHandle) Release() error {
	if h.done {
		return nil
	}
	h.done = true
	defer h.release()

	if !h.isNew && !h.dirty {
		return nil
	}
	return h.tbl.writeBack(h.rec)
}

// AccountsTable provides CRUD access to the accounts entity kind.
type AccountsTable struct {
	store   *store.Store
	tracker *Tracker
}

// NewAccountsTable constructs an AccountsTable bound to a store and the
// process-wide handle tracker.
func NewAccountsTable(s *store.Store, t *Tracker) *AccountsTable {
	return &AccountsTable{store: s, tracker: t}
}

// CreateNew creates an uninitialised account record (faction INVALID) and
// returns a handle to it. The caller is responsible for the caller-side
// invariant that the name does not already exist.
func (t *AccountsTable) CreateNew(name string) (*AccountHandle, error) {
	rec := &Account{
		Name:    name,
		Faction: config.FactionInvalid,
		cfg:     NewLazyDefault[AccountConfig](),
	}
	release := t.tracker.Acquire("account", name)
	return &AccountHandle{tbl: t, rec: rec, isNew: true, release: release}, nil
}

// GetByName loads an existing account by name, or returns
// (nil, nil) if no such account exists.
func (t *AccountsTable) GetByName(name string) (*AccountHandle, error) {
	row := t.store.DB().QueryRow(
		`SELECT name, faction, fame, kills, balance, config_blob FROM accounts WHERE name = ?`, name)

	rec, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database: get account %q: %w", name, err)
	}

	release := t.tracker.Acquire("account", name)
	return &AccountHandle{tbl: t, rec: rec, release: release}, nil
}

// ListInitialised returns every account that has chosen a playable
// faction, in name order — the JSON state projection only ever reports
// initialised accounts (spec.md §6: "accounts (initialised only)").
func (t *AccountsTable) ListInitialised() ([]*Account, error) {
	rows, err := t.store.DB().Query(`
		SELECT name, faction, fame, kills, balance, config_blob
		FROM accounts WHERE faction IN ('r', 'g', 'b') ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("database: list initialised accounts: %w", err)
	}
	defer rows.Close()

	var out []*Account
	for rows.Next() {
		rec, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("database: scan account row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetOrCreate returns a handle to an existing account, creating an
// uninitialised one if it does not yet exist.
func (t *AccountsTable) GetOrCreate(name string) (*AccountHandle, error) {
	h, err := t.GetByName(name)
	if err != nil {
		return nil, err
	}
	if h != nil {
		return h, nil
	}
	return t.CreateNew(name)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*Account, error) {
	var name, faction string
	var fame, kills, balance int64
	var cfgBlob []byte

	if err := row.Scan(&name, &faction, &fame, &kills, &balance, &cfgBlob); err != nil {
		return nil, err
	}

	return &Account{
		Name:    name,
		Faction: config.FactionFromString(faction),
		Fame:    fame,
		Kills:   kills,
		Balance: balance,
		cfg:     NewLazy[AccountConfig](cfgBlob),
	}, nil
}

func (t *AccountsTable) writeBack(a *Account) error {
	cfgBlob, err := a.cfg.Serialised()
	if err != nil {
		return fmt.Errorf("database: serialise account config for %q: %w", a.Name, err)
	}

	_, err = t.store.DB().Exec(`
		INSERT INTO accounts (name, faction, fame, kills, balance, config_blob)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			faction = excluded.faction,
			fame = excluded.fame,
			kills = excluded.kills,
			balance = excluded.balance,
			config_blob = excluded.config_blob
	`, a.Name, a.Faction.String(), a.Fame, a.Kills, a.Balance, cfgBlob)
	if err != nil {
		return fmt.Errorf("database: write back account %q: %w", a.Name, err)
	}
	return nil
}
