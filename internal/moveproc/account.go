package moveproc

import (
	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/database"
)

// handleAccountUpdate applies the "a" sub-command: a one-time,
// irreversible faction choice that takes an account from uninitialised
// to initialised (spec.md §4.1). Already-initialised accounts and
// unrecognised faction strings are rejected and logged.
func (d *Dispatcher) handleAccountUpdate(acct *database.AccountHandle, upd *AccountUpdate) {
	if upd.Init == nil {
		return
	}
	name := acct.Get().Name

	if acct.Get().IsInitialised() {
		d.log.Warn("a.init on already-initialised account, rejecting", "account", name)
		return
	}

	faction := config.FactionFromString(upd.Init.Faction)
	if !faction.IsPlayable() {
		d.log.Warn("a.init names an unplayable faction, rejecting", "account", name, "faction", upd.Init.Faction)
		return
	}

	acct.Mutable().Faction = faction
}
