package moveproc

import (
	"sort"

	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/database"
	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
	"github.com/hexrealm/taurion-gsp/pkg/helpers"
)

// handleCharacterCreate applies the "nc" sub-command: mints count fresh
// characters for the acting account, provided it paid character_cost CHI
// per entry to the configured dev address and stays within
// character_limit (spec.md §4.1, §6).
func (d *Dispatcher) handleCharacterCreate(acct *database.AccountHandle, mv Move, count int) error {
	name := acct.Get().Name

	paidStr, ok := mv.Out[d.cfg.Params.DevAddress]
	if !ok || d.cfg.Params.DevAddress == "" {
		d.log.Warn("nc without a dev-address payment, rejecting", "account", name)
		return nil
	}
	paid, err := helpers.CHIToSatoshis(paidStr)
	if err != nil {
		d.log.Warn("nc dev payment malformed, rejecting", "account", name, "err", err)
		return nil
	}
	required := d.cfg.Params.CharacterCost * int64(count)
	if int64(paid) < required {
		d.log.Warn("nc dev payment too small, rejecting", "account", name, "paid", paid, "required", required)
		return nil
	}

	existing, err := d.tables.Characters.ListByOwner(name)
	if err != nil {
		return err
	}
	limit := d.cfg.Params.CharacterLimit
	if limit > 0 && int64(len(existing))+int64(count) > limit {
		d.log.Warn("nc exceeds character_limit, rejecting", "account", name, "existing", len(existing), "requested", count, "limit", limit)
		return nil
	}

	faction := acct.Get().Faction
	pos := d.spawnPositionFor(faction)
	vehicle := d.starterVehicle()

	for i := 0; i < count; i++ {
		h, err := d.tables.Characters.CreateNew(name, faction, pos, vehicle)
		if err != nil {
			return err
		}
		if err := h.Release(); err != nil {
			return err
		}
	}
	return nil
}

// spawnPositionFor returns the centre of the first configured spawn area
// matching faction, or the map origin if none is configured for it.
func (d *Dispatcher) spawnPositionFor(faction config.Faction) hexcoord.Coord {
	for _, sa := range d.cfg.SpawnAreas {
		if sa.Faction == faction.String() {
			return hexcoord.NewCoord(sa.CentreX, sa.CentreY)
		}
	}
	return hexcoord.NewCoord(0, 0)
}

// starterVehicle picks the lowest-Complexity configured vehicle type
// (ties broken alphabetically by name) as the one every freshly created
// character starts with. No original_source file enumerates a dedicated
// "basic vehicle" constant in this pack, so the starter is derived from
// the roconfig itself rather than hard-coded.
func (d *Dispatcher) starterVehicle() string {
	names := make([]string, 0, len(d.cfg.Vehicles))
	for name := range d.cfg.Vehicles {
		names = append(names, name)
	}
	sort.Strings(names)

	best := ""
	var bestComplexity int64
	for _, name := range names {
		vt := d.cfg.Vehicles[name]
		if best == "" || vt.Complexity < bestComplexity {
			best = name
			bestComplexity = vt.Complexity
		}
	}
	return best
}
