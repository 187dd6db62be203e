package moveproc

import (
	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
	"github.com/hexrealm/taurion-gsp/pkg/helpers"
)

// processAdmin applies the out-of-band admin channel, gated entirely on
// the chain config's god-mode flag (SPEC_FULL.md's Open Question
// decision: on a permissive chain these primitives are trusted
// operator/test tooling, so they are applied with minimal validation —
// unlike every move sub-command, which validates against an untrusted
// transaction).
func (d *Dispatcher) processAdmin(entries []AdminEntry) error {
	if !d.cfg.GodMode {
		if len(entries) > 0 {
			d.log.Warn("admin channel present on a non-permissive chain, ignoring", "count", len(entries))
		}
		return nil
	}

	for _, e := range entries {
		if err := d.applyAdminEntry(e); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) applyAdminEntry(e AdminEntry) error {
	if e.Teleport != nil {
		h, err := d.tables.Characters.GetByID(e.Teleport.Character)
		if err != nil {
			return err
		}
		if h != nil {
			h.SetPosition(hexcoord.NewCoord(e.Teleport.X, e.Teleport.Y))
			if err := h.Release(); err != nil {
				return err
			}
		}
	}

	if e.SetHP != nil {
		h, err := d.tables.Characters.GetByID(e.SetHP.Character)
		if err != nil {
			return err
		}
		if h != nil {
			blob := h.MutableBlob()
			blob.HP.Armour = e.SetHP.Armour
			blob.HP.Shield = e.SetHP.Shield
			if err := h.Release(); err != nil {
				return err
			}
		}
	}

	if e.Build != nil {
		h, err := d.tables.Buildings.CreateNew(e.Build.Type, e.Build.Owner, hexcoord.NewCoord(e.Build.X, e.Build.Y), e.Build.Rotation, false)
		if err != nil {
			return err
		}
		if err := h.Release(); err != nil {
			return err
		}
	}

	if e.DropLoot != nil {
		gl, err := d.tables.GroundLoot.Get(hexcoord.NewCoord(e.DropLoot.X, e.DropLoot.Y))
		if err != nil {
			return err
		}
		gl.Mutable().Add(e.DropLoot.Item, e.DropLoot.Quantity)
		if err := gl.Release(); err != nil {
			return err
		}
	}

	if e.GiftCoins != nil {
		amt, err := parseAdminAmount(e.GiftCoins.Amount)
		if err != nil {
			d.log.Warn("admin giftcoins amount malformed, ignoring", "account", e.GiftCoins.Account, "err", err)
			return nil
		}
		return d.creditAccount(e.GiftCoins.Account, amt)
	}

	return nil
}

func parseAdminAmount(s string) (int64, error) {
	amt, err := helpers.CHIToSatoshis(s)
	return int64(amt), err
}
