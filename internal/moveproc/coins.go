package moveproc

import (
	"github.com/hexrealm/taurion-gsp/internal/database"
	"github.com/hexrealm/taurion-gsp/pkg/helpers"
)

// creditAccount adds amount to the named account's balance, creating the
// account if it does not yet exist. Used for vc transfer recipients and
// admin coin gifts, where the caller's own handle is not already open.
func (d *Dispatcher) creditAccount(name string, amount int64) error {
	h, err := d.tables.Accounts.GetOrCreate(name)
	if err != nil {
		return err
	}
	h.AddBalance(amount)
	return h.Release()
}

// handleCoins applies a move's "vc" sub-command: mint (capped by CHI
// simultaneously burnt to the configured burn address in this move's
// `out` map), burn, and transfer, in that order — banking.cpp's coin-op
// ordering. Every amount is a CHI-denominated decimal string, the same
// unit a move's `out` map uses, parsed with helpers.CHIToSatoshis.
// Validation failures are logged and the offending atom is dropped;
// only store errors propagate.
func (d *Dispatcher) handleCoins(acct *database.AccountHandle, mv Move) error {
	co := mv.Move.Coins
	name := acct.Get().Name

	if co.Mint != nil {
		burnt, ok := mv.Out[d.cfg.Params.BurnAddress]
		if !ok || d.cfg.Params.BurnAddress == "" {
			d.log.Warn("vc.m without a matching burn-address payment, rejecting", "account", name)
		} else if amt, err := helpers.CHIToSatoshis(burnt); err != nil {
			d.log.Warn("vc.m burn amount malformed, rejecting", "account", name, "err", err)
		} else {
			acct.AddBalance(int64(amt))
			if err := d.tables.ItemCounts.AdjustMoneySupply(int64(amt)); err != nil {
				return err
			}
		}
	}

	if co.Burn != "" {
		amt, err := helpers.CHIToSatoshis(co.Burn)
		if err != nil {
			d.log.Warn("vc.b amount malformed, rejecting", "account", name, "err", err)
		} else if int64(amt) > acct.Get().Balance {
			d.log.Warn("vc.b exceeds balance, rejecting", "account", name, "amount", amt, "balance", acct.Get().Balance)
		} else {
			acct.AddBalance(-int64(amt))
			if err := d.tables.ItemCounts.AdjustMoneySupply(-int64(amt)); err != nil {
				return err
			}
		}
	}

	if len(co.Transfer) > 0 {
		if err := d.handleCoinTransfer(acct, co.Transfer); err != nil {
			return err
		}
	}

	return nil
}

// handleCoinTransfer validates that the sum of every transfer entry does
// not exceed the sender's current balance before crediting any
// recipient, so a partially-invalid batch never leaves the sender
// overdrawn (spec.md §7's "validated against current balance before any
// credits").
func (d *Dispatcher) handleCoinTransfer(acct *database.AccountHandle, transfer map[string]string) error {
	name := acct.Get().Name

	amounts := make(map[string]int64, len(transfer))
	var total int64
	for to, s := range transfer {
		amt, err := helpers.CHIToSatoshis(s)
		if err != nil {
			d.log.Warn("vc.t entry malformed, dropping", "account", name, "to", to, "err", err)
			continue
		}
		amounts[to] = int64(amt)
		total += int64(amt)
	}

	if total > acct.Get().Balance {
		d.log.Warn("vc.t total exceeds balance, rejecting whole transfer", "account", name, "total", total, "balance", acct.Get().Balance)
		return nil
	}

	for to, amt := range amounts {
		if to == name {
			continue
		}
		acct.AddBalance(-amt)
		if err := d.creditAccount(to, amt); err != nil {
			return err
		}
	}
	return nil
}
