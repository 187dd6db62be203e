package dex

import (
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/database"
)

// payCoins credits amount to recipient, routing through caller's already
// open handle when recipient is the account performing the move so the
// handle tracker never sees a second acquire for the same key (trading.cpp's
// PayCoins: "if the recipient is the acting account, just adjust it
// in-place").
func payCoins(accounts *database.AccountsTable, caller *database.AccountHandle, recipient string, amount int64) error {
	if amount == 0 {
		return nil
	}
	if recipient == caller.Get().Name {
		caller.AddBalance(amount)
		return nil
	}
	h, err := accounts.GetOrCreate(recipient)
	if err != nil {
		return fmt.Errorf("dex: load recipient account %q: %w", recipient, err)
	}
	h.AddBalance(amount)
	return h.Release()
}

// payToSellerAndFee splits cost between the building owner's cut and the
// seller, and pays both through payCoins, following trading.cpp's
// PayToSellerAndFee. An ancient building (no owner) takes no owner fee at
// all; only the protocol base fee applies.
func payToSellerAndFee(accounts *database.AccountsTable, buildings *database.BuildingsTable, cfg *config.ChainConfig, caller *database.AccountHandle, buildingID int64, seller string, cost int64) error {
	if cost < 0 {
		return fmt.Errorf("dex: negative cost %d", cost)
	}
	if cost == 0 {
		return nil
	}

	b, err := checkBuildingForTrading(buildings, buildingID)
	if err != nil {
		return err
	}

	ancient := b.Owner == ""
	ownerBps := b.Blob().DexFeeBps
	if ancient {
		ownerBps = 0
	}
	totalBps := cfg.Params.DexBaseFeeBps + ownerBps

	ownerFee, payout, err := feeSplit(cost, totalBps, ownerBps)
	if err != nil {
		return fmt.Errorf("dex: split fee for building %d: %w", buildingID, err)
	}

	if ownerFee > 0 {
		if err := payCoins(accounts, caller, b.Owner, ownerFee); err != nil {
			return err
		}
	}
	return payCoins(accounts, caller, seller, payout)
}
