package dex

import (
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/database"
)

// ValidateTransfer checks that a direct item hand-off inside a building is
// possible: the building must be tradeable, the item configured, the
// quantity in range, and the sender must hold at least that much
// (trading.cpp's TransferOperation::IsValid).
func ValidateTransfer(buildings *database.BuildingsTable, buildingInv *database.BuildingInventoryTable, cfg *config.ChainConfig, buildingID int64, from, item string, quantity int64) error {
	if !ValidQuantity(quantity) {
		return fmt.Errorf("dex: transfer quantity %d out of range", quantity)
	}
	if err := ValidateItemOperation(buildings, cfg, buildingID, item); err != nil {
		return err
	}

	h, err := buildingInv.Get(buildingID, from)
	if err != nil {
		return fmt.Errorf("dex: load sender inventory: %w", err)
	}
	defer h.Release()

	if h.Inventory()[item] < uint64(quantity) {
		return fmt.Errorf("dex: %q holds only %d of %q, not %d", from, h.Inventory()[item], item, quantity)
	}
	return nil
}

// ExecuteTransfer moves quantity of item from the sender's building
// inventory straight into the recipient's, creating the recipient account
// if it does not exist yet (trading.cpp's TransferOperation::Execute). A
// transfer to oneself is a deliberate no-op, since its net effect is zero.
func ExecuteTransfer(accounts *database.AccountsTable, buildingInv *database.BuildingInventoryTable, buildingID int64, from *database.AccountHandle, to, item string, quantity int64) error {
	fromName := from.Get().Name
	if to == fromName {
		return nil
	}

	if recipient, err := accounts.GetOrCreate(to); err != nil {
		return fmt.Errorf("dex: ensure recipient account %q: %w", to, err)
	} else if err := recipient.Release(); err != nil {
		return fmt.Errorf("dex: persist recipient account %q: %w", to, err)
	}

	fromInv, err := buildingInv.Get(buildingID, fromName)
	if err != nil {
		return fmt.Errorf("dex: load sender inventory: %w", err)
	}
	fromInv.Mutable().Add(item, -quantity)
	if err := fromInv.Release(); err != nil {
		return fmt.Errorf("dex: write back sender inventory: %w", err)
	}

	toInv, err := buildingInv.Get(buildingID, to)
	if err != nil {
		return fmt.Errorf("dex: load recipient inventory: %w", err)
	}
	toInv.Mutable().Add(item, quantity)
	if err := toInv.Release(); err != nil {
		return fmt.Errorf("dex: write back recipient inventory: %w", err)
	}
	return nil
}
