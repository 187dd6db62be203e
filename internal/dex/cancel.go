package dex

import (
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/database"
)

// ValidateCancel checks that orderID exists and is owned by account
// (trading.cpp's CancelOrderOperation::IsValid).
func ValidateCancel(orders *database.DexOrdersTable, orderID int64, account string) (*database.DexOrder, error) {
	o, err := orders.GetByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("dex: load order %d: %w", orderID, err)
	}
	if o == nil {
		return nil, fmt.Errorf("dex: order %d does not exist", orderID)
	}
	if o.Account != account {
		return nil, fmt.Errorf("dex: order %d is not owned by %q", orderID, account)
	}
	return o, nil
}

// ExecuteCancel removes an order and refunds whatever it had reserved: a
// bid refunds its remaining quantity*price in coins, an ask refunds its
// remaining quantity back into the owner's building inventory
// (trading.cpp's CancelOrderOperation::Execute).
func ExecuteCancel(buildingInv *database.BuildingInventoryTable, orders *database.DexOrdersTable, owner *database.AccountHandle, o *database.DexOrder) error {
	switch o.Side {
	case database.DexBid:
		refund, err := NewProduct(o.Quantity, o.UnitPrice).Extract()
		if err != nil {
			return fmt.Errorf("dex: cancel refund for bid %d: %w", o.ID, err)
		}
		owner.AddBalance(refund)
	case database.DexAsk:
		h, err := buildingInv.Get(o.BuildingID, o.Account)
		if err != nil {
			return fmt.Errorf("dex: load inventory to refund cancelled ask %d: %w", o.ID, err)
		}
		h.Mutable().Add(o.Item, o.Quantity)
		if err := h.Release(); err != nil {
			return fmt.Errorf("dex: write back refund for cancelled ask %d: %w", o.ID, err)
		}
	default:
		return fmt.Errorf("dex: order %d has unknown side %q", o.ID, o.Side)
	}

	return orders.SetQuantity(o.ID, 0)
}
