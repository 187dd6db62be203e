package moveproc

import (
	"github.com/hexrealm/taurion-gsp/internal/database"
	"github.com/hexrealm/taurion-gsp/internal/dex"
)

// handleDexOp applies one entry of the "x" array, dispatching to
// internal/dex's validate/execute pairs. A malformed or invalid op is
// logged and dropped; only store errors propagate.
func (d *Dispatcher) handleDexOp(height int64, acct *database.AccountHandle, op DexOp) error {
	name := acct.Get().Name

	switch {
	case op.Cancel != nil:
		o, err := dex.ValidateCancel(d.tables.DexOrders, *op.Cancel, name)
		if err != nil {
			d.log.Warn("x cancel rejected", "account", name, "err", err)
			return nil
		}
		return dex.ExecuteCancel(d.tables.BuildingInventory, d.tables.DexOrders, acct, o)

	case op.TransferTo != nil:
		if op.Building == nil || op.Quantity == nil {
			d.log.Warn("x transfer missing fields, dropping", "account", name)
			return nil
		}
		if err := dex.ValidateTransfer(d.tables.Buildings, d.tables.BuildingInventory, d.cfg, *op.Building, name, op.Item, *op.Quantity); err != nil {
			d.log.Warn("x transfer rejected", "account", name, "err", err)
			return nil
		}
		return dex.ExecuteTransfer(d.tables.Accounts, d.tables.BuildingInventory, *op.Building, acct, *op.TransferTo, op.Item, *op.Quantity)

	case op.BidPrice != nil:
		if op.Building == nil || op.Quantity == nil {
			d.log.Warn("x bid missing fields, dropping", "account", name)
			return nil
		}
		if err := dex.ValidateBid(d.tables.Buildings, d.cfg, *op.Building, acct.Get(), op.Item, *op.Quantity, *op.BidPrice); err != nil {
			d.log.Warn("x bid rejected", "account", name, "err", err)
			return nil
		}
		return dex.ExecuteBid(d.tables.Accounts, d.tables.Buildings, d.tables.BuildingInventory, d.tables.DexOrders, d.tables.DexTradeHistory, d.cfg, *op.Building, acct, op.Item, *op.Quantity, *op.BidPrice, height)

	case op.AskPrice != nil:
		if op.Building == nil || op.Quantity == nil {
			d.log.Warn("x ask missing fields, dropping", "account", name)
			return nil
		}
		if err := dex.ValidateAsk(d.tables.Buildings, d.tables.BuildingInventory, d.cfg, *op.Building, name, op.Item, *op.Quantity, *op.AskPrice); err != nil {
			d.log.Warn("x ask rejected", "account", name, "err", err)
			return nil
		}
		return dex.ExecuteAsk(d.tables.Accounts, d.tables.Buildings, d.tables.BuildingInventory, d.tables.DexOrders, d.tables.DexTradeHistory, d.cfg, *op.Building, acct, op.Item, *op.Quantity, *op.AskPrice, height)

	default:
		d.log.Warn("x names no recognised operation, dropping", "account", name)
		return nil
	}
}
