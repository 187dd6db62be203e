package dex

import (
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/database"
)

// ValidateBid checks a new bid's preconditions: the usual item-operation
// checks, a sane quantity and price, and that the bidder can afford the
// full quantity*price product at face value (trading.cpp's
// BidOperation::IsValid — matched fills may cost less, but the reserve is
// computed against the full ask price up front).
func ValidateBid(buildings *database.BuildingsTable, cfg *config.ChainConfig, buildingID int64, bidder *database.Account, item string, quantity, price int64) error {
	if !ValidQuantity(quantity) || !ValidPrice(price) {
		return fmt.Errorf("dex: bid quantity %d / price %d out of range", quantity, price)
	}
	if err := ValidateItemOperation(buildings, cfg, buildingID, item); err != nil {
		return err
	}
	cost, err := NewProduct(quantity, price).Extract()
	if err != nil {
		return fmt.Errorf("dex: bid cost: %w", err)
	}
	if cost > bidder.Balance {
		return fmt.Errorf("dex: bidder %q cannot afford %d at %d each", bidder.Name, quantity, price)
	}
	return nil
}

// ExecuteBid matches a new bid against the cheapest resting asks at or
// below price, oldest first, then rests any unmatched quantity as a new
// bid order, reserving its cost from the bidder's balance immediately
// (trading.cpp's BidOperation::Execute).
func ExecuteBid(
	accounts *database.AccountsTable,
	buildings *database.BuildingsTable,
	buildingInv *database.BuildingInventoryTable,
	orders *database.DexOrdersTable,
	history *database.DexTradeHistoryTable,
	cfg *config.ChainConfig,
	buildingID int64,
	buyer *database.AccountHandle,
	item string,
	quantity, price, height int64,
) error {
	buyerName := buyer.Get().Name

	buyerInv, err := buildingInv.Get(buildingID, buyerName)
	if err != nil {
		return fmt.Errorf("dex: load buyer inventory: %w", err)
	}
	defer buyerInv.Release()

	asks, err := orders.MatchingAsks(buildingID, item, price)
	if err != nil {
		return fmt.Errorf("dex: query matching asks: %w", err)
	}

	remaining := quantity
	for _, ask := range asks {
		if remaining <= 0 {
			break
		}
		fill := remaining
		if ask.Quantity < fill {
			fill = ask.Quantity
		}

		cost, err := NewProduct(fill, ask.UnitPrice).Extract()
		if err != nil {
			return fmt.Errorf("dex: matched fill cost: %w", err)
		}

		buyerInv.Mutable().Add(item, fill)
		buyer.AddBalance(-cost)
		if err := payToSellerAndFee(accounts, buildings, cfg, buyer, buildingID, ask.Account, cost); err != nil {
			return err
		}

		trade := &database.DexTrade{
			BuildingID: buildingID,
			Item:       item,
			Quantity:   fill,
			UnitPrice:  ask.UnitPrice,
			Buyer:      buyerName,
			Seller:     ask.Account,
			Height:     height,
		}
		if err := history.Append(trade); err != nil {
			return fmt.Errorf("dex: record trade: %w", err)
		}

		if err := orders.SetQuantity(ask.ID, ask.Quantity-fill); err != nil {
			return fmt.Errorf("dex: update matched ask %d: %w", ask.ID, err)
		}
		remaining -= fill
	}

	if remaining > 0 {
		reserve, err := NewProduct(remaining, price).Extract()
		if err != nil {
			return fmt.Errorf("dex: resting bid reserve: %w", err)
		}
		buyer.AddBalance(-reserve)

		if _, err := orders.Create(&database.DexOrder{
			BuildingID: buildingID,
			Account:    buyerName,
			Side:       database.DexBid,
			Item:       item,
			Quantity:   remaining,
			UnitPrice:  price,
		}); err != nil {
			return fmt.Errorf("dex: rest unfilled bid: %w", err)
		}
	}

	return nil
}

// ValidateAsk checks a new ask's preconditions: the usual item-operation
// checks, a sane quantity and price, and that the seller's building
// inventory actually holds the quantity offered (trading.cpp's
// AskOperation::IsValid).
func ValidateAsk(buildings *database.BuildingsTable, buildingInv *database.BuildingInventoryTable, cfg *config.ChainConfig, buildingID int64, seller, item string, quantity, price int64) error {
	if !ValidQuantity(quantity) || !ValidPrice(price) {
		return fmt.Errorf("dex: ask quantity %d / price %d out of range", quantity, price)
	}
	if err := ValidateItemOperation(buildings, cfg, buildingID, item); err != nil {
		return err
	}

	h, err := buildingInv.Get(buildingID, seller)
	if err != nil {
		return fmt.Errorf("dex: load seller inventory: %w", err)
	}
	defer h.Release()

	if h.Inventory()[item] < uint64(quantity) {
		return fmt.Errorf("dex: seller %q holds only %d of %q, not %d", seller, h.Inventory()[item], item, quantity)
	}
	return nil
}

// ExecuteAsk matches a new ask against the highest resting bids at or
// above price, oldest first, then escrows any unmatched quantity out of
// the seller's own building inventory as a new resting ask (trading.cpp's
// AskOperation::Execute).
func ExecuteAsk(
	accounts *database.AccountsTable,
	buildings *database.BuildingsTable,
	buildingInv *database.BuildingInventoryTable,
	orders *database.DexOrdersTable,
	history *database.DexTradeHistoryTable,
	cfg *config.ChainConfig,
	buildingID int64,
	seller *database.AccountHandle,
	item string,
	quantity, price, height int64,
) error {
	sellerName := seller.Get().Name

	sellerInv, err := buildingInv.Get(buildingID, sellerName)
	if err != nil {
		return fmt.Errorf("dex: load seller inventory: %w", err)
	}
	defer sellerInv.Release()

	bids, err := orders.MatchingBids(buildingID, item, price)
	if err != nil {
		return fmt.Errorf("dex: query matching bids: %w", err)
	}

	remaining := quantity
	for _, bid := range bids {
		if remaining <= 0 {
			break
		}
		fill := remaining
		if bid.Quantity < fill {
			fill = bid.Quantity
		}

		cost, err := NewProduct(fill, bid.UnitPrice).Extract()
		if err != nil {
			return fmt.Errorf("dex: matched fill cost: %w", err)
		}

		sellerInv.Mutable().Add(item, -fill)
		if err := payToSellerAndFee(accounts, buildings, cfg, seller, buildingID, sellerName, cost); err != nil {
			return err
		}

		if bid.Account == sellerName {
			// Matched our own resting bid: same inventory handle, net
			// quantity change is zero but routed through the same Mutable
			// call rather than a second acquire on the tracker.
			sellerInv.Mutable().Add(item, fill)
		} else {
			buyerInv, err := buildingInv.Get(buildingID, bid.Account)
			if err != nil {
				return fmt.Errorf("dex: load matched bidder inventory: %w", err)
			}
			buyerInv.Mutable().Add(item, fill)
			if err := buyerInv.Release(); err != nil {
				return fmt.Errorf("dex: write back matched bidder inventory: %w", err)
			}
		}

		trade := &database.DexTrade{
			BuildingID: buildingID,
			Item:       item,
			Quantity:   fill,
			UnitPrice:  bid.UnitPrice,
			Buyer:      bid.Account,
			Seller:     sellerName,
			Height:     height,
		}
		if err := history.Append(trade); err != nil {
			return fmt.Errorf("dex: record trade: %w", err)
		}

		if err := orders.SetQuantity(bid.ID, bid.Quantity-fill); err != nil {
			return fmt.Errorf("dex: update matched bid %d: %w", bid.ID, err)
		}
		remaining -= fill
	}

	if remaining > 0 {
		sellerInv.Mutable().Add(item, -remaining)

		if _, err := orders.Create(&database.DexOrder{
			BuildingID: buildingID,
			Account:    sellerName,
			Side:       database.DexAsk,
			Item:       item,
			Quantity:   remaining,
			UnitPrice:  price,
		}); err != nil {
			return fmt.Errorf("dex: rest unfilled ask: %w", err)
		}
	}

	return nil
}
