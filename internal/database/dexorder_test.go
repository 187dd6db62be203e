package database

import "testing"

func TestDexOrderBookSortsByPriceThenTime(t *testing.T) {
	s := newTestStore(t)
	orders := NewDexOrdersTable(s)

	mustCreate := func(account string, side DexSide, price int64) {
		t.Helper()
		if _, err := orders.Create(&DexOrder{
			BuildingID: 1, Account: account, Side: side, Item: "ore", Quantity: 10, UnitPrice: price,
		}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	mustCreate("buyer-low", DexBid, 5)
	mustCreate("buyer-high", DexBid, 9)
	mustCreate("buyer-mid", DexBid, 7)
	mustCreate("seller-high", DexAsk, 12)
	mustCreate("seller-low", DexAsk, 10)

	bids, asks, err := orders.OrderBook(1, "ore")
	if err != nil {
		t.Fatalf("OrderBook() error = %v", err)
	}
	if len(bids) != 3 || bids[0].Account != "buyer-high" || bids[2].Account != "buyer-low" {
		t.Fatalf("expected bids sorted by descending price, got %v", bids)
	}
	if len(asks) != 2 || asks[0].Account != "seller-low" || asks[1].Account != "seller-high" {
		t.Fatalf("expected asks sorted by ascending price, got %v", asks)
	}
}

func TestDexOrderSetQuantityDeletesAtZero(t *testing.T) {
	s := newTestStore(t)
	orders := NewDexOrdersTable(s)

	id, err := orders.Create(&DexOrder{BuildingID: 1, Account: "alice", Side: DexBid, Item: "ore", Quantity: 5, UnitPrice: 3})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := orders.SetQuantity(id, 2); err != nil {
		t.Fatalf("SetQuantity() error = %v", err)
	}
	o, err := orders.GetByID(id)
	if err != nil || o == nil || o.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %v err=%v", o, err)
	}

	if err := orders.SetQuantity(id, 0); err != nil {
		t.Fatalf("SetQuantity(0) error = %v", err)
	}
	gone, err := orders.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if gone != nil {
		t.Fatal("expected order to be deleted once quantity reaches zero")
	}
}

func TestDexOrderCreateRejectsOutOfRangeQuantity(t *testing.T) {
	s := newTestStore(t)
	orders := NewDexOrdersTable(s)

	if _, err := orders.Create(&DexOrder{BuildingID: 1, Account: "alice", Side: DexBid, Item: "ore", Quantity: 0, UnitPrice: 1}); err == nil {
		t.Fatal("expected error creating an order with zero quantity")
	}
	if _, err := orders.Create(&DexOrder{BuildingID: 1, Account: "alice", Side: DexBid, Item: "ore", Quantity: MaxQuantity + 1, UnitPrice: 1}); err == nil {
		t.Fatal("expected error creating an order exceeding MaxQuantity")
	}
}

func TestDexTradeHistoryAppendAndQuery(t *testing.T) {
	s := newTestStore(t)
	history := NewDexTradeHistoryTable(s)

	for i := int64(1); i <= 3; i++ {
		if err := history.Append(&DexTrade{
			BuildingID: 1, Item: "ore", Quantity: 10, UnitPrice: i, Buyer: "alice", Seller: "bob", Height: i,
		}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	recent, err := history.QueryForBuilding(1, "ore", 2)
	if err != nil {
		t.Fatalf("QueryForBuilding() error = %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 trades with limit=2, got %d", len(recent))
	}
	if recent[0].Height != 3 || recent[1].Height != 2 {
		t.Fatalf("expected most-recent-first order, got heights %d, %d", recent[0].Height, recent[1].Height)
	}
}
