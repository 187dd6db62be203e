package database

import (
	"database/sql"
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/store"
)

// DexSide is one side of an order book (spec.md §3).
type DexSide string

const (
	DexBid DexSide = "bid"
	DexAsk DexSide = "ask"
)

// DexOrder is the decoded, in-memory view of one dex_orders row.
// Invariant: Quantity > 0 and <= MaxQuantity; deletion is expressed by a
// pending quantity of 0 (spec.md §3).
type DexOrder struct {
	ID         int64
	BuildingID int64
	Account    string
	Side       DexSide
	Item       string
	Quantity   int64
	UnitPrice  int64
}

// DexOrdersTable provides CRUD access to the dex_orders entity kind.
// Orders are mutable only in quantity (spec.md §4.2), so there is no
// generic write-back handle: callers call SetQuantity directly, which
// deletes the row once quantity reaches zero.
type DexOrdersTable struct {
	store *store.Store
}

// NewDexOrdersTable constructs a DexOrdersTable.
func NewDexOrdersTable(s *store.Store) *DexOrdersTable {
	return &DexOrdersTable{store: s}
}

// Create inserts a new order and assigns it a fresh ID.
func (t *DexOrdersTable) Create(o *DexOrder) (int64, error) {
	if o.Quantity <= 0 || o.Quantity > MaxQuantity {
		return 0, fmt.Errorf("database: dex order quantity %d out of range", o.Quantity)
	}
	id, err := t.store.NextID("dex_order")
	if err != nil {
		return 0, fmt.Errorf("database: allocate dex order id: %w", err)
	}
	o.ID = id

	_, err = t.store.DB().Exec(`
		INSERT INTO dex_orders (id, building_id, account, side, item, quantity, unit_price)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, o.BuildingID, o.Account, string(o.Side), o.Item, o.Quantity, o.UnitPrice)
	if err != nil {
		return 0, fmt.Errorf("database: insert dex order: %w", err)
	}
	return id, nil
}

// GetByID loads an order by id, or returns (nil, nil) if absent.
func (t *DexOrdersTable) GetByID(id int64) (*DexOrder, error) {
	row := t.store.DB().QueryRow(`
		SELECT id, building_id, account, side, item, quantity, unit_price
		FROM dex_orders WHERE id = ?`, id)
	o, err := scanDexOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database: get dex order %d: %w", id, err)
	}
	return o, nil
}

// SetQuantity updates an order's remaining quantity, deleting the row
// once it reaches zero.
func (t *DexOrdersTable) SetQuantity(id int64, quantity int64) error {
	if quantity < 0 || quantity > MaxQuantity {
		return fmt.Errorf("database: dex order quantity %d out of range", quantity)
	}
	if quantity == 0 {
		_, err := t.store.DB().Exec(`DELETE FROM dex_orders WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("database: delete exhausted dex order %d: %w", id, err)
		}
		return nil
	}
	_, err := t.store.DB().Exec(`UPDATE dex_orders SET quantity = ? WHERE id = ?`, quantity, id)
	if err != nil {
		return fmt.Errorf("database: update dex order %d quantity: %w", id, err)
	}
	return nil
}

// OrderBook returns the open bids and asks for (buildingID, item), each
// sorted for matching priority: bids by descending price then ascending
// id, asks by ascending price then ascending id (spec.md §4.7's
// price-then-time priority).
func (t *DexOrdersTable) OrderBook(buildingID int64, item string) (bids, asks []*DexOrder, err error) {
	bids, err = t.query(buildingID, item, DexBid, "unit_price DESC, id ASC")
	if err != nil {
		return nil, nil, err
	}
	asks, err = t.query(buildingID, item, DexAsk, "unit_price ASC, id ASC")
	if err != nil {
		return nil, nil, err
	}
	return bids, asks, nil
}

func (t *DexOrdersTable) query(buildingID int64, item string, side DexSide, order string) ([]*DexOrder, error) {
	rows, err := t.store.DB().Query(fmt.Sprintf(`
		SELECT id, building_id, account, side, item, quantity, unit_price
		FROM dex_orders WHERE building_id = ? AND item = ? AND side = ?
		ORDER BY %s`, order), buildingID, item, string(side))
	if err != nil {
		return nil, fmt.Errorf("database: query dex order book: %w", err)
	}
	defer rows.Close()

	var out []*DexOrder
	for rows.Next() {
		o, err := scanDexOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("database: scan dex order row: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// MatchingAsks returns every open ask for (buildingID, item) priced at
// most maxPrice, cheapest and oldest first — the fill order a new bid
// walks (spec.md §4.7's price-then-time priority), grounded on
// trading.cpp's DexOrderTable::QueryToMatchBid.
func (t *DexOrdersTable) MatchingAsks(buildingID int64, item string, maxPrice int64) ([]*DexOrder, error) {
	rows, err := t.store.DB().Query(`
		SELECT id, building_id, account, side, item, quantity, unit_price
		FROM dex_orders WHERE building_id = ? AND item = ? AND side = ? AND unit_price <= ?
		ORDER BY unit_price ASC, id ASC`, buildingID, item, string(DexAsk), maxPrice)
	if err != nil {
		return nil, fmt.Errorf("database: query matching asks: %w", err)
	}
	defer rows.Close()
	return scanDexOrders(rows)
}

// MatchingBids returns every open bid for (buildingID, item) priced at
// least minPrice, highest and oldest first — the fill order a new ask
// walks, grounded on trading.cpp's DexOrderTable::QueryToMatchAsk.
func (t *DexOrdersTable) MatchingBids(buildingID int64, item string, minPrice int64) ([]*DexOrder, error) {
	rows, err := t.store.DB().Query(`
		SELECT id, building_id, account, side, item, quantity, unit_price
		FROM dex_orders WHERE building_id = ? AND item = ? AND side = ? AND unit_price >= ?
		ORDER BY unit_price DESC, id ASC`, buildingID, item, string(DexBid), minPrice)
	if err != nil {
		return nil, fmt.Errorf("database: query matching bids: %w", err)
	}
	defer rows.Close()
	return scanDexOrders(rows)
}

func scanDexOrders(rows *sql.Rows) ([]*DexOrder, error) {
	var out []*DexOrder
	for rows.Next() {
		o, err := scanDexOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("database: scan dex order row: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListByBuilding returns every open order inside buildingID across all
// items, ascending id, for the JSON state projection (spec.md §6).
func (t *DexOrdersTable) ListByBuilding(buildingID int64) ([]*DexOrder, error) {
	rows, err := t.store.DB().Query(`
		SELECT id, building_id, account, side, item, quantity, unit_price
		FROM dex_orders WHERE building_id = ? ORDER BY id ASC`, buildingID)
	if err != nil {
		return nil, fmt.Errorf("database: list dex orders for building %d: %w", buildingID, err)
	}
	defer rows.Close()
	return scanDexOrders(rows)
}

// ByAccount returns every open order placed by account, for reserved-
// balance queries (spec.md §4.7).
func (t *DexOrdersTable) ByAccount(account string) ([]*DexOrder, error) {
	rows, err := t.store.DB().Query(`
		SELECT id, building_id, account, side, item, quantity, unit_price
		FROM dex_orders WHERE account = ?`, account)
	if err != nil {
		return nil, fmt.Errorf("database: query dex orders for %q: %w", account, err)
	}
	defer rows.Close()

	var out []*DexOrder
	for rows.Next() {
		o, err := scanDexOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("database: scan dex order row: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanDexOrder(row rowScanner) (*DexOrder, error) {
	var o DexOrder
	var side string
	if err := row.Scan(&o.ID, &o.BuildingID, &o.Account, &side, &o.Item, &o.Quantity, &o.UnitPrice); err != nil {
		return nil, err
	}
	o.Side = DexSide(side)
	return &o, nil
}
