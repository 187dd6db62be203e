package database

import (
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/store"
)

// DexTrade is one append-only entry of the DEX trade-history log
// (spec.md §3). Trade history draws from a separate "log" ID pool so it
// never perturbs identity assignment for the rest of the entity model
// during replays (spec.md §3).
type DexTrade struct {
	LogID      int64
	BuildingID int64
	Item       string
	Quantity   int64
	UnitPrice  int64
	Buyer      string
	Seller     string
	Height     int64
}

// DexTradeHistoryTable provides append/query access to the DEX trade log.
type DexTradeHistoryTable struct {
	store *store.Store
}

// NewDexTradeHistoryTable constructs a DexTradeHistoryTable.
func NewDexTradeHistoryTable(s *store.Store) *DexTradeHistoryTable {
	return &DexTradeHistoryTable{store: s}
}

// Append records one executed match.
func (t *DexTradeHistoryTable) Append(tr *DexTrade) error {
	id, err := t.store.NextID("dex_trade_log")
	if err != nil {
		return fmt.Errorf("database: allocate dex trade log id: %w", err)
	}
	tr.LogID = id

	_, err = t.store.DB().Exec(`
		INSERT INTO dex_trades (log_id, building_id, item, quantity, unit_price, buyer, seller, height)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, tr.BuildingID, tr.Item, tr.Quantity, tr.UnitPrice, tr.Buyer, tr.Seller, tr.Height)
	if err != nil {
		return fmt.Errorf("database: append dex trade: %w", err)
	}
	return nil
}

// QueryForBuilding returns the trade history for a building's item
// market, most recent first.
func (t *DexTradeHistoryTable) QueryForBuilding(buildingID int64, item string, limit int) ([]*DexTrade, error) {
	rows, err := t.store.DB().Query(`
		SELECT log_id, building_id, item, quantity, unit_price, buyer, seller, height
		FROM dex_trades WHERE building_id = ? AND item = ?
		ORDER BY log_id DESC LIMIT ?`, buildingID, item, limit)
	if err != nil {
		return nil, fmt.Errorf("database: query dex trades: %w", err)
	}
	defer rows.Close()

	var out []*DexTrade
	for rows.Next() {
		var tr DexTrade
		if err := rows.Scan(&tr.LogID, &tr.BuildingID, &tr.Item, &tr.Quantity, &tr.UnitPrice, &tr.Buyer, &tr.Seller, &tr.Height); err != nil {
			return nil, fmt.Errorf("database: scan dex trade row: %w", err)
		}
		out = append(out, &tr)
	}
	return out, rows.Err()
}
