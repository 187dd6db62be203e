package database

import (
	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/store"
)

// Tables bundles every entity table behind a single value, for
// convenient construction at engine start-up.
type Tables struct {
	Tracker            *Tracker
	Accounts           *AccountsTable
	Characters         *CharactersTable
	Buildings          *BuildingsTable
	GroundLoot         *GroundLootTable
	BuildingInventory  *BuildingInventoryTable
	Regions            *RegionsTable
	Ongoing            *OngoingTable
	DexOrders          *DexOrdersTable
	DexTradeHistory    *DexTradeHistoryTable
	ItemCounts         *ItemCounts
}

// NewTables constructs every entity table over a single store and a
// shared handle tracker.
func NewTables(s *store.Store, cfg *config.ChainConfig) *Tables {
	tracker := NewTracker()
	return &Tables{
		Tracker:           tracker,
		Accounts:          NewAccountsTable(s, tracker),
		Characters:        NewCharactersTable(s, tracker),
		Buildings:         NewBuildingsTable(s, tracker, cfg),
		GroundLoot:        NewGroundLootTable(s, tracker),
		BuildingInventory: NewBuildingInventoryTable(s, tracker),
		Regions:           NewRegionsTable(s, tracker),
		Ongoing:           NewOngoingTable(s),
		DexOrders:         NewDexOrdersTable(s),
		DexTradeHistory:   NewDexTradeHistoryTable(s),
		ItemCounts:        NewItemCounts(s),
	}
}
