package dex

import (
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/database"
)

// ValidQuantity reports whether q is an acceptable order/transfer quantity
// (spec.md §3: strictly positive, at most MaxQuantity).
func ValidQuantity(q int64) bool {
	return q > 0 && q <= database.MaxQuantity
}

// ValidPrice reports whether a unit price is acceptable: strictly positive.
// It sets no upper bound; quantity*price products go through Product, whose
// Extract rejects anything above MaxProduct.
func ValidPrice(p int64) bool {
	return p > 0
}

// checkBuildingForTrading loads the building a DEX operation targets and
// confirms it can host trade: it must exist and must not be a foundation
// under construction (trading.cpp's IsItemOperationValid).
func checkBuildingForTrading(buildings *database.BuildingsTable, buildingID int64) (*database.Building, error) {
	b, err := buildings.Peek(buildingID)
	if err != nil {
		return nil, fmt.Errorf("dex: load building %d: %w", buildingID, err)
	}
	if b == nil {
		return nil, fmt.Errorf("dex: building %d does not exist", buildingID)
	}
	if b.IsFoundation {
		return nil, fmt.Errorf("dex: building %d is still a foundation", buildingID)
	}
	return b, nil
}

// ValidateItemOperation checks the preconditions shared by every DEX
// operation that names an item: the building must be tradeable and the
// item must be known to config.ItemOrNil, which also accepts the " bpo" and
// " bpc" forms of items that have blueprints.
func ValidateItemOperation(buildings *database.BuildingsTable, cfg *config.ChainConfig, buildingID int64, item string) error {
	if _, err := checkBuildingForTrading(buildings, buildingID); err != nil {
		return err
	}
	if _, ok := cfg.ItemOrNil(item); !ok {
		return fmt.Errorf("dex: unconfigured item %q", item)
	}
	return nil
}
