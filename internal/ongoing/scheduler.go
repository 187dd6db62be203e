// Package ongoing drains the per-height queue of scheduled operations —
// prospection completion, armour repair, blueprint copying, item
// construction, building construction, and building configuration
// updates — applying each one's effect and deleting its row (spec.md
// §4.8).
//
// Grounded on original_source/src/ongoings.cpp's ProcessAllOngoings: the
// prospection and armour_repair cases port directly; blueprint_copy's
// "credit the named account's building inventory" shape extends to the
// item_construction, building_construction and building_config_update
// kinds spec.md names but ongoings.cpp predates.
package ongoing

import (
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/blockrand"
	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/database"
	"github.com/hexrealm/taurion-gsp/internal/mining"
	"github.com/hexrealm/taurion-gsp/pkg/logging"
)

// Scheduler drains and dispatches ongoing operations due at the current
// block height.
type Scheduler struct {
	ongoing     *database.OngoingTable
	characters  *database.CharactersTable
	buildings   *database.BuildingsTable
	regions     *database.RegionsTable
	buildingInv *database.BuildingInventoryTable
	itemCounts  *database.ItemCounts
	cfg         *config.ChainConfig
	params      *config.Params
	log         *logging.Logger
}

// NewScheduler constructs a Scheduler.
func NewScheduler(
	ongoingTbl *database.OngoingTable,
	characters *database.CharactersTable,
	buildings *database.BuildingsTable,
	regions *database.RegionsTable,
	buildingInv *database.BuildingInventoryTable,
	itemCounts *database.ItemCounts,
	cfg *config.ChainConfig,
	params *config.Params,
) *Scheduler {
	return &Scheduler{
		ongoing:     ongoingTbl,
		characters:  characters,
		buildings:   buildings,
		regions:     regions,
		buildingInv: buildingInv,
		itemCounts:  itemCounts,
		cfg:         cfg,
		params:      params,
		log:         logging.GetDefault().Component("ongoing"),
	}
}

// Run drains every operation due at height, in ascending-id order, and
// deletes each one once its effect has been applied.
func (s *Scheduler) Run(height int64, rnd *blockrand.Source) error {
	due, err := s.ongoing.DueAt(height)
	if err != nil {
		return fmt.Errorf("ongoing: query due operations: %w", err)
	}

	for _, op := range due {
		if op.TargetHeight != height {
			panic(fmt.Sprintf("ongoing: operation %d due at %d queried at %d", op.ID, op.TargetHeight, height))
		}
		if err := s.dispatch(op, height, rnd); err != nil {
			return fmt.Errorf("ongoing: process operation %d (%s): %w", op.ID, op.Variant, err)
		}
		if err := s.ongoing.Delete(op.ID); err != nil {
			return fmt.Errorf("ongoing: delete processed operation %d: %w", op.ID, err)
		}
	}
	return nil
}

func (s *Scheduler) dispatch(op *database.OngoingOperation, height int64, rnd *blockrand.Source) error {
	switch op.Variant {
	case database.OngoingProspection:
		return mining.FinishProspecting(op, s.regions, s.characters, s.itemCounts, s.cfg, s.params, rnd, height)
	case database.OngoingArmourRepair:
		return s.finishArmourRepair(op)
	case database.OngoingBlueprintCopy:
		return s.finishBlueprintCopy(op)
	case database.OngoingItemConstruction:
		return s.finishItemConstruction(op)
	case database.OngoingBuildingConstruction:
		return s.finishBuildingConstruction(op)
	case database.OngoingBuildingConfigUpdate:
		return s.finishBuildingConfigUpdate(op)
	default:
		return fmt.Errorf("unknown ongoing variant %q", op.Variant)
	}
}
