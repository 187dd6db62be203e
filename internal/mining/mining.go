package mining

import (
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/blockrand"
	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/database"
	"github.com/hexrealm/taurion-gsp/pkg/logging"
)

// Processor drains region reserves into mining characters' cargo holds
// each block (spec.md §4.6), grounded on mining.cpp's ProcessAllMining.
type Processor struct {
	characters *database.CharactersTable
	regions    *database.RegionsTable
	itemCounts *database.ItemCounts
	cfg        *config.ChainConfig
	log        *logging.Logger
}

// NewProcessor constructs a mining Processor.
func NewProcessor(characters *database.CharactersTable, regions *database.RegionsTable, itemCounts *database.ItemCounts, cfg *config.ChainConfig) *Processor {
	return &Processor{
		characters: characters,
		regions:    regions,
		itemCounts: itemCounts,
		cfg:        cfg,
		log:        logging.GetDefault().Component("mining"),
	}
}

// Run extracts ore for every character with an active mining marker, in
// ascending character-id order.
func (p *Processor) Run(height int64, rnd *blockrand.Source) error {
	recs, err := p.characters.ListMining()
	if err != nil {
		return fmt.Errorf("mining: list mining characters: %w", err)
	}

	for _, rec := range recs {
		if err := p.mineOne(rec.ID, height, rnd); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) mineOne(characterID, height int64, rnd *blockrand.Source) error {
	charHandle, err := p.characters.GetByID(characterID)
	if err != nil {
		return fmt.Errorf("mining: load character %d: %w", characterID, err)
	}
	if charHandle == nil {
		return nil
	}
	defer charHandle.Release()

	rec := charHandle.Get()
	if rec.MiningRegion == nil {
		return nil
	}
	regionID := *rec.MiningRegion

	regionHandle, err := p.regions.GetByID(regionID, height)
	if err != nil {
		return fmt.Errorf("mining: load region %d: %w", regionID, err)
	}
	defer regionHandle.Release()

	region := regionHandle.Get()
	if !region.IsProspected() {
		p.log.Warn("mining character has no active prospection on its region, stopping", "character", characterID, "region", regionID)
		charHandle.Mutable().MiningRegion = nil
		return nil
	}

	rate := p.cfg.Vehicle(rec.Blob().VehicleType).Mining
	mined, err := rollMined(rnd, rate)
	if err != nil {
		return err
	}
	if mined == 0 {
		return nil
	}

	if mined > region.ResourceLeft {
		mined = region.ResourceLeft
	}

	blob := rec.Blob()
	itemSpace := p.cfg.Item(region.Resource).Space
	if itemSpace > 0 {
		cargoCap := config.Apply(p.cfg.Vehicle(blob.VehicleType).CargoSpace, blob.Effects.CargoPercent)
		freeCargo := cargoCap - blob.Inventory.UsedSpace(p.cfg)
		if freeCargo < 0 {
			freeCargo = 0
		}
		maxByCargo := freeCargo / itemSpace
		if mined > maxByCargo {
			mined = maxByCargo
		}
	}

	if mined <= 0 {
		charHandle.Mutable().MiningRegion = nil
		return nil
	}

	regionRec := regionHandle.Mutable()
	regionRec.ResourceLeft -= mined

	mutBlob := charHandle.MutableBlob()
	if mutBlob.Inventory == nil {
		mutBlob.Inventory = database.Inventory{}
	}
	mutBlob.Inventory.Add(regionRec.Resource, mined)

	return p.itemCounts.AdjustItemCount(regionRec.Resource, mined)
}

// rollMined draws the per-block extraction amount uniformly from
// [rate.Min, rate.Max]. A roll of zero is a valid outcome that leaves the
// mining marker untouched — only an exhausted region or a full cargo hold
// stops mining outright (mining.cpp: "mined == 0 just continues").
func rollMined(rnd *blockrand.Source, rate config.MiningRate) (int64, error) {
	if rate.Max < rate.Min {
		return 0, fmt.Errorf("mining: vehicle mining rate max %d below min %d", rate.Max, rate.Min)
	}
	span := rate.Max - rate.Min
	if span == 0 {
		return rate.Min, nil
	}
	return rate.Min + int64(rnd.Intn(int(span+1))), nil
}
