package mining

import (
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/blockrand"
	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/database"
)

// CanProspectRegion reports whether a character may start prospecting
// region at the given height, per prospecting.cpp's CanProspectRegion: a
// region already being prospected is never eligible; a never-prospected
// region always is; a previously prospected region is eligible again only
// when reprospecting is enabled, its reserve is fully depleted, and its
// expiry delay has elapsed.
func CanProspectRegion(region *database.Region, cfg *config.ChainConfig, height int64) bool {
	if region.IsBeingProspected() {
		return false
	}
	if !region.IsProspected() {
		return true
	}
	if !cfg.Params.ReprospectingAllowed {
		return false
	}
	if region.ResourceLeft != 0 {
		return false
	}
	expiry := *region.ProspectedHeight + cfg.Params.ProspectionExpiryBlocks
	return height >= expiry
}

// StartProspecting marks region as being prospected by characterID and
// queues the matching ongoing operation, due ProspectingBlocks after
// height (spec.md §4.6.1). The caller is responsible for validating
// CanProspectRegion first.
func StartProspecting(region *database.RegionHandle, char *database.CharacterHandle, ongoing *database.OngoingTable, height int64, cfg *config.ChainConfig) error {
	characterID := char.Get().ID

	op := &database.OngoingOperation{
		TargetHeight: height + cfg.Params.ProspectingBlocks,
		CharacterID:  &characterID,
		Variant:      database.OngoingProspection,
		Payload:      database.OngoingPayload{RegionID: region.Get().ID},
	}
	opID, err := ongoing.CreateNew(op)
	if err != nil {
		return fmt.Errorf("mining: queue prospecting for character %d: %w", characterID, err)
	}

	region.Mutable().ProspectingCharacter = &characterID

	rec := char.Mutable()
	rec.Busy = true
	rec.OngoingID = &opID
	return nil
}

// FinishProspecting applies a due prospection operation: reveals the
// region's resource and reserve, rolls prize tiers in sequence (stopping
// at the first hit, spec.md §4.6.1's "at most one prize per
// prospection"), and releases the prospecting character back to idle.
//
// Resource distribution is evaluated at the prospecting character's
// current position, not a position stored on the region, since regions
// carry no coordinate of their own (spec.md §3's synthetic region
// partition) — mirroring prospecting.cpp's FinishProspecting, which reads
// pos from the character record it is passed.
func FinishProspecting(
	op *database.OngoingOperation,
	regions *database.RegionsTable,
	characters *database.CharactersTable,
	itemCounts *database.ItemCounts,
	cfg *config.ChainConfig,
	params *config.Params,
	rnd *blockrand.Source,
	height int64,
) error {
	if op.CharacterID == nil {
		return fmt.Errorf("mining: prospecting operation %d has no character", op.ID)
	}

	charHandle, err := characters.GetByID(*op.CharacterID)
	if err != nil {
		return fmt.Errorf("mining: load prospecting character %d: %w", *op.CharacterID, err)
	}
	if charHandle == nil {
		return fmt.Errorf("mining: prospecting character %d missing", *op.CharacterID)
	}
	defer charHandle.Release()

	rec := charHandle.Get()
	if rec.Pos == nil {
		return fmt.Errorf("mining: prospecting character %d not on map", rec.ID)
	}
	pos := *rec.Pos

	regionHandle, err := regions.GetByID(op.Payload.RegionID, height)
	if err != nil {
		return fmt.Errorf("mining: load region %d: %w", op.Payload.RegionID, err)
	}
	defer regionHandle.Release()

	region := regionHandle.Mutable()
	region.ProspectingCharacter = nil
	region.Resource, region.ResourceLeft = DetectResource(pos, cfg, rnd)
	finishedHeight := height
	region.ProspectedHeight = &finishedHeight

	for _, tier := range cfg.Params.PrizeTiers {
		prizeItem := tier.Name + " prize"

		found, err := itemCounts.PrizesFound(prizeItem)
		if err != nil {
			return fmt.Errorf("mining: read prize count for %q: %w", prizeItem, err)
		}
		if found >= tier.Count {
			continue
		}

		n := params.AdjustedProbability1In(tier.Probability1In, pos)
		if n <= 0 {
			continue
		}
		if !rnd.ProbabilityRoll(1, int(n)) {
			continue
		}

		blob := charHandle.MutableBlob()
		if blob.Inventory == nil {
			blob.Inventory = database.Inventory{}
		}
		blob.Inventory.Add(prizeItem, 1)
		if err := itemCounts.AdjustPrizesFound(prizeItem, 1); err != nil {
			return fmt.Errorf("mining: record prize found for %q: %w", prizeItem, err)
		}
		break
	}

	cleared := charHandle.Mutable()
	cleared.Busy = false
	cleared.OngoingID = nil
	return nil
}
