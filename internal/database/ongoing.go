package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/store"
)

// OngoingVariant identifies which kind of payload an ongoing operation
// carries (spec.md §3).
type OngoingVariant string

const (
	OngoingProspection         OngoingVariant = "prospection"
	OngoingArmourRepair        OngoingVariant = "armour_repair"
	OngoingBlueprintCopy       OngoingVariant = "blueprint_copy"
	OngoingItemConstruction    OngoingVariant = "item_construction"
	OngoingBuildingConstruction OngoingVariant = "building_construction"
	OngoingBuildingConfigUpdate OngoingVariant = "building_config_update"
)

// OngoingPayload is the variant-specific data for an ongoing operation.
// Only the field(s) relevant to Variant are populated.
type OngoingPayload struct {
	RegionID      int64  `json:"region_id,omitempty"`
	// Account is the building-inventory owner to credit on completion, for
	// the two operation kinds whose effects land in a building inventory
	// rather than on the referenced character/building itself
	// (blueprint_copy, item_construction) — mirrors
	// ongoings.cpp's BlueprintCopy.account().
	Account          string `json:"account,omitempty"`
	OriginalItem     string `json:"original_item,omitempty"`
	NumCopies        int64  `json:"num_copies,omitempty"`
	ConsumedOriginal bool   `json:"consumed_original,omitempty"`
	OutputItem       string `json:"output_item,omitempty"`
	OutputQty        int64  `json:"output_qty,omitempty"`
	NewServiceFee    int64  `json:"new_service_fee,omitempty"`
	NewDexFeeBps     int64  `json:"new_dex_fee_bps,omitempty"`
}

// OngoingOperation is the decoded, in-memory view of one ongoing-operation
// row (spec.md §3, §4.8).
type OngoingOperation struct {
	ID           int64
	TargetHeight int64
	CharacterID  *int64
	BuildingID   *int64
	Variant      OngoingVariant
	Payload      OngoingPayload
}

// OngoingTable provides CRUD access to the ongoing-operations entity kind.
// Unlike the other entity kinds, ongoing operations are created,
// queried, and deleted outright by the scheduler (§4.8), with no
// handle-tracker-guarded mutable handle type — the scheduler drains and
// deletes them in a single pass rather than mutating them in place.
type OngoingTable struct {
	store *store.Store
}

// NewOngoingTable constructs an OngoingTable.
func NewOngoingTable(s *store.Store) *OngoingTable {
	return &OngoingTable{store: s}
}

// CreateNew allocates a fresh ongoing-operation ID and inserts the row.
func (t *OngoingTable) CreateNew(op *OngoingOperation) (int64, error) {
	id, err := t.store.NextID("ongoing")
	if err != nil {
		return 0, fmt.Errorf("database: allocate ongoing id: %w", err)
	}
	op.ID = id

	payload, err := json.Marshal(op.Payload)
	if err != nil {
		return 0, fmt.Errorf("database: encode ongoing payload: %w", err)
	}

	var characterID, buildingID interface{}
	if op.CharacterID != nil {
		characterID = *op.CharacterID
	}
	if op.BuildingID != nil {
		buildingID = *op.BuildingID
	}

	_, err = t.store.DB().Exec(`
		INSERT INTO ongoing_operations (id, target_height, character_id, building_id, variant, payload_blob)
		VALUES (?, ?, ?, ?, ?, ?)`, id, op.TargetHeight, characterID, buildingID, string(op.Variant), payload)
	if err != nil {
		return 0, fmt.Errorf("database: insert ongoing operation: %w", err)
	}
	return id, nil
}

// DueAt returns every ongoing operation whose target height equals
// height, in ascending-id order — the scheduler's drain order (spec.md
// §4.8: "operations queued by height, drained in order").
func (t *OngoingTable) DueAt(height int64) ([]*OngoingOperation, error) {
	rows, err := t.store.DB().Query(`
		SELECT id, target_height, character_id, building_id, variant, payload_blob
		FROM ongoing_operations WHERE target_height = ? ORDER BY id ASC`, height)
	if err != nil {
		return nil, fmt.Errorf("database: query due ongoing operations at %d: %w", height, err)
	}
	defer rows.Close()

	var out []*OngoingOperation
	for rows.Next() {
		op, err := scanOngoing(rows)
		if err != nil {
			return nil, fmt.Errorf("database: scan ongoing operation row: %w", err)
		}
		out = append(out, op)
	}
	return out, rows.Err()
}

// ByCharacter returns the ongoing operation referencing characterID, or
// (nil, nil) if there is none — used to verify the §3 back-reference
// invariant between a character's ongoing field and the operation row.
func (t *OngoingTable) ByCharacter(characterID int64) (*OngoingOperation, error) {
	row := t.store.DB().QueryRow(`
		SELECT id, target_height, character_id, building_id, variant, payload_blob
		FROM ongoing_operations WHERE character_id = ?`, characterID)
	op, err := scanOngoing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database: get ongoing operation for character %d: %w", characterID, err)
	}
	return op, nil
}

func scanOngoing(row rowScanner) (*OngoingOperation, error) {
	var id, targetHeight int64
	var characterID, buildingID sql.NullInt64
	var variant string
	var payload []byte

	if err := row.Scan(&id, &targetHeight, &characterID, &buildingID, &variant, &payload); err != nil {
		return nil, err
	}

	op := &OngoingOperation{ID: id, TargetHeight: targetHeight, Variant: OngoingVariant(variant)}
	if characterID.Valid {
		v := characterID.Int64
		op.CharacterID = &v
	}
	if buildingID.Valid {
		v := buildingID.Int64
		op.BuildingID = &v
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &op.Payload); err != nil {
			return nil, fmt.Errorf("decode ongoing payload %d: %w", id, err)
		}
	}
	return op, nil
}

// ListAll returns every pending ongoing operation, in ascending-id order,
// for the JSON state projection (spec.md §6).
func (t *OngoingTable) ListAll() ([]*OngoingOperation, error) {
	rows, err := t.store.DB().Query(`
		SELECT id, target_height, character_id, building_id, variant, payload_blob
		FROM ongoing_operations ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("database: list ongoing operations: %w", err)
	}
	defer rows.Close()

	var out []*OngoingOperation
	for rows.Next() {
		op, err := scanOngoing(rows)
		if err != nil {
			return nil, fmt.Errorf("database: scan ongoing operation row: %w", err)
		}
		out = append(out, op)
	}
	return out, rows.Err()
}

// Delete removes an ongoing-operation row, called once the scheduler has
// applied its effects.
func (t *OngoingTable) Delete(id int64) error {
	_, err := t.store.DB().Exec(`DELETE FROM ongoing_operations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("database: delete ongoing operation %d: %w", id, err)
	}
	return nil
}

// DeleteForBuilding removes every ongoing operation referencing
// buildingID, used when a building is destroyed.
func (t *OngoingTable) DeleteForBuilding(buildingID int64) error {
	_, err := t.store.DB().Exec(`DELETE FROM ongoing_operations WHERE building_id = ?`, buildingID)
	if err != nil {
		return fmt.Errorf("database: delete ongoing operations for building %d: %w", buildingID, err)
	}
	return nil
}

// DeleteForCharacter removes the ongoing operation referencing
// characterID (if any), used when a character is destroyed.
func (t *OngoingTable) DeleteForCharacter(characterID int64) error {
	_, err := t.store.DB().Exec(`DELETE FROM ongoing_operations WHERE character_id = ?`, characterID)
	if err != nil {
		return fmt.Errorf("database: delete ongoing operations for character %d: %w", characterID, err)
	}
	return nil
}

// ByBuilding returns every ongoing operation referencing buildingID,
// queried (not deleted) so kill processing can fold blueprint-copy and
// item-construction originals into the building's combined inventory
// before the rows are removed.
func (t *OngoingTable) ByBuilding(buildingID int64) ([]*OngoingOperation, error) {
	rows, err := t.store.DB().Query(`
		SELECT id, target_height, character_id, building_id, variant, payload_blob
		FROM ongoing_operations WHERE building_id = ?`, buildingID)
	if err != nil {
		return nil, fmt.Errorf("database: query ongoing operations for building %d: %w", buildingID, err)
	}
	defer rows.Close()

	var out []*OngoingOperation
	for rows.Next() {
		op, err := scanOngoing(rows)
		if err != nil {
			return nil, fmt.Errorf("database: scan ongoing operation row: %w", err)
		}
		out = append(out, op)
	}
	return out, rows.Err()
}
