package database

import "testing"

func intPtr(v int64) *int64 { return &v }

func TestOngoingDueAtOrdersByAscendingID(t *testing.T) {
	s := newTestStore(t)
	ongoing := NewOngoingTable(s)

	for i := 0; i < 3; i++ {
		_, err := ongoing.CreateNew(&OngoingOperation{
			TargetHeight: 100,
			CharacterID:  intPtr(int64(i + 1)),
			Variant:      OngoingProspection,
			Payload:      OngoingPayload{RegionID: int64(i)},
		})
		if err != nil {
			t.Fatalf("CreateNew() error = %v", err)
		}
	}
	_, err := ongoing.CreateNew(&OngoingOperation{TargetHeight: 200, Variant: OngoingArmourRepair})
	if err != nil {
		t.Fatalf("CreateNew() error = %v", err)
	}

	due, err := ongoing.DueAt(100)
	if err != nil {
		t.Fatalf("DueAt() error = %v", err)
	}
	if len(due) != 3 {
		t.Fatalf("expected 3 operations due at height 100, got %d", len(due))
	}
	for i := 1; i < len(due); i++ {
		if due[i].ID <= due[i-1].ID {
			t.Fatalf("expected ascending id order, got %d then %d", due[i-1].ID, due[i].ID)
		}
	}
}

func TestOngoingByCharacterFindsBackReference(t *testing.T) {
	s := newTestStore(t)
	ongoing := NewOngoingTable(s)

	id, err := ongoing.CreateNew(&OngoingOperation{
		TargetHeight: 50,
		CharacterID:  intPtr(9),
		Variant:      OngoingProspection,
	})
	if err != nil {
		t.Fatalf("CreateNew() error = %v", err)
	}

	op, err := ongoing.ByCharacter(9)
	if err != nil {
		t.Fatalf("ByCharacter() error = %v", err)
	}
	if op == nil || op.ID != id {
		t.Fatalf("expected to find operation %d for character 9, got %v", id, op)
	}

	missing, err := ongoing.ByCharacter(404)
	if err != nil {
		t.Fatalf("ByCharacter() error = %v", err)
	}
	if missing != nil {
		t.Fatal("expected no operation for a character with none pending")
	}
}

func TestOngoingDeleteForBuildingRemovesOnlyThatBuildingsOps(t *testing.T) {
	s := newTestStore(t)
	ongoing := NewOngoingTable(s)

	_, _ = ongoing.CreateNew(&OngoingOperation{TargetHeight: 10, BuildingID: intPtr(1), Variant: OngoingBuildingConstruction})
	_, _ = ongoing.CreateNew(&OngoingOperation{TargetHeight: 10, BuildingID: intPtr(2), Variant: OngoingBuildingConstruction})

	if err := ongoing.DeleteForBuilding(1); err != nil {
		t.Fatalf("DeleteForBuilding() error = %v", err)
	}

	due, err := ongoing.DueAt(10)
	if err != nil {
		t.Fatalf("DueAt() error = %v", err)
	}
	if len(due) != 1 || *due[0].BuildingID != 2 {
		t.Fatalf("expected only building 2's operation to remain, got %v", due)
	}
}
