package database

import "testing"

func TestBuildingInventoryRoundTripAndListByBuilding(t *testing.T) {
	s := newTestStore(t)
	inv := NewBuildingInventoryTable(s, NewTracker())

	h, err := inv.Get(1, "alice")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	h.Mutable().Add("ore", 30)
	if err := h.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	h2, err := inv.Get(1, "bob")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	h2.Mutable().Add("fuel", 5)
	if err := h2.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	all, err := inv.ListByBuilding(1)
	if err != nil {
		t.Fatalf("ListByBuilding() error = %v", err)
	}
	if len(all) != 2 || all["alice"].Get("ore") != 30 || all["bob"].Get("fuel") != 5 {
		t.Fatalf("unexpected inventories: %v", all)
	}
}

func TestBuildingInventoryDeletesRowWhenDrained(t *testing.T) {
	s := newTestStore(t)
	inv := NewBuildingInventoryTable(s, NewTracker())

	h, _ := inv.Get(2, "carol")
	h.Mutable().Add("ammo", 4)
	h.Release()

	h2, _ := inv.Get(2, "carol")
	h2.Mutable().Add("ammo", -4)
	h2.Release()

	all, err := inv.ListByBuilding(2)
	if err != nil {
		t.Fatalf("ListByBuilding() error = %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no rows once drained, got %v", all)
	}
}
