package database

import "testing"

func TestRegionDefaultIsUnprospected(t *testing.T) {
	s := newTestStore(t)
	regions := NewRegionsTable(s, NewTracker())

	h, err := regions.GetByID(7, 100)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if h.Get().IsProspected() {
		t.Error("expected a never-seen region to be unprospected")
	}
	h.Release()
}

func TestRegionMutableBumpsLastModifiedHeight(t *testing.T) {
	s := newTestStore(t)
	regions := NewRegionsTable(s, NewTracker())

	h, _ := regions.GetByID(3, 50)
	h.Mutable().Resource = "test_ore"
	h.Mutable().ResourceLeft = 1000
	if err := h.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	reloaded, err := regions.GetByID(3, 200)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if reloaded.Get().LastModifiedHeight != 50 {
		t.Errorf("expected last-modified height 50 from the write, got %d", reloaded.Get().LastModifiedHeight)
	}
	if !reloaded.Get().IsProspected() {
		t.Error("expected region to be prospected after setting Resource")
	}
	reloaded.Release()
}

func TestRegionQueryModifiedSince(t *testing.T) {
	s := newTestStore(t)
	regions := NewRegionsTable(s, NewTracker())

	h1, _ := regions.GetByID(1, 10)
	h1.Mutable().ResourceLeft = 5
	h1.Release()

	h2, _ := regions.GetByID(2, 90)
	h2.Mutable().ResourceLeft = 7
	h2.Release()

	modified, err := regions.QueryModifiedSince(50)
	if err != nil {
		t.Fatalf("QueryModifiedSince() error = %v", err)
	}
	if len(modified) != 1 || modified[0].ID != 2 {
		t.Fatalf("expected only region 2 modified since height 50, got %v", modified)
	}
}
