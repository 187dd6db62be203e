package database

import "testing"

func TestTrackerConflictPanics(t *testing.T) {
	tr := NewTracker()
	release := tr.Acquire("character", "1")
	defer release()

	defer func() {
		if recover() == nil {
			t.Error("expected panic on conflicting handle acquisition")
		}
	}()
	tr.Acquire("character", "1")
}

func TestTrackerReleaseAllowsReacquire(t *testing.T) {
	tr := NewTracker()
	release := tr.Acquire("character", "1")
	if !tr.IsActive("character", "1") {
		t.Fatal("expected handle to be active")
	}
	release()
	if tr.IsActive("character", "1") {
		t.Fatal("expected handle to be inactive after release")
	}

	// should not panic
	release2 := tr.Acquire("character", "1")
	release2()
}

func TestTrackerDistinctKeysDoNotConflict(t *testing.T) {
	tr := NewTracker()
	r1 := tr.Acquire("character", "1")
	r2 := tr.Acquire("character", "2")
	r3 := tr.Acquire("building", "1")
	r1()
	r2()
	r3()
}
