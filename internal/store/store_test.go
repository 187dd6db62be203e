package store

import "testing"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(&Config{InMemory: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestReserveIDsMonotonic(t *testing.T) {
	s := newTestStore(t)

	first, err := s.NextID("character")
	if err != nil {
		t.Fatalf("NextID() error = %v", err)
	}
	if first != 1 {
		t.Fatalf("expected first id 1, got %d", first)
	}

	second, err := s.NextID("character")
	if err != nil {
		t.Fatalf("NextID() error = %v", err)
	}
	if second != 2 {
		t.Fatalf("expected second id 2, got %d", second)
	}
}

func TestReserveIDsBlockDoesNotOverlap(t *testing.T) {
	s := newTestStore(t)

	first, err := s.ReserveIDs("building", 10)
	if err != nil {
		t.Fatalf("ReserveIDs() error = %v", err)
	}
	if first != 1 {
		t.Fatalf("expected block to start at 1, got %d", first)
	}

	next, err := s.NextID("building")
	if err != nil {
		t.Fatalf("NextID() error = %v", err)
	}
	if next != 11 {
		t.Fatalf("expected next id after 10-block to be 11, got %d", next)
	}
}

func TestIDPoolsAreIndependent(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.NextID("character"); err != nil {
		t.Fatalf("NextID() error = %v", err)
	}
	firstBuilding, err := s.NextID("building")
	if err != nil {
		t.Fatalf("NextID() error = %v", err)
	}
	if firstBuilding != 1 {
		t.Fatalf("expected independent pool to start at 1, got %d", firstBuilding)
	}
}

func TestCounterAddAndRead(t *testing.T) {
	s := newTestStore(t)

	if v, err := s.Counter("supply:foo"); err != nil || v != 0 {
		t.Fatalf("expected zero-valued unset counter, got %d err=%v", v, err)
	}

	v, err := s.AddToCounter("supply:foo", 100)
	if err != nil {
		t.Fatalf("AddToCounter() error = %v", err)
	}
	if v != 100 {
		t.Fatalf("expected 100, got %d", v)
	}

	v, err = s.AddToCounter("supply:foo", -30)
	if err != nil {
		t.Fatalf("AddToCounter() error = %v", err)
	}
	if v != 70 {
		t.Fatalf("expected 70, got %d", v)
	}
}
