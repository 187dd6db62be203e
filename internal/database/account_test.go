package database

import (
	"testing"

	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(&store.Config{InMemory: true})
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAccountCreateAndReload(t *testing.T) {
	s := newTestStore(t)
	tracker := NewTracker()
	accounts := NewAccountsTable(s, tracker)

	h, err := accounts.CreateNew("alice")
	if err != nil {
		t.Fatalf("CreateNew() error = %v", err)
	}
	if h.Get().IsInitialised() {
		t.Fatal("expected new account to be uninitialised")
	}
	h.Mutable().Faction = config.FactionRed
	h.SetFame(20)
	if err := h.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	reloaded, err := accounts.GetByName("alice")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if reloaded == nil {
		t.Fatal("expected account to persist")
	}
	if !reloaded.Get().IsInitialised() {
		t.Error("expected reloaded account to be initialised")
	}
	if reloaded.Get().Fame != 20 {
		t.Errorf("expected fame 20, got %d", reloaded.Get().Fame)
	}
	if err := reloaded.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
}

func TestAccountFameClamps(t *testing.T) {
	s := newTestStore(t)
	accounts := NewAccountsTable(s, NewTracker())

	h, _ := accounts.CreateNew("bob")
	h.SetFame(20000)
	if h.Get().Fame != MaxFame {
		t.Errorf("expected fame clamped to %d, got %d", MaxFame, h.Get().Fame)
	}
	h.SetFame(-5)
	if h.Get().Fame != 0 {
		t.Errorf("expected fame clamped to 0, got %d", h.Get().Fame)
	}
	h.Release()
}

func TestDoubleHandleAcquisitionPanics(t *testing.T) {
	s := newTestStore(t)
	accounts := NewAccountsTable(s, NewTracker())

	h, _ := accounts.CreateNew("carol")
	defer h.Release()

	defer func() {
		if recover() == nil {
			t.Error("expected panic acquiring a second handle for the same account")
		}
	}()
	accounts.CreateNew("carol")
}
