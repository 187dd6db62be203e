// Package database implements the write-back entity-handle model of
// spec.md §3/§4.1/§4.2: a lazy-decoding blob wrapper, a process-wide
// handle tracker, and one handle type per entity kind (accounts,
// characters, buildings, ground loot, building inventories, regions,
// ongoing operations, DEX orders, DEX trade history).
//
// Grounded on original_source/database/uniquehandles.{hpp,cpp} for the
// tracker and lazyproto.hpp for the lazy wrapper; the CRUD method shape
// (typed Get/List/Create, filter structs, write-back on release) follows
// klingon-v2/internal/storage/orders.go and trades.go.
package database

import (
	"fmt"
	"sync"
)

// Tracker is the process-wide registry of live (kind, key) handle pairs
// (spec.md §4.1). At most one mutable handle may exist at a time for any
// given entity; acquiring a second is a programming-logic fault, not a
// recoverable error, so it panics rather than returning one — spec.md §7
// reserves panics for exactly this class of invariant violation.
type Tracker struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewTracker returns an empty handle tracker.
func NewTracker() *Tracker {
	return &Tracker{active: make(map[string]struct{})}
}

// Acquire registers a new live handle for (kind, key) and returns a
// release function to call when the handle is done. It panics if a
// handle for the same (kind, key) is already active.
func (t *Tracker) Acquire(kind, key string) func() {
	k := kind + ":" + key

	t.mu.Lock()
	if _, ok := t.active[k]; ok {
		t.mu.Unlock()
		panic(fmt.Sprintf("database: ConflictingHandle for %s", k))
	}
	t.active[k] = struct{}{}
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.active, k)
			t.mu.Unlock()
		})
	}
}

// IsActive reports whether a handle for (kind, key) currently exists.
// Exposed for tests; production code should never need to poll this.
func (t *Tracker) IsActive(kind, key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.active[kind+":"+key]
	return ok
}
