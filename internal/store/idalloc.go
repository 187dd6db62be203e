package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// NextID reserves and returns the next unique ID from the named pool
// (spec.md §3's process-wide ID allocator, e.g. "character", "building",
// "ongoing", "dex_order", "dex_trade_log"). Each pool starts at 1 and is
// monotonic for the lifetime of the chain.
func (s *Store) NextID(pool string) (int64, error) {
	return s.ReserveIDs(pool, 1)
}

// ReserveIDs reserves a contiguous block of n IDs from the named pool and
// returns the first one; the caller owns [first, first+n).
func (s *Store) ReserveIDs(pool string, n int64) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("store: ReserveIDs count must be positive, got %d", n)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: begin reserve-ids tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO id_allocator (pool, next_id) VALUES (?, 1)
		 ON CONFLICT(pool) DO NOTHING`, pool); err != nil {
		return 0, fmt.Errorf("store: seed pool %q: %w", pool, err)
	}

	var first int64
	if err := tx.QueryRow(`SELECT next_id FROM id_allocator WHERE pool = ?`, pool).Scan(&first); err != nil {
		return 0, fmt.Errorf("store: read pool %q: %w", pool, err)
	}

	if _, err := tx.Exec(`UPDATE id_allocator SET next_id = next_id + ? WHERE pool = ?`, n, pool); err != nil {
		return 0, fmt.Errorf("store: advance pool %q: %w", pool, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit reserve-ids tx: %w", err)
	}
	return first, nil
}

// Counter returns the current value of a named process-wide counter
// (spec.md §6 supplemented money-supply and per-item-count totals), zero
// if it has never been set.
func (s *Store) Counter(key string) (int64, error) {
	var v int64
	err := s.db.QueryRow(`SELECT value FROM counters WHERE key = ?`, key).Scan(&v)
	if err == nil {
		return v, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return 0, fmt.Errorf("store: read counter %q: %w", key, err)
}

// AddToCounter atomically adds delta (which may be negative) to a named
// counter, creating it at delta if absent, and returns the new value.
func (s *Store) AddToCounter(key string, delta int64) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: begin counter tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO counters (key, value) VALUES (?, 0)
		 ON CONFLICT(key) DO NOTHING`, key); err != nil {
		return 0, fmt.Errorf("store: seed counter %q: %w", key, err)
	}
	if _, err := tx.Exec(`UPDATE counters SET value = value + ? WHERE key = ?`, delta, key); err != nil {
		return 0, fmt.Errorf("store: update counter %q: %w", key, err)
	}

	var v int64
	if err := tx.QueryRow(`SELECT value FROM counters WHERE key = ?`, key).Scan(&v); err != nil {
		return 0, fmt.Errorf("store: read counter %q: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit counter tx: %w", err)
	}
	return v, nil
}
