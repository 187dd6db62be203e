// Package store provides the relational persistence layer for the game
// state: statement preparation with typed bound parameters, typed row
// iteration, the process-wide monotonic ID allocator, and schema
// bootstrap (spec.md §4.1).
//
// Structurally this is klingon-v2/internal/storage.Storage generalized:
// same SQLite-over-database/sql adapter, same WAL/synchronous pragma
// string, same single-writer connection-pool sizing, same
// "one big CREATE TABLE IF NOT EXISTS string executed once" bootstrap —
// but the schema is the entity model of spec.md §3 instead of swap orders.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hexrealm/taurion-gsp/pkg/logging"
)

// Store provides persistent storage for the game-state processor.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
	log    *logging.Logger
}

// Config holds store configuration.
type Config struct {
	DataDir string
	// InMemory opens a private, file-less in-memory database — used by
	// tests that do not need to inspect the file on disk.
	InMemory bool
}

// New creates a new Store instance, bootstrapping the schema.
func New(cfg *Config) (*Store, error) {
	var dsn, dbPath string
	if cfg.InMemory {
		dsn = "file::memory:?_journal_mode=WAL&_busy_timeout=5000"
	} else {
		dataDir := expandPath(cfg.DataDir)
		if err := os.MkdirAll(dataDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		dbPath = filepath.Join(dataDir, "gsp.db")
		dsn = dbPath + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite only supports one writer; block processing is single-threaded
	// anyway (spec.md §5), so a single connection avoids any possibility of
	// interleaved writes from stray goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
		log:    logging.GetDefault().Component("store"),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection, for packages (e.g.
// internal/database) that need to run their own prepared statements
// against it.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Lock/Unlock/RLock/RUnlock expose the store's mutex to callers that need
// to serialize a multi-statement read-modify-write sequence, matching the
// lock-around-each-CRUD-call discipline of klingon-v2/internal/storage. The
// entity handles in internal/database do not take it.
func (s *Store) Lock()    { s.mu.Lock() }
func (s *Store) Unlock()  { s.mu.Unlock() }
func (s *Store) RLock()   { s.mu.RLock() }
func (s *Store) RUnlock() { s.mu.RUnlock() }

func (s *Store) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS id_allocator (
		pool TEXT PRIMARY KEY,
		next_id INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS counters (
		key TEXT PRIMARY KEY,
		value INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS accounts (
		name TEXT PRIMARY KEY,
		faction TEXT NOT NULL DEFAULT 'invalid',
		fame INTEGER NOT NULL DEFAULT 0,
		kills INTEGER NOT NULL DEFAULT 0,
		balance INTEGER NOT NULL DEFAULT 0,
		config_blob BLOB
	);

	CREATE TABLE IF NOT EXISTS characters (
		id INTEGER PRIMARY KEY,
		owner TEXT NOT NULL,
		faction TEXT NOT NULL,
		pos_x INTEGER,
		pos_y INTEGER,
		building_id INTEGER,
		proto_blob BLOB NOT NULL,
		ongoing_id INTEGER,
		mining_region INTEGER,
		busy INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_characters_owner ON characters(owner);
	CREATE INDEX IF NOT EXISTS idx_characters_pos ON characters(pos_x, pos_y);
	CREATE INDEX IF NOT EXISTS idx_characters_building ON characters(building_id);

	CREATE TABLE IF NOT EXISTS buildings (
		id INTEGER PRIMARY KEY,
		type TEXT NOT NULL,
		owner TEXT NOT NULL DEFAULT '',
		centre_x INTEGER NOT NULL,
		centre_y INTEGER NOT NULL,
		rotation INTEGER NOT NULL DEFAULT 0,
		is_foundation INTEGER NOT NULL DEFAULT 0,
		attack_range INTEGER NOT NULL DEFAULT -1,
		friendly_range INTEGER NOT NULL DEFAULT -1,
		can_regen INTEGER NOT NULL DEFAULT 0,
		proto_blob BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_buildings_owner ON buildings(owner);

	CREATE TABLE IF NOT EXISTS ground_loot (
		pos_x INTEGER NOT NULL,
		pos_y INTEGER NOT NULL,
		inventory_blob BLOB NOT NULL,
		PRIMARY KEY (pos_x, pos_y)
	);

	CREATE TABLE IF NOT EXISTS building_inventories (
		building_id INTEGER NOT NULL,
		account TEXT NOT NULL,
		inventory_blob BLOB NOT NULL,
		PRIMARY KEY (building_id, account)
	);

	CREATE TABLE IF NOT EXISTS regions (
		id INTEGER PRIMARY KEY,
		resource TEXT,
		resource_left INTEGER NOT NULL DEFAULT 0,
		prospecting_character INTEGER,
		prospected_height INTEGER,
		last_modified_height INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_regions_modified ON regions(last_modified_height);

	CREATE TABLE IF NOT EXISTS ongoing_operations (
		id INTEGER PRIMARY KEY,
		target_height INTEGER NOT NULL,
		character_id INTEGER,
		building_id INTEGER,
		variant TEXT NOT NULL,
		payload_blob BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ongoing_height ON ongoing_operations(target_height, id);

	CREATE TABLE IF NOT EXISTS dex_orders (
		id INTEGER PRIMARY KEY,
		building_id INTEGER NOT NULL,
		account TEXT NOT NULL,
		side TEXT NOT NULL,
		item TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_dex_orders_book ON dex_orders(building_id, item, side, unit_price, id);
	CREATE INDEX IF NOT EXISTS idx_dex_orders_account ON dex_orders(account);

	CREATE TABLE IF NOT EXISTS dex_trades (
		log_id INTEGER PRIMARY KEY,
		building_id INTEGER NOT NULL,
		item TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price INTEGER NOT NULL,
		buyer TEXT NOT NULL,
		seller TEXT NOT NULL,
		height INTEGER NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}
