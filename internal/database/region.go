package database

import (
	"database/sql"
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/store"
)

// Region is the decoded, in-memory view of one regions row: prospection
// state and remaining resource reserve (spec.md §3).
type Region struct {
	ID                   int64
	Resource             string // empty if never prospected
	ResourceLeft         int64
	ProspectingCharacter *int64
	ProspectedHeight     *int64
	LastModifiedHeight   int64
}

// IsProspected reports whether the region's resource kind has been
// revealed.
func (r *Region) IsProspected() bool { return r.Resource != "" }

// IsBeingProspected reports whether a character currently has an active
// prospecting operation on this region.
func (r *Region) IsBeingProspected() bool { return r.ProspectingCharacter != nil }

// RegionHandle is a scoped, write-back-on-release handle to one region.
// Regions always exist implicitly (keyed by the static region map), so
// release always performs an upsert when dirty; there is no delete path.
type RegionHandle struct {
	tbl     *RegionsTable
	rec     *Region
	height  int64
	dirty   bool
	release func()
	done    bool
}

// Get returns the read-only region record.
func (h *RegionHandle) Get() *Region { return h.rec }

// Mutable returns the region record for modification and bumps
// LastModifiedHeight to the current block height — spec.md §4.2:
// "maintained automatically when the blob is dirtied or the reserve is
// written."
func (h *RegionHandle) Mutable() *Region {
	h.dirty = true
	h.rec.LastModifiedHeight = h.height
	return h.rec
}

// Release writes back the region if it was modified.
func (h *RegionHandle) Release() error {
	if h.done {
		return nil
	}
	h.done = true
	defer h.release()

	if !h.dirty {
		return nil
	}
	return h.tbl.writeBack(h.rec)
}

// RegionsTable provides CRUD access to the regions entity kind.
type RegionsTable struct {
	store   *store.Store
	tracker *Tracker
}

// NewRegionsTable constructs a RegionsTable.
func NewRegionsTable(s *store.Store, t *Tracker) *RegionsTable {
	return &RegionsTable{store: s, tracker: t}
}

// GetByID returns a handle to region id, creating a default (never
// prospected) record if it has no row yet. height is the current block
// height, recorded on any mutation.
func (t *RegionsTable) GetByID(id, height int64) (*RegionHandle, error) {
	release := t.tracker.Acquire("region", fmt.Sprintf("%d", id))

	row := t.store.DB().QueryRow(`
		SELECT id, resource, resource_left, prospecting_character, prospected_height, last_modified_height
		FROM regions WHERE id = ?`, id)

	rec, err := scanRegion(row)
	if err == sql.ErrNoRows {
		rec = &Region{ID: id}
	} else if err != nil {
		release()
		return nil, fmt.Errorf("database: get region %d: %w", id, err)
	}

	return &RegionHandle{tbl: t, rec: rec, height: height, release: release}, nil
}

// QueryModifiedSince returns every region modified at or after height,
// for incremental state dissemination (spec.md §4.2).
func (t *RegionsTable) QueryModifiedSince(height int64) ([]*Region, error) {
	rows, err := t.store.DB().Query(`
		SELECT id, resource, resource_left, prospecting_character, prospected_height, last_modified_height
		FROM regions WHERE last_modified_height >= ? ORDER BY id`, height)
	if err != nil {
		return nil, fmt.Errorf("database: query regions modified since %d: %w", height, err)
	}
	defer rows.Close()

	var out []*Region
	for rows.Next() {
		rec, err := scanRegion(rows)
		if err != nil {
			return nil, fmt.Errorf("database: scan region row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRegion(row rowScanner) (*Region, error) {
	var id, resourceLeft, lastModified int64
	var resource sql.NullString
	var prospectingCharacter, prospectedHeight sql.NullInt64

	if err := row.Scan(&id, &resource, &resourceLeft, &prospectingCharacter, &prospectedHeight, &lastModified); err != nil {
		return nil, err
	}

	rec := &Region{ID: id, Resource: resource.String, ResourceLeft: resourceLeft, LastModifiedHeight: lastModified}
	if prospectingCharacter.Valid {
		v := prospectingCharacter.Int64
		rec.ProspectingCharacter = &v
	}
	if prospectedHeight.Valid {
		v := prospectedHeight.Int64
		rec.ProspectedHeight = &v
	}
	return rec, nil
}

func (t *RegionsTable) writeBack(r *Region) error {
	var prospectingCharacter, prospectedHeight interface{}
	if r.ProspectingCharacter != nil {
		prospectingCharacter = *r.ProspectingCharacter
	}
	if r.ProspectedHeight != nil {
		prospectedHeight = *r.ProspectedHeight
	}

	_, err := t.store.DB().Exec(`
		INSERT INTO regions (id, resource, resource_left, prospecting_character, prospected_height, last_modified_height)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			resource = excluded.resource,
			resource_left = excluded.resource_left,
			prospecting_character = excluded.prospecting_character,
			prospected_height = excluded.prospected_height,
			last_modified_height = excluded.last_modified_height
	`, r.ID, nullableString(r.Resource), r.ResourceLeft, prospectingCharacter, prospectedHeight, r.LastModifiedHeight)
	if err != nil {
		return fmt.Errorf("database: write back region %d: %w", r.ID, err)
	}
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
