package database

import "encoding/json"

// Lazy wraps an opaque encoded blob and defers decoding until first read
// (spec.md §2's "Lazy record": "wraps an opaque encoded blob, decodes on
// first read, tracks modification, re-encodes on write"). Grounded on
// original_source/database/lazyproto.hpp's LazyProto<Proto> state
// machine (uninitialised / unparsed / unmodified / modified), rebuilt
// here as a Go generic over the decoded value type, with JSON standing in
// for the original's protocol-buffer wire format as the tagged-record
// encoding spec.md §3 allows ("protocol-buffer-encoded or equivalent").
type Lazy[T any] struct {
	raw    []byte
	val    T
	parsed bool
	dirty  bool
}

// NewLazy constructs a Lazy from raw encoded bytes read from the store.
func NewLazy[T any](raw []byte) *Lazy[T] {
	return &Lazy[T]{raw: raw}
}

// NewLazyDefault constructs a Lazy already holding a zero-value decoded
// record, as if newly created and never yet serialised.
func NewLazyDefault[T any]() *Lazy[T] {
	return &Lazy[T]{parsed: true, dirty: true}
}

func (l *Lazy[T]) ensureParsed() {
	if l.parsed {
		return
	}
	if len(l.raw) > 0 {
		if err := json.Unmarshal(l.raw, &l.val); err != nil {
			panic("database: corrupt lazy blob: " + err.Error())
		}
	}
	l.parsed = true
}

// Get returns a read-only view of the decoded value.
func (l *Lazy[T]) Get() *T {
	l.ensureParsed()
	return &l.val
}

// Mutable returns a pointer to the decoded value for modification and
// marks this record dirty unconditionally — callers that only read
// through Mutable without changing anything still pay a redundant
// write-back, matching LazyProto::Mutable's documented behaviour of not
// trying to detect no-op mutations.
func (l *Lazy[T]) Mutable() *T {
	l.ensureParsed()
	l.dirty = true
	return &l.val
}

// IsDirty reports whether the decoded value has been modified since it
// was last in sync with raw.
func (l *Lazy[T]) IsDirty() bool {
	return l.dirty
}

// Serialised returns the canonical encoded bytes for the current value,
// re-encoding only if dirty (or never serialised at all).
func (l *Lazy[T]) Serialised() ([]byte, error) {
	if !l.dirty && l.raw != nil {
		return l.raw, nil
	}
	l.ensureParsed()
	enc, err := json.Marshal(l.val)
	if err != nil {
		return nil, err
	}
	l.raw = enc
	l.dirty = false
	return enc, nil
}
