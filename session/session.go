// Package session implements the working state of the environment editor:
// an index-addressed view over an ordered key/value baseline that tracks
// which rows were added, changed or removed, keeps keys unique, and can
// carry uncommitted edits forward onto a newer baseline.
//
// A Session is never mutated once handed out. Every mutator copies the
// session, applies the change to the copy and returns it, so a renderer
// holding the previous value never observes a half-applied edit.
package session

import (
	"iter"
	"maps"
	"slices"

	"harborview.software/envedit/kv"
)

// Session is one edit surface over a baseline snapshot.
//
// The backing row sequence may contain transient rows with an empty key
// or value and tombstoned rows. Tombstoning instead of compacting keeps
// row indices stable while the user is typing into a specific row; the
// canonical state is what Entries returns.
type Session struct {
	// rows is the working sequence, including placeholders and
	// tombstoned slots.
	rows []kv.Pair
	// baseline is the snapshot this session was created from. It is only
	// read for change tracking and diffing, never written.
	baseline kv.Map
	// base caches baseline.Pairs() for per-index comparison.
	base []kv.Pair
	// byKey maps a key to the row that currently owns it. It is how key
	// collisions are detected when a row's key is retyped to match
	// another row's.
	byKey map[string]int
	// deleted is the tombstone set.
	deleted map[int]struct{}
	// changed holds every index whose row differs from the baseline row
	// at that index, or that was added or tombstoned relative to the
	// baseline's length.
	changed map[int]struct{}
	// filter is the active display filter. It only affects Rows.
	filter string
}

// New creates a Session over baseline with no pending edits.
func New(baseline kv.Map) *Session {
	base := baseline.Pairs()
	byKey := make(map[string]int, len(base))
	for i, p := range base {
		if p.Key != "" {
			byKey[p.Key] = i
		}
	}
	return &Session{
		rows:     slices.Clone(base),
		baseline: baseline,
		base:     base,
		byKey:    byKey,
		deleted:  make(map[int]struct{}),
		changed:  make(map[int]struct{}),
	}
}

// dup returns a structural copy with independent tracking state. base and
// baseline are shared: both are read-only after construction.
func (s *Session) dup() *Session {
	return &Session{
		rows:     slices.Clone(s.rows),
		baseline: s.baseline,
		base:     s.base,
		byKey:    maps.Clone(s.byKey),
		deleted:  maps.Clone(s.deleted),
		changed:  maps.Clone(s.changed),
		filter:   s.filter,
	}
}

// Len returns the length of the backing sequence, tombstoned and
// placeholder rows included. The synthetic "new entry" row sits at index
// Len.
func (s *Session) Len() int {
	return len(s.rows)
}

// DeletedLen returns the number of tombstoned rows.
func (s *Session) DeletedLen() int {
	return len(s.deleted)
}

// HasChanges reports whether any row differs from the baseline.
func (s *Session) HasChanges() bool {
	return len(s.changed) > 0
}

// Baseline returns the snapshot this session was created from.
func (s *Session) Baseline() kv.Map {
	return s.baseline
}

// Filter returns the active display filter text.
func (s *Session) Filter() string {
	return s.filter
}

// WithFilter returns a copy with the display filter replaced. The data is
// untouched; only Rows enumeration changes.
func (s *Session) WithFilter(text string) *Session {
	n := s.dup()
	n.filter = text
	return n
}

// SetKeyAt returns a copy with the key at row i rewritten, preserving the
// row's value. A tombstoned row is restored. If another row already owns
// key, that row is tombstoned and the key moves to i: last write wins.
// This displacement is deliberate (it mirrors how the editor resolves a
// retyped key) even though it can surprise a user editing two rows at
// once.
//
// i == Len addresses the synthetic trailing row and grows the sequence by
// one. Indices beyond that are no-ops.
func (s *Session) SetKeyAt(i int, key string) *Session {
	if i < 0 || i > len(s.rows) {
		return s
	}
	n := s.dup()
	n.materialize(i)
	n.setKeyAt(i, key)
	return n
}

// SetValueAt returns a copy with the value at row i rewritten, preserving
// the row's key. A row that becomes entirely empty is tombstoned. i ==
// Len addresses the synthetic trailing row; indices beyond that are
// no-ops.
func (s *Session) SetValueAt(i int, value string) *Session {
	if i < 0 || i > len(s.rows) {
		return s
	}
	n := s.dup()
	n.materialize(i)
	n.setValueAt(i, value)
	return n
}

// DeleteAt returns a copy with row i tombstoned. The row stays in the
// backing sequence so surrounding indices keep their meaning and the row
// can be restored through SetKeyAt. Out-of-range indices are no-ops.
func (s *Session) DeleteAt(i int) *Session {
	if i < 0 || i >= len(s.rows) {
		return s
	}
	n := s.dup()
	n.deleted[i] = struct{}{}
	n.recompute(i)
	return n
}

// Apply folds an externally computed changeset into the working state and
// returns the result. Adds land on the row currently owning the key, or
// on a fresh trailing row; removes tombstone the owning row and are
// no-ops for unknown keys.
func (s *Session) Apply(cs kv.Changeset) *Session {
	n := s.dup()
	for _, c := range cs {
		switch c.Op {
		case kv.OpAdd:
			i, ok := n.byKey[c.Key]
			if !ok {
				i = len(n.rows)
				n.materialize(i)
			}
			n.setKeyAt(i, c.Key)
			n.setValueAt(i, c.Value)
		case kv.OpRemove:
			if i, ok := n.byKey[c.Key]; ok {
				n.deleted[i] = struct{}{}
				n.recompute(i)
			}
		}
	}
	return n
}

// Entries returns the canonical committable state: every row that is not
// tombstoned and has both a non-empty key and a non-empty value, in
// backing order. No two returned pairs share a key.
func (s *Session) Entries() kv.Map {
	pairs := make([]kv.Pair, 0, len(s.rows))
	for i, p := range s.rows {
		if _, dead := s.deleted[i]; dead {
			continue
		}
		if p.Key == "" || p.Value == "" {
			continue
		}
		pairs = append(pairs, p)
	}
	return kv.NewMap(pairs...)
}

// Rows iterates the displayable rows: every non-tombstoned row whose key
// matches the filter, in backing order, followed by one synthetic empty
// row at index Len. The synthetic row is always yielded, filter or not;
// it is the "new entry" input row.
func (s *Session) Rows() iter.Seq2[int, kv.Pair] {
	return func(yield func(int, kv.Pair) bool) {
		for i, p := range s.rows {
			if _, dead := s.deleted[i]; dead {
				continue
			}
			if !matchesFilter(p.Key, s.filter) {
				continue
			}
			if !yield(i, p) {
				return
			}
		}
		yield(len(s.rows), kv.Pair{})
	}
}

// DeletedRows iterates exactly the tombstoned rows in index order, for
// rendering an undo affordance.
func (s *Session) DeletedRows() iter.Seq2[int, kv.Pair] {
	return func(yield func(int, kv.Pair) bool) {
		for _, i := range slices.Sorted(maps.Keys(s.deleted)) {
			if !yield(i, s.rows[i]) {
				return
			}
		}
	}
}

// materialize turns the synthetic trailing index into a real empty row.
func (s *Session) materialize(i int) {
	if i == len(s.rows) {
		s.rows = append(s.rows, kv.Pair{})
	}
}

func (s *Session) setKeyAt(i int, key string) {
	delete(s.deleted, i)
	old := s.rows[i].Key
	s.rows[i].Key = key
	if old != "" && old != key && s.byKey[old] == i {
		delete(s.byKey, old)
	}
	if key != "" {
		if j, ok := s.byKey[key]; ok && j != i {
			s.deleted[j] = struct{}{}
			s.recompute(j)
		}
		s.byKey[key] = i
	}
	s.recompute(i)
}

func (s *Session) setValueAt(i int, value string) {
	s.rows[i].Value = value
	if s.rows[i] == (kv.Pair{}) {
		s.deleted[i] = struct{}{}
	}
	s.recompute(i)
}

// recompute re-derives the changed flag for row i. A row inside the
// baseline's range is changed when it is tombstoned or differs from the
// baseline row at the same index. A row beyond the baseline is changed
// only while it holds data and is alive: a tombstoned or empty trailing
// row never existed in the baseline, so it reverts to untracked.
func (s *Session) recompute(i int) {
	_, dead := s.deleted[i]
	if i < len(s.base) {
		if dead || s.rows[i] != s.base[i] {
			s.changed[i] = struct{}{}
		} else {
			delete(s.changed, i)
		}
		return
	}
	if !dead && s.rows[i] != (kv.Pair{}) {
		s.changed[i] = struct{}{}
	} else {
		delete(s.changed, i)
	}
}
