// Package kv provides the ordered key/value substrate of the environment
// editor: an insertion-ordered sequence of string pairs (Map) and an
// ordered add/remove operation sequence (Changeset) that transforms one
// Map into another.
//
// A Map is a value; every operation that would modify one returns a new
// Map instead. This is what lets the session layer hand Maps to renderers
// and reconcilers without synchronization.
package kv

import (
	"iter"
	"slices"
)

// Pair is a single key/value entry.
type Pair struct {
	Key   string
	Value string
}

// Map is an insertion-ordered sequence of string pairs.
//
// Map does not enforce key uniqueness. Callers that need canonical state
// (no duplicate keys, no empty keys or values) enforce it themselves; the
// session layer does exactly that before handing a Map out. While a Map
// holds duplicate keys, Get resolves to the last occurrence, matching the
// "last keystroke wins" behavior of the editor.
type Map struct {
	pairs []Pair
}

// NewMap creates a Map from the given pairs. The input is copied, so the
// caller may keep mutating its slice.
func NewMap(pairs ...Pair) Map {
	return Map{pairs: slices.Clone(pairs)}
}

// Pairs returns a copy of the underlying pair sequence, stable across
// calls.
func (m Map) Pairs() []Pair {
	return slices.Clone(m.pairs)
}

// Len returns the number of pairs, duplicates included.
func (m Map) Len() int {
	return len(m.pairs)
}

// Get returns the value for key. If the key occurs more than once, the
// last occurrence wins.
func (m Map) Get(key string) (string, bool) {
	for i := len(m.pairs) - 1; i >= 0; i-- {
		if m.pairs[i].Key == key {
			return m.pairs[i].Value, true
		}
	}
	return "", false
}

// Has reports whether key is present.
func (m Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// All iterates the pairs in order.
func (m Map) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, p := range m.pairs {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

// Equal reports structural equality: same pairs in the same order.
func (m Map) Equal(o Map) bool {
	return slices.Equal(m.pairs, o.pairs)
}
