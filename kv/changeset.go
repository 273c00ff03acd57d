package kv

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Op discriminates the two change operations.
type Op string

const (
	// OpAdd upserts a key with a value.
	OpAdd Op = "add"
	// OpRemove deletes a key. Removing an absent key is a no-op.
	OpRemove Op = "remove"
)

// Change is a single add or remove operation. Value is meaningful only
// for OpAdd.
type Change struct {
	Op    Op
	Key   string
	Value string
}

// Changeset is an ordered sequence of changes transforming one Map into
// another. Applying a Changeset to the Map it was computed from yields
// the Map it was computed against, restricted to canonical (non-empty)
// pairs. Applying it twice is the same as applying it once.
type Changeset []Change

// Diff computes the Changeset that transforms from into to.
//
// A key present in to with a non-empty value that is absent from, or
// differs in, from yields an add; a key present in from but absent from
// to, or present with an empty value, yields a remove. Adds are emitted
// in to's order, removes in from's order, so the result is deterministic
// for a fixed pair of inputs. No ordering holds across the add/remove
// boundary.
func Diff(from, to Map) Changeset {
	var cs Changeset

	seen := make(map[string]struct{}, len(to.pairs))
	for _, p := range to.pairs {
		if _, dup := seen[p.Key]; dup {
			continue
		}
		seen[p.Key] = struct{}{}
		val, _ := to.Get(p.Key)
		if val == "" {
			continue
		}
		if old, ok := from.Get(p.Key); !ok || old != val {
			cs = append(cs, Change{Op: OpAdd, Key: p.Key, Value: val})
		}
	}

	seen = make(map[string]struct{}, len(from.pairs))
	for _, p := range from.pairs {
		if _, dup := seen[p.Key]; dup {
			continue
		}
		seen[p.Key] = struct{}{}
		if val, ok := to.Get(p.Key); !ok || val == "" {
			cs = append(cs, Change{Op: OpRemove, Key: p.Key})
		}
	}

	return cs
}

// Apply replays the Changeset onto base and returns the result; base is
// left untouched. Adds overwrite the last occurrence of an existing key
// in place and append otherwise; removes delete every occurrence of the
// key and are no-ops for absent keys. Apply is total: there are no
// failure modes.
func (cs Changeset) Apply(base Map) Map {
	pairs := slices.Clone(base.pairs)
	for _, c := range cs {
		switch c.Op {
		case OpAdd:
			idx := -1
			for i := len(pairs) - 1; i >= 0; i-- {
				if pairs[i].Key == c.Key {
					idx = i
					break
				}
			}
			if idx >= 0 {
				pairs[idx].Value = c.Value
			} else {
				pairs = append(pairs, Pair{Key: c.Key, Value: c.Value})
			}
		case OpRemove:
			pairs = slices.DeleteFunc(pairs, func(p Pair) bool {
				return p.Key == c.Key
			})
		}
	}
	return Map{pairs: pairs}
}

type changeJSON struct {
	Op    Op     `json:"op"`
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// MarshalJSON encodes the change as {"op":…,"name":…,"value":…}; the
// value is omitted for removes.
func (c Change) MarshalJSON() ([]byte, error) {
	out := changeJSON{Op: c.Op, Name: c.Key}
	if c.Op == OpAdd {
		out.Value = c.Value
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a change and rejects unknown operations.
func (c *Change) UnmarshalJSON(data []byte) error {
	var in changeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Op {
	case OpAdd, OpRemove:
	default:
		return fmt.Errorf("unknown change operation %q", in.Op)
	}
	*c = Change{Op: in.Op, Key: in.Name, Value: in.Value}
	if c.Op == OpRemove {
		c.Value = ""
	}
	return nil
}
