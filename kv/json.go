package kv

import "encoding/json"

type pairJSON struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MarshalJSON encodes the Map as an ordered array of {"name","value"}
// objects, the shape environment lists take inside release records.
// Encoding through an array instead of a JSON object is what preserves
// insertion order across the wire.
func (m Map) MarshalJSON() ([]byte, error) {
	out := make([]pairJSON, len(m.pairs))
	for i, p := range m.pairs {
		out[i] = pairJSON{Name: p.Key, Value: p.Value}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an ordered {"name","value"} array.
func (m *Map) UnmarshalJSON(data []byte) error {
	var in []pairJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	pairs := make([]Pair, len(in))
	for i, p := range in {
		pairs[i] = Pair{Key: p.Name, Value: p.Value}
	}
	m.pairs = pairs
	return nil
}
