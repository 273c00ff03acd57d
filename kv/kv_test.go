package kv_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"harborview.software/envedit/kv"
)

func TestMapOrderAndLookup(t *testing.T) {
	r := require.New(t)

	m := kv.NewMap(
		kv.Pair{Key: "B", Value: "2"},
		kv.Pair{Key: "A", Value: "1"},
	)

	r.Equal(2, m.Len())
	r.Equal([]kv.Pair{{Key: "B", Value: "2"}, {Key: "A", Value: "1"}}, m.Pairs())

	v, ok := m.Get("A")
	r.True(ok)
	r.Equal("1", v)

	_, ok = m.Get("C")
	r.False(ok)
	r.False(m.Has("C"))
}

func TestMapLastOccurrenceWins(t *testing.T) {
	r := require.New(t)

	m := kv.NewMap(
		kv.Pair{Key: "A", Value: "old"},
		kv.Pair{Key: "B", Value: "2"},
		kv.Pair{Key: "A", Value: "new"},
	)

	v, ok := m.Get("A")
	r.True(ok)
	r.Equal("new", v)
}

func TestMapIsAValue(t *testing.T) {
	r := require.New(t)

	input := []kv.Pair{{Key: "A", Value: "1"}}
	m := kv.NewMap(input...)

	// mutating the caller's slice or the Pairs copy must not show in m
	input[0].Value = "mutated"
	out := m.Pairs()
	out[0].Value = "mutated"

	v, _ := m.Get("A")
	r.Equal("1", v)
}

func TestMapAll(t *testing.T) {
	r := require.New(t)

	m := kv.NewMap(
		kv.Pair{Key: "A", Value: "1"},
		kv.Pair{Key: "B", Value: "2"},
	)

	var keys []string
	for k, v := range m.All() {
		keys = append(keys, k+"="+v)
	}
	r.Equal([]string{"A=1", "B=2"}, keys)
}

func TestMapEqual(t *testing.T) {
	r := require.New(t)

	a := kv.NewMap(kv.Pair{Key: "A", Value: "1"}, kv.Pair{Key: "B", Value: "2"})
	b := kv.NewMap(kv.Pair{Key: "A", Value: "1"}, kv.Pair{Key: "B", Value: "2"})
	reordered := kv.NewMap(kv.Pair{Key: "B", Value: "2"}, kv.Pair{Key: "A", Value: "1"})

	r.True(a.Equal(b))
	r.False(a.Equal(reordered))
	r.True(kv.NewMap().Equal(kv.NewMap()))
}

func TestMapJSONPreservesOrder(t *testing.T) {
	r := require.New(t)

	m := kv.NewMap(
		kv.Pair{Key: "Z", Value: "26"},
		kv.Pair{Key: "A", Value: "1"},
	)

	data, err := json.Marshal(m)
	r.NoError(err)
	r.JSONEq(`[{"name":"Z","value":"26"},{"name":"A","value":"1"}]`, string(data))

	var back kv.Map
	r.NoError(json.Unmarshal(data, &back))
	r.True(m.Equal(back))
}
