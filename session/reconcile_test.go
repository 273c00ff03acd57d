package session_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"harborview.software/envedit/kv"
	"harborview.software/envedit/session"
)

func TestReconcile(t *testing.T) {
	t.Run("no prior session starts fresh", func(t *testing.T) {
		r := require.New(t)

		s := session.Reconcile(baseline(kv.Pair{Key: "A", Value: "1"}), nil)

		r.False(s.HasChanges())
		r.Equal([]kv.Pair{{Key: "A", Value: "1"}}, s.Entries().Pairs())
	})

	t.Run("clean prior session is discarded", func(t *testing.T) {
		r := require.New(t)

		prev := session.New(baseline(kv.Pair{Key: "A", Value: "1"}))
		next := session.Reconcile(baseline(kv.Pair{Key: "A", Value: "2"}), prev)

		r.False(next.HasChanges())
		r.Equal([]kv.Pair{{Key: "A", Value: "2"}}, next.Entries().Pairs())
	})

	t.Run("a pending delete is replayed onto the new baseline", func(t *testing.T) {
		r := require.New(t)

		prev := session.New(baseline(kv.Pair{Key: "A", Value: "1"}))
		prev = prev.DeleteAt(0)
		r.True(prev.HasChanges())
		r.Equal(0, prev.Entries().Len())

		next := session.Reconcile(baseline(
			kv.Pair{Key: "A", Value: "1"},
			kv.Pair{Key: "C", Value: "3"},
		), prev)

		r.Equal([]kv.Pair{{Key: "C", Value: "3"}}, next.Entries().Pairs())
	})

	t.Run("a pending edit wins over a server-side change to the same key", func(t *testing.T) {
		r := require.New(t)

		prev := session.New(baseline(kv.Pair{Key: "A", Value: "1"}))
		prev = prev.SetValueAt(0, "mine")

		next := session.Reconcile(baseline(kv.Pair{Key: "A", Value: "theirs"}), prev)

		v, ok := next.Entries().Get("A")
		r.True(ok)
		r.Equal("mine", v)
	})

	t.Run("untouched server-side additions survive", func(t *testing.T) {
		r := require.New(t)

		prev := session.New(baseline(kv.Pair{Key: "A", Value: "1"}))
		prev = prev.SetKeyAt(1, "NEW").SetValueAt(1, "x")

		next := session.Reconcile(baseline(
			kv.Pair{Key: "A", Value: "1"},
			kv.Pair{Key: "B", Value: "2"},
		), prev)

		r.Equal([]kv.Pair{
			{Key: "A", Value: "1"},
			{Key: "B", Value: "2"},
			{Key: "NEW", Value: "x"},
		}, next.Entries().Pairs())

		// the carried edit stays pending on the new session
		r.True(next.HasChanges())
	})

	t.Run("the diff is taken against the session's own baseline", func(t *testing.T) {
		r := require.New(t)

		// the session was created from A=1; the hub later saw A=2, but
		// the session never did. Reconciliation must compare against
		// A=1, or the untouched A row would look like a pending edit.
		prev := session.New(baseline(kv.Pair{Key: "A", Value: "1"}))
		prev = prev.SetKeyAt(1, "NEW").SetValueAt(1, "x")

		next := session.Reconcile(baseline(kv.Pair{Key: "A", Value: "2"}), prev)

		v, ok := next.Entries().Get("A")
		r.True(ok)
		r.Equal("2", v)
	})
}

func TestPending(t *testing.T) {
	t.Run("nil session fails fast", func(t *testing.T) {
		r := require.New(t)

		_, err := session.Pending(nil)
		r.ErrorIs(err, session.ErrNoSession)
	})

	t.Run("clean session yields an empty changeset", func(t *testing.T) {
		r := require.New(t)

		cs, err := session.Pending(session.New(baseline(kv.Pair{Key: "A", Value: "1"})))
		r.NoError(err)
		r.Empty(cs)
	})

	t.Run("edits yield their changeset", func(t *testing.T) {
		r := require.New(t)

		s := session.New(baseline(kv.Pair{Key: "A", Value: "1"}))
		s = s.SetValueAt(0, "9")

		cs, err := session.Pending(s)
		r.NoError(err)
		r.Equal(kv.Changeset{{Op: kv.OpAdd, Key: "A", Value: "9"}}, cs)
	})
}
