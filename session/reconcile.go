package session

import (
	"errors"
	"fmt"

	"harborview.software/envedit/kv"
)

// ErrNoSession signals that a session-dependent operation was invoked
// before any baseline produced a session. That is a caller sequencing
// bug, not a data condition, so it is surfaced instead of yielding an
// empty changeset.
var ErrNoSession = errors.New("no active edit session")

// Reconcile carries the uncommitted edits of prev forward onto a newer
// baseline and returns the resulting session.
//
// With no prior session, or one without pending edits, the result is
// simply a fresh session over baseline. Otherwise the edits are expressed
// as the changeset between prev's own baseline and its current entries —
// never a newer baseline prev has not seen — and replayed onto a fresh
// session. There is no three-way merge: if the server changed a key the
// user also touched, the user's edit wins.
func Reconcile(baseline kv.Map, prev *Session) *Session {
	if prev == nil || !prev.HasChanges() {
		return New(baseline)
	}
	cs := kv.Diff(prev.Baseline(), prev.Entries())
	return New(baseline).Apply(cs)
}

// Pending returns the changeset a commit of s would carry: the diff of
// its entries against its own baseline. It fails with ErrNoSession when s
// is nil.
func Pending(s *Session) (kv.Changeset, error) {
	if s == nil {
		return nil, fmt.Errorf("cannot compute pending changes: %w", ErrNoSession)
	}
	return kv.Diff(s.Baseline(), s.Entries()), nil
}
