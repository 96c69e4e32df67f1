package state

import (
	"sync"
	"time"
)

// Store holds the current Snapshot and is the only place it changes.
type Store struct {
	mu   sync.Mutex
	next uint64
	snap Snapshot
	now  func() time.Time
}

func NewStore(initial Selection) *Store {
	return &Store{
		snap: Snapshot{Selection: initial, Status: StatusIdle},
		now:  time.Now,
	}
}

// Begin starts a new request. edit receives the current selection and returns the
// one to request; the returned token identifies the request in later actions.
func (s *Store) Begin(edit func(Selection) Selection) (uint64, Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel := s.snap.Selection
	if edit != nil {
		sel = edit(sel)
	}
	s.next++
	s.snap = Reduce(s.snap, Requested{Seq: s.next, Selection: sel, At: s.now()})
	return s.next, sel
}

// Dispatch applies a and reports whether it changed the state. Loaded and Failed
// actions carry their own timestamp; a zero At is filled in.
func (s *Store) Dispatch(a Action) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !Accepts(s.snap, a) {
		return s.snap, false
	}
	if r, ok := a.(Requested); ok && r.Seq > s.next {
		s.next = r.Seq
	}
	s.snap = Reduce(s.snap, stamp(a, s.now()))
	return s.snap, true
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func stamp(a Action, now time.Time) Action {
	switch v := a.(type) {
	case Requested:
		if v.At.IsZero() {
			v.At = now
		}
		return v
	case Loaded:
		if v.At.IsZero() {
			v.At = now
		}
		return v
	case Failed:
		if v.At.IsZero() {
			v.At = now
		}
		return v
	}
	return a
}
