package state

import (
	"time"

	"github.com/godilite/urbanscore/internal/ranking"
)

// LoadFailedMessage is shown to the user when a ranking request fails.
const LoadFailedMessage = "rankings could not be loaded; verify the data source is reachable"

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	}
	return "idle"
}

// Selection is the pair of user choices a ranking is requested for.
type Selection struct {
	Profile ranking.Profile
	Order   ranking.SortOrder
}

// Snapshot is an immutable view of the ranking screen. Entries belong to the
// request identified by Seq and must not be modified.
type Snapshot struct {
	Seq       uint64
	Selection Selection
	Status    Status
	Entries   []ranking.ViewRecord
	Message   string
	Cause     error
	UpdatedAt time.Time
}

// Action is one of Requested, Loaded or Failed.
type Action interface {
	sequence() uint64
}

// Requested marks the start of request Seq.
type Requested struct {
	Seq       uint64
	Selection Selection
	At        time.Time
}

// Loaded delivers the ranking computed for request Seq.
type Loaded struct {
	Seq     uint64
	Ranking ranking.Ranking
	At      time.Time
}

// Failed reports that request Seq could not be completed.
type Failed struct {
	Seq uint64
	Err error
	At  time.Time
}

func (a Requested) sequence() uint64 { return a.Seq }
func (a Loaded) sequence() uint64    { return a.Seq }
func (a Failed) sequence() uint64    { return a.Seq }

// Accepts reports whether Reduce(s, a) would change s. Responses are accepted only
// for the request currently loading; anything else is stale.
func Accepts(s Snapshot, a Action) bool {
	switch a.(type) {
	case Requested:
		return a.sequence() > s.Seq
	case Loaded, Failed:
		return a.sequence() == s.Seq && s.Status == StatusLoading
	}
	return false
}

// Reduce returns the snapshot that results from applying a to s.
func Reduce(s Snapshot, a Action) Snapshot {
	if !Accepts(s, a) {
		return s
	}

	switch a := a.(type) {
	case Requested:
		return Snapshot{
			Seq:       a.Seq,
			Selection: a.Selection,
			Status:    StatusLoading,
			UpdatedAt: a.At,
		}
	case Loaded:
		entries := a.Ranking.Entries
		if entries == nil {
			entries = []ranking.ViewRecord{}
		}
		return Snapshot{
			Seq:       s.Seq,
			Selection: s.Selection,
			Status:    StatusReady,
			Entries:   entries,
			UpdatedAt: a.At,
		}
	case Failed:
		return Snapshot{
			Seq:       s.Seq,
			Selection: s.Selection,
			Status:    StatusFailed,
			Entries:   []ranking.ViewRecord{},
			Message:   LoadFailedMessage,
			Cause:     a.Err,
			UpdatedAt: a.At,
		}
	}
	return s
}
