package service

import (
	"sync/atomic"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/index"
)

// Snapshot is one immutable view of the knowledge index. A new snapshot is
// published whole on every rebuild; readers never see a half-swapped state.
type Snapshot struct {
	Store     *index.Store
	Retriever *index.Retriever
	Status    index.Status
	Ready     bool
}

// State holds the mutable pieces the serving surface shares: the current
// index snapshot and the last report text seen by a summarize call.
type State struct {
	snapshot   atomic.Pointer[Snapshot]
	lastReport atomic.Pointer[string]
}

// NewState starts in the initializing phase with no report seen.
func NewState() *State {
	s := &State{}
	s.snapshot.Store(&Snapshot{
		Status: index.Status{Status: index.StatusInitializing},
	})
	empty := ""
	s.lastReport.Store(&empty)
	return s
}

// Publish swaps in a new index snapshot.
func (s *State) Publish(snap *Snapshot) {
	s.snapshot.Store(snap)
}

// Snapshot returns the current index snapshot.
func (s *State) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// SetLastReport remembers the most recent normalized report text so chat
// calls can reference it without re-sending the report.
func (s *State) SetLastReport(text string) {
	s.lastReport.Store(&text)
}

// LastReport returns the most recent report text, or "" when none was seen.
func (s *State) LastReport() string {
	return *s.lastReport.Load()
}
