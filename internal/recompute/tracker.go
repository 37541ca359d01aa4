package recompute

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is a candidate's recompute state. Candidates with no entry are Fresh.
type State int

const (
	StateFresh State = iota
	StateDirty
	StateRecomputing
)

func (s State) String() string {
	switch s {
	case StateDirty:
		return "dirty"
	case StateRecomputing:
		return "recomputing"
	default:
		return "fresh"
	}
}

type trackerEntry struct {
	state      State
	gen        uint64
	dirtySince time.Time
}

// Tracker tracks candidates whose stored score is behind their factors.
//
// Every factor change bumps the candidate's generation. A recompute that finishes
// under an older generation leaves the candidate Dirty, so writes that land during
// a recompute are never lost. Thread-safe.
type Tracker struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*trackerEntry
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[uuid.UUID]*trackerEntry)}
}

// MarkDirty records a factor change for the candidate.
func (t *Tracker) MarkDirty(id uuid.UUID, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		e = &trackerEntry{state: StateDirty, dirtySince: at}
		t.entries[id] = e
	}
	e.gen++
}

// Begin moves the candidate to Recomputing and returns the generation being computed
// and when the candidate became dirty. ok is false if a recompute is already in flight.
func (t *Tracker) Begin(id uuid.UUID, at time.Time) (gen uint64, dirtySince time.Time, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, exists := t.entries[id]
	if !exists {
		e = &trackerEntry{state: StateDirty, dirtySince: at}
		t.entries[id] = e
	}
	if e.state == StateRecomputing {
		return 0, time.Time{}, false
	}
	e.state = StateRecomputing
	return e.gen, e.dirtySince, true
}

// Finish ends a recompute started at gen. The candidate becomes Fresh only when the
// recompute succeeded and no change arrived meanwhile; otherwise it returns to Dirty
// and Finish reports true.
func (t *Tracker) Finish(id uuid.UUID, gen uint64, succeeded bool) (stillDirty bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		return false
	}
	if succeeded && e.gen == gen {
		delete(t.entries, id)
		return false
	}
	e.state = StateDirty
	return true
}

// State returns the candidate's current state.
func (t *Tracker) State(id uuid.UUID) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[id]; ok {
		return e.state
	}
	return StateFresh
}

// Len returns the number of candidates that are not Fresh.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// OldestDirty returns the earliest dirty-since time among tracked candidates.
func (t *Tracker) OldestDirty() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var oldest time.Time
	for _, e := range t.entries {
		if oldest.IsZero() || e.dirtySince.Before(oldest) {
			oldest = e.dirtySince
		}
	}
	return oldest, !oldest.IsZero()
}
