package service

import (
	"fmt"
	"sync"
)

// State tracks where a release run is in its lifecycle. A run moves through
// the states in one direction only; a transition that skips or revisits a
// state indicates a coordinator bug and is rejected.
type State int

const (
	// StateListing means the producer is still enumerating source objects.
	StateListing State = iota
	// StateDraining means listing has finished and workers are finishing
	// already-submitted entries.
	StateDraining
	// StateReporting means all workers have returned and the manifest is
	// being written.
	StateReporting
	// StateDone is terminal.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateListing:
		return "listing"
	case StateDraining:
		return "draining"
	case StateReporting:
		return "reporting"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

var validTransitions = map[State]State{
	StateListing:   StateDraining,
	StateDraining:  StateReporting,
	StateReporting: StateDone,
}

type runState struct {
	mu      sync.Mutex
	current State
}

func newRunState() *runState {
	return &runState{current: StateListing}
}

func (r *runState) Current() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *runState) Transition(next State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if validTransitions[r.current] != next {
		return fmt.Errorf("invalid state transition from %s to %s", r.current, next)
	}
	r.current = next
	return nil
}
