package ssf

import (
	"sync/atomic"
)

// state.go implements the scheduler's own lifecycle state, independent of
// the per-machine {current_handler, pending_handler} bookkeeping that
// lives alongside the dispatch loop in scheduler.go. Uses a lock-free,
// cache-line-padded CAS state machine: the same mechanism as a loop's
// run/sleep/poll cycle, renamed here for a scheduler's create/run/
// terminate lifecycle.
//
// Lifecycle (spec §4.4 / §6):
//
//	StateCreated (0)      → StateRunning (1)   [first Task() call]
//	StateRunning (1)      → StateTerminating (2) [Deinit() begins]
//	StateTerminating (2)  → StateTerminated (3) [Deinit() returns]
//
// There is no Sleeping/Awake distinction here: unlike an I/O polling
// loop, a Scheduler never blocks inside Task — it always returns
// promptly with a next-timeout hint for the host's own wait loop.
type lifecycleState uint64

const (
	// stateCreated is the state immediately after NewScheduler, before
	// the first Task() call.
	stateCreated lifecycleState = iota
	// stateRunning is set on the first Task() call and holds for the
	// scheduler's entire working life.
	stateRunning
	// stateTerminating is set for the duration of Deinit, while
	// outstanding timers are purged and pools are required empty.
	stateTerminating
	// stateTerminated is terminal; any further Post/Task/Transition call
	// is a precondition violation.
	stateTerminated
)

func (s lifecycleState) String() string {
	switch s {
	case stateCreated:
		return "Created"
	case stateRunning:
		return "Running"
	case stateTerminating:
		return "Terminating"
	case stateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// fastState is a lock-free state machine with cache-line padding,
// avoiding false sharing with whatever field a Scheduler places next to
// it (typically the dispatch mutex).
type fastState struct { // betteralign:ignore
	_ [sizeOfCacheLine]byte
	v atomic.Uint64
	_ [sizeOfCacheLine - sizeOfAtomicUint64]byte
}

func newFastState() *fastState {
	s := &fastState{}
	s.v.Store(uint64(stateCreated))
	return s
}

func (s *fastState) Load() lifecycleState {
	return lifecycleState(s.v.Load())
}

func (s *fastState) Store(state lifecycleState) {
	s.v.Store(uint64(state))
}

// TryTransition attempts to atomically move from one lifecycle state to
// another. Returns true if the transition took effect.
func (s *fastState) TryTransition(from, to lifecycleState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

func (s *fastState) IsTerminal() bool {
	return s.Load() == stateTerminated
}
