package ssf

import (
	"fmt"
	"reflect"
	"sync"
	"time"
)

// scheduler.go is the dispatch core of spec §4.4: the cooperative
// run-to-completion loop that owns the pending-event list, the
// pending-timer list, and the per-machine {current_handler,
// pending_handler} state, structured after eventloop's own
// Loop.Submit/Run pair, though here the dispatch unit is a
// state-machine handler rather than an arbitrary closure.

// locker abstracts away the mutex in single-threaded mode: spec §5 says
// no locking is performed at all unless WithThreaded is set, and a
// no-op implementation keeps the dispatch path identical either way.
type locker interface {
	Lock()
	Unlock()
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// machineState is one entry of spec §3's states[N] array: the current
// and (if a transition is pending this dispatch) next handler for one
// machine.
type machineState struct {
	current    Handler
	pending    Handler
	hasPending bool
}

// Scheduler is the SSF dispatch core: one instance owns a closed set of
// machines, each with its own handler, a pool-backed pending-event
// list, and a pool-backed pending-timer list.
type Scheduler struct {
	opts   *schedulerOptions
	life   *fastState
	logger Logger

	mu locker

	states map[MachineID]*machineState

	// activeID and inEntryExit are touched only from the single
	// dispatcher context (the goroutine calling Task, or a Post caller
	// dispatching inline in single-threaded mode) — producer goroutines
	// in threaded mode never read or write them directly, only through
	// the ingress staging queue, so they need no atomic protection.
	activeID    MachineID
	inEntryExit bool

	events list
	timers list

	eventPool *Pool
	timerPool *Pool

	stats allocStats

	tick TickSource

	ingress *ingress
	wake    chan struct{}
}

// timerTokenSize is the nominal block size of the timer pool: timer
// shells carry no inline payload of their own (the deadline and ids are
// ordinary Go fields), so the pool here only enforces the capacity
// bound spec §4.1 requires of every pool-backed allocation.
const timerTokenSize = 1

// NewScheduler constructs a Scheduler per spec §4.4's init(max_events,
// max_timers): two pools and two lists sized accordingly, a zeroed
// states table, and — when WithThreaded is set — the mutex and wake
// primitives of §4.5.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	cfg := resolveSchedulerOptions(opts)
	require(cfg.maxEvents > 0, "scheduler: max_events must be > 0")
	require(cfg.maxTimers > 0, "scheduler: max_timers must be > 0")

	s := &Scheduler{
		opts:      cfg,
		life:      newFastState(),
		logger:    cfg.logger,
		states:    make(map[MachineID]*machineState),
		activeID:  NoMachine,
		eventPool: NewPool(cfg.maxEvents, uint32(inlinePayloadSize), cfg.poolDebug),
		timerPool: NewPool(cfg.maxTimers, timerTokenSize, cfg.poolDebug),
		tick:      cfg.tickSource,
	}
	initList(&s.events, cfg.maxEvents)
	initList(&s.timers, cfg.maxTimers)

	if cfg.threaded {
		s.mu = &sync.Mutex{}
		s.ingress = newIngress(cfg.maxEvents)
		s.wake = make(chan struct{}, 1)
	} else {
		s.mu = noopLocker{}
	}

	s.logf(LevelInfo, "dispatch", "init max_events=%d max_timers=%d threaded=%v", cfg.maxEvents, cfg.maxTimers, cfg.threaded)
	return s
}

// logf and logEvent route through the scheduler's own Logger (set via
// WithLogger, defaulting to the package-level logger), independent of
// whatever Pool and list log through via the package-level functions.
func (s *Scheduler) logf(level LogLevel, category, format string, args ...any) {
	if !s.logger.IsEnabled(level) {
		return
	}
	s.logger.Log(LogEntry{Level: level, Category: category, Message: fmt.Sprintf(format, args...)})
}

func (s *Scheduler) logEvent(level LogLevel, category string, machineID, eventID, timerID uint32, msg string) {
	if !s.logger.IsEnabled(level) {
		return
	}
	s.logger.Log(LogEntry{Level: level, Category: category, MachineID: machineID, EventID: eventID, TimerID: timerID, Message: msg})
}

// InitHandler brings a machine up, per spec §4.4: records initial as the
// machine's current handler, then synchronously delivers ENTRY in the
// caller's own stack. Must be called before the first Task() call — SSF
// has no dynamic registration of machine identifiers at runtime.
func (s *Scheduler) InitHandler(machineID MachineID, initial Handler) {
	require(initial != nil, "init_handler: nil handler")
	require(s.life.Load() == stateCreated, "init_handler: scheduler already running")

	s.mu.Lock()
	_, exists := s.states[machineID]
	require(!exists, "init_handler: machine already initialized")
	st := &machineState{current: initial}
	s.states[machineID] = st
	s.mu.Unlock()

	s.activeID = machineID
	s.inEntryExit = true
	s.logEvent(LevelDebug, "dispatch", uint32(machineID), uint32(EventEntry), 0, "init_handler: entry")
	st.current(EventEntry, nil, 0)
	s.inEntryExit = false
	s.activeID = NoMachine
}

// Post delivers a zero-payload event, per spec §4.4 / SPEC_FULL.md §E.2.
func (s *Scheduler) Post(machineID MachineID, eventID EventID) {
	s.PostData(machineID, eventID, nil)
}

// PostData delivers eventID, with an optional payload, to machineID.
// Preconditions: eventID must not be a reserved (ENTRY/EXIT) value.
// Dispatch mode depends on WithThreaded (spec §4.4):
//
//   - single-threaded: dispatched inline on the caller's stack if no
//     handler is currently running and the event queue is empty,
//     otherwise enqueued;
//   - threaded: always staged for the dispatcher, which drains it
//     inside Task().
func (s *Scheduler) PostData(machineID MachineID, eventID EventID, data []byte) {
	require(!isReservedEvent(eventID), "post: reserved event id")
	require(s.life.Load() != stateTerminated, "post: scheduler already terminated")

	if s.opts.threaded {
		if s.ingress.tryPush(postRequest{machineID: machineID, eventID: eventID, data: data}) {
			s.postWake()
			return
		}
		// lfq staging queue transiently full: fall back to the
		// mutex-protected slow path spec §4.5 describes as the
		// contract of record.
		s.mu.Lock()
		ev := newEvent(s.eventPool, &s.stats, machineID, eventID, data)
		s.events.FIFOPush(&ev.node)
		s.mu.Unlock()
		s.postWake()
		return
	}

	s.mu.Lock()
	if s.activeID == NoMachine && s.events.IsEmpty() {
		s.mu.Unlock()
		s.dispatchOne(machineID, eventID, data)
		return
	}
	ev := newEvent(s.eventPool, &s.stats, machineID, eventID, data)
	s.events.FIFOPush(&ev.node)
	s.mu.Unlock()
}

// Transition records a pending handler change for the active machine.
// Only callable from within a handler processing a non-ENTRY/EXIT
// event, at most once per dispatch, and next must differ from the
// machine's current handler (spec §4.4).
func (s *Scheduler) Transition(next Handler) {
	require(next != nil, "transition: nil handler")
	require(s.activeID != NoMachine, "transition: no active machine")
	require(!s.inEntryExit, "transition: forbidden during ENTRY/EXIT")

	st := s.states[s.activeID]
	require(!st.hasPending, "transition: already requested during this dispatch")
	require(!sameHandler(next, st.current), "transition: next handler must differ from current")

	st.pending = next
	st.hasPending = true
	s.logEvent(LevelDebug, "transition", uint32(s.activeID), 0, 0, "transition requested")
}

// StartTimer arms a zero-payload timer. See StartTimerData.
func (s *Scheduler) StartTimer(eventID EventID, interval TickCount) {
	s.StartTimerData(eventID, interval, nil)
}

// StartTimerData arms a timer for the active machine that will deliver
// eventID (with the given payload) after interval ticks. If a timer for
// the same eventID already exists for this machine, it is stopped and
// replaced (spec §4.4's override rule). Restricted to handler context,
// outside ENTRY/EXIT.
func (s *Scheduler) StartTimerData(eventID EventID, interval TickCount, data []byte) {
	require(!isReservedEvent(eventID), "start_timer: reserved event id")
	require(s.activeID != NoMachine, "start_timer: not in handler context")
	require(!s.inEntryExit, "start_timer: forbidden during ENTRY/EXIT")

	machineID := s.activeID
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimerLocked(machineID, eventID)

	deadline := TickCount(s.tick.Now()) + interval
	ev := newEvent(s.eventPool, &s.stats, machineID, eventID, data)
	t := newTimer(s.timerPool, machineID, eventID, deadline, ev)
	s.timers.FIFOPush(&t.node)
	s.logEvent(LevelDebug, "timer", uint32(machineID), uint32(eventID), 0, "timer armed")
}

// StopTimer cancels the active machine's timer for eventID, if any.
// Idempotent: stopping an unknown timer is a benign no-op (spec §5),
// reported via the returned bool rather than an abort.
func (s *Scheduler) StopTimer(eventID EventID) bool {
	require(s.activeID != NoMachine, "stop_timer: not in handler context")
	require(!s.inEntryExit, "stop_timer: forbidden during ENTRY/EXIT")

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelTimerLocked(s.activeID, eventID)
}

// cancelTimerLocked removes and frees the timer matching (machineID,
// eventID), if present. Caller must hold s.mu.
func (s *Scheduler) cancelTimerLocked(machineID MachineID, eventID EventID) bool {
	for n := s.timers.Head(); n != nil; n = n.Next() {
		t := n.self.(*timer)
		if t.machineID == machineID && t.eventID == eventID {
			s.timers.Remove(n)
			t.ev.release(s.eventPool, &s.stats)
			t.release(s.timerPool)
			return true
		}
	}
	return false
}

// purgeTimersLocked destroys every timer owned by machineID, as part of
// that machine's transition (spec §4.4 step 3). Caller must hold s.mu.
func (s *Scheduler) purgeTimersLocked(machineID MachineID) {
	n := s.timers.Head()
	for n != nil {
		next := n.Next()
		t := n.self.(*timer)
		if t.machineID == machineID {
			s.timers.Remove(n)
			t.ev.release(s.eventPool, &s.stats)
			t.release(s.timerPool)
		}
		n = next
	}
}

// Task drains expired timers and pending events exactly once (spec
// §4.4's task loop). If out is non-nil, *out receives the tick count
// until the next unfired deadline, or NoTimeout if no timer remains.
// Returns true iff any timer remains armed after this pass.
func (s *Scheduler) Task(out *TickCount) bool {
	require(s.life.Load() != stateTerminated, "task: scheduler already terminated")
	s.life.TryTransition(stateCreated, stateRunning)

	s.mu.Lock()

	if s.opts.threaded {
		s.ingress.drainInto(func(req postRequest) {
			ev := newEvent(s.eventPool, &s.stats, req.machineID, req.eventID, req.data)
			s.events.FIFOPush(&ev.node)
		})
	}

	now := TickCount(s.tick.Now())

	n := s.timers.Head()
	for n != nil {
		next := n.Next()
		t := n.self.(*timer)
		if t.deadline <= now {
			s.timers.Remove(n)
			s.events.FIFOPush(&t.ev.node)
			t.release(s.timerPool)
			s.logEvent(LevelDebug, "timer", uint32(t.machineID), uint32(t.eventID), 0, "timer fired")
		}
		n = next
	}

	for {
		node, ok := s.events.FIFOPop()
		if !ok {
			break
		}
		ev := node.self.(*event)
		machineID, eventID, data := ev.machineID, ev.eventID, ev.payload()
		payload := append([]byte(nil), data...)
		s.mu.Unlock()
		s.dispatchOne(machineID, eventID, payload)
		s.mu.Lock()
		ev.release(s.eventPool, &s.stats)
	}

	if out != nil {
		*out = s.nextTimeoutLocked(now)
	}
	remaining := !s.timers.IsEmpty()
	s.mu.Unlock()
	return remaining
}

// nextTimeoutLocked computes the minimum (deadline-now) across
// outstanding timers, or NoTimeout if none remain (spec §9's "time
// until the next unfired deadline" semantics). Caller must hold s.mu.
func (s *Scheduler) nextTimeoutLocked(now TickCount) TickCount {
	best := NoTimeout
	for n := s.timers.Head(); n != nil; n = n.Next() {
		t := n.self.(*timer)
		var remaining TickCount
		if t.deadline > now {
			remaining = t.deadline - now
		}
		if best == NoTimeout || remaining < best {
			best = remaining
		}
	}
	return best
}

// dispatchOne runs the spec §4.4 step-3 handler/transition sequence for
// a single (machineID, eventID, data) delivery. It must not be called
// while s.mu is held — handler bodies are free to call Post,
// StartTimer, StopTimer, and Transition; StartTimer and StopTimer take
// the lock themselves, as does Post on its threaded-mode fallback path.
func (s *Scheduler) dispatchOne(machineID MachineID, eventID EventID, data []byte) {
	st := s.states[machineID]
	require(st != nil, "dispatch: unknown machine")

	s.activeID = machineID
	s.logEvent(LevelDebug, "dispatch", uint32(machineID), uint32(eventID), 0, "dispatch")
	st.current(eventID, data, len(data))

	if st.hasPending {
		s.inEntryExit = true
		st.current(EventExit, nil, 0)

		s.mu.Lock()
		s.purgeTimersLocked(machineID)
		s.mu.Unlock()

		st.current = st.pending
		st.pending = nil
		st.hasPending = false
		st.current(EventEntry, nil, 0)
		s.inEntryExit = false
	}

	s.activeID = NoMachine
}

// Deinit walks both lists, releasing any queued events and timers
// (including their payloads), destroys the pools, and asserts
// mallocs == frees (spec §4.4's deinit / §4.3's balance invariant). In
// threaded mode, any cross-thread Post staged in the ingress queue but
// not yet migrated by a Task call is drained first, so it is released
// rather than silently lost at shutdown.
func (s *Scheduler) Deinit() {
	require(s.life.Load() != stateTerminated, "deinit: already terminated")
	s.life.Store(stateTerminating)

	s.mu.Lock()
	if s.opts.threaded {
		s.ingress.closeForDrain()
		s.ingress.drainInto(func(req postRequest) {
			ev := newEvent(s.eventPool, &s.stats, req.machineID, req.eventID, req.data)
			s.events.FIFOPush(&ev.node)
		})
	}
	for {
		node, ok := s.events.FIFOPop()
		if !ok {
			break
		}
		node.self.(*event).release(s.eventPool, &s.stats)
	}
	for {
		node, ok := s.timers.FIFOPop()
		if !ok {
			break
		}
		t := node.self.(*timer)
		t.ev.release(s.eventPool, &s.stats)
		t.release(s.timerPool)
	}
	s.mu.Unlock()

	require(s.stats.Balanced(), "deinit: mallocs/frees imbalance")
	s.eventPool.Deinit()
	s.timerPool.Deinit()
	s.life.Store(stateTerminated)
	s.logf(LevelInfo, "dispatch", "deinit complete")
}

// postWake signals the wake primitive (spec §4.5), a non-blocking send
// so a burst of posts never piles up waiting for the dispatcher.
func (s *Scheduler) postWake() {
	if s.wake == nil {
		return
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// WaitWake blocks until postWake is signalled or timeout ticks elapse,
// per spec §4.5's wait_wake(timeout): a threaded-mode dispatcher
// alternates WaitWake(next_timeout) and Task(&next_timeout). A timeout
// of NoTimeout waits indefinitely. Expiry is advisory and silent — the
// caller simply re-enters Task to re-derive the next deadline (spec §5).
func (s *Scheduler) WaitWake(timeout TickCount) {
	require(s.opts.threaded, "wait_wake: requires WithThreaded")
	if timeout == NoTimeout {
		<-s.wake
		return
	}
	d := time.Duration(timeout) * time.Second / time.Duration(s.opts.ticksPerSec)
	select {
	case <-s.wake:
	case <-time.After(d):
	}
}

// sameHandler reports whether a and b share the same underlying
// function, a best-effort identity check (Handler values are otherwise
// incomparable) used to enforce spec §4.4's "next must differ from
// current" transition precondition.
func sameHandler(a, b Handler) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
