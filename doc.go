// Package ssf implements the Small System Framework core: a cooperative,
// event-driven state-machine scheduler built on a fixed-block memory pool
// and an intrusive doubly-linked list, in the style of small embedded
// runtimes rather than a general-purpose actor framework.
//
// # Architecture
//
// A [Scheduler] drives a fixed set of state machines, each identified by
// a [MachineID] and, at any instant, running exactly one [Handler]. Work
// arrives as [EventID]/payload pairs through [Scheduler.Post] (or
// [Scheduler.PostData] for a pre-sized buffer) and through timers armed
// with [Scheduler.StartTimer]. A single call to [Scheduler.Task] drains
// pending work, dispatching each event synchronously to its machine's
// current handler; it reports whether any timer is still armed and can
// write the number of ticks until the next unfired deadline (or
// [NoTimeout]) so a host can sleep or poll appropriately.
//
// Both events and timers are allocated from fixed-capacity [Pool]s sized
// at construction (WithMaxEvents, WithMaxTimers): once the pool is
// exhausted, further allocation is a precondition violation, not a
// retryable error — this is a framework for systems with known, bounded
// event pressure, not an unbounded work queue.
//
// # State Transitions
//
// A machine's handler changes only through [Scheduler.Transition], which
// records the pending handler. Once the current handler returns, the
// dispatcher delivers EventExit to the outgoing handler, purges every
// timer the machine has armed, swaps the active handler, then delivers
// EventEntry to the incoming one — both delivered inline, never through
// the event pool, so a transition can never be starved by pool
// exhaustion.
//
// # Thread Safety
//
// By default a Scheduler assumes single-threaded, cooperative use: Post,
// StartTimer, and Task all run on the same goroutine with no
// synchronization overhead, and Post dispatches an event inline, on the
// caller's own stack, whenever no handler is currently running and the
// event queue is empty — otherwise it enqueues for the next Task call,
// which is always the case for a Post made from inside a handler.
// [WithThreaded] switches to a safe-for-concurrent-producers mode: Post
// stages its request through a lock-free MPSC queue (see ingress.go),
// falling back to the mutex-protected event list when that queue is
// full, and Task drains both the stage and the pool-backed event list
// under a single mutex. StartTimer and StopTimer take that mutex
// directly.
//
// # Error Model
//
// Per spec §7, SSF does not distinguish degrees of caller error the way
// a typical Go API does. A violated precondition — posting a reserved
// event, starting a timer outside a handler, exhausting a pool — logs
// (file, line) and terminates the process; see abort.go and
// [SetAbortHook] for how to intercept this in tests. A benign empty
// result (popping from an empty list, stopping a timer that already
// fired) simply returns a zero value or false, with no error return at
// all.
package ssf
