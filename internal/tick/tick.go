// Package tick implements the monotonic-clock half of the port contract
// described in spec §6: now_ticks() → u64, a monotonic counter advancing
// at a configurable TICKS_PER_SEC. The scheduler never reads wall-clock
// time directly; it always goes through a Source so tests can inject a
// deterministic fake.
package tick

import "time"

// Source returns the current monotonic tick count at a rate of
// TicksPerSec ticks per second. Implementations must be monotonically
// non-decreasing. The scheduler calls Now from Task and from
// StartTimer/StartTimerData.
type Source interface {
	Now() uint64
}

// Fixed TicksPerSec values are not baked into Source; each platform
// implementation converts its native clock reading against the
// TicksPerSec passed to New.

// New returns the platform's best available monotonic Source, scaled to
// ticksPerSec ticks per second.
func New(ticksPerSec uint32) Source {
	return newPlatformSource(ticksPerSec)
}

// wallClock is the portable fallback used by platforms without a
// dedicated implementation, and by the generic build tag in
// tick_other.go. It uses time.Now(), which on every Go-supported
// platform already reads the OS monotonic clock internally (see the
// "Monotonic Clocks" section of the time package docs); the wall-clock
// component is discarded.
type wallClock struct {
	start       time.Time
	ticksPerSec uint32
}

func newWallClock(ticksPerSec uint32) Source {
	return &wallClock{start: time.Now(), ticksPerSec: ticksPerSec}
}

func (w *wallClock) Now() uint64 {
	elapsed := time.Since(w.start)
	return uint64(elapsed.Seconds() * float64(w.ticksPerSec))
}

// Fake is a manually-advanced Source for deterministic scheduler tests
// (see spec §8's concrete end-to-end scenarios, all of which are phrased
// in terms of an externally driven tick count).
type Fake struct {
	now uint64
}

// NewFake returns a Source starting at tick 0.
func NewFake() *Fake { return &Fake{} }

func (f *Fake) Now() uint64 { return f.now }

// Advance moves the fake clock forward by delta ticks and returns the
// new value.
func (f *Fake) Advance(delta uint64) uint64 {
	f.now += delta
	return f.now
}

// Set pins the fake clock to an absolute tick value. Must be
// non-decreasing, matching the monotonic contract.
func (f *Fake) Set(now uint64) {
	if now < f.now {
		panic("tick: Fake clock must be monotonically non-decreasing")
	}
	f.now = now
}
