package ssf

import "github.com/supurloop/ssf-sub000/internal/tick"

// TickSource is the scheduler's view of the port contract's now_ticks()
// (spec §6). It is intentionally identical in shape to internal/tick.Source
// so a host can pass either a tick.Source or any other implementation
// without an adapter.
type TickSource interface {
	Now() uint64
}

// NewFakeTickSource returns a manually-advanced TickSource for
// deterministic tests of timer firing, timer override, and next-timeout
// computation (spec §8's concrete scenarios).
func NewFakeTickSource() *tick.Fake { return tick.NewFake() }

func defaultTickSource(ticksPerSec uint32) TickSource {
	return tick.New(ticksPerSec)
}
