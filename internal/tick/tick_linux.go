//go:build linux

package tick

import "golang.org/x/sys/unix"

// linuxMonotonic reads CLOCK_MONOTONIC directly via golang.org/x/sys/unix,
// avoiding the allocation time.Now() incurs for its wall-clock reading.
// Uses the same unix package as eventloop's platform-gated
// wakeup_linux.go, which reads it for eventfd.
type linuxMonotonic struct {
	ticksPerSec uint32
}

func newPlatformSource(ticksPerSec uint32) Source {
	return &linuxMonotonic{ticksPerSec: ticksPerSec}
}

func (l *linuxMonotonic) Now() uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		// The port contract offers no error path for now_ticks(); a
		// failing clock_gettime on a live Linux kernel is not a
		// recoverable condition the scheduler can act on.
		panic("tick: clock_gettime(CLOCK_MONOTONIC) failed: " + err.Error())
	}
	tps := uint64(l.ticksPerSec)
	return uint64(ts.Sec)*tps + uint64(ts.Nsec)*tps/1e9
}
