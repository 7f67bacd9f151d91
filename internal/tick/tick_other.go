//go:build !linux

package tick

func newPlatformSource(ticksPerSec uint32) Source {
	return newWallClock(ticksPerSec)
}
