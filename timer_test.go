package ssf

import "testing"

func TestTimerCreateRelease(t *testing.T) {
	eventPool := NewPool(2, uint32(inlinePayloadSize), false)
	timerPool := NewPool(2, timerTokenSize, false)
	var stats allocStats

	ev := newEvent(eventPool, &stats, 3, 4, nil)
	tm := newTimer(timerPool, 3, 4, 100, ev)

	if tm.machineID != 3 || tm.eventID != 4 || tm.deadline != 100 {
		t.Fatalf("unexpected timer fields: %+v", tm)
	}
	if timerPool.FreeCount() != 1 {
		t.Fatalf("timer pool FreeCount = %d, want 1", timerPool.FreeCount())
	}

	tm.release(timerPool)
	if timerPool.FreeCount() != 2 {
		t.Fatalf("timer pool FreeCount after release = %d, want 2", timerPool.FreeCount())
	}
	ev.release(eventPool, &stats)
}
