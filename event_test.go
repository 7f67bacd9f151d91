package ssf

import "testing"

func TestEventInlinePayloadRoundTrip(t *testing.T) {
	p := NewPool(4, uint32(inlinePayloadSize), false)
	var stats allocStats

	data := []byte{1, 2, 3}
	e := newEvent(p, &stats, 5, 9, data)
	if got := e.payload(); string(got) != string(data) {
		t.Fatalf("payload = %v, want %v", got, data)
	}
	if !stats.Balanced() {
		t.Fatal("inline payload should not touch mallocs/frees")
	}

	e.release(p, &stats)
	if !p.IsFull() {
		t.Fatal("pool should be full after releasing the only outstanding event")
	}
}

func TestEventOversizePayloadHeapFallback(t *testing.T) {
	p := NewPool(2, uint32(inlinePayloadSize), false)
	var stats allocStats

	data := make([]byte, inlinePayloadSize*4)
	for i := range data {
		data[i] = byte(i)
	}

	e := newEvent(p, &stats, 1, 2, data)
	if got := e.payload(); string(got) != string(data) {
		t.Fatal("heap-backed payload mismatch")
	}
	if stats.mallocs.Load() != 1 {
		t.Fatalf("mallocs = %d, want 1", stats.mallocs.Load())
	}

	e.release(p, &stats)
	if !stats.Balanced() {
		t.Fatal("mallocs/frees should balance after release")
	}
}

func TestEventZeroLengthPayload(t *testing.T) {
	p := NewPool(1, uint32(inlinePayloadSize), false)
	var stats allocStats

	e := newEvent(p, &stats, 1, 2, nil)
	if e.payload() != nil {
		t.Fatalf("payload of a zero-length event should be nil, got %v", e.payload())
	}
	e.release(p, &stats)
}
