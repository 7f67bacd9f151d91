package ssf

import "testing"

type decodeTestPayload struct {
	A uint32
	B uint32
}

func TestDecodeEventDataRoundTrip(t *testing.T) {
	want := decodeTestPayload{A: 7, B: 99}
	p := NewPool(1, uint32(inlinePayloadSize), false)
	var stats allocStats

	data := make([]byte, 8)
	data[0] = 7
	data[4] = 99
	e := newEvent(p, &stats, 1, firstUserEvent, data)
	defer e.release(p, &stats)

	got := DecodeEventData[decodeTestPayload](e.payload())
	if got != want {
		t.Fatalf("DecodeEventData = %+v, want %+v", got, want)
	}
}

func TestDecodeEventDataShortPayloadAborts(t *testing.T) {
	prev := SetAbortHook(TestAbortHook())
	defer SetAbortHook(prev)

	defer func() {
		if err := RecoverPrecondition(recover()); err == nil {
			t.Fatal("expected a precondition violation decoding a short payload")
		}
	}()
	DecodeEventData[decodeTestPayload]([]byte{1, 2, 3})
}
