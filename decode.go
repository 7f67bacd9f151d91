package ssf

import "unsafe"

// decode.go implements the typed payload extraction named in
// SPEC_FULL.md §E.1, grounded on original_source/ssfsm.h's
// SSF_SM_EVENT_DATA_ALIGN macro: memcpy a fixed-size event payload into
// a typed local, asserting the destination is large enough.

// DecodeEventData copies data into a zero value of T and returns it. It
// is a precondition violation (see abort.go) if data is shorter than
// sizeof(T) — a handler calling this with a mismatched payload has a
// wiring bug between poster and handler, not a recoverable input error.
func DecodeEventData[T any](data []byte) T {
	var out T
	size := int(unsafe.Sizeof(out))
	require(len(data) >= size, "DecodeEventData: payload shorter than destination type")
	if size > 0 {
		copy(unsafe.Slice((*byte)(unsafe.Pointer(&out)), size), data)
	}
	return out
}
