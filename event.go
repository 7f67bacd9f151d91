package ssf

import (
	"sync/atomic"
	"unsafe"
)

// event.go implements the tagged payload record of spec §4.3. Every
// event is allocated from the scheduler's event pool (bounding memory
// under pressure, per spec §1) and, for payloads that fit in a single
// pointer width, stores its bytes inline in the pool block rather than
// touching the general heap.

// inlinePayloadSize is the "pointer_size" threshold of spec §4.3:
// payloads up to this many bytes pack into the event record itself.
const inlinePayloadSize = int(unsafe.Sizeof(uintptr(0)))

// allocStats tracks the out-of-pool payload copies spec §4.3 requires to
// balance: mallocs must equal frees whenever the scheduler is idle and
// again at Deinit. Counters are atomic so threaded-mode Post (which may
// run on a producer goroutine ahead of the dispatcher draining it) never
// races with the dispatcher's own bookkeeping.
type allocStats struct {
	_       [sizeOfCacheLine]byte
	mallocs atomic.Uint64
	_       [sizeOfCacheLine - sizeOfAtomicUint64]byte
	frees   atomic.Uint64
	_       [sizeOfCacheLine - sizeOfAtomicUint64]byte
}

func (a *allocStats) Balanced() bool {
	return a.mallocs.Load() == a.frees.Load()
}

// event is the list-linkable record queued through the scheduler's
// pending-event list (spec §4.3 / §4.4).
type event struct {
	node      listNode
	machineID MachineID
	eventID   EventID
	dataLen   int
	block     *Block // pool-backed inline storage (len == inlinePayloadSize)
	heap      []byte // non-nil only when dataLen > inlinePayloadSize
}

// newEvent acquires a block from pool for the event's inline storage and
// copies data into it, falling back to a general-heap copy (counted in
// stats.mallocs) when data is larger than inlinePayloadSize.
func newEvent(pool *Pool, stats *allocStats, machineID MachineID, eventID EventID, data []byte) *event {
	e := &event{machineID: machineID, eventID: eventID, dataLen: len(data)}
	e.node = newListNode(e)
	e.block = pool.Acquire(uint32(inlinePayloadSize), uint8(machineID))

	switch {
	case len(data) == 0:
		// data unused, per spec §4.3.
	case len(data) <= inlinePayloadSize:
		copy(e.block.Data, data)
	default:
		e.heap = make([]byte, len(data))
		copy(e.heap, data)
		stats.mallocs.Add(1)
	}
	return e
}

// payload returns the event's data bytes, from inline pool storage or
// the heap copy as appropriate.
func (e *event) payload() []byte {
	if e.dataLen == 0 {
		return nil
	}
	if e.heap != nil {
		return e.heap
	}
	return e.block.Data[:e.dataLen]
}

// release returns the event's pool block and, if a heap copy was made,
// counts the matching free (spec §4.3's mallocs/frees balance).
func (e *event) release(pool *Pool, stats *allocStats) {
	if e.heap != nil {
		stats.frees.Add(1)
		e.heap = nil
	}
	pool.Release(e.block)
	e.block = nil
}
