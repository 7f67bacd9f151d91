package ssf

import (
	"code.hybscloud.com/lfq"
)

// ingress.go implements the threaded-mode cross-thread staging path named
// in spec §4.5: a producer goroutine calling Post need not block on the
// scheduler's dispatch mutex for the whole of event-record construction,
// only for the brief drain the dispatcher performs once per Task() pass.
// Grounded on code.hybscloud.com/lfq's MPSC queue (see
// _examples/hayabusa-cloud-lfq/mpsc.go): multiple producers, one
// consumer (the scheduler's own goroutine), matching this queue's access
// pattern exactly.

// postRequest is the value copied through the staging queue. data is a
// slice header; the payload bytes it points at are never mutated after
// Enqueue, so sharing it across the goroutine boundary is safe.
type postRequest struct {
	machineID MachineID
	eventID   EventID
	data      []byte
}

// ingress stages cross-thread Post calls ahead of the dispatcher's lock.
type ingress struct {
	q *lfq.MPSC[postRequest]
}

func newIngress(capacity uint32) *ingress {
	n := int(capacity)
	if n < 2 {
		n = 2
	}
	return &ingress{q: lfq.NewMPSC[postRequest](n)}
}

// tryPush makes one non-blocking attempt to stage req, reporting false
// when the queue is transiently full. Per spec §4.5 the mutex-protected
// event list is still the contract of record; a false return means the
// caller should fall back to the locked slow path rather than spin.
func (g *ingress) tryPush(req postRequest) bool {
	return g.q.Enqueue(&req) == nil
}

// drainInto moves every currently staged request into fn, called with
// the dispatch mutex held. Returns the number of requests drained.
func (g *ingress) drainInto(fn func(postRequest)) int {
	n := 0
	for {
		req, err := g.q.Dequeue()
		if err != nil {
			return n
		}
		fn(req)
		n++
	}
}

// closeForDrain signals the staging queue that no further producers will
// enqueue, allowing a final drainInto at Deinit to empty it completely
// without tripping lfq's livelock-prevention threshold (see
// _examples/hayabusa-cloud-lfq/doc.go's Graceful Shutdown section).
func (g *ingress) closeForDrain() {
	if d, ok := any(g.q).(lfq.Drainer); ok {
		d.Drain()
	}
}
