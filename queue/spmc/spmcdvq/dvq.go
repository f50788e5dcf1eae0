package spmcdvq

import (
	"sync/atomic"
	"unsafe"

	"github.com/SchrodingerZhu/lamlock-go/internal/primitive"
)

// See mpmc's mpmcdvq for full comments. This code is that mpmc, whittled down
// assuming there is one enqueuer concurrent with many dequeuers.

// TryEnqueue adds a value to our queue. TryEnqueue takes an unsafe.Pointer to
// avoid the necessity of wrapping a heap allocated value in an interface,
// which also goes on the heap. If the queue is full, this will return failure.
// There is only ever one enqueuer, so enqPos needs no CAS.
func (q *Queue) TryEnqueue(ptr unsafe.Pointer) (enqueued bool) {
	c := &q.cells[q.enqPos&q.mask]
	seq := atomic.LoadUintptr(&c.seq)
	if seq < q.enqPos {
		return
	}
	q.enqPos++
	c.ptr = ptr
	atomic.StoreUintptr(&c.seq, q.enqPos)
	return true
}

// TryDequeue dequeues a value from our queue. If the queue is empty, this
// will return failure.
func (q *Queue) TryDequeue() (ptr unsafe.Pointer, dequeued bool) {
	var c *cell
	pos := atomic.LoadUintptr(&q.deqPos)
	for {
		c = &q.cells[pos&q.mask]
		seq := atomic.LoadUintptr(&c.seq)
		cmp := int(seq - (pos + 1))
		if cmp == 0 {
			var swapped bool
			if pos, swapped = primitive.CompareAndSwap(&q.deqPos, pos, pos+1); swapped {
				dequeued = true
				break
			}
			continue
		}
		if cmp < 0 {
			return
		}
		pos = atomic.LoadUintptr(&q.deqPos)
	}
	ptr = c.ptr
	c.ptr = primitive.Null
	// pos was rebound to the post-CAS (already incremented) position above.
	atomic.StoreUintptr(&c.seq, pos+q.mask)
	return
}
