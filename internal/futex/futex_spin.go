//go:build !linux || lamlockspin

package futex

import (
	"sync"
	"unsafe"
)

// Portable fallback: a condvar-bucket emulation transliterated from folly's
// Futex, as kept in this module's internal/maskfutex package, but narrowed
// from its mask-based Wait/Wake to the single-word ParkWhileEqual/WakeTo
// shape spec.md §4.1 requires. Used on non-linux builds, and on linux when
// built with the "lamlockspin" build tag. Waiters park on a per-waiter
// sync.Cond; this file does not busy-spin.

type synthNode struct {
	next, prev *synthNode
	addr       uintptr
	signalled  bool
	mtx        sync.Mutex
	cond       *sync.Cond
}

type synthBucket struct {
	mtx   sync.Mutex
	nodes *synthNode
}

const numBuckets = 4096

var buckets [numBuckets]synthBucket

func init() {
	for i := range buckets {
		sentinel := new(synthNode)
		sentinel.next = sentinel
		sentinel.prev = sentinel
		buckets[i].nodes = sentinel
	}
}

func twhash(addr uint64) uint64 {
	addr = (^addr) + (addr << 21)
	addr = addr ^ (addr >> 24)
	addr = addr + (addr << 3) + (addr << 8)
	addr = addr ^ (addr >> 14)
	addr = addr + (addr << 2) + (addr << 4)
	addr = addr ^ (addr >> 28)
	addr = addr + (addr << 31)
	return addr
}

func bucketFor(addr uintptr) *synthBucket {
	return &buckets[twhash(uint64(addr))%numBuckets]
}

func parkWhileEqual(w *Word, expected uint32) {
	addr := uintptr(unsafe.Pointer(&w.v))
	bucket := bucketFor(addr)
	for w.Load() == expected {
		var node synthNode
		node.addr = addr
		node.cond = sync.NewCond(&node.mtx)

		bucket.mtx.Lock()
		if w.Load() != expected {
			bucket.mtx.Unlock()
			return
		}
		node.prev = bucket.nodes.prev
		bucket.nodes.prev.next = &node
		bucket.nodes.prev = &node
		node.next = bucket.nodes
		bucket.mtx.Unlock()

		node.mtx.Lock()
		for !node.signalled {
			node.cond.Wait()
		}
		node.mtx.Unlock()
	}
}

func wakeTo(w *Word, new, sleeping uint32) {
	old := w.v.Swap(new)
	if old != sleeping {
		return
	}
	addr := uintptr(unsafe.Pointer(&w.v))
	bucket := bucketFor(addr)

	bucket.mtx.Lock()
	sentinel := bucket.nodes
	for iter := sentinel.next; iter != sentinel; iter = iter.next {
		if iter.addr != addr {
			continue
		}
		iter.prev.next = iter.next
		iter.next.prev = iter.prev

		iter.mtx.Lock()
		iter.signalled = true
		iter.cond.Signal()
		iter.mtx.Unlock()
		break
	}
	bucket.mtx.Unlock()
}
