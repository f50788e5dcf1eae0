package spmcdvq

import (
	"sync"
	"sync/atomic"
	"testing"
	"unsafe"
)

func TestEnqueueDequeueFIFOSingleThread(t *testing.T) {
	q := New(4)
	vals := []int{1, 2, 3, 4}
	for i := range vals {
		if !q.TryEnqueue(unsafe.Pointer(&vals[i])) {
			t.Fatalf("enqueue %d failed unexpectedly", i)
		}
	}
	if q.TryEnqueue(unsafe.Pointer(&vals[0])) {
		t.Fatal("expected enqueue to fail on a full queue")
	}
	seen := map[int]bool{}
	for i := range vals {
		ptr, ok := q.TryDequeue()
		if !ok {
			t.Fatalf("dequeue %d failed unexpectedly", i)
		}
		if got := *(*int)(ptr); got != vals[i] {
			t.Fatalf("expected FIFO order %d, got %d", vals[i], got)
		}
		seen[*(*int)(ptr)] = true
	}
	for _, v := range vals {
		if !seen[v] {
			t.Fatalf("value %d never dequeued", v)
		}
	}
}

func TestOneProducerManyConsumersNoLoss(t *testing.T) {
	const consumers = 8
	const n = 16000
	q := New(64)

	items := make([]int, n)
	for i := range items {
		items[i] = 1
	}

	go func() {
		for i := range items {
			for !q.TryEnqueue(unsafe.Pointer(&items[i])) {
			}
		}
	}()

	var sum int64
	var count int64
	var wg sync.WaitGroup
	wg.Add(consumers)
	for c := 0; c < consumers; c++ {
		go func() {
			defer wg.Done()
			for atomic.LoadInt64(&count) < n {
				ptr, ok := q.TryDequeue()
				if !ok {
					continue
				}
				atomic.AddInt64(&sum, int64(*(*int)(ptr)))
				atomic.AddInt64(&count, 1)
			}
		}()
	}
	wg.Wait()

	if sum != n {
		t.Fatalf("expected sum %d, got %d", n, sum)
	}
}
