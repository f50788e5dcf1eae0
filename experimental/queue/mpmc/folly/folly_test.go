package follyq

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
	for i := range vals {
		ptr, ok := q.TryDequeue()
		if !ok {
			t.Fatalf("dequeue %d failed unexpectedly", i)
		}
		if got := *(*int)(ptr); got != vals[i] {
			t.Fatalf("expected FIFO order %d, got %d", vals[i], got)
		}
	}
}

func TestBlockingEnqueueDequeueConcurrent(t *testing.T) {
	const n = 5000
	q := New(8)
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range items {
			q.Enqueue(unsafe.Pointer(&items[i]))
		}
	}()

	var sum int64
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			ptr := q.Dequeue()
			atomic.AddInt64(&sum, int64(*(*int)(ptr)))
		}
	}()
	wg.Wait()

	want := int64(n-1) * n / 2
	if sum != want {
		t.Fatalf("expected sum %d, got %d", want, sum)
	}
}
