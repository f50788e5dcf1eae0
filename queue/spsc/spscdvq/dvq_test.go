package spscdvq

import (
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
	if _, ok := q.TryDequeue(); ok {
		t.Fatal("expected dequeue to fail on an empty queue")
	}
}

func TestSingleProducerSingleConsumerNoLoss(t *testing.T) {
	const n = 50000
	q := New(64)
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}

	done := make(chan struct{})
	go func() {
		for i := range items {
			for !q.TryEnqueue(unsafe.Pointer(&items[i])) {
			}
		}
		close(done)
	}()

	sum := 0
	for i := 0; i < n; i++ {
		var ptr unsafe.Pointer
		var ok bool
		for {
			ptr, ok = q.TryDequeue()
			if ok {
				break
			}
		}
		sum += *(*int)(ptr)
	}
	<-done

	want := (n - 1) * n / 2
	if sum != want {
		t.Fatalf("expected sum %d, got %d", want, sum)
	}
}
