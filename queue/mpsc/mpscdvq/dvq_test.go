package mpscdvq

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

func TestManyProducersOneConsumerNoLoss(t *testing.T) {
	const producers = 8
	const perProducer = 2000
	const n = producers * perProducer
	q := New(64)

	items := make([]int, n)
	for i := range items {
		items[i] = 1
	}

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				idx := p*perProducer + i
				for !q.TryEnqueue(unsafe.Pointer(&items[idx])) {
				}
			}
		}(p)
	}

	var sum int64
	var count int64
	done := make(chan struct{})
	go func() {
		for atomic.LoadInt64(&count) < n {
			ptr, ok := q.TryDequeue()
			if !ok {
				continue
			}
			sum += int64(*(*int)(ptr))
			count++
		}
		close(done)
	}()

	wg.Wait()
	<-done

	if sum != n {
		t.Fatalf("expected sum %d, got %d", n, sum)
	}
}
