package vdsorng

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/SchrodingerZhu/lamlock-go/lamlock"
)

func newTestPool(t *testing.T) *Pool {
	t.Helper()
	p, err := New(mockResolver{stateSize: 64})
	if err != nil {
		t.Fatalf("unexpected error constructing pool: %v", err)
	}
	return p
}

func TestPoolGetGrowsAndRecycles(t *testing.T) {
	p := newTestPool(t)
	defer p.Close()

	a, err := p.Get()
	if err != nil {
		t.Fatalf("unexpected error from Get: %v", err)
	}
	if a == nil {
		t.Fatal("expected a non-nil state pointer")
	}

	// The free-list is FIFO: the rest of the first block is handed out
	// before the recycled pointer comes back round.
	p.Recycle(a)
	for i := uintptr(1); i < p.statesPerBlock(); i++ {
		if _, err := p.Get(); err != nil {
			t.Fatalf("unexpected error from Get: %v", err)
		}
	}
	b, err := p.Get()
	if err != nil {
		t.Fatalf("unexpected error from Get: %v", err)
	}
	if a != b {
		t.Fatalf("expected the recycled pointer to be handed back out, got different pointers")
	}
}

// TestRandomFill exercises a single thread filling a buffer through a
// freshly created pool; the mock backend's counter-based fill guarantees at
// least one non-zero byte.
func TestRandomFill(t *testing.T) {
	p := newTestPool(t)
	defer p.Close()

	state, err := NewLocalState(p)
	if err != nil {
		t.Fatalf("unexpected error renting state: %v", err)
	}
	defer state.Close()

	buf := make([]byte, 64)
	if err := state.Fill(buf, 0); err != nil {
		t.Fatalf("unexpected fill error: %v", err)
	}

	nonZero := false
	for _, b := range buf {
		if b != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatal("expected at least one non-zero byte in the filled buffer")
	}
}

// TestParallelRental mirrors the 16 threads x 16 iterations scenario: each
// iteration rents a state, fills a 64-byte buffer, and releases it. After
// every goroutine joins, every outstanding state must be back on the
// free-list.
func TestParallelRental(t *testing.T) {
	const goroutines = 16
	const iterations = 16

	p := newTestPool(t)
	defer p.Close()

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				state, err := NewLocalState(p)
				if err != nil {
					t.Errorf("unexpected error renting state: %v", err)
					return
				}
				buf := make([]byte, 64)
				if err := state.Fill(buf, 0); err != nil {
					t.Errorf("unexpected fill error: %v", err)
				}
				nonZero := false
				for _, b := range buf {
					if b != 0 {
						nonZero = true
						break
					}
				}
				if !nonZero {
					t.Error("expected a non-zero fill")
				}
				state.Close()
			}
		}()
	}
	wg.Wait()

	var drained []unsafe.Pointer
	for {
		ptr, ok := p.free.TryDequeue()
		if !ok {
			break
		}
		drained = append(drained, ptr)
	}
	for _, ptr := range drained {
		// restore what we just drained so Close()'s own drain/munmap pass
		// sees a consistent free-list.
		p.free.TryEnqueue(ptr)
	}
	if len(drained) == 0 {
		t.Fatal("expected at least one state on the free-list after all goroutines joined")
	}
	blockCount, err := lamlock.Run(p.blocks, func(blocks *[]unsafe.Pointer) int { return len(*blocks) })
	if err != nil {
		t.Fatalf("unexpected error reading the block list: %v", err)
	}
	if want := blockCount * int(p.statesPerBlock()); len(drained) != want {
		t.Fatalf("expected all %d states back on the free-list, got %d", want, len(drained))
	}
}
