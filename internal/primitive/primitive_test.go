package primitive

import "testing"

func TestNext2(t *testing.T) {
	cases := map[uintptr]uintptr{
		0: 1,
		1: 1,
		2: 2,
		3: 4,
		4: 4,
		5: 8,
		17: 32,
		1023: 1024,
		1024: 1024,
	}
	for in, want := range cases {
		if got := Next2(in); got != want {
			t.Errorf("Next2(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestCompareAndSwapUint32(t *testing.T) {
	var v uint32 = 1
	if fresh, swapped := CompareAndSwap(&v, uint32(1), uint32(2)); !swapped || fresh != 2 {
		t.Fatalf("expected swap to 2, got fresh=%d swapped=%v", fresh, swapped)
	}
	if fresh, swapped := CompareAndSwap(&v, uint32(1), uint32(3)); swapped || fresh != 2 {
		t.Fatalf("expected failed swap with fresh=2, got fresh=%d swapped=%v", fresh, swapped)
	}
}

func TestCompareAndSwapUintptr(t *testing.T) {
	var v uintptr
	if fresh, swapped := CompareAndSwap(&v, uintptr(0), uintptr(42)); !swapped || fresh != 42 {
		t.Fatalf("expected swap to 42, got fresh=%d swapped=%v", fresh, swapped)
	}
}
