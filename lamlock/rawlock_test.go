package lamlock

import "testing"

func TestRawLockTryAcquireRelease(t *testing.T) {
	var raw rawLock

	ok, err := raw.tryAcquire()
	if err != nil || !ok {
		t.Fatalf("expected first tryAcquire to succeed, got ok=%v err=%v", ok, err)
	}

	ok, err = raw.tryAcquire()
	if err != nil || ok {
		t.Fatalf("expected second tryAcquire to observe Locked, got ok=%v err=%v", ok, err)
	}

	raw.release()

	ok, err = raw.tryAcquire()
	if err != nil || !ok {
		t.Fatalf("expected tryAcquire after release to succeed, got ok=%v err=%v", ok, err)
	}
}

func TestRawLockPoisonRejectsAcquire(t *testing.T) {
	var raw rawLock
	raw.poison()

	if _, err := raw.tryAcquire(); err != ErrPoisoned {
		t.Fatalf("expected ErrPoisoned, got %v", err)
	}
	if err := raw.acquire(); err != ErrPoisoned {
		t.Fatalf("expected ErrPoisoned, got %v", err)
	}
	if !raw.isPoisoned() {
		t.Fatal("expected raw lock to read as poisoned")
	}
}

func TestRawLockAcquirePoisoned(t *testing.T) {
	var raw rawLock

	if err := raw.acquirePoisoned(); err != ErrNotPoisoned {
		t.Fatalf("expected ErrNotPoisoned on an unlocked raw lock, got %v", err)
	}

	raw.poison()
	if err := raw.acquirePoisoned(); err != nil {
		t.Fatalf("expected acquirePoisoned to succeed, got %v", err)
	}
	if raw.isPoisoned() {
		t.Fatal("expected status to have moved to Locked, not Poisoned")
	}
	raw.release()
}

func TestRawLockTailBookkeeping(t *testing.T) {
	var raw rawLock
	if raw.hasTail() {
		t.Fatal("expected no tail on a fresh raw lock")
	}

	n := newNode(func(*node) {})
	if prev := raw.swapTail(n); prev != nil {
		t.Fatalf("expected no previous tail, got %v", prev)
	}
	if !raw.hasTail() {
		t.Fatal("expected hasTail to be true after swapTail")
	}
	if !raw.tryClose(n) {
		t.Fatal("expected tryClose to succeed against the node we just published")
	}
	if raw.hasTail() {
		t.Fatal("expected no tail after tryClose")
	}
}
