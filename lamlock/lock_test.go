package lamlock

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCounter(t *testing.T) {
	const cnt = 100
	l := New(0)
	var wg sync.WaitGroup
	wg.Add(cnt)
	for i := 0; i < cnt; i++ {
		go func() {
			defer wg.Done()
			_, err := Run(l, func(data *int) struct{} {
				*data++
				return struct{}{}
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := Run(l, func(data *int) int { return *data })
	require.NoError(t, err)
	require.Equal(t, cnt, got)
}

func TestCommutativeSum(t *testing.T) {
	const cnt = 100
	l := New(0)
	var wg sync.WaitGroup
	wg.Add(cnt)
	for i := 0; i < cnt; i++ {
		i := i
		go func() {
			defer wg.Done()
			_, err := Run(l, func(data *int) struct{} {
				*data += cnt - i
				return struct{}{}
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := Run(l, func(data *int) int { return *data })
	require.NoError(t, err)
	require.Equal(t, cnt*(cnt+1)/2, got)
}

func TestPanicChain(t *testing.T) {
	const cnt = 100
	l := New(0)
	var wg sync.WaitGroup
	wg.Add(cnt)

	var panicked int32
	var mu sync.Mutex

	for i := 0; i < cnt; i++ {
		i := i
		go func() {
			defer wg.Done()
			defer func() {
				if recover() != nil {
					mu.Lock()
					panicked++
					mu.Unlock()
				}
			}()
			_, err := Run(l, func(data *int) struct{} {
				*data += cnt - i
				if i == cnt/2 {
					panic("panic chain")
				}
				return struct{}{}
			})
			if err != nil && err != ErrPoisoned {
				require.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), panicked, "expected exactly one goroutine to observe its own panic")
	require.True(t, l.raw.isPoisoned(), "expected the lock to end up poisoned")
}

func TestInspectUnpoison(t *testing.T) {
	l := New("")

	require.NoError(t, l.Poison())
	_, err := InspectPoison(l, func(_ *string) (PoisonDecision, struct{}) {
		return ClearPoison, struct{}{}
	})
	require.NoError(t, err)

	require.NoError(t, l.Poison())

	var wg sync.WaitGroup
	const cnt = 100
	wg.Add(cnt)
	for i := 0; i < cnt; i++ {
		go func() {
			defer wg.Done()
			for {
				if _, err := Run(l, func(data *string) struct{} {
					*data += "A"
					return struct{}{}
				}); err == nil {
					return
				}
				// The lock was poisoned when we observed it. Race to clear
				// it ourselves; if another goroutine beat us to it, the
				// lock is already usable again, so just retry Run.
				if _, ierr := InspectPoison(l, func(data *string) (PoisonDecision, struct{}) {
					*data += "A"
					return ClearPoison, struct{}{}
				}); ierr == nil {
					return
				} else if ierr != ErrNotPoisoned {
					require.NoError(t, ierr)
					return
				}
			}
		}()
	}
	wg.Wait()

	length, err := Run(l, func(data *string) int { return len(*data) })
	require.NoError(t, err)
	require.Equal(t, cnt, length)

	allA, err := Run(l, func(data *string) bool {
		return strings.Count(*data, "A") == len(*data)
	})
	require.NoError(t, err)
	require.True(t, allA)
}

func TestUnpoisonFailsWhenNotPoisoned(t *testing.T) {
	l := New(0)
	err := Unpoison(l)
	require.ErrorIs(t, err, ErrNotPoisoned)
}
