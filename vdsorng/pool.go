// Package vdsorng implements a lock-free, growable allocator of fixed-size
// opaque state blocks for a kernel-supplied fast-path randomness function.
// Blocks are carved out of memory-mapped pages (via mmapBlock/munmapBlock)
// sized and protected per a one-shot Config probe, rented to callers through
// LocalState, and recycled onto a free-list on release. Growth - the only
// operation that mutates the block list - is serialized by a lamlock.Lock so
// it composes with the otherwise lock-free rent/recycle path.
package vdsorng

import (
	"unsafe"

	"github.com/SchrodingerZhu/lamlock-go/lamlock"
	"github.com/SchrodingerZhu/lamlock-go/queue/mpmc/mpmcdvq"
	"github.com/rs/zerolog/log"
)

// defaultFreelistCapacity bounds how many free states the pool's MPMC
// free-list can hold. spec.md models the free-list as an unbounded
// lock-free queue; mpmcdvq (this module's only MPMC primitive) is
// fixed-capacity, so the pool pre-sizes it generously at construction
// instead. If a grow produces more states than the free-list can still
// hold, grow logs the condition and leaves the remaining states of that
// block unreachable; it does not return an error.
const defaultFreelistCapacity = 1 << 16

// Option configures a Pool at construction time.
type Option func(*poolOptions)

type poolOptions struct {
	freelistCapacity uint
}

// WithFreelistCapacity overrides the pool's free-list capacity (rounded up
// to the next power of 2 by the underlying queue).
func WithFreelistCapacity(capacity uint) Option {
	return func(o *poolOptions) {
		o.freelistCapacity = capacity
	}
}

// Pool is a growable allocator of opaque state blocks.
type Pool struct {
	cfg    *Config
	blocks *lamlock.Lock[[]unsafe.Pointer]
	free   *mpmcdvq.Queue
}

// New constructs a Pool. It probes resolver once to build a Config, then
// starts with zero blocks and an empty free-list; the first Get call grows
// the pool.
func New(resolver Resolver, opts ...Option) (*Pool, error) {
	options := poolOptions{freelistCapacity: defaultFreelistCapacity}
	for _, opt := range opts {
		opt(&options)
	}

	function, pageSize, err := resolver.Resolve()
	if err != nil {
		return nil, err
	}
	cfg, err := newConfig(function, pageSize)
	if err != nil {
		return nil, err
	}

	return &Pool{
		cfg:    cfg,
		blocks: lamlock.New[[]unsafe.Pointer](nil),
		free:   mpmcdvq.New(options.freelistCapacity),
	}, nil
}

// statesPerBlock is the number of opaque states carved out of one mmap'd
// block.
func (p *Pool) statesPerBlock() uintptr {
	return p.cfg.PagesPerBlock * p.cfg.StatesPerPage
}

func (p *Pool) blockBytes() uintptr {
	return p.cfg.PageSize * p.cfg.PagesPerBlock
}

// Get rents one opaque state pointer from the pool, growing it by one block
// if the free-list is empty.
func (p *Pool) Get() (unsafe.Pointer, error) {
	for {
		if ptr, ok := p.free.TryDequeue(); ok {
			return ptr, nil
		}

		type outcome struct {
			ptr unsafe.Pointer
			ok  bool
			err error
		}
		result, runErr := lamlock.Run(p.blocks, func(blocks *[]unsafe.Pointer) outcome {
			// Re-check: another goroutine may have grown the pool while we
			// were racing to acquire this lock.
			if ptr, ok := p.free.TryDequeue(); ok {
				return outcome{ptr: ptr, ok: ok}
			}
			if err := p.grow(blocks); err != nil {
				return outcome{err: err}
			}
			ptr, ok := p.free.TryDequeue()
			return outcome{ptr: ptr, ok: ok}
		})
		if runErr != nil {
			return nil, ErrPoolPoisoned
		}
		if result.err != nil {
			return nil, result.err
		}
		if result.ok {
			return result.ptr, nil
		}
		// Grew successfully but lost every fresh state to concurrent
		// dequeuers before we could claim one; try the whole thing again.
	}
}

// grow mmaps one new block, records its base pointer, and pushes every state
// slot within it onto the free-list. Must run under p.blocks' lock.
func (p *Pool) grow(blocks *[]unsafe.Pointer) error {
	size := p.blockBytes()
	base, err := mmapBlock(size, p.cfg.Params.MmapProt, p.cfg.Params.MmapFlags)
	if err != nil {
		return ErrAllocationFailure
	}

	*blocks = append(*blocks, base)

	n := p.statesPerBlock()
	stateSize := uintptr(p.cfg.Params.SizeOfOpaqueStates)
	for i := uintptr(0); i < n; i++ {
		state := unsafe.Add(base, i*stateSize)
		if !p.free.TryEnqueue(state) {
			log.Debug().
				Str("component", "vdsorng").
				Msg("free-list at capacity during grow; remaining states in this block are unreachable until the pool is resized")
			break
		}
	}

	log.Debug().
		Str("component", "vdsorng").
		Int("states", int(n)).
		Msg("pool grew by one block")
	return nil
}

// Recycle returns a previously rented state pointer to the free-list. The
// caller (LocalState) guarantees ptr was obtained from this pool and is not
// concurrently held elsewhere; Recycle performs no validation.
func (p *Pool) Recycle(ptr unsafe.Pointer) {
	if !p.free.TryEnqueue(ptr) {
		// The free-list is at capacity - this can only happen if the pool
		// was resized smaller than its own outstanding state count, which
		// Pool never does itself. Dropping the pointer here leaks the slot
		// for this process's lifetime rather than corrupting the queue.
		log.Debug().
			Str("component", "vdsorng").
			Msg("free-list full on recycle; dropping state")
	}
}

// Close poisons the pool against further growth, then unmaps every block it
// ever allocated. It is best-effort and does not fail; callers must ensure
// no LocalState handles are still outstanding.
func (p *Pool) Close() {
	if err := p.blocks.Poison(); err != nil {
		// Already poisoned (e.g. a previous Close, or a panicked grower) -
		// someone else's inspection path will have handled teardown.
		return
	}

	drained := 0
	for {
		if _, ok := p.free.TryDequeue(); ok {
			drained++
			continue
		}
		break
	}

	blockCount := 0
	_, _ = lamlock.InspectPoison(p.blocks, func(blocks *[]unsafe.Pointer) (lamlock.PoisonDecision, struct{}) {
		for _, base := range *blocks {
			if err := munmapBlock(base, p.blockBytes()); err != nil {
				log.Debug().
					Str("component", "vdsorng").
					Err(err).
					Msg("munmap failed during pool teardown")
			}
		}
		blockCount = len(*blocks)
		*blocks = nil
		return lamlock.KeepPoisoned, struct{}{}
	})

	expected := blockCount * int(p.statesPerBlock())
	if drained != expected {
		log.Debug().
			Str("component", "vdsorng").
			Int("drained", drained).
			Int("expected", expected).
			Msg("pool closed with an outstanding-state mismatch; a LocalState handle may have leaked")
	}
}
