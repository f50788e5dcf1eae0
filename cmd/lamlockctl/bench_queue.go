package main

import (
	"fmt"
	"sort"
	"unsafe"

	"github.com/SchrodingerZhu/lamlock-go/bench/etime"
	"github.com/SchrodingerZhu/lamlock-go/bench/qbench"
	"github.com/SchrodingerZhu/lamlock-go/block"
	follyq "github.com/SchrodingerZhu/lamlock-go/experimental/queue/mpmc/folly"
	"github.com/SchrodingerZhu/lamlock-go/queue/mpmc/mpmcdvq"
	"github.com/SchrodingerZhu/lamlock-go/queue/mpsc/mpscdvq"
	"github.com/SchrodingerZhu/lamlock-go/queue/spmc/spmcdvq"
	"github.com/SchrodingerZhu/lamlock-go/queue/spsc/spscdvq"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// backendFlag is a pflag.Value so an unknown --backend is rejected by flag
// parsing itself, before RunE ever runs, with cobra's usual usage-error
// formatting.
type backendFlag struct{ value string }

func (b *backendFlag) String() string { return b.value }

func (b *backendFlag) Type() string { return "backend" }

func (b *backendFlag) Set(s string) error {
	switch s {
	case "mpmc", "folly", "mpsc", "spmc", "spsc":
		b.value = s
		return nil
	default:
		return fmt.Errorf("unknown backend %q (want mpmc, folly, mpsc, spmc, or spsc)", s)
	}
}

var _ pflag.Value = (*backendFlag)(nil)

// dvq is the common shape every *dvq backend satisfies, letting blockDVQ
// wrap any of them identically.
type dvq interface {
	TryEnqueue(unsafe.Pointer) bool
	TryDequeue() (unsafe.Pointer, bool)
}

// blockDVQ adds block.Block-based backoff around a raw dvq so producers and
// consumers park instead of busy-spinning once a queue is full or empty.
type blockDVQ struct {
	q    dvq
	enqB *block.Block
	deqB *block.Block
}

func newBlockDVQ(q dvq) blockDVQ {
	return blockDVQ{q: q, enqB: block.New(), deqB: block.New()}
}

func (q blockDVQ) Enqueue(enq unsafe.Pointer) {
	for {
		if q.q.TryEnqueue(enq) {
			q.deqB.Signal()
			return
		}
		var primer uintptr
		var primed bool
		enqueued := false
		for !primed && !enqueued {
			primer, primed = q.enqB.Prime(primer)
			enqueued = q.q.TryEnqueue(enq)
		}
		if enqueued {
			if primed {
				q.enqB.Cancel()
			}
			q.deqB.Signal()
			return
		}
		q.enqB.Wait(primer)
	}
}

func (q blockDVQ) Dequeue() unsafe.Pointer {
	for {
		if deq, ok := q.q.TryDequeue(); ok {
			q.enqB.Signal()
			return deq
		}
		var primer uintptr
		var primed bool
		dequeued := false
		var deq unsafe.Pointer
		for !primed && !dequeued {
			primer, primed = q.deqB.Prime(primer)
			deq, dequeued = q.q.TryDequeue()
		}
		if dequeued {
			if primed {
				q.deqB.Cancel()
			}
			q.enqB.Signal()
			return deq
		}
		q.deqB.Wait(primer)
	}
}

const benchQueueSize = 2048

func newBenchQueueCmd() *cobra.Command {
	backend := &backendFlag{value: "mpmc"}
	var enqueuers, dequeuers, messages int
	var clockRate int64

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Run the teacher's qbench harness against a chosen lock-free queue backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(reportHeader("queue:" + backend.value))

			var impl qbench.Interface
			switch backend.value {
			case "mpmc":
				impl = newBlockDVQ(mpmcdvq.New(benchQueueSize))
			case "folly":
				// follyq.Queue already blocks internally (it parks on a
				// per-cell turn broker rather than qbench's block.Block
				// backoff), so it plugs into qbench.Interface directly.
				impl = follyq.New(benchQueueSize)
			case "mpsc":
				if dequeuers != 1 {
					return fmt.Errorf("mpsc backend requires exactly one dequeuer, got %d", dequeuers)
				}
				impl = newBlockDVQ(mpscdvq.New(benchQueueSize))
			case "spmc":
				if enqueuers != 1 {
					return fmt.Errorf("spmc backend requires exactly one enqueuer, got %d", enqueuers)
				}
				impl = newBlockDVQ(spmcdvq.New(benchQueueSize))
			case "spsc":
				if enqueuers != 1 || dequeuers != 1 {
					return fmt.Errorf("spsc backend requires exactly one enqueuer and one dequeuer, got %d/%d", enqueuers, dequeuers)
				}
				impl = newBlockDVQ(spscdvq.New(benchQueueSize))
			}

			results := qbench.Bench(qbench.Cfg{
				Enqueuers: enqueuers,
				Dequeuers: dequeuers,
				Messages:  messages,
				Impl:      impl,
			})
			printQueueResults(backend.value, results, clockRate)
			return nil
		},
	}

	cmd.Flags().Var(backend, "backend", "queue backend: mpmc, folly, mpsc, spmc, or spsc")
	cmd.Flags().IntVar(&enqueuers, "enqueuers", 4, "concurrent enqueuing goroutines")
	cmd.Flags().IntVar(&dequeuers, "dequeuers", 4, "concurrent dequeuing goroutines")
	cmd.Flags().IntVar(&messages, "messages", 1<<16, "messages passed through the queue")
	cmd.Flags().Int64Var(&clockRate, "clock-rate", 2600000000, "processor clock rate used to convert etime ticks to durations")
	return cmd
}

func printQueueResults(backend string, results qbench.Results, clockRate int64) {
	all := make([]int64, 0, len(results.ThroughputTimings)*len(results.ThroughputTimings))
	for _, timing := range results.ThroughputTimings {
		all = append(all, timing...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })

	total := etime.Duration(results.TotalTiming, clockRate)
	fmt.Printf("backend=%s gomaxprocs=%d enqueuers=%d dequeuers=%d total=%v\n",
		backend, results.GOMAXPROCS, results.Enqueuers, results.Dequeuers, total)
	if len(all) == 0 {
		return
	}
	median := etime.Duration(all[len(all)/2], clockRate)
	fmt.Printf("throughput-per-message median=%v\n", median)
}
