package main

import (
	"fmt"
	"sync"

	"github.com/SchrodingerZhu/lamlock-go/bench/etime"
	"github.com/SchrodingerZhu/lamlock-go/vdsorng"
	"github.com/spf13/cobra"
)

func newBenchPoolCmd() *cobra.Command {
	var goroutines int
	var rentalsPerGoroutine int
	var bufSize int
	var clockRate int64

	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Measure vdsorng.Pool rent/fill/recycle throughput under contention",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(reportHeader("pool"))

			opts := []vdsorng.Option(nil)
			if cfg.Pool.FreelistCapacity != 0 {
				opts = append(opts, vdsorng.WithFreelistCapacity(cfg.Pool.FreelistCapacity))
			}
			pool, err := vdsorng.New(vdsorng.DefaultResolver{}, opts...)
			if err != nil {
				return err
			}
			defer pool.Close()

			start := etime.Now()
			var wg sync.WaitGroup
			var failures int64
			var mu sync.Mutex
			wg.Add(goroutines)
			for g := 0; g < goroutines; g++ {
				go func() {
					defer wg.Done()
					buf := make([]byte, bufSize)
					for i := 0; i < rentalsPerGoroutine; i++ {
						state, err := vdsorng.NewLocalState(pool)
						if err != nil {
							mu.Lock()
							failures++
							mu.Unlock()
							continue
						}
						if err := state.Fill(buf, 0); err != nil {
							mu.Lock()
							failures++
							mu.Unlock()
						}
						state.Close()
					}
				}()
			}
			wg.Wait()
			elapsed := etime.Now() - start

			total := goroutines * rentalsPerGoroutine
			dur := etime.Duration(elapsed, clockRate)
			fmt.Printf("rentals=%d goroutines=%d failures=%d elapsed=%v throughput=%.0f rentals/s\n",
				total, goroutines, failures, dur, float64(total)/dur.Seconds())
			return nil
		},
	}

	cmd.Flags().IntVar(&goroutines, "goroutines", 8, "concurrent renters of pool state")
	cmd.Flags().IntVar(&rentalsPerGoroutine, "rentals", 10000, "rent/fill/recycle cycles performed by each goroutine")
	cmd.Flags().IntVar(&bufSize, "buf-size", 32, "bytes filled per rental")
	cmd.Flags().Int64Var(&clockRate, "clock-rate", 2600000000, "processor clock rate used to convert etime ticks to durations")
	return cmd
}
