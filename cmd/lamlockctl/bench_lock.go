package main

import (
	"fmt"
	"sync"

	"github.com/SchrodingerZhu/lamlock-go/bench/etime"
	"github.com/SchrodingerZhu/lamlock-go/lamlock"
	"github.com/spf13/cobra"
)

func newBenchLockCmd() *cobra.Command {
	var goroutines int
	var opsPerGoroutine int
	var clockRate int64

	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Measure lamlock.Run combining throughput under contention",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(reportHeader("lock"))

			l := lamlock.New(int64(0))

			start := etime.Now()
			var wg sync.WaitGroup
			wg.Add(goroutines)
			for g := 0; g < goroutines; g++ {
				go func() {
					defer wg.Done()
					for i := 0; i < opsPerGoroutine; i++ {
						if _, err := lamlock.Run(l, func(counter *int64) struct{} {
							*counter++
							return struct{}{}
						}); err != nil {
							return
						}
					}
				}()
			}
			wg.Wait()
			elapsed := etime.Now() - start

			total := goroutines * opsPerGoroutine
			final, err := lamlock.Run(l, func(counter *int64) int64 { return *counter })
			if err != nil {
				return err
			}
			dur := etime.Duration(elapsed, clockRate)
			fmt.Printf("ops=%d goroutines=%d final=%d elapsed=%v throughput=%.0f ops/s\n",
				total, goroutines, final, dur, float64(total)/dur.Seconds())
			return nil
		},
	}

	cmd.Flags().IntVar(&goroutines, "goroutines", 8, "concurrent callers combining on the lock")
	cmd.Flags().IntVar(&opsPerGoroutine, "ops", 100000, "Run calls performed by each goroutine")
	cmd.Flags().Int64Var(&clockRate, "clock-rate", 2600000000, "processor clock rate used to convert etime ticks to durations")
	return cmd
}
