package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run throughput benchmarks",
	}
	cmd.AddCommand(newBenchLockCmd(), newBenchPoolCmd(), newBenchQueueCmd())
	return cmd
}

// reportHeader builds a UUID-tagged header shared by every bench subcommand,
// so concurrent runs piped into the same log stream stay distinguishable.
func reportHeader(kind string) string {
	return fmt.Sprintf("run=%s kind=%s", uuid.NewString(), kind)
}
