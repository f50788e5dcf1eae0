package main

import (
	"encoding/hex"
	"fmt"

	"github.com/SchrodingerZhu/lamlock-go/vdsorng"
	"github.com/spf13/cobra"
)

func newFillCmd() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Rent one opaque state, fill a buffer through it, and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []vdsorng.Option(nil)
			if cfg.Pool.FreelistCapacity != 0 {
				opts = append(opts, vdsorng.WithFreelistCapacity(cfg.Pool.FreelistCapacity))
			}
			pool, err := vdsorng.New(vdsorng.DefaultResolver{}, opts...)
			if err != nil {
				return err
			}
			defer pool.Close()

			state, err := vdsorng.NewLocalState(pool)
			if err != nil {
				return err
			}
			defer state.Close()

			buf := make([]byte, size)
			if err := state.Fill(buf, 0); err != nil {
				return err
			}
			fmt.Println(hex.EncodeToString(buf))
			return nil
		},
	}

	cmd.Flags().IntVar(&size, "size", 32, "bytes to fill")
	return cmd
}
