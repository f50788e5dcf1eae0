package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	cfg        fileConfig
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lamlockctl",
		Short: "Exercise the lamlock combining mutex and the vdsorng state pool",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			zerolog.SetGlobalLevel(level)

			loaded, err := loadFileConfig(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "optional TOML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "zerolog level: debug, info, warn, error")

	root.AddCommand(newBenchCmd(), newFillCmd())
	return root
}
