package main

import (
	"os"

	"github.com/BurntSushi/toml"
)

// fileConfig holds pool-sizing defaults loadable from an optional TOML file.
// No CLI flag overrides these values.
type fileConfig struct {
	Pool struct {
		FreelistCapacity uint `toml:"freelist_capacity"`
	} `toml:"pool"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	_, err := toml.DecodeFile(path, &cfg)
	return cfg, err
}
