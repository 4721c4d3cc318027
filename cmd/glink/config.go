package main

import (
	"os"

	"github.com/naoina/toml"

	"github.com/ledgerlink/go-ledgerlink/node"
)

// loadConfig reads a TOML config file into cfg. Flags and environment
// variables override whatever the file sets.
func loadConfig(file string, cfg *node.Config) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewDecoder(f).Decode(cfg)
}
