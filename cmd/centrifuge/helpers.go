package main

import (
	"path/filepath"

	"centrifuge/internal/config"
)

// resolveFolder maps a command-line folder argument onto the data directory:
// relative arguments are joined to the data dir, absolute ones pass through.
func resolveFolder(cfg *config.Config, arg string) string {
	if filepath.IsAbs(arg) {
		return arg
	}
	return filepath.Join(cfg.Paths.DataDir, arg)
}
