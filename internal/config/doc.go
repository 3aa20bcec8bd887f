// Package config loads, normalizes, and validates the TOML configuration
// shared by the centrifuge CLI and daemon.
//
// Configuration resolution order: an explicit --config path, then
// ~/.config/centrifuge/config.toml, then ./centrifuge.toml. Missing files are
// not an error; defaults apply.
package config
