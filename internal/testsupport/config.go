package testsupport

import (
	"path/filepath"
	"testing"

	"centrifuge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.ResultsDir = filepath.Join(base, "results")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithMaxRuns overrides the history retention limit on the test config.
func WithMaxRuns(limit int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.History.MaxRuns = limit
	}
}

// WithStructuredMarker overrides the structured-type marker on the test config.
func WithStructuredMarker(marker string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Sorter.StructuredMarker = marker
	}
}
