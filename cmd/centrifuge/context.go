package main

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"centrifuge/internal/config"
	"centrifuge/internal/history"
	"centrifuge/internal/logging"
	"centrifuge/internal/report"
	"centrifuge/internal/runner"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withRunner opens the history store, builds a runner on top of it, and
// closes the store when fn returns. Structured logs go to the log file only;
// progress lands on the provided sink so the terminal stays readable.
func (c *commandContext) withRunner(sink report.Sink, fn func(*config.Config, *history.Store, *runner.Runner) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logPath := filepath.Join(cfg.Paths.LogDir, "centrifuge.log")
	logger, err := logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		return err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store, runner.New(cfg, store, logger, sink))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
