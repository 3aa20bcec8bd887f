package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSorter(); err != nil {
		return err
	}
	if err := c.validateOrphans(); err != nil {
		return err
	}
	if c.History.MaxRuns <= 0 {
		return errors.New("history.max_runs must be positive")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateSorter() error {
	if c.Sorter.StructuredMarker == "" {
		return errors.New("sorter.structured_marker must be set")
	}
	for key, segment := range map[string]string{
		"sorter.structured_dir": c.Sorter.StructuredDir,
		"sorter.other_dir":      c.Sorter.OtherDir,
		"sorter.incomplete_dir": c.Sorter.IncompleteDir,
	} {
		if err := validateSegment(key, segment); err != nil {
			return err
		}
	}
	if c.Sorter.StructuredDir == c.Sorter.OtherDir {
		return errors.New("sorter.structured_dir and sorter.other_dir must differ")
	}
	return nil
}

func (c *Config) validateOrphans() error {
	if c.Orphans.CaptureExtension == c.Orphans.CompanionExtension {
		return errors.New("orphans.capture_extension and orphans.companion_extension must differ")
	}
	return validateSegment("orphans.isolation_dir", c.Orphans.IsolationDir)
}

func validateSegment(key, segment string) error {
	if segment == "" {
		return fmt.Errorf("%s must be set", key)
	}
	if strings.ContainsAny(segment, `/\`) {
		return fmt.Errorf("%s must be a single path segment", key)
	}
	return nil
}
