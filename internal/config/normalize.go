package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSorter()
	c.normalizeOrphans()
	c.normalizeHistory()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ResultsDir) == "" {
		c.Paths.ResultsDir = filepath.Join(c.Paths.DataDir, "Results")
	}
	if c.Paths.ResultsDir, err = expandPath(c.Paths.ResultsDir); err != nil {
		return fmt.Errorf("paths.results_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeSorter() {
	c.Sorter.InputExtension = normalizeExtension(c.Sorter.InputExtension, defaultInputExtension)
	c.Sorter.StructuredMarker = strings.ToLower(strings.TrimSpace(c.Sorter.StructuredMarker))
	if c.Sorter.StructuredMarker == "" {
		c.Sorter.StructuredMarker = defaultStructuredMarker
	}
	c.Sorter.StructuredDir = normalizeSegment(c.Sorter.StructuredDir, defaultStructuredDir)
	c.Sorter.OtherDir = normalizeSegment(c.Sorter.OtherDir, defaultOtherDir)
	c.Sorter.IncompleteDir = normalizeSegment(c.Sorter.IncompleteDir, defaultIncompleteDir)
}

func (c *Config) normalizeOrphans() {
	c.Orphans.CaptureExtension = normalizeExtension(c.Orphans.CaptureExtension, defaultCaptureExtension)
	c.Orphans.CompanionExtension = normalizeExtension(c.Orphans.CompanionExtension, defaultCompanionExtension)
	c.Orphans.IsolationDir = normalizeSegment(c.Orphans.IsolationDir, defaultIsolationDir)
}

func (c *Config) normalizeHistory() {
	if c.History.MaxRuns <= 0 {
		c.History.MaxRuns = defaultHistoryMaxRuns
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func normalizeExtension(value, fallback string) string {
	ext := strings.ToLower(strings.TrimSpace(value))
	if ext == "" {
		return fallback
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func normalizeSegment(value, fallback string) string {
	segment := strings.TrimSpace(value)
	if segment == "" {
		return fallback
	}
	return segment
}
