package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	ResultsDir string `toml:"results_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
}

// Sorter contains configuration for the classification pipeline.
type Sorter struct {
	// InputExtension selects which files the sorter reads (default ".txt").
	InputExtension string `toml:"input_extension"`
	// StructuredMarker is the case-insensitive literal that identifies a
	// structured instrument export, matched against the Instrument Type
	// parameter first and the file name second.
	StructuredMarker string `toml:"structured_marker"`
	StructuredDir    string `toml:"structured_dir"`
	OtherDir         string `toml:"other_dir"`
	IncompleteDir    string `toml:"incomplete_dir"`
}

// Orphans contains configuration for the orphaned capture file scan.
type Orphans struct {
	CaptureExtension   string `toml:"capture_extension"`
	CompanionExtension string `toml:"companion_extension"`
	// IsolationDir is the reserved folder name orphans are moved into. The
	// walker never descends into it.
	IsolationDir string `toml:"isolation_dir"`
}

// History contains configuration for run history retention.
type History struct {
	MaxRuns int `toml:"max_runs"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for centrifuge.
//
// Configuration sections by subsystem:
//   - Paths: data/results/log directories and the API bind address
//   - Sorter: input extension, structured-type marker, bucket names
//   - Orphans: capture/companion extensions and the isolation folder
//   - History: run history retention
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Sorter  Sorter  `toml:"sorter"`
	Orphans Orphans `toml:"orphans"`
	History History `toml:"history"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/centrifuge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("centrifuge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required for operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.ResultsDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ContainsData reports whether path lies within the configured data
// directory. The API layer only accepts run targets under the data dir.
func (c *Config) ContainsData(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(c.Paths.DataDir, abs)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

// OutputDirFor derives the results directory mirroring the input folder's
// position under the data directory. Inputs outside the data dir map to a
// folder named after their base directory.
func (c *Config) OutputDirFor(inputDir string) string {
	abs, err := filepath.Abs(inputDir)
	if err != nil {
		abs = inputDir
	}
	rel, err := filepath.Rel(c.Paths.DataDir, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Join(c.Paths.ResultsDir, filepath.Base(abs))
	}
	return filepath.Join(c.Paths.ResultsDir, rel)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
