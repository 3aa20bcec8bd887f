// Package orphans finds capture files that lost their companion export and
// relocates them into an isolation subtree mirroring their original layout.
package orphans

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"centrifuge/internal/config"
	"centrifuge/internal/fileutil"
	"centrifuge/internal/logging"
	"centrifuge/internal/report"
	"centrifuge/internal/services"
	"centrifuge/internal/walk"
)

// MovedFile records one relocated orphan.
type MovedFile struct {
	File   string `json:"file"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

// Result summarizes one orphan scan. Found counts relocated orphans,
// Processed counts every capture file examined, and TargetFolder is empty
// when no orphan was found.
type Result struct {
	Found          int         `json:"found"`
	Processed      int         `json:"processed"`
	FoldersChecked int         `json:"folders_checked"`
	Moved          []MovedFile `json:"moved"`
	TargetFolder   string      `json:"target_folder"`
}

// Scanner locates capture files whose companion export is missing. A capture
// file is orphaned when no file with the same stem and the companion
// extension sits in the same directory.
type Scanner struct {
	captureExt   string
	companionExt string
	isolationDir string
	logger       *slog.Logger
	sink         report.Sink
}

// NewScanner builds a scanner from the orphans configuration section.
func NewScanner(cfg *config.Config, logger *slog.Logger, sink report.Sink) *Scanner {
	if sink == nil {
		sink = report.Discard()
	}
	return &Scanner{
		captureExt:   cfg.Orphans.CaptureExtension,
		companionExt: cfg.Orphans.CompanionExtension,
		isolationDir: cfg.Orphans.IsolationDir,
		logger:       logging.NewComponentLogger(logger, "orphans"),
		sink:         sink,
	}
}

// Scan walks root, moves every orphaned capture file into the isolation
// subtree, and returns the scan summary. The isolation folder itself is never
// entered, so re-running the scan is safe. Files that cannot be moved are
// reported and left in place.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	root, err := config.ExpandPath(root)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "orphans", "scan", "resolve root", err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "orphans", "scan",
			fmt.Sprintf("folder %q does not exist", root), err)
	}

	result := &Result{}
	isolationRoot := filepath.Join(root, s.isolationDir)
	s.logger.Info("orphan scan started",
		logging.String("root", root),
		logging.String("capture_ext", s.captureExt))
	s.sink.Report(fmt.Sprintf("Scanning %s for orphaned %s files", root, s.captureExt), report.SeverityInfo)

	opts := walk.Options{
		ExcludeDirs: []string{s.isolationDir},
		OnSkip: func(dir string, err error) {
			s.logger.Warn("skipping unreadable directory",
				logging.String("dir", dir), logging.Error(err))
			s.sink.Report(fmt.Sprintf("Skipping unreadable directory %s", dir), report.SeverityWarning)
		},
	}
	visited, err := walk.Files(root, opts, func(path string, _ os.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !strings.EqualFold(filepath.Ext(path), s.captureExt) {
			return nil
		}
		result.Processed++
		if s.hasCompanion(path) {
			return nil
		}
		s.isolate(root, isolationRoot, path, result)
		return nil
	})
	result.FoldersChecked = visited
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		return result, services.Wrap(services.ErrTransient, "orphans", "scan", "walk failed", err)
	}

	if result.Found > 0 {
		result.TargetFolder = isolationRoot
	}
	s.logger.Info("orphan scan finished",
		logging.Int("found", result.Found),
		logging.Int("processed", result.Processed),
		logging.Int("folders_checked", result.FoldersChecked))
	s.sink.Report(fmt.Sprintf("Scan complete: %d orphans found, %d capture files examined, %d folders checked",
		result.Found, result.Processed, result.FoldersChecked), report.SeveritySuccess)
	return result, nil
}

func (s *Scanner) hasCompanion(path string) bool {
	companion := strings.TrimSuffix(path, filepath.Ext(path)) + s.companionExt
	_, err := os.Stat(companion)
	return err == nil
}

func (s *Scanner) isolate(root, isolationRoot, path string, result *Result) {
	name := filepath.Base(path)
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil {
		rel = "."
	}
	targetDir := filepath.Join(isolationRoot, rel)
	if err := fileutil.EnsureDir(targetDir); err != nil {
		s.reportMoveFailure(name, err)
		return
	}
	if err := fileutil.MoveFile(path, filepath.Join(targetDir, name)); err != nil {
		s.reportMoveFailure(name, err)
		return
	}

	reason := fmt.Sprintf("missing %s%s", fileutil.Stem(name), s.companionExt)
	result.Found++
	result.Moved = append(result.Moved, MovedFile{
		File:   name,
		From:   filepath.Dir(path),
		To:     targetDir,
		Reason: reason,
	})
	s.logger.Info("orphan isolated",
		logging.String("file", name),
		logging.String("to", targetDir))
	s.sink.Report(fmt.Sprintf("Moved %s (%s)", name, reason), report.SeverityInfo)
}

func (s *Scanner) reportMoveFailure(name string, err error) {
	s.logger.Error("orphan move failed",
		logging.String("file", name), logging.Error(err))
	s.sink.Report(fmt.Sprintf("Failed to move %s: %v", name, err), report.SeverityError)
}
