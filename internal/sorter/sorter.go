// Package sorter implements the classification pipeline: it walks a folder
// of instrument exports, classifies each file as structured or unstructured,
// derives the category path for structured exports, and writes the summary
// and data blocks as xlsx workbooks into the partitioned output tree.
package sorter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"centrifuge/internal/config"
	"centrifuge/internal/instrument"
	"centrifuge/internal/logging"
	"centrifuge/internal/report"
	"centrifuge/internal/services"
	"centrifuge/internal/spreadsheet"
	"centrifuge/internal/walk"
)

// Report aggregates the counters for one classification run. All counts are
// derived from each file's final placement.
type Report struct {
	Total        int            `json:"total"`
	Structured   int            `json:"structured"`
	Unstructured int            `json:"unstructured"`
	Incomplete   int            `json:"incomplete"`
	ReadErrors   int            `json:"read_errors"`
	WriteErrors  int            `json:"write_errors"`
	Categories   map[string]int `json:"categories"`
}

// Outcome is the result of one classification run.
type Outcome struct {
	Processed    int    `json:"processed"`
	OutputFolder string `json:"output_folder"`
	Report       Report `json:"report"`
}

// Sorter classifies and partitions instrument exports. Each Run call is
// independent; the sorter keeps no state between runs.
type Sorter struct {
	inputExt      string
	marker        string
	structuredDir string
	otherDir      string
	incompleteDir string
	logger        *slog.Logger
	sink          report.Sink
}

// New builds a sorter from the sorter configuration section.
func New(cfg *config.Config, logger *slog.Logger, sink report.Sink) *Sorter {
	if sink == nil {
		sink = report.Discard()
	}
	return &Sorter{
		inputExt:      cfg.Sorter.InputExtension,
		marker:        cfg.Sorter.StructuredMarker,
		structuredDir: cfg.Sorter.StructuredDir,
		otherDir:      cfg.Sorter.OtherDir,
		incompleteDir: cfg.Sorter.IncompleteDir,
		logger:        logging.NewComponentLogger(logger, "sorter"),
		sink:          sink,
	}
}

// Run classifies every export under inputDir and writes the partitioned
// workbooks under outputDir. Per-file failures are counted and skipped; only
// an unreadable input root or cancellation fails the run.
func (s *Sorter) Run(ctx context.Context, inputDir, outputDir string) (*Outcome, error) {
	inputDir, err := config.ExpandPath(inputDir)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "sorter", "run", "resolve input folder", err)
	}
	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "sorter", "run",
			fmt.Sprintf("folder %q does not exist", inputDir), err)
	}
	outputDir, err = config.ExpandPath(outputDir)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "sorter", "run", "resolve output folder", err)
	}

	outcome := &Outcome{
		OutputFolder: outputDir,
		Report:       Report{Categories: map[string]int{}},
	}
	s.logger.Info("classification started",
		logging.String("input", inputDir),
		logging.String("output", outputDir))
	s.sink.Report(fmt.Sprintf("Sorting %s into %s", inputDir, outputDir), report.SeverityInfo)

	opts := walk.Options{
		OnSkip: func(dir string, err error) {
			s.logger.Warn("skipping unreadable directory",
				logging.String("dir", dir), logging.Error(err))
			s.sink.Report(fmt.Sprintf("Skipping unreadable directory %s", dir), report.SeverityWarning)
		},
	}
	_, err = walk.Files(inputDir, opts, func(path string, _ os.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !strings.EqualFold(filepath.Ext(path), s.inputExt) {
			return nil
		}
		s.processFile(inputDir, outputDir, path, &outcome.Report)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}
		return outcome, services.Wrap(services.ErrTransient, "sorter", "run", "walk failed", err)
	}

	outcome.Processed = outcome.Report.Total
	s.logger.Info("classification finished",
		logging.Int("total", outcome.Report.Total),
		logging.Int("structured", outcome.Report.Structured),
		logging.Int("unstructured", outcome.Report.Unstructured),
		logging.Int("incomplete", outcome.Report.Incomplete),
		logging.Int("read_errors", outcome.Report.ReadErrors),
		logging.Int("write_errors", outcome.Report.WriteErrors))
	s.sink.Report(fmt.Sprintf(
		"Sort complete: %d files, %d structured, %d unstructured, %d incomplete, %d read errors",
		outcome.Report.Total, outcome.Report.Structured, outcome.Report.Unstructured,
		outcome.Report.Incomplete, outcome.Report.ReadErrors), report.SeveritySuccess)
	return outcome, nil
}

func (s *Sorter) processFile(inputDir, outputDir, path string, rep *Report) {
	rep.Total++
	name := filepath.Base(path)
	rel := relativeDir(inputDir, path)

	lines, err := instrument.ReadLines(path)
	if err != nil {
		rep.ReadErrors++
		s.logger.Error("read failed", logging.String("file", name), logging.Error(err))
		s.sink.Report(fmt.Sprintf("Failed to read %s: %v", name, err), report.SeverityError)
		return
	}

	markers := instrument.FindMarkers(lines)
	summary := instrument.ParseSummary(lines, markers)
	signal := instrument.DetectStructured(summary, name, s.marker)
	if signal.Structured() {
		rep.Structured++
		s.processStructured(outputDir, rel, name, summary, lines, markers, rep)
		return
	}
	s.processUnstructured(outputDir, rel, name, lines, rep)
}

// processStructured settles the export's final bucket before touching any
// counter or file: a missing summary block, missing required parameters, or
// an unparseable data block all route the export to the incomplete bucket.
func (s *Sorter) processStructured(outputDir, rel, name string, summary *instrument.Summary, lines []string, markers instrument.Markers, rep *Report) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	if summary == nil {
		rep.Incomplete++
		s.logger.Warn("structured export without summary block", logging.String("file", name))
		s.sink.Report(fmt.Sprintf("%s has no summary block, skipped as incomplete", name), report.SeverityWarning)
		return
	}

	category, missing := instrument.Derive(summary)
	table, dataErr := instrument.ParseData(lines[markers.Data+1:])

	var segments []string
	switch {
	case len(missing) > 0:
		segments = []string{s.incompleteDir}
		s.sink.Report(fmt.Sprintf("%s is missing %s, routed to %s",
			name, strings.Join(missing, ", "), s.incompleteDir), report.SeverityWarning)
	case dataErr != nil:
		segments = []string{s.incompleteDir}
		s.sink.Report(fmt.Sprintf("%s has an unusable data block, routed to %s: %v",
			name, s.incompleteDir, dataErr), report.SeverityWarning)
	default:
		segments = category.Segments()
		s.sink.Report(fmt.Sprintf("%s classified as %s", name, category.Key()), report.SeverityInfo)
	}

	targetDir := filepath.Join(append([]string{outputDir, s.structuredDir, rel}, segments...)...)
	if err := s.writeSummary(targetDir, stem, summary); err != nil {
		rep.WriteErrors++
		s.reportWriteFailure(name, err)
		return
	}
	if table != nil {
		if err := spreadsheet.WriteTable(
			filepath.Join(targetDir, stem+"_data.xlsx"), table.Header, table.Rows); err != nil {
			rep.WriteErrors++
			s.reportWriteFailure(name, err)
			return
		}
	}

	if len(segments) == 1 && segments[0] == s.incompleteDir {
		rep.Incomplete++
		rep.Categories[s.incompleteDir]++
	} else {
		rep.Categories[category.Key()]++
	}
	s.logger.Info("export written",
		logging.String("file", name),
		logging.String("target", targetDir))
}

func (s *Sorter) processUnstructured(outputDir, rel, name string, lines []string, rep *Report) {
	table := instrument.LineTable(lines)
	if table == nil {
		rep.ReadErrors++
		s.logger.Warn("empty unstructured export", logging.String("file", name))
		s.sink.Report(fmt.Sprintf("%s is empty, skipped", name), report.SeverityWarning)
		return
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	target := filepath.Join(outputDir, s.otherDir, rel, stem+".xlsx")
	if err := spreadsheet.WriteTable(target, table.Header, table.Rows); err != nil {
		rep.WriteErrors++
		s.reportWriteFailure(name, err)
		return
	}
	rep.Unstructured++
	s.logger.Info("unstructured export written",
		logging.String("file", name),
		logging.String("target", target))
	s.sink.Report(fmt.Sprintf("%s written to %s", name, s.otherDir), report.SeverityInfo)
}

func (s *Sorter) writeSummary(targetDir, stem string, summary *instrument.Summary) error {
	rows := make([][]string, 0, summary.Len())
	for _, pair := range summary.Pairs() {
		rows = append(rows, []string{pair.Key, pair.Value})
	}
	return spreadsheet.WriteTable(
		filepath.Join(targetDir, stem+"_summary.xlsx"),
		[]string{"Parameter", "Value"}, rows)
}

func (s *Sorter) reportWriteFailure(name string, err error) {
	s.logger.Error("write failed", logging.String("file", name), logging.Error(err))
	s.sink.Report(fmt.Sprintf("Failed to write output for %s: %v", name, err), report.SeverityError)
}

// relativeDir returns the file's directory relative to root, or "" for files
// directly under root.
func relativeDir(root, path string) string {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." {
		return ""
	}
	return rel
}
