package runner_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"centrifuge/internal/history"
	"centrifuge/internal/runner"
	"centrifuge/internal/testsupport"
)

func TestScanRecordsRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.WriteLines(t, filepath.Join(cfg.Paths.DataDir, "batch", "orphan.tst"), "capture")

	r := runner.New(cfg, store, nil)
	runID, result, err := r.Scan(context.Background(), filepath.Join(cfg.Paths.DataDir, "batch"))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.Found != 1 || result.Processed != 1 {
		t.Fatalf("result = %+v", result)
	}

	run, err := store.GetRun(context.Background(), runID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Kind != history.KindScan || run.Status != history.StatusCompleted {
		t.Fatalf("run = %+v", run)
	}

	var stored struct {
		Found int `json:"found"`
	}
	if err := json.Unmarshal(run.Result, &stored); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if stored.Found != 1 {
		t.Fatalf("stored result = %+v", stored)
	}

	logs, err := store.RunLogs(context.Background(), runID)
	if err != nil {
		t.Fatalf("RunLogs: %v", err)
	}
	if len(logs) == 0 {
		t.Fatal("expected progress logs")
	}
}

func TestSortWritesUnderResultsDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	input := filepath.Join(cfg.Paths.DataDir, "exports")
	testsupport.WriteStructuredExport(t, filepath.Join(input, "run1.txt"))

	r := runner.New(cfg, store, nil)
	runID, outcome, err := r.Sort(context.Background(), input, "")
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if outcome.Report.Structured != 1 {
		t.Fatalf("report = %+v", outcome.Report)
	}

	wantDir := filepath.Join(cfg.Paths.ResultsDir, "exports", "UCA",
		"1100-1499", "Algorithm_more_than_14", "Cement_G")
	if _, err := os.Stat(filepath.Join(wantDir, "run1_summary.xlsx")); err != nil {
		t.Fatalf("summary workbook missing: %v", err)
	}

	run, err := store.GetRun(context.Background(), runID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != history.StatusCompleted {
		t.Fatalf("run = %+v", run)
	}
}

func TestSortHonorsOutputOverride(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	input := filepath.Join(cfg.Paths.DataDir, "exports")
	testsupport.WriteStructuredExport(t, filepath.Join(input, "run1.txt"))
	override := filepath.Join(t.TempDir(), "sorted")

	r := runner.New(cfg, store, nil)
	_, outcome, err := r.Sort(context.Background(), input, override)
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if outcome.OutputFolder != override {
		t.Fatalf("output folder = %q, want %q", outcome.OutputFolder, override)
	}

	wantDir := filepath.Join(override, "UCA",
		"1100-1499", "Algorithm_more_than_14", "Cement_G")
	if _, err := os.Stat(filepath.Join(wantDir, "run1_summary.xlsx")); err != nil {
		t.Fatalf("summary workbook missing: %v", err)
	}
}

func TestScanFailureIsRecorded(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	r := runner.New(cfg, store, nil)
	runID, _, err := r.Scan(context.Background(), filepath.Join(cfg.Paths.DataDir, "absent"))
	if err == nil {
		t.Fatal("expected error for missing folder")
	}
	if runID == "" {
		t.Fatal("failed runs still get a run ID")
	}

	run, getErr := store.GetRun(context.Background(), runID)
	if getErr != nil {
		t.Fatalf("GetRun: %v", getErr)
	}
	if run.Status != history.StatusFailed || run.Error == "" {
		t.Fatalf("run = %+v", run)
	}
}

func TestScanAsyncCompletes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.WriteLines(t, filepath.Join(cfg.Paths.DataDir, "solo.tst"), "capture")

	r := runner.New(cfg, store, nil)
	runID, err := r.ScanAsync(cfg.Paths.DataDir)
	if err != nil {
		t.Fatalf("ScanAsync: %v", err)
	}
	r.Wait()

	deadline := time.Now().Add(5 * time.Second)
	for {
		run, err := store.GetRun(context.Background(), runID)
		if err != nil {
			t.Fatalf("GetRun: %v", err)
		}
		if run.Status == history.StatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run never completed: %+v", run)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.DataDir, "Isolated_Orphans", "solo.tst")); err != nil {
		t.Fatalf("orphan not isolated: %v", err)
	}
}
