package orphans

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"centrifuge/internal/config"
	"centrifuge/internal/report"
)

func newTestScanner(t *testing.T, sink report.Sink) *Scanner {
	t.Helper()
	cfg := config.Default()
	return NewScanner(&cfg, nil, sink)
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("capture"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestScanMovesOrphansPreservingLayout(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "batch1", "orphan.tst"))
	writeFile(t, filepath.Join(root, "batch1", "paired.tst"))
	writeFile(t, filepath.Join(root, "batch1", "paired.txt"))
	writeFile(t, filepath.Join(root, "top.tst"))

	scanner := newTestScanner(t, nil)
	result, err := scanner.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if result.Found != 2 || result.Processed != 3 {
		t.Fatalf("found=%d processed=%d, want 2/3", result.Found, result.Processed)
	}
	if result.FoldersChecked != 2 {
		t.Fatalf("folders checked = %d, want 2", result.FoldersChecked)
	}

	isolated := filepath.Join(root, "Isolated_Orphans")
	if result.TargetFolder != isolated {
		t.Fatalf("target folder = %q", result.TargetFolder)
	}
	for _, want := range []string{
		filepath.Join(isolated, "batch1", "orphan.tst"),
		filepath.Join(isolated, "top.tst"),
	} {
		if _, err := os.Stat(want); err != nil {
			t.Errorf("expected isolated file %s: %v", want, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "batch1", "orphan.tst")); !os.IsNotExist(err) {
		t.Error("orphan still present at source")
	}
	if _, err := os.Stat(filepath.Join(root, "batch1", "paired.tst")); err != nil {
		t.Errorf("paired capture must stay put: %v", err)
	}

	if len(result.Moved) != 2 {
		t.Fatalf("moved records = %d, want 2", len(result.Moved))
	}
	if result.Moved[0].Reason != "missing orphan.txt" {
		t.Fatalf("reason = %q", result.Moved[0].Reason)
	}
	if result.Moved[0].To != filepath.Join(isolated, "batch1") {
		t.Fatalf("destination dir = %q", result.Moved[0].To)
	}
}

func TestScanCountsPairedCapturesWithoutIsolating(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "paired.tst"))
	writeFile(t, filepath.Join(root, "paired.txt"))

	scanner := newTestScanner(t, nil)
	result, err := scanner.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if result.Found != 0 || result.Processed != 1 {
		t.Fatalf("found=%d processed=%d, want 0/1", result.Found, result.Processed)
	}
	if result.TargetFolder != "" {
		t.Fatalf("target folder = %q, want empty when nothing was found", result.TargetFolder)
	}
	if _, err := os.Stat(filepath.Join(root, "Isolated_Orphans")); !os.IsNotExist(err) {
		t.Fatal("isolation folder must not be created when nothing was found")
	}
}

func TestScanIsRerunSafe(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "solo.tst"))

	scanner := newTestScanner(t, nil)
	if _, err := scanner.Scan(context.Background(), root); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	second, err := scanner.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if second.Found != 0 {
		t.Fatalf("second scan found %d orphans, want 0", second.Found)
	}
	if _, err := os.Stat(filepath.Join(root, "Isolated_Orphans", "solo.tst")); err != nil {
		t.Fatalf("isolated file disturbed: %v", err)
	}
}

func TestScanExtensionMatchIsCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "upper.TST"))

	scanner := newTestScanner(t, nil)
	result, err := scanner.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.Found != 1 || result.Processed != 1 {
		t.Fatalf("found=%d processed=%d, want 1/1", result.Found, result.Processed)
	}
}

func TestScanReportsProgress(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "alone.tst"))

	recorder := &report.Recorder{}
	scanner := newTestScanner(t, recorder)
	if _, err := scanner.Scan(context.Background(), root); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	entries := recorder.Entries()
	if len(entries) < 3 {
		t.Fatalf("expected start, move, and completion messages, got %v", entries)
	}
	last := entries[len(entries)-1]
	if last.Severity != report.SeveritySuccess {
		t.Fatalf("final severity = %q, want success", last.Severity)
	}
}

func TestScanMissingRoot(t *testing.T) {
	scanner := newTestScanner(t, nil)
	if _, err := scanner.Scan(context.Background(), filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing root")
	}
}
