package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"centrifuge/internal/history"
	"centrifuge/internal/testsupport"
)

func startTestDaemon(t *testing.T) (*Daemon, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	d, err := New(cfg, store, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)
	return d, "http://" + d.APIAddr()
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, body, out any) int {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func waitForRun(t *testing.T, base, taskID string) *history.Run {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		var run history.Run
		if code := getJSON(t, fmt.Sprintf("%s/api/tasks/%s/status", base, taskID), &run); code != http.StatusOK {
			t.Fatalf("status code = %d", code)
		}
		if run.Status != history.StatusRunning {
			return &run
		}
		if time.Now().After(deadline) {
			t.Fatalf("task %s never finished", taskID)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestStatusEndpoint(t *testing.T) {
	_, base := startTestDaemon(t)

	var status Status
	if code := getJSON(t, base+"/api/status", &status); code != http.StatusOK {
		t.Fatalf("status code = %d", code)
	}
	if !status.Running || status.HistoryDBPath == "" {
		t.Fatalf("status = %+v", status)
	}
}

func TestSortEndpointRunsPipeline(t *testing.T) {
	d, base := startTestDaemon(t)
	testsupport.WriteStructuredExport(t, filepath.Join(d.cfg.Paths.DataDir, "exports", "run1.txt"))

	var accepted runResponse
	code := postJSON(t, base+"/api/sort", runRequest{Path: "exports"}, &accepted)
	if code != http.StatusAccepted {
		t.Fatalf("status code = %d", code)
	}
	if accepted.Kind != history.KindSort || accepted.TaskID == "" {
		t.Fatalf("response = %+v", accepted)
	}

	run := waitForRun(t, base, accepted.TaskID)
	if run.Status != history.StatusCompleted {
		t.Fatalf("run = %+v", run)
	}

	var result struct {
		Report struct {
			Structured int `json:"structured"`
		} `json:"report"`
	}
	if code := getJSON(t, fmt.Sprintf("%s/api/tasks/%s/result", base, accepted.TaskID), &result); code != http.StatusOK {
		t.Fatalf("result code = %d", code)
	}
	if result.Report.Structured != 1 {
		t.Fatalf("result = %+v", result)
	}

	var logs logsResponse
	if code := getJSON(t, fmt.Sprintf("%s/api/tasks/%s/logs", base, accepted.TaskID), &logs); code != http.StatusOK {
		t.Fatalf("logs code = %d", code)
	}
	if len(logs.Logs) == 0 {
		t.Fatal("expected progress logs")
	}
}

func TestScanEndpointRejectsOutsidePath(t *testing.T) {
	_, base := startTestDaemon(t)
	if code := postJSON(t, base+"/api/scan", runRequest{Path: "/etc"}, nil); code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want 400", code)
	}
}

func TestTaskNotFound(t *testing.T) {
	_, base := startTestDaemon(t)
	if code := getJSON(t, base+"/api/tasks/no-such-task/status", nil); code != http.StatusNotFound {
		t.Fatalf("status code = %d, want 404", code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	d, base := startTestDaemon(t)
	testsupport.WriteLines(t, filepath.Join(d.cfg.Paths.DataDir, "solo.tst"), "capture")

	var accepted runResponse
	if code := postJSON(t, base+"/api/scan", runRequest{}, &accepted); code != http.StatusAccepted {
		t.Fatalf("status code = %d", code)
	}
	waitForRun(t, base, accepted.TaskID)

	var hist historyResponse
	if code := getJSON(t, base+"/api/history", &hist); code != http.StatusOK {
		t.Fatalf("history code = %d", code)
	}
	if len(hist.Runs) != 1 || hist.Runs[0].Kind != history.KindScan {
		t.Fatalf("history = %+v", hist.Runs)
	}
}

func TestFoldersEndpoint(t *testing.T) {
	d, base := startTestDaemon(t)
	testsupport.WriteLines(t, filepath.Join(d.cfg.Paths.DataDir, "batch1", "sub", "a.txt"), "x")
	testsupport.WriteLines(t, filepath.Join(d.cfg.Paths.DataDir, "batch1", "b.txt"), "x")

	var folders foldersResponse
	if code := getJSON(t, base+"/api/folders", &folders); code != http.StatusOK {
		t.Fatalf("folders code = %d", code)
	}
	if len(folders.Folders) != 1 {
		t.Fatalf("folders = %+v", folders.Folders)
	}
	top := folders.Folders[0]
	if top.Name != "batch1" || top.FileCount != 2 {
		t.Fatalf("top = %+v", top)
	}
	if len(top.Subfolders) != 1 || top.Subfolders[0].FileCount != 1 {
		t.Fatalf("subfolders = %+v", top.Subfolders)
	}
}

func TestSecondInstanceRefused(t *testing.T) {
	d, _ := startTestDaemon(t)

	other, err := New(d.cfg, d.store, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := other.Start(context.Background()); err == nil {
		other.Stop()
		t.Fatal("second daemon instance must be refused")
	}
}
