package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"centrifuge/internal/config"
	"centrifuge/internal/history"
	"centrifuge/internal/logging"
	"centrifuge/internal/services"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

type runRequest struct {
	Path string `json:"path"`
}

type runResponse struct {
	TaskID string `json:"task_id"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
}

type historyResponse struct {
	Runs []*history.Run `json:"runs"`
}

type logsResponse struct {
	Logs []history.LogEntry `json:"logs"`
}

type folderInfo struct {
	Name       string       `json:"name"`
	Path       string       `json:"path"`
	FileCount  int          `json:"file_count"`
	Subfolders []folderInfo `json:"subfolders,omitempty"`
}

type foldersResponse struct {
	Folders []folderInfo `json:"folders"`
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	mux := http.NewServeMux()
	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}

	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/scan", srv.handleScan)
	mux.HandleFunc("/api/sort", srv.handleSort)
	mux.HandleFunc("/api/history", srv.handleHistory)
	mux.HandleFunc("/api/folders", srv.handleFolders)
	mux.HandleFunc("/api/tasks/", srv.handleTask)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status())
}

func (s *apiServer) handleScan(w http.ResponseWriter, r *http.Request) {
	s.handleRun(w, r, history.KindScan)
}

func (s *apiServer) handleSort(w http.ResponseWriter, r *http.Request) {
	s.handleRun(w, r, history.KindSort)
}

func (s *apiServer) handleRun(w http.ResponseWriter, r *http.Request, kind string) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	target, err := s.resolveTarget(req.Path)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var taskID string
	if kind == history.KindScan {
		taskID, err = s.daemon.runner.ScanAsync(target)
	} else {
		taskID, err = s.daemon.runner.SortAsync(target)
	}
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			s.writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, runResponse{
		TaskID: taskID,
		Kind:   kind,
		Status: history.StatusRunning,
	})
}

// resolveTarget maps a request path onto the data directory. Relative paths
// are joined to the data dir; absolute paths must already lie inside it.
func (s *apiServer) resolveTarget(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return s.daemon.cfg.Paths.DataDir, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.daemon.cfg.Paths.DataDir, path)
	}
	if !s.daemon.cfg.ContainsData(path) {
		return "", fmt.Errorf("path %q is outside the data directory", path)
	}
	return path, nil
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	runs, err := s.daemon.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, historyResponse{Runs: runs})
}

func (s *apiServer) handleTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}

	run, err := s.daemon.store.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "task not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch sub {
	case "", "status":
		s.writeJSON(w, http.StatusOK, run)
	case "logs":
		logs, err := s.daemon.store.RunLogs(r.Context(), id)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, logsResponse{Logs: logs})
	case "result":
		if run.Status == history.StatusRunning {
			s.writeError(w, http.StatusConflict, "task still running")
			return
		}
		if len(run.Result) == 0 {
			s.writeJSON(w, http.StatusOK, map[string]string{"error": run.Error})
			return
		}
		s.writeJSON(w, http.StatusOK, run.Result)
	default:
		s.writeError(w, http.StatusNotFound, "task not found")
	}
}

func (s *apiServer) handleFolders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	folders, err := listFolders(s.daemon.cfg.Paths.DataDir)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, foldersResponse{Folders: folders})
}

// listFolders returns the two top levels of the data directory, each with a
// recursive file count.
func listFolders(dataDir string) ([]folderInfo, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("read data directory: %w", err)
	}

	folders := make([]folderInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		top := folderInfo{
			Name:      entry.Name(),
			Path:      entry.Name(),
			FileCount: countFiles(filepath.Join(dataDir, entry.Name())),
		}
		children, err := os.ReadDir(filepath.Join(dataDir, entry.Name()))
		if err == nil {
			for _, child := range children {
				if !child.IsDir() {
					continue
				}
				top.Subfolders = append(top.Subfolders, folderInfo{
					Name:      child.Name(),
					Path:      filepath.ToSlash(filepath.Join(entry.Name(), child.Name())),
					FileCount: countFiles(filepath.Join(dataDir, entry.Name(), child.Name())),
				})
			}
		}
		folders = append(folders, top)
	}
	return folders, nil
}

func countFiles(dir string) int {
	count := 0
	_ = filepath.WalkDir(dir, func(_ string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if entry.Type().IsRegular() {
			count++
		}
		return nil
	})
	return count
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
