// Package runner coordinates pipeline executions: it assigns run IDs,
// serializes runs per target folder, records progress in the history store,
// and exposes both synchronous and background execution.
package runner

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"centrifuge/internal/config"
	"centrifuge/internal/fileutil"
	"centrifuge/internal/history"
	"centrifuge/internal/logging"
	"centrifuge/internal/orphans"
	"centrifuge/internal/report"
	"centrifuge/internal/services"
	"centrifuge/internal/sorter"
)

// Runner executes scan and sort runs against the history store.
type Runner struct {
	cfg    *config.Config
	store  *history.Store
	logger *slog.Logger
	extra  []report.Sink
	wg     sync.WaitGroup
}

// New builds a runner. The store is required; the logger may be nil. Any
// extra sinks receive every run's progress messages alongside the logger and
// the history store.
func New(cfg *config.Config, store *history.Store, logger *slog.Logger, sinks ...report.Sink) *Runner {
	return &Runner{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "runner"),
		extra:  sinks,
	}
}

// Scan runs the orphan scanner against root and records the run.
func (r *Runner) Scan(ctx context.Context, root string) (string, *orphans.Result, error) {
	runID, release, err := r.begin(ctx, history.KindScan, root)
	if err != nil {
		return "", nil, err
	}
	defer release()
	result, err := r.runScan(ctx, runID, root)
	return runID, result, err
}

// Sort runs the classification pipeline against root and records the run.
// An empty outputDir sorts into the mirrored results folder for root.
func (r *Runner) Sort(ctx context.Context, root, outputDir string) (string, *sorter.Outcome, error) {
	runID, release, err := r.begin(ctx, history.KindSort, root)
	if err != nil {
		return "", nil, err
	}
	defer release()
	outcome, err := r.runSort(ctx, runID, root, outputDir)
	return runID, outcome, err
}

// ScanAsync starts an orphan scan in the background and returns its run ID
// immediately. The run's outcome is observable through the history store.
func (r *Runner) ScanAsync(root string) (string, error) {
	runID, release, err := r.begin(context.Background(), history.KindScan, root)
	if err != nil {
		return "", err
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer release()
		_, _ = r.runScan(context.Background(), runID, root)
	}()
	return runID, nil
}

// SortAsync starts a classification run in the background and returns its
// run ID immediately.
func (r *Runner) SortAsync(root string) (string, error) {
	runID, release, err := r.begin(context.Background(), history.KindSort, root)
	if err != nil {
		return "", err
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer release()
		_, _ = r.runSort(context.Background(), runID, root, "")
	}()
	return runID, nil
}

// Wait blocks until all background runs have finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// begin serializes runs per target folder and opens the history record.
func (r *Runner) begin(ctx context.Context, kind, root string) (string, func(), error) {
	release, err := r.acquireLock(root)
	if err != nil {
		return "", nil, err
	}
	runID := uuid.NewString()
	if _, err := r.store.StartRun(ctx, runID, kind, root); err != nil {
		release()
		return "", nil, err
	}
	r.logger.Info("run started",
		logging.String("run_id", runID),
		logging.String("kind", kind),
		logging.String("root", root))
	return runID, release, nil
}

func (r *Runner) runScan(ctx context.Context, runID, root string) (*orphans.Result, error) {
	sink := r.sink(ctx, runID)
	scanner := orphans.NewScanner(r.cfg, r.logger, sink)
	result, err := scanner.Scan(ctx, root)
	return result, r.finish(ctx, runID, result, err)
}

func (r *Runner) runSort(ctx context.Context, runID, root, outputDir string) (*sorter.Outcome, error) {
	sink := r.sink(ctx, runID)
	if outputDir == "" {
		outputDir = r.cfg.OutputDirFor(root)
	}
	outcome, err := sorter.New(r.cfg, r.logger, sink).Run(ctx, root, outputDir)
	return outcome, r.finish(ctx, runID, outcome, err)
}

func (r *Runner) sink(ctx context.Context, runID string) report.Sink {
	sinks := []report.Sink{
		report.NewLoggerSink(r.logger),
		r.store.Sink(ctx, runID),
	}
	return report.Multi(append(sinks, r.extra...)...)
}

func (r *Runner) finish(ctx context.Context, runID string, result any, runErr error) error {
	if runErr != nil {
		if err := r.store.FailRun(ctx, runID, runErr); err != nil {
			r.logger.Error("record run failure",
				logging.String("run_id", runID), logging.Error(err))
		}
		return runErr
	}
	if err := r.store.CompleteRun(ctx, runID, result); err != nil {
		r.logger.Error("record run completion",
			logging.String("run_id", runID), logging.Error(err))
		return err
	}
	return nil
}

// acquireLock takes a per-folder file lock so two runs never touch the same
// tree concurrently. The lock file name is derived from the folder path.
func (r *Runner) acquireLock(root string) (func(), error) {
	lockDir := filepath.Join(r.cfg.Paths.LogDir, "locks")
	if err := fileutil.EnsureDir(lockDir); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	digest := sha256.Sum256([]byte(filepath.Clean(root)))
	lockPath := filepath.Join(lockDir, fmt.Sprintf("%x.lock", digest[:8]))
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire folder lock: %w", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrValidation, "runner", "lock",
			fmt.Sprintf("a run is already active for %s", root), nil)
	}
	return func() { _ = lock.Unlock() }, nil
}
