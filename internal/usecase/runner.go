package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"TrendPress/internal/domain"
)

// ErrAlreadyRunning is returned when a run is requested while another is active.
var ErrAlreadyRunning = errors.New("pipeline already running")

// PipelineRunner executes a single pipeline pass.
type PipelineRunner interface {
	Run(ctx context.Context) (domain.RunSummary, error)
}

// RunStatus reports the runner state.
type RunStatus struct {
	Running    bool       `json:"is_running"`
	LastRun    *time.Time `json:"last_run"`
	LastStatus string     `json:"last_status,omitempty"`
}

// Runner allows at most one pipeline execution at a time.
type Runner struct {
	pipeline PipelineRunner
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool
	lastRun *time.Time
	status  string
	last    *domain.RunSummary
	wg      sync.WaitGroup
}

// NewRunner guards pipeline with a single-flight lock.
func NewRunner(pipeline PipelineRunner, log *slog.Logger) *Runner {
	return &Runner{pipeline: pipeline, logger: log, now: time.Now}
}

// Start launches a run in the background and returns its start time.
func (r *Runner) Start(ctx context.Context) (time.Time, error) {
	startedAt, err := r.acquire()
	if err != nil {
		return time.Time{}, err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		_, _ = r.execute(ctx)
	}()
	return startedAt, nil
}

// RunNow runs the pipeline synchronously unless another run is active.
func (r *Runner) RunNow(ctx context.Context) (domain.RunSummary, error) {
	if _, err := r.acquire(); err != nil {
		return domain.RunSummary{}, err
	}
	return r.execute(ctx)
}

// Wait blocks until background runs have finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Status returns whether a run is active and how the last one ended.
func (r *Runner) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RunStatus{Running: r.running, LastRun: r.lastRun, LastStatus: r.status}
}

// LastSummary returns the summary of the last finished run.
func (r *Runner) LastSummary() (domain.RunSummary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return domain.RunSummary{}, false
	}
	return *r.last, true
}

func (r *Runner) acquire() (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return time.Time{}, ErrAlreadyRunning
	}
	if r.pipeline == nil {
		return time.Time{}, fmt.Errorf("pipeline is not configured")
	}
	r.running = true
	startedAt := r.now()
	r.lastRun = &startedAt
	r.status = "running"
	return startedAt, nil
}

func (r *Runner) execute(ctx context.Context) (domain.RunSummary, error) {
	summary, err := r.pipeline.Run(ctx)

	status := "success"
	switch {
	case err != nil:
		status = "error: " + err.Error()
	case summary.Aborted != "":
		status = "aborted: " + summary.Aborted
	}

	r.mu.Lock()
	r.running = false
	r.status = status
	r.last = &summary
	r.mu.Unlock()

	if err != nil && r.logger != nil {
		r.logger.Error("pipeline run failed", "error", err)
	}
	return summary, err
}
