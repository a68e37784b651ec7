package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/entregaops/deliverypay/internal/store"
)

// RunTimeout is the maximum duration for one processing run.
var RunTimeout = 10 * time.Minute

// runRetention is how long finished runs stay queryable before being pruned.
const runRetention = 1 * time.Hour

// ErrRunNotFound is returned when a run ID is unknown or already pruned.
var ErrRunNotFound = errors.New("run not found")

// RunStatus is the lifecycle state of a processing run.
type RunStatus string

const (
	RunPending  RunStatus = "pending"
	RunRunning  RunStatus = "running"
	RunComplete RunStatus = "complete"
	RunFailed   RunStatus = "failed"
)

// Run is the externally visible state of one processing run.
type Run struct {
	ID         string     `json:"id"`
	FileName   string     `json:"file_name"`
	Status     RunStatus  `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Result     *Result    `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Service owns the asynchronous run lifecycle: it admits uploads through the
// run limiter, executes the pipeline in the background, and keeps finished
// runs queryable for a retention window.
type Service struct {
	pipeline *Pipeline
	limiter  *RunLimiter
	log      *slog.Logger

	mu   sync.RWMutex
	runs map[string]*Run
}

func NewService(st store.Store, cfg PipelineConfig, limiter *RunLimiter, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if limiter == nil {
		limiter = NewRunLimiter(0, 0)
	}
	return &Service{
		pipeline: NewPipeline(st, cfg, log),
		limiter:  limiter,
		log:      log,
		runs:     make(map[string]*Run),
	}
}

// StartRun admits a new processing run and returns its ID. The caller's ctx
// only covers admission; the run itself executes in the background under its
// own timeout.
func (s *Service) StartRun(ctx context.Context, fileName string, data []byte) (string, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	run := &Run{
		ID:        uuid.NewString(),
		FileName:  fileName,
		Status:    RunPending,
		StartedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.pruneLocked()
	s.runs[run.ID] = run
	s.mu.Unlock()

	go s.execute(run.ID, fileName, data)
	return run.ID, nil
}

// GetRun returns a copy of the run's current state.
func (s *Service) GetRun(id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return Run{}, ErrRunNotFound
	}
	return *run, nil
}

// LimiterStatus exposes run-slot usage for health reporting.
func (s *Service) LimiterStatus() RunLimiterStatus {
	return s.limiter.Status()
}

// Drain waits for in-flight runs to finish, for graceful shutdown.
func (s *Service) Drain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) execute(runID, fileName string, data []byte) {
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(context.Background(), RunTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("processing run panicked",
				slog.String("run_id", runID),
				slog.Any("panic", r))
			s.finish(runID, nil, fmt.Errorf("internal error: %v", r))
		}
	}()

	s.setStatus(runID, RunRunning)
	s.log.Info("processing run started",
		slog.String("run_id", runID),
		slog.String("file", fileName))

	result, err := s.pipeline.Run(ctx, fileName, data)
	s.finish(runID, result, err)
}

func (s *Service) setStatus(runID string, status RunStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[runID]; ok {
		run.Status = status
	}
}

func (s *Service) finish(runID string, result *Result, err error) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return
	}
	run.FinishedAt = &now
	if err != nil {
		run.Status = RunFailed
		run.Error = err.Error()

		var batchErr *store.BatchError
		if errors.As(err, &batchErr) {
			s.log.Error("processing run failed mid-batch",
				slog.String("run_id", runID),
				slog.String("table", batchErr.Table),
				slog.Int("batch", batchErr.Batch),
				slog.Int("rows_committed", batchErr.RowsCommitted),
				slog.Any("error", batchErr.Err))
		} else {
			s.log.Error("processing run failed",
				slog.String("run_id", runID),
				slog.Any("error", err))
		}
		return
	}

	run.Status = RunComplete
	run.Result = result
	s.log.Info("processing run complete",
		slog.String("run_id", runID),
		slog.Int("deliveries", result.InsertedDeliveries),
		slog.Int("payments", result.InsertedPayments))
}

// pruneLocked drops finished runs older than the retention window. Caller
// holds s.mu.
func (s *Service) pruneLocked() {
	cutoff := time.Now().UTC().Add(-runRetention)
	for id, run := range s.runs {
		if run.FinishedAt != nil && run.FinishedAt.Before(cutoff) {
			delete(s.runs, id)
		}
	}
}
