package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/semaphore"

	"github.com/dockhand/dockhand/internal/compose"
	"github.com/dockhand/dockhand/internal/config"
)

// ComposeRunner is the slice of the compose runner the scheduler needs.
type ComposeRunner interface {
	Up(ctx context.Context, composePath string) (compose.Result, error)
	Down(ctx context.Context, composePath string) (compose.Result, error)
}

// Submission pairs a service with the job created for it, so bulk operations
// stay individually attributable.
type Submission struct {
	Name  string `json:"name"`
	JobID string `json:"job_id"`
}

// Scheduler creates jobs and dispatches their compose invocations on
// background goroutines gated by a weighted semaphore, so the number of
// concurrent docker processes stays bounded.
type Scheduler struct {
	baseCtx  context.Context
	registry *Registry
	runner   ComposeRunner
	table    *config.Table
	workers  *semaphore.Weighted
	logger   *slog.Logger
}

// NewScheduler builds a scheduler. ctx bounds the lifetime of every job it
// dispatches; cancel it to stop accepting execution work at shutdown.
func NewScheduler(ctx context.Context, registry *Registry, runner ComposeRunner, table *config.Table, workers int64, logger *slog.Logger) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		baseCtx:  ctx,
		registry: registry,
		runner:   runner,
		table:    table,
		workers:  semaphore.NewWeighted(workers),
		logger:   logger,
	}
}

// Submit creates a job for the service and returns its id immediately. The
// compose invocation happens in the background; its outcome lands on the job
// record, never back on the caller.
func (s *Scheduler) Submit(svc config.Service, action Action) string {
	job := s.registry.Create(svc.Name, action)
	composePath := s.table.ComposePath(svc)
	s.logger.Info("job submitted", "job_id", job.ID, "service", svc.Name, "action", string(action))

	go s.execute(job.ID, action, composePath)
	return job.ID
}

// SubmitAll submits one job per configured service and reports every
// (service, job id) pair. Failures stay independent per service.
func (s *Scheduler) SubmitAll(action Action) []Submission {
	services := s.table.Services()
	subs := make([]Submission, 0, len(services))
	for _, svc := range services {
		subs = append(subs, Submission{Name: svc.Name, JobID: s.Submit(svc, action)})
	}
	return subs
}

func (s *Scheduler) execute(jobID string, action Action, composePath string) {
	if err := s.workers.Acquire(s.baseCtx, 1); err != nil {
		s.registry.Finish(jobID, StatusFailed, fmt.Sprintf("not executed: %v", err))
		return
	}
	defer s.workers.Release(1)

	if !s.registry.MarkRunning(jobID) {
		return
	}

	var (
		res compose.Result
		err error
	)
	if action == ActionStop {
		res, err = s.runner.Down(s.baseCtx, composePath)
	} else {
		res, err = s.runner.Up(s.baseCtx, composePath)
	}

	switch {
	case err != nil:
		s.registry.Finish(jobID, StatusFailed, err.Error())
		s.logger.Warn("job failed", "job_id", jobID, "err", err)
	case !res.OK():
		s.registry.Finish(jobID, StatusFailed, res.Output)
		s.logger.Warn("job failed", "job_id", jobID, "exit_code", res.ExitCode)
	default:
		s.registry.Finish(jobID, StatusDone, res.Output)
		s.logger.Info("job finished", "job_id", jobID)
	}
}
