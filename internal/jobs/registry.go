package jobs

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultRetention is how many jobs the registry keeps in memory before it
// starts pruning the oldest terminal records.
const DefaultRetention = 256

// Store persists job records beyond process memory. Implementations must be
// safe for concurrent use. Persistence is best effort: the registry logs and
// carries on when a store call fails.
type Store interface {
	SaveJob(job Job) error
	UpdateJob(job Job) error
	GetJob(id string) (Job, bool, error)
}

// Registry is the in-memory table of jobs, the only shared mutable state in
// the system. All access goes through the lock; callers only ever receive
// copies of job records.
type Registry struct {
	mu        sync.RWMutex
	jobs      map[string]*Job
	order     []string // creation order, for retention pruning
	retention int

	store  Store // optional
	logger *slog.Logger
}

func NewRegistry(store Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		jobs:      make(map[string]*Job),
		retention: DefaultRetention,
		store:     store,
		logger:    logger,
	}
}

// SetRetention bounds the number of jobs kept in memory. In-flight jobs are
// never pruned regardless of the limit.
func (r *Registry) SetRetention(n int) {
	if n < 1 {
		return
	}
	r.mu.Lock()
	r.retention = n
	r.pruneLocked()
	r.mu.Unlock()
}

// Create registers a new pending job and returns a copy of it.
func (r *Registry) Create(name string, action Action) Job {
	job := &Job{
		ID:        uuid.New().String(),
		Name:      name,
		Action:    action,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.order = append(r.order, job.ID)
	r.pruneLocked()
	snapshot := *job
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.SaveJob(snapshot); err != nil {
			r.logger.Warn("persist job", "job_id", snapshot.ID, "err", err)
		}
	}
	return snapshot
}

// Get returns a copy of the job. Unknown ids are a normal outcome, reported
// through the bool. Jobs pruned from memory (or from a previous run) are
// looked up in the store.
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.RLock()
	job, ok := r.jobs[id]
	if ok {
		snapshot := *job
		r.mu.RUnlock()
		return snapshot, true
	}
	r.mu.RUnlock()

	if r.store == nil {
		return Job{}, false
	}
	job2, ok, err := r.store.GetJob(id)
	if err != nil {
		r.logger.Warn("read job from store", "job_id", id, "err", err)
		return Job{}, false
	}
	return job2, ok
}

// Len returns the number of jobs currently held in memory.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// MarkRunning transitions a pending job to running. It reports false when the
// job is unknown or already past pending.
func (r *Registry) MarkRunning(id string) bool {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if !ok || job.Status != StatusPending {
		r.mu.Unlock()
		return false
	}
	now := time.Now().UTC()
	job.Status = StatusRunning
	job.StartedAt = &now
	snapshot := *job
	r.mu.Unlock()

	r.persistUpdate(snapshot)
	return true
}

// Finish moves a non-terminal job to done or failed and finalizes its result.
// It reports false for unknown jobs, jobs already terminal, or a status that
// is not terminal.
func (r *Registry) Finish(id string, status Status, result string) bool {
	if !status.Terminal() {
		return false
	}
	r.mu.Lock()
	job, ok := r.jobs[id]
	if !ok || job.Status.Terminal() {
		r.mu.Unlock()
		return false
	}
	now := time.Now().UTC()
	job.Status = status
	job.Result = result
	job.FinishedAt = &now
	snapshot := *job
	r.mu.Unlock()

	r.persistUpdate(snapshot)
	return true
}

func (r *Registry) persistUpdate(job Job) {
	if r.store == nil {
		return
	}
	if err := r.store.UpdateJob(job); err != nil {
		r.logger.Warn("persist job update", "job_id", job.ID, "err", err)
	}
}

// pruneLocked drops the oldest terminal jobs beyond the retention limit.
// Caller must hold the write lock.
func (r *Registry) pruneLocked() {
	if len(r.order) <= r.retention {
		return
	}
	excess := len(r.order) - r.retention
	keep := make([]string, 0, r.retention)
	for _, id := range r.order {
		job := r.jobs[id]
		if excess > 0 && job != nil && job.Status.Terminal() {
			delete(r.jobs, id)
			excess--
			continue
		}
		keep = append(keep, id)
	}
	r.order = keep
}
