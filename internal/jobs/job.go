package jobs

import "time"

// Action is the operation a job performs against a service group.
type Action string

const (
	ActionStart Action = "start"
	ActionStop  Action = "stop"
)

// Status is the lifecycle state of a job. Transitions only move forward:
// pending -> running -> done|failed. Terminal states are final.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Terminal reports whether the status is done or failed.
func (s Status) Terminal() bool { return s == StatusDone || s == StatusFailed }

// Job records the lifecycle of one start/stop operation. Result stays empty
// until the job reaches a terminal state, where it holds the captured compose
// output or the failure diagnostic.
type Job struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Action     Action     `json:"action"`
	Status     Status     `json:"status"`
	Result     string     `json:"result,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
