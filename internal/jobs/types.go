package jobs

import (
	"context"
	"sync"
	"time"
)

// Type represents job type.
type Type string

const (
	TypeResolve Type = "resolve"
	TypeList    Type = "list"
	TypeProbe   Type = "probe"
	TypeRead    Type = "read"
	TypeTask    Type = "task"
)

// Status represents job status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Func is the body of a job. It must return promptly once ctx is done.
type Func func(ctx context.Context, j *Job) error

// Job holds a single unit of background work.
type Job struct {
	// immutable fields
	ID     int64
	Type   Type
	Name   string
	Target string // URL the job operates on, may be empty
	fn     Func

	// state
	mu          sync.RWMutex
	Status      Status
	Total       int
	Done        int
	Message     string
	Error       string
	EnqueuedAt  time.Time
	StartedAt   time.Time
	CompletedAt time.Time

	// cancellation
	ctx    context.Context
	cancel context.CancelFunc
	// finished is closed when the job leaves the running state.
	finished chan struct{}
}

// SetProgress records done/total for observers.
func (j *Job) SetProgress(done, total int) {
	j.mu.Lock()
	j.Done, j.Total = done, total
	j.mu.Unlock()
}

// SetMessage records a free-form status line.
func (j *Job) SetMessage(msg string) {
	j.mu.Lock()
	j.Message = msg
	j.mu.Unlock()
}

// Cancel cancels the job's context. Pending jobs are skipped by the worker.
func (j *Job) Cancel() {
	if j.cancel != nil {
		j.cancel()
	}
}

// Wait blocks until the job finished or ctx is done.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.finished:
		j.mu.RLock()
		defer j.mu.RUnlock()
		if j.Status == StatusFailed {
			return jobError(j.Error)
		}
		if j.Status == StatusCanceled {
			return context.Canceled
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type jobError string

func (e jobError) Error() string { return string(e) }

// Snapshot returns a copy of important fields for UI.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return JobSnapshot{
		ID:          j.ID,
		Type:        j.Type,
		Name:        j.Name,
		Target:      j.Target,
		Status:      j.Status,
		Total:       j.Total,
		Done:        j.Done,
		Message:     j.Message,
		Error:       j.Error,
		EnqueuedAt:  j.EnqueuedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}

// JobSnapshot is a read-only view for UI.
type JobSnapshot struct {
	ID          int64
	Type        Type
	Name        string
	Target      string
	Status      Status
	Total       int
	Done        int
	Message     string
	Error       string
	EnqueuedAt  time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

// Finished reports whether the job reached a terminal status.
func (s JobSnapshot) Finished() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed || s.Status == StatusCanceled
}
