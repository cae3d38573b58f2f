package task

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Status is the lifecycle state of a Task.
type Status string

const (
	StatusSubmitted    Status = "submitted"
	StatusQueued       Status = "queued"
	StatusInProgress   Status = "in_progress"
	StatusNotFound     Status = "not_found"
	StatusUnauthorized Status = "unauthorized"
	StatusComplete     Status = "complete"
	StatusError        Status = "error"
)

// Terminal reports whether no further transition occurs from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusNotFound, StatusUnauthorized, StatusComplete, StatusError:
		return true
	}
	return false
}

// Observer receives (status, progress) on every poller iteration. Progress is
// the last value reported by the server, 0 when none has been reported yet.
// Observers must not block; they are called from the poll loop.
type Observer func(status Status, progress float64)

// Task is one submitted job. It is created by the client on a 202 submission
// response and advanced exclusively by the poller; once the status is
// terminal it no longer changes. All accessors are safe for concurrent use
// with the poller.
type Task struct {
	mu sync.RWMutex

	service     string
	id          string
	submittedAt string

	status   Status
	success  *bool
	progress *float64
	result   any
	errBody  any
}

// New returns a Task in the submitted state.
func New(service, id, submittedAt string) *Task {
	return &Task{
		service:     service,
		id:          id,
		submittedAt: submittedAt,
		status:      StatusSubmitted,
	}
}

// Service is the logical backend name derived from the submission URI.
func (t *Task) Service() string { return t.service }

// ID is the opaque identifier assigned by the server.
func (t *Task) ID() string { return t.id }

// SubmittedAt is the server-reported submission timestamp, unparsed.
func (t *Task) SubmittedAt() string { return t.submittedAt }

func (t *Task) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Success reports the terminal outcome. The second value is false while the
// outcome is undetermined.
func (t *Task) Success() (bool, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.success == nil {
		return false, false
	}
	return *t.success, true
}

// Progress returns the last server-reported progress in [0,1]. The second
// value is false when the server has not reported progress yet.
func (t *Task) Progress() (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.progress == nil {
		return 0, false
	}
	return *t.progress, true
}

// Result is the job result, non-nil only after a confirmed success.
func (t *Task) Result() any {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.result
}

// Err is the server-reported error detail, if any.
func (t *Task) Err() any {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.errBody
}

// SetRunning records a queued/in_progress poll response. It is a no-op once
// the task is terminal.
func (t *Task) SetRunning(status Status, progress *float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Terminal() {
		return
	}
	t.status = status
	t.progress = progress
}

// CompleteSuccess records a confirmed success with its fetched result.
func (t *Task) CompleteSuccess(result any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Terminal() {
		return
	}
	one := 1.0
	yes := true
	t.status = StatusComplete
	t.progress = &one
	t.success = &yes
	t.result = result
}

// CompleteFailure records a job that finished unsuccessfully (HTTP 200 but
// the job's own fields report failure).
func (t *Task) CompleteFailure(errBody any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Terminal() {
		return
	}
	no := false
	t.status = StatusComplete
	t.success = &no
	t.errBody = errBody
}

// Terminate moves the task to a terminal status outside the complete pair:
// not_found, unauthorized or error. success may be nil when the outcome is
// not determined by the server (body-reported not_found).
func (t *Task) Terminate(status Status, success *bool, errBody any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Terminal() {
		return
	}
	t.status = status
	t.success = success
	if errBody != nil {
		t.errBody = errBody
	}
}

// FailedError is returned by WaitForResult for tasks that did not succeed.
type FailedError struct {
	Status Status
	Detail any
}

func (e *FailedError) Error() string {
	if e.Detail == nil {
		return fmt.Sprintf("task failed with status %s and no message", e.Status)
	}
	return fmt.Sprintf("task failed with status %s and error: %v", e.Status, e.Detail)
}

// WaitForResult blocks until the task reaches a terminal state, checking
// every pollInterval. It performs no HTTP calls itself; some other actor
// (the poller) must be advancing the task. On a terminal task it returns
// immediately: the result when the task succeeded, a *FailedError otherwise.
func (t *Task) WaitForResult(ctx context.Context, pollInterval time.Duration) (any, error) {
	for !t.Status().Terminal() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	if ok, _ := t.Success(); !ok {
		return nil, &FailedError{Status: t.Status(), Detail: t.Err()}
	}
	return t.Result(), nil
}

// Snapshot is an immutable copy of the task fields for rendering.
type Snapshot struct {
	Service     string   `json:"service" yaml:"service"`
	TaskID      string   `json:"task_id" yaml:"task_id"`
	SubmittedAt string   `json:"submitted_at" yaml:"submitted_at"`
	Status      Status   `json:"status" yaml:"status"`
	Success     *bool    `json:"success,omitempty" yaml:"success,omitempty"`
	Progress    *float64 `json:"progress,omitempty" yaml:"progress,omitempty"`
	Result      any      `json:"result,omitempty" yaml:"result,omitempty"`
	Error       any      `json:"error,omitempty" yaml:"error,omitempty"`
}

func (t *Task) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snap := Snapshot{
		Service:     t.service,
		TaskID:      t.id,
		SubmittedAt: t.submittedAt,
		Status:      t.status,
		Result:      t.result,
		Error:       t.errBody,
	}
	if t.success != nil {
		v := *t.success
		snap.Success = &v
	}
	if t.progress != nil {
		v := *t.progress
		snap.Progress = &v
	}
	return snap
}
