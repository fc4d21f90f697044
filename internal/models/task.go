package models

import "time"

// TaskStatus is the lifecycle state of a background job.
type TaskStatus string

const (
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	// TaskFailed means the job ran and returned an error.
	TaskFailed TaskStatus = "failed"
	// TaskError means the job panicked or could not start.
	TaskError TaskStatus = "error"
)

// Done reports whether the status is terminal.
func (s TaskStatus) Done() bool {
	return s != TaskRunning && s != ""
}

// Task is the polled view of a job on the server.
type Task struct {
	ID          string            `json:"task_id"`
	Kind        string            `json:"kind"`
	Status      TaskStatus        `json:"status"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Output      []string          `json:"output"`
	Stats       map[string]string `json:"stats,omitempty"`
	Error       string            `json:"error,omitempty"`
	ReturnCode  *int              `json:"return_code,omitempty"`
}

// TaskStarted is returned when a job is launched.
type TaskStarted struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SyncRequest is the body accepted by POST /sync.
type SyncRequest struct {
	SkipSync  bool `json:"skip_sync"`
	SyncOnly  bool `json:"sync_only"`
	AllMonths bool `json:"all_months"`
}

// Run records one sync or analysis run in the history table.
type Run struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	Status     TaskStatus `json:"status"`
	Message    string     `json:"message,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
