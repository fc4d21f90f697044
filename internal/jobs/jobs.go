// Package jobs runs background sync and analysis jobs for the HTTP server and keeps their polled state
package jobs

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/google/uuid"
)

// Job kinds
const (
	KindSync     = "sync"
	KindAnalysis = "analysis"
)

// Func is the body of a job. It logs to logger, whose lines become the task output, and returns summary stats.
type Func func(ctx context.Context, logger *log.Logger) (map[string]string, error)

// RunRecorder persists run history. [repositories.RunRepository] implements it.
type RunRecorder interface {
	Start(ctx context.Context, kind string) (*models.Run, error)
	Finish(ctx context.Context, id string, status models.TaskStatus, message string) error
}

type job struct {
	task   models.Task
	output *shared.LineBuffer
}

// Registry starts jobs in goroutines and tracks them by task ID. Jobs cannot be cancelled.
type Registry struct {
	mu     sync.RWMutex
	jobs   map[string]*job
	runs   RunRecorder
	logger *log.Logger
	wg     sync.WaitGroup
	now    func() time.Time
}

// NewRegistry creates a Registry. runs may be nil.
func NewRegistry(runs RunRecorder, logger *log.Logger) *Registry {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Registry{
		jobs:   map[string]*job{},
		runs:   runs,
		logger: logger,
		now:    time.Now,
	}
}

// Start launches fn in the background and returns its task ID, {kind}_{YYYYMMDD_HHMMSS}.
func (r *Registry) Start(kind string, fn Func) string {
	r.mu.Lock()
	started := r.now()
	id := fmt.Sprintf("%s_%s", kind, started.Format("20060102_150405"))
	if _, taken := r.jobs[id]; taken {
		id = fmt.Sprintf("%s_%s", id, uuid.NewString()[:8])
	}
	j := &job{
		task: models.Task{
			ID:        id,
			Kind:      kind,
			Status:    models.TaskRunning,
			StartedAt: started.UTC(),
		},
		output: &shared.LineBuffer{},
	}
	r.jobs[id] = j
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(j, fn)
	return id
}

func (r *Registry) run(j *job, fn Func) {
	defer r.wg.Done()

	ctx := context.Background()
	logger := shared.NewPlainLogger(j.output)
	logger.Info("job started", "task", j.task.ID)

	var runID string
	if r.runs != nil {
		if run, err := r.runs.Start(ctx, j.task.Kind); err != nil {
			r.logger.Warn("failed to record run", "task", j.task.ID, "error", err)
		} else {
			runID = run.ID
		}
	}

	defer func() {
		if p := recover(); p != nil {
			msg := fmt.Sprintf("job panicked: %v", p)
			logger.Error(msg)
			r.finish(j, models.TaskError, nil, msg, nil)
		}
		if runID != "" {
			task, _ := r.Get(j.task.ID)
			if err := r.runs.Finish(ctx, runID, task.Status, task.Error); err != nil {
				r.logger.Warn("failed to record run result", "task", j.task.ID, "error", err)
			}
		}
	}()

	stats, err := fn(ctx, logger)
	if err != nil {
		logger.Error("job failed", "error", err)
		code := 1
		r.finish(j, models.TaskFailed, stats, err.Error(), &code)
		return
	}
	logger.Info("job completed")
	code := 0
	r.finish(j, models.TaskCompleted, stats, "", &code)
}

func (r *Registry) finish(j *job, status models.TaskStatus, stats map[string]string, msg string, code *int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	done := r.now().UTC()
	j.task.Status = status
	j.task.CompletedAt = &done
	j.task.Stats = stats
	j.task.Error = msg
	j.task.ReturnCode = code
}

// Get returns a snapshot of a task including the output captured so far.
func (r *Registry) Get(id string) (models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[id]
	if !ok {
		return models.Task{}, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	return j.snapshot(), nil
}

// List returns all tasks, newest first.
func (r *Registry) List() []models.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Task, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j.snapshot())
	}
	slices.SortFunc(out, func(a, b models.Task) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return 1
		}
		if a.ID > b.ID {
			return -1
		}
		return 0
	})
	return out
}

// Running reports whether any job of kind is still running.
func (r *Registry) Running(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, j := range r.jobs {
		if j.task.Kind == kind && j.task.Status == models.TaskRunning {
			return true
		}
	}
	return false
}

// Wait blocks until every started job has finished.
func (r *Registry) Wait() {
	r.wg.Wait()
}

// snapshot copies the task. Caller holds at least a read lock.
func (j *job) snapshot() models.Task {
	t := j.task
	t.Output = j.output.Lines()
	t.Stats = maps.Clone(j.task.Stats)
	return t
}
