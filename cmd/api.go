package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotsync/internal/analysis"
	"github.com/desertthunder/spotsync/internal/jobs"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/repositories"
	"github.com/desertthunder/spotsync/internal/server"
	"github.com/desertthunder/spotsync/internal/services"
	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/desertthunder/spotsync/internal/tasks"
	"github.com/desertthunder/spotsync/internal/ui"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// Serve runs the job server until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if port := cmd.Int("port"); port > 0 {
		r.config.Server.Port = port
	}

	db, err := r.database()
	if err != nil {
		return err
	}
	store := repositories.NewSnapshotRepository(db)

	root, _ := os.Getwd()

	registry := jobs.NewRegistry(repositories.NewRunRepository(db), shared.WithLogger(r.logger, "component", "jobs"))
	api := server.NewAPI(server.APIOptions{
		Library:     store,
		Jobs:        registry,
		Sync:        r.syncJob,
		Analysis:    r.analysisJob,
		ProjectRoot: root,
		Logger:      r.logger,
	})

	handler := server.New(api, r.config.Server.AllowedOrigins, shared.WithLogger(r.logger, "component", "http"))
	return server.ListenAndServe(ctx, r.config.Server.Addr(), handler, r.logger)
}

// syncJob is the body of a POST /sync job. It takes the same lock as the CLI.
func (r *Runner) syncJob(ctx context.Context, req models.SyncRequest, logger *log.Logger) (map[string]string, error) {
	lock, err := shared.AcquireLock(r.config.Sync.LockPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release lock", "error", err)
		}
	}()

	return r.runPipeline(ctx, logger, tasks.RunOptions{
		SkipSync:  req.SkipSync,
		SyncOnly:  req.SyncOnly,
		AllMonths: req.AllMonths,
	})
}

// analysisJob is the body of a POST /analysis job.
func (r *Runner) analysisJob(ctx context.Context, logger *log.Logger) (map[string]string, error) {
	report, err := r.analyze(ctx, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("library analysed",
		"tracks", report.Stats.TotalTracks,
		"artists", report.Stats.TotalArtists,
		"playlists", report.Stats.TotalPlaylists,
		"monthly", report.MonthlyPlaylistsCount,
	)
	for _, g := range report.GenreCounts {
		logger.Info(g.Genre, "tracks", g.Tracks)
	}
	return report.Summary(), nil
}

func (r *Runner) analyze(ctx context.Context, logger *log.Logger) (*analysis.Report, error) {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	engine, err := r.engine(ctx, logger, false)
	if err != nil {
		return nil, err
	}

	report := analysis.Analyze(snap, engine.Namer())
	return &report, nil
}

func (r *Runner) jobClient(cmd *cli.Command) *services.JobClient {
	base := cmd.String("server")
	if base == "" {
		base = r.localServer()
	}
	return services.NewJobClient(base, r.httpClient)
}

// Watch follows a task in the terminal monitor and fails when the task did not complete.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	taskID := cmd.StringArg("task-id")
	if taskID == "" {
		return fmt.Errorf("%w: task-id", shared.ErrMissingArgument)
	}

	model := ui.NewModel(ctx, r.jobClient(cmd), taskID, cmd.Duration("interval"))
	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(r.output))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("monitor failed: %w", err)
	}

	if err := model.Err(); err != nil {
		return err
	}
	task := model.Task()
	if task == nil || !task.Status.Done() {
		return nil
	}
	if task.Status != models.TaskCompleted {
		return fmt.Errorf("task %s %s: %s", task.ID, task.Status, task.Error)
	}
	return nil
}

// RemoteSync starts a sync job on the server and prints its task id.
func (r *Runner) RemoteSync(ctx context.Context, cmd *cli.Command) error {
	started, err := r.jobClient(cmd).StartSync(ctx, models.SyncRequest{
		SkipSync:  cmd.Bool("skip-sync"),
		SyncOnly:  cmd.Bool("sync-only"),
		AllMonths: cmd.Bool("all-months"),
	})
	if err != nil {
		return err
	}
	return r.writeStarted(started)
}

// RemoteAnalysis starts an analysis job on the server and prints its task id.
func (r *Runner) RemoteAnalysis(ctx context.Context, cmd *cli.Command) error {
	started, err := r.jobClient(cmd).StartAnalysis(ctx)
	if err != nil {
		return err
	}
	return r.writeStarted(started)
}

func (r *Runner) writeStarted(started *models.TaskStarted) error {
	r.logger.Info(started.Message, "task_id", started.TaskID)
	r.writePlain("%s\n", started.TaskID)
	return nil
}

// RemoteTasks lists the jobs the server knows about, newest first.
func (r *Runner) RemoteTasks(ctx context.Context, cmd *cli.Command) error {
	list, err := r.jobClient(cmd).Tasks(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(list, cmd.Bool("pretty"))
	}

	if len(list) == 0 {
		return r.writePlain("No tasks\n")
	}
	for _, t := range list {
		started := "-"
		if !t.StartedAt.IsZero() {
			started = humanize.RelTime(t.StartedAt, time.Now(), "ago", "from now")
		}
		r.writePlain("%-32s %-10s %s\n", t.ID, t.Status, started)
	}
	return nil
}
