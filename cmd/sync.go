package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotsync/internal/notify"
	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/desertthunder/spotsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Sync runs the pipeline once: sync, plan, apply, then an optional email.
//
// The run holds the sync lock for its whole duration. Log output is captured for the notification body.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	lock, err := shared.AcquireLock(r.config.Sync.LockPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			r.logger.Warn("failed to release lock", "path", lock.Path(), "error", err)
		}
	}()

	captured := &shared.LineBuffer{}
	logger := shared.NewLogger(io.MultiWriter(r.logOutput, captured))
	logger.SetLevel(r.logger.GetLevel())

	opts := tasks.RunOptions{
		SkipSync:  cmd.Bool("skip-sync"),
		SyncOnly:  cmd.Bool("sync-only"),
		AllMonths: cmd.Bool("all-months"),
		Force:     cmd.Bool("force"),
	}

	started := time.Now()
	logger.Info("starting sync", "skip_sync", opts.SkipSync, "sync_only", opts.SyncOnly, "all_months", opts.AllMonths, "force", opts.Force)

	summary, runErr := r.runPipeline(ctx, logger, opts)
	if runErr != nil {
		logger.Error("sync failed", "error", runErr)
	} else {
		logger.Info("sync finished", "duration", summary["duration"])
		r.writeSummary("✓ Sync complete", summary)
	}

	r.sendNotification(notify.Result{
		Summary:  summary,
		Err:      runErr,
		Log:      captured.Lines(),
		Started:  started,
		Finished: time.Now(),
	})
	return runErr
}

// runPipeline runs [tasks.PlaylistEngine.Run] and logs its progress updates.
func (r *Runner) runPipeline(ctx context.Context, logger *log.Logger, opts tasks.RunOptions) (map[string]string, error) {
	engine, err := r.engine(ctx, logger, true)
	if err != nil {
		return nil, err
	}

	progress := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		logProgress(logger, progress)
	}()

	res, err := engine.Run(ctx, opts, progress)
	close(progress)
	<-done

	if res == nil {
		return nil, err
	}
	return res.Summary(), err
}

// logProgress logs updates until the channel is closed. Per-item updates are debug level.
func logProgress(logger *log.Logger, progress <-chan tasks.ProgressUpdate) {
	for u := range progress {
		switch u.Phase {
		case tasks.FetchTracks, tasks.ApplyTarget, tasks.ExportPlaylist:
			logger.Debug(u.Message, "phase", u.Phase)
		default:
			logger.Info(u.Message, "phase", u.Phase)
		}
	}
}

// sendNotification emails the run result. Failures are logged and never fail the run.
func (r *Runner) sendNotification(res notify.Result) {
	mailer := r.notifier()
	if !mailer.Enabled() {
		return
	}
	if err := mailer.Notify(res); err != nil {
		r.logger.Warn("failed to send notification", "error", err)
		return
	}
	r.logger.Info("notification sent", "to", r.config.Email.To)
}

func (r *Runner) writeSummary(title string, summary map[string]string) {
	r.writePlainHeader(title)
	for _, k := range slices.Sorted(maps.Keys(summary)) {
		r.writePlain("%-20s %s\n", strings.ReplaceAll(k, "_", " "), summary[k])
	}
}

// localServer is the default job server URL for this config.
func (r *Runner) localServer() string {
	return fmt.Sprintf("http://127.0.0.1:%d", r.config.Server.Port)
}
