package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnv(".env"); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})
	err := newApp(runner).Run(ctx, os.Args)
	stop()
	os.Exit(exitCode(logger, err))
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "spotsync",
		Usage:     "Sync a Spotify library and keep automated playlists up to date",
		Version:   "0.1.0",
		Writer:    r.output,
		ErrWriter: r.logOutput,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (default: ./config.toml, then the XDG config dir)",
				Sources: cli.EnvVars("SPOTSYNC_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.load,
		After:    r.close,
		Commands: r.register(),
	}
}

// exitCode maps a command error to the process exit status.
//
// A held sync lock means another run is in progress, which is not a failure for cron.
func exitCode(logger *log.Logger, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, shared.ErrLockHeld):
		logger.Warn("sync already running, skipping", "error", err)
		return 0
	default:
		logger.Error("application error", "error", err)
		return 1
	}
}
