// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/spotsync/internal/ui"
	"github.com/urfave/cli/v3"
)

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func serverFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "Job server base URL (default: http://127.0.0.1:{server.port})",
		Sources: cli.EnvVars("SPOTSYNC_SERVER_URL"),
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "skip-sync",
			Usage: "Use the cached library instead of fetching it",
		},
		&cli.BoolFlag{
			Name:  "sync-only",
			Usage: "Refresh the cache without touching playlists",
		},
		&cli.BoolFlag{
			Name:  "all-months",
			Usage: "Build monthly playlists for every month of the current year",
		},
	}
}

// syncCommand runs the full pipeline under the file lock
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync the library and update automated playlists",
		Flags: append(runFlags(),
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Refetch every playlist and artist, ignoring snapshot ids",
			},
		),
		Action: r.Sync,
	}
}

// serveCommand starts the job server for the mobile and web clients
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the job status HTTP server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides server.port)",
			},
		},
		Action: r.Serve,
	}
}

func analysisCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "analysis",
		Usage:  "Summarise the cached library",
		Flags:  jsonFlags(),
		Action: r.Analysis,
	}
}

// libraryCommand reads views of the cached library
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Browse the cached library",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show library statistics",
				Flags:  jsonFlags(),
				Action: r.LibraryStats,
			},
			{
				Name:   "playlists",
				Usage:  "List owned playlists",
				Flags:  jsonFlags(),
				Action: r.LibraryPlaylists,
			},
			{
				Name:   "artists",
				Usage:  "List artists with their genres",
				Flags:  jsonFlags(),
				Action: r.LibraryArtists,
			},
			{
				Name:  "tracks",
				Usage: "List the tracks of a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name:      "playlist-id",
						UsageText: "Playlist ID (__liked_songs__ for liked songs)",
					},
				},
				Flags:  jsonFlags(),
				Action: r.LibraryTracks,
			},
		},
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the cached library as tables, a report and per-playlist files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "Playlist file format: csv, markdown or txt",
				Value: "csv",
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: {data_dir}/exports)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of concurrent playlist writers",
				Value: 4,
			},
		},
		Action: r.Export,
	}
}

// authCommand runs the OAuth2 authorization code flow
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize with Spotify and store the token",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "browser",
				Usage: "Use the browser flow even when a refresh token is configured",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser callback",
				Value: authTimeout,
			},
		},
		Action: r.Auth,
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and the database",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the cache database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write an example config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Where to write the config (default: the XDG config dir)",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// watchCommand polls a job until it finishes
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Follow a job on the server in a terminal view",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "task-id",
			},
		},
		Flags: []cli.Flag{
			serverFlag(),
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Polling interval",
				Value: ui.DefaultPollInterval,
			},
		},
		Action: r.Watch,
	}
}

// remoteCommand starts jobs on a running server
func remoteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "remote",
		Usage: "Start and list jobs on a running server",
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Usage:  "Start a sync job",
				Flags:  append(runFlags(), serverFlag()),
				Action: r.RemoteSync,
			},
			{
				Name:   "analysis",
				Usage:  "Start an analysis job",
				Flags:  []cli.Flag{serverFlag()},
				Action: r.RemoteAnalysis,
			},
			{
				Name:   "tasks",
				Usage:  "List jobs known to the server",
				Flags:  append(jsonFlags(), serverFlag()),
				Action: r.RemoteTasks,
			},
		},
	}
}
