package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "driver", r.config.Database.Driver, "path", r.config.Database.Path)

	db, err := r.database()
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	statuses, err := shared.Migrations(db)
	if err != nil {
		return err
	}

	r.writePlainHeader("Migrations")
	for _, m := range statuses {
		applied := "pending"
		if m.AppliedAt != nil {
			applied = "applied " + humanize.Time(*m.AppliedAt)
		}
		r.writePlain("%04d %-28s %s\n", m.Version, m.Name, applied)
	}
	r.writePlainln("✓ Database ready at %s", r.config.Database.Path)
	return nil
}

// SetupConfig writes the example config to --path, or to the XDG config location.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		path = shared.DefaultConfigPath()
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	r.logger.Info("config file created", "path", path)

	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.spotify.client_id and client_secret (or SPOTIPY_CLIENT_ID / SPOTIPY_CLIENT_SECRET)\n")
	r.writePlain("2. Run 'spotsync auth' to authorize\n")
	r.writePlain("3. Run 'spotsync sync'\n")
	return nil
}
