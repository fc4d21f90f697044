package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/spotsync/internal/analysis"
	"github.com/desertthunder/spotsync/internal/formatter"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/desertthunder/spotsync/internal/tasks"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// Analysis prints the library report: stats, monthly playlists and liked-song genres.
func (r *Runner) Analysis(ctx context.Context, cmd *cli.Command) error {
	report, err := r.analyze(ctx, r.logger)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, cmd.Bool("pretty"))
	}

	r.writeStats(report.Stats)
	r.writePlainln("Monthly playlists (%d)", report.MonthlyPlaylistsCount)
	for _, name := range report.MonthlyPlaylists {
		r.writePlain("  %s\n", name)
	}
	r.writePlainln("Followed playlists: %d", report.FollowedPlaylistsCount)

	if len(report.GenreCounts) > 0 {
		r.writePlainln("Liked songs by genre")
		for _, g := range report.GenreCounts {
			r.writePlain("  %-16s %s\n", g.Genre, humanize.Comma(int64(g.Tracks)))
		}
	}
	return nil
}

// LibraryStats prints counts for the owned playlists in the cache.
func (r *Runner) LibraryStats(ctx context.Context, cmd *cli.Command) error {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return err
	}

	stats := analysis.ComputeStats(snap)
	if cmd.Bool("json") {
		return r.writeJSON(stats, cmd.Bool("pretty"))
	}

	r.writeStats(stats)
	if !snap.SyncedAt.IsZero() {
		r.writePlain("%-12s %s\n", "Synced", humanize.RelTime(snap.SyncedAt, time.Now(), "ago", "from now"))
	}
	return nil
}

func (r *Runner) writeStats(s analysis.Stats) {
	r.writePlainHeader("Library")
	r.writePlain("%-12s %s\n", "Tracks", humanize.Comma(int64(s.TotalTracks)))
	r.writePlain("%-12s %s\n", "Artists", humanize.Comma(int64(s.TotalArtists)))
	r.writePlain("%-12s %s\n", "Playlists", humanize.Comma(int64(s.TotalPlaylists)))
	r.writePlain("%-12s %s\n", "Hours", humanize.CommafWithDigits(s.TotalHours, 1))
	r.writePlain("%-12s %s\n", "Popularity", humanize.CommafWithDigits(s.AvgPopularity, 1))
}

// LibraryPlaylists lists owned playlists sorted by name.
func (r *Runner) LibraryPlaylists(ctx context.Context, cmd *cli.Command) error {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return err
	}

	playlists := analysis.OwnedPlaylists(snap)
	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	for _, p := range playlists {
		r.writePlain("%-24s %6d  %s\n", p.ID, p.TrackCount, p.Name)
	}
	r.writePlainln("%d playlists", len(playlists))
	return nil
}

// LibraryArtists lists cached artists with their genres.
func (r *Runner) LibraryArtists(ctx context.Context, cmd *cli.Command) error {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return err
	}

	artists := analysis.Artists(snap)
	if cmd.Bool("json") {
		return r.writeJSON(artists, cmd.Bool("pretty"))
	}

	for _, a := range artists {
		r.writePlain("%-32s %3d  %s\n", a.Name, a.Popularity, strings.Join(a.Genres, ", "))
	}
	r.writePlainln("%d artists", len(artists))
	return nil
}

// LibraryTracks lists the tracks of one cached playlist in position order.
func (r *Runner) LibraryTracks(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("playlist-id")
	if id == "" {
		return fmt.Errorf("%w: playlist-id", shared.ErrMissingArgument)
	}

	snap, err := r.snapshot(ctx)
	if err != nil {
		return err
	}

	playlist, ok := snap.Playlist(id)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}

	tracks := analysis.PlaylistTracks(snap, id)
	if cmd.Bool("json") {
		return r.writeJSON(models.PlaylistExport{Playlist: playlist, Tracks: tracks}, cmd.Bool("pretty"))
	}

	r.writePlainHeader(playlist.Name)
	for i, t := range tracks {
		r.writePlain("%3d. %s - %s [%s]\n", i+1, t.Artist, t.Name, formatter.FormatDuration(t.DurationMS))
	}
	return nil
}

// Export writes the snapshot tables, the analysis report and one file set per owned playlist.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.String("dir")
	if dir == "" {
		dir = filepath.Join(r.config.Sync.DataDir, "exports")
	}

	engine, err := r.engine(ctx, r.logger, false)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		logProgress(r.logger, progress)
	}()

	result, err := engine.Export(ctx, progress, tasks.ExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  dir,
		NumWorkers: cmd.Int("workers"),
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("✓ Exported %d/%d playlists to %s\n", result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
	r.writePlain("  Tables: %s\n", strings.Join(result.TableFiles, ", "))
	r.writePlain("  Report: %s\n", result.ReportFile)
	r.writePlain("  Manifest: %s\n", result.ManifestPath)
	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("✗ %s: %s\n", res.PlaylistName, res.Error)
		}
	}
	if result.FailedExports > 0 {
		return fmt.Errorf("%d playlist exports failed", result.FailedExports)
	}
	return nil
}
