package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/spotsync/internal/analysis"
	"github.com/desertthunder/spotsync/internal/formatter"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
)

const (
	defaultExportWorkers = 4
	maxExportWorkers     = 10
)

// ExportOpts configures [PlaylistEngine.Export].
type ExportOpts struct {
	Format     string // csv, markdown or txt
	OutputDir  string // default: spotsync_export_{epoch}
	NumWorkers int
}

// PlaylistExportResult is the outcome of writing one playlist.
type PlaylistExportResult struct {
	PlaylistID   string   `json:"playlist_id"`
	PlaylistName string   `json:"playlist_name"`
	Success      bool     `json:"success"`
	Files        []string `json:"files"`
	Error        string   `json:"error,omitempty"`
}

// ExportResult is written as export_manifest.json.
type ExportResult struct {
	Format            string                 `json:"format"`
	OutputDirectory   string                 `json:"output_directory"`
	SyncedAt          time.Time              `json:"synced_at"`
	TotalPlaylists    int                    `json:"total_playlists"`
	SuccessfulExports int                    `json:"successful_exports"`
	FailedExports     int                    `json:"failed_exports"`
	TableFiles        []string               `json:"table_files"`
	ReportFile        string                 `json:"report_file"`
	Results           []PlaylistExportResult `json:"results"`
	ManifestPath      string                 `json:"-"`
}

type exportJob struct {
	export *models.PlaylistExport
}

// Export writes the cached snapshot to disk: the snapshot tables, the analysis report and one export per owned
// playlist. Playlists are written by a small worker pool; per-playlist failures are recorded in the manifest.
func (e *PlaylistEngine) Export(ctx context.Context, prog chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	snap, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Empty() {
		return nil, shared.ErrEmptyCache
	}

	switch opts.Format {
	case "":
		opts.Format = "csv"
	case "csv", "markdown", "txt":
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("spotsync_export_%d", e.now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultExportWorkers
	}
	opts.NumWorkers = min(opts.NumWorkers, maxExportWorkers)

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	playlists := analysis.OwnedPlaylists(snap)
	result := &ExportResult{
		Format:          opts.Format,
		OutputDirectory: opts.OutputDir,
		SyncedAt:        snap.SyncedAt,
		TotalPlaylists:  len(playlists),
		Results:         make([]PlaylistExportResult, 0, len(playlists)),
	}

	result.TableFiles, err = formatter.WriteSnapshotTables(snap, filepath.Join(opts.OutputDir, "tables"))
	if err != nil {
		return result, err
	}

	report := analysis.Analyze(snap, e.namer)
	result.ReportFile = filepath.Join(opts.OutputDir, "report.md")
	if err := os.WriteFile(result.ReportFile, formatter.ReportToMarkdown(report, snap.SyncedAt), 0644); err != nil {
		return result, fmt.Errorf("failed to write report: %w", err)
	}

	jobs := make(chan exportJob, len(playlists))
	results := make(chan PlaylistExportResult, len(playlists))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for _, p := range playlists {
			select {
			case <-ctx.Done():
				return
			case jobs <- exportJob{export: &models.PlaylistExport{Playlist: p, Tracks: analysis.PlaylistTracks(snap, p.ID)}}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)
		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(playlists), res.PlaylistName, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(playlists), res.PlaylistName, res.Error))
		}
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteJSON(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	e.logger.Info("export finished", "dir", opts.OutputDir, "playlists", result.SuccessfulExports, "failed", result.FailedExports)
	return result, nil
}

// exportWorker writes playlists from the jobs channel until it closes or ctx is done.
func (e *PlaylistEngine) exportWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan exportJob, results chan<- PlaylistExportResult, opts ExportOpts) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		results <- exportPlaylist(job.export, opts)
	}
}

func exportPlaylist(export *models.PlaylistExport, opts ExportOpts) PlaylistExportResult {
	result := PlaylistExportResult{
		PlaylistID:   export.Playlist.ID,
		PlaylistName: export.Playlist.Name,
		Files:        []string{},
	}

	dir := filepath.Join(opts.OutputDir, "playlists")
	if err := os.MkdirAll(dir, 0755); err != nil {
		result.Error = err.Error()
		return result
	}
	base := filepath.Join(dir, safeFilename(export.Playlist.ID))

	switch opts.Format {
	case "markdown":
		path, err := formatter.WriteMarkdownExport(export, base)
		if err != nil {
			result.Error = fmt.Sprintf("markdown export failed: %v", err)
			return result
		}
		result.Files = []string{path}
	case "txt":
		path, err := formatter.WriteTextExport(export, base+"_tracks.txt")
		if err != nil {
			result.Error = fmt.Sprintf("text export failed: %v", err)
			return result
		}
		result.Files = []string{path}
	default:
		res, err := formatter.WriteCSVExport(export, base)
		if err != nil {
			result.Error = fmt.Sprintf("CSV export failed: %v", err)
			return result
		}
		result.Files = []string{res.TracksFile, res.MetadataFile}
	}
	result.Success = true
	return result
}

// safeFilename maps the liked songs pseudo id and any path separators to filesystem-friendly names.
func safeFilename(id string) string {
	if id == models.LikedSongsID {
		return "liked_songs"
	}
	out := []rune(id)
	for i, r := range out {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			out[i] = '_'
		}
	}
	return string(out)
}
