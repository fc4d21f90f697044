package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotsync/internal/analysis"
	"github.com/desertthunder/spotsync/internal/jobs"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
)

// Library loads the cached snapshot. [repositories.SnapshotRepository] implements it.
type Library interface {
	Load(ctx context.Context) (*models.Snapshot, error)
}

// SyncFunc runs the sync pipeline for a POST /sync request.
type SyncFunc func(ctx context.Context, req models.SyncRequest, logger *log.Logger) (map[string]string, error)

// APIOptions wires an [API].
type APIOptions struct {
	Library     Library
	Jobs        *jobs.Registry
	Sync        SyncFunc
	Analysis    jobs.Func
	ProjectRoot string
	Logger      *log.Logger
}

// API serves the library views and the job endpoints.
type API struct {
	library     Library
	jobs        *jobs.Registry
	sync        SyncFunc
	analysis    jobs.Func
	projectRoot string
	logger      *log.Logger
}

func NewAPI(opts APIOptions) *API {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Jobs == nil {
		opts.Jobs = jobs.NewRegistry(nil, opts.Logger)
	}
	return &API{
		library:     opts.Library,
		jobs:        opts.Jobs,
		sync:        opts.Sync,
		analysis:    opts.Analysis,
		projectRoot: opts.ProjectRoot,
		logger:      opts.Logger,
	}
}

// Register adds every endpoint to the router.
func (a *API) Register(r Router) {
	r.Handle(http.MethodGet, "/health", http.HandlerFunc(a.health))
	r.Handle(http.MethodGet, "/library/stats", http.HandlerFunc(a.libraryStats))
	r.Handle(http.MethodGet, "/library/playlists", http.HandlerFunc(a.libraryPlaylists))
	r.Handle(http.MethodGet, "/library/playlist/{id}/tracks", http.HandlerFunc(a.playlistTracks))
	r.Handle(http.MethodGet, "/library/artists", http.HandlerFunc(a.libraryArtists))
	r.Handle(http.MethodPost, "/sync", http.HandlerFunc(a.startSync))
	r.Handle(http.MethodPost, "/analysis", http.HandlerFunc(a.startAnalysis))
	r.Handle(http.MethodGet, "/status/{task_id}", http.HandlerFunc(a.status))
	r.Handle(http.MethodGet, "/tasks", http.HandlerFunc(a.tasks))
}

// Jobs returns the registry the API starts jobs on.
func (a *API) Jobs() *jobs.Registry { return a.jobs }

type playlistView struct {
	ID         string `json:"playlist_id"`
	Name       string `json:"name"`
	TrackCount int    `json:"track_count"`
	IsOwned    bool   `json:"is_owned"`
}

type trackView struct {
	ID         string `json:"track_id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	DurationMS int    `json:"duration_ms"`
	Popularity int    `json:"popularity"`
}

type artistView struct {
	ID         string   `json:"artist_id"`
	Name       string   `json:"name"`
	Popularity int      `json:"popularity"`
	Genres     []string `json:"genres"`
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "project_root": a.projectRoot})
}

// snapshot loads the cache and writes the error response itself when it is unavailable.
func (a *API) snapshot(w http.ResponseWriter, r *http.Request) (*models.Snapshot, bool) {
	if a.library == nil {
		writeError(w, http.StatusNotFound, "Library data not found")
		return nil, false
	}
	snap, err := a.library.Load(r.Context())
	if err != nil {
		a.logger.Error("failed to load library", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if snap.Empty() {
		writeError(w, http.StatusNotFound, "Library data not found, run a sync first")
		return nil, false
	}
	return snap, true
}

func (a *API) libraryStats(w http.ResponseWriter, r *http.Request) {
	snap, ok := a.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analysis.ComputeStats(snap))
}

func (a *API) libraryPlaylists(w http.ResponseWriter, r *http.Request) {
	snap, ok := a.snapshot(w, r)
	if !ok {
		return
	}
	owned := analysis.OwnedPlaylists(snap)
	out := make([]playlistView, 0, len(owned))
	for _, p := range owned {
		out = append(out, playlistView{ID: p.ID, Name: p.Name, TrackCount: p.TrackCount, IsOwned: p.IsOwned})
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlists": out, "count": len(out)})
}

func (a *API) playlistTracks(w http.ResponseWriter, r *http.Request) {
	snap, ok := a.snapshot(w, r)
	if !ok {
		return
	}
	tracks := analysis.PlaylistTracks(snap, r.PathValue("id"))
	out := make([]trackView, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, trackView{ID: t.ID, Name: t.Name, Artist: t.Artist, DurationMS: t.DurationMS, Popularity: t.Popularity})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": out, "count": len(out)})
}

func (a *API) libraryArtists(w http.ResponseWriter, r *http.Request) {
	snap, ok := a.snapshot(w, r)
	if !ok {
		return
	}
	artists := analysis.Artists(snap)
	out := make([]artistView, 0, len(artists))
	for _, ar := range artists {
		genres := ar.Genres
		if genres == nil {
			genres = []string{}
		}
		out = append(out, artistView{ID: ar.ID, Name: ar.Name, Popularity: ar.Popularity, Genres: genres})
	}
	writeJSON(w, http.StatusOK, map[string]any{"artists": out, "count": len(out)})
}

func (a *API) startSync(w http.ResponseWriter, r *http.Request) {
	if a.sync == nil {
		writeError(w, http.StatusServiceUnavailable, shared.ErrServiceUnavailable.Error())
		return
	}

	var req models.SyncRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
	}

	id := a.jobs.Start(jobs.KindSync, func(ctx context.Context, logger *log.Logger) (map[string]string, error) {
		return a.sync(ctx, req, logger)
	})
	a.logger.Info("started job", "task", id, "skip_sync", req.SkipSync, "sync_only", req.SyncOnly, "all_months", req.AllMonths)
	writeJSON(w, http.StatusOK, models.TaskStarted{TaskID: id, Status: "started", Message: "Sync automation started"})
}

func (a *API) startAnalysis(w http.ResponseWriter, r *http.Request) {
	if a.analysis == nil {
		writeError(w, http.StatusServiceUnavailable, shared.ErrServiceUnavailable.Error())
		return
	}
	id := a.jobs.Start(jobs.KindAnalysis, a.analysis)
	a.logger.Info("started job", "task", id)
	writeJSON(w, http.StatusOK, models.TaskStarted{TaskID: id, Status: "started", Message: "Static analysis started"})
}

func (a *API) status(w http.ResponseWriter, r *http.Request) {
	task, err := a.jobs.Get(r.PathValue("task_id"))
	if errors.Is(err, shared.ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (a *API) tasks(w http.ResponseWriter, r *http.Request) {
	list := a.jobs.List()
	writeJSON(w, http.StatusOK, map[string]any{"tasks": list, "count": len(list)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
